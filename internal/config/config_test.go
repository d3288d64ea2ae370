package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Render.Size != 256 {
		t.Errorf("expected size 256, got %d", cfg.Render.Size)
	}
	if cfg.Render.Supersample != 2 {
		t.Errorf("expected supersample 2, got %d", cfg.Render.Supersample)
	}
	if cfg.Render.FPS != 20 {
		t.Errorf("expected fps 20, got %d", cfg.Render.FPS)
	}
	if cfg.Animation.Loop != LoopAuto {
		t.Errorf("expected loop mode auto, got %s", cfg.Animation.Loop)
	}
	if cfg.Export.Generator != "cubekit" {
		t.Errorf("expected generator cubekit, got %s", cfg.Export.Generator)
	}
	if cfg.Batch.Format != "webp" {
		t.Errorf("expected batch format webp, got %s", cfg.Batch.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "cubetool.yaml")

	yamlContent := `
render:
  size: 512
  supersample: 4
  yaw: 90
  background: "#ffffff"
  fps: 30

animation:
  default_clip: walk
  loop: never
  queries:
    modified_move_speed: 0.7

export:
  generator: "mytool"

batch:
  workers: 3
  format: glb

logging:
  level: "debug"
  log_file: "cubetool.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Render.Size != 512 || cfg.Render.Supersample != 4 || cfg.Render.FPS != 30 {
		t.Errorf("unexpected render config %+v", cfg.Render)
	}
	if cfg.Render.Yaw != 90 {
		t.Errorf("expected yaw 90, got %g", cfg.Render.Yaw)
	}
	// Untouched keys keep their defaults
	if cfg.Render.Pitch != 25 {
		t.Errorf("expected default pitch 25, got %g", cfg.Render.Pitch)
	}
	if cfg.Animation.DefaultClip != "walk" {
		t.Errorf("expected default clip walk, got %s", cfg.Animation.DefaultClip)
	}
	if cfg.Animation.Queries["modified_move_speed"] != 0.7 {
		t.Errorf("expected query override, got %v", cfg.Animation.Queries)
	}
	if loop, ok := cfg.Animation.LoopOverride(); !ok || loop {
		t.Errorf("expected forced non-looping, got loop=%v ok=%v", loop, ok)
	}
	if cfg.Export.Generator != "mytool" {
		t.Errorf("expected generator mytool, got %s", cfg.Export.Generator)
	}
	if cfg.Batch.Workers != 3 || cfg.Batch.Format != "glb" {
		t.Errorf("unexpected batch config %+v", cfg.Batch)
	}
	if cfg.Logging.LogFile != "cubetool.log" {
		t.Errorf("expected log file 'cubetool.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
render:
  size: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Render.Size = 0
	cfg.Render.Supersample = 16
	cfg.Animation.Loop = "sometimes"
	cfg.Batch.Format = "gif"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"render.size", "render.supersample", "animation.loop", "batch.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestLoopOverride(t *testing.T) {
	tests := []struct {
		mode     string
		wantLoop bool
		wantOK   bool
	}{
		{LoopAuto, false, false},
		{LoopAlways, true, true},
		{LoopNever, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			loop, ok := AnimationConfig{Loop: tt.mode}.LoopOverride()
			if loop != tt.wantLoop || ok != tt.wantOK {
				t.Errorf("got (%v, %v), want (%v, %v)", loop, ok, tt.wantLoop, tt.wantOK)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "cubetool.yaml"), []byte("render:\n  size: 64\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find cubetool.yaml in current directory")
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "debug",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "render overrides",
			args: []string{"-size", "128", "-ss", "3", "-fps", "12"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Size != 128 || cfg.Render.Supersample != 3 || cfg.Render.FPS != 12 {
					t.Errorf("unexpected render config %+v", cfg.Render)
				}
			},
		},
		{
			name: "batch overrides",
			args: []string{"-workers", "8", "-format", "glb", "-loop", "always"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Batch.Workers != 8 || cfg.Batch.Format != "glb" {
					t.Errorf("unexpected batch config %+v", cfg.Batch)
				}
				if cfg.Animation.Loop != LoopAlways {
					t.Errorf("expected loop always, got %s", cfg.Animation.Loop)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Size != Default().Render.Size {
					t.Errorf("size changed without a flag: %d", cfg.Render.Size)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flags
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f.Bind(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse failed: %v", err)
			}

			cfg := Default()
			f.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "cubetool.yaml")

	yamlContent := `
render:
  size: 300
  fps: 15
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{Config: configPath, Size: 1024})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Size from flag, fps from file
	if cfg.Render.Size != 1024 {
		t.Errorf("expected size 1024 from flag, got %d", cfg.Render.Size)
	}
	if cfg.Render.FPS != 15 {
		t.Errorf("expected fps 15 from file, got %d", cfg.Render.FPS)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(&Flags{Config: "/nonexistent/cubetool.yaml"})
	if err == nil {
		t.Error("expected error for missing explicit config")
	}

	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(&Flags{Loop: "bogus"}); err == nil {
		t.Error("expected invalid loop mode to be rejected")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cubetool.yaml")

	cfg := Default()
	cfg.Render.Size = 640
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Render.Size != 640 {
		t.Errorf("expected saved size 640, got %d", loaded.Render.Size)
	}
}
