package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/cubekit/internal/engine/raster"
	"github.com/Faultbox/cubekit/internal/export"
	"github.com/Faultbox/cubekit/internal/molang"
	"github.com/Faultbox/cubekit/pkg/formats"
)

const testGeometry = `{"format_version":"1.12.0","minecraft:geometry":[{
	"description":{"identifier":"geometry.blob","texture_width":32,"texture_height":32},
	"bones":[
		{"name":"body","pivot":[0,0,0],"cubes":[{"origin":[-4,0,-4],"size":[8,8,8],"uv":[0,0]}]},
		{"name":"head","parent":"body","pivot":[0,8,0],"cubes":[{"origin":[-2,8,-2],"size":[4,4,4]}]}
	]
}]}`

const testAnimations = `{"format_version":"1.8.0","animations":{
	"animation.blob.nod":{"loop":true,"bones":{"head":{"rotation":{"0":[0,0,0],"0.5":[20,0,0],"1":[0,0,0]}}}},
	"animation.blob.spin":{"loop":true,"bones":{"body":{"rotation":[0,"query.anim_time*90",0]}}},
	"animation.blob.broken":{"bones":{"head":{"rotation":["query.nope(",0,0]}}}
}}`

func testConfig(t *testing.T, format string) Config {
	t.Helper()
	geo, err := formats.ParseGeometry([]byte(testGeometry))
	if err != nil {
		t.Fatalf("ParseGeometry failed: %v", err)
	}
	anims, err := formats.ParseAnimations([]byte(testAnimations))
	if err != nil {
		t.Fatalf("ParseAnimations failed: %v", err)
	}
	opts := raster.DefaultOptions()
	opts.Size = 16
	opts.Supersample = 1
	return Config{
		Geometry:   geo,
		Animations: anims,
		Evaluator:  molang.NewEngine(),
		OutputDir:  t.TempDir(),
		Format:     format,
		Workers:    2,
		Render:     opts,
		Camera:     raster.Camera{Margin: 0.1},
		Clip:       raster.ClipOptions{FPS: 4, MaxFrames: 8},
		Export:     export.Options{Generator: "test", Scale: 16},
	}
}

func TestRun_WebP(t *testing.T) {
	cfg := testConfig(t, FormatWebP)
	clips := []string{"animation.blob.nod", "spin", "animation.blob.broken", "missing"}

	results := Run(context.Background(), cfg, clips)
	if len(results) != len(clips) {
		t.Fatalf("expected %d results, got %d", len(clips), len(results))
	}

	for i, want := range []bool{true, true, false, false} {
		r := results[i]
		if r.Clip != clips[i] {
			t.Errorf("result %d out of order: %q", i, r.Clip)
		}
		if r.Success != want {
			t.Errorf("%s: success=%v (%s), want %v", r.Clip, r.Success, r.Error, want)
		}
	}

	nod := results[0]
	if nod.Frames != 4 || nod.Duration != 1 {
		t.Errorf("unexpected nod result %+v", nod)
	}
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, nod.File))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if string(data[:4]) != "RIFF" {
		t.Error("output is not a WebP file")
	}
}

func TestRun_GLB(t *testing.T) {
	cfg := testConfig(t, FormatGLB)
	cfg.PoseTime = 0.5

	results := Run(context.Background(), cfg, []string{"nod"})
	if !results[0].Success {
		t.Fatalf("export failed: %s", results[0].Error)
	}
	if results[0].File != "nod.glb" {
		t.Errorf("unexpected file name %q", results[0].File)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "nod.glb")); err != nil {
		t.Errorf("glb missing: %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, testConfig(t, FormatWebP), []string{"nod", "spin"})
	for _, r := range results {
		if r.Success || r.Error == "" {
			t.Errorf("cancelled run should not succeed: %+v", r)
		}
	}
}

func TestRun_Empty(t *testing.T) {
	if results := Run(context.Background(), Config{}, nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		clip, format, want string
	}{
		{"animation.blob.nod", "webp", "animation.blob.nod.webp"},
		{"animation/odd name:1", "glb", "animation_odd_name_1.glb"},
	}
	for _, tt := range tests {
		if got := FileName(tt.clip, tt.format); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.clip, got, tt.want)
		}
	}
}

func TestManifest(t *testing.T) {
	results := []Result{
		{Clip: "animation.blob.nod", File: "animation.blob.nod.webp", Frames: 4, Duration: 1, Success: true},
		{Clip: "animation.blob.broken", File: "animation.blob.broken.webp", Error: "bad expression"},
	}
	m := NewManifest("geometry.blob", FormatWebP, results)

	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := m.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var got Manifest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid manifest json: %v", err)
	}
	if got.Model != "geometry.blob" || len(got.Entries) != 2 {
		t.Fatalf("unexpected manifest %+v", got)
	}
	if got.Entries[0].Short != "nod" || got.Entries[0].File == "" {
		t.Errorf("unexpected first entry %+v", got.Entries[0])
	}
	if got.Entries[1].File != "" || got.Entries[1].Error == "" {
		t.Errorf("failed entry should carry only the error, got %+v", got.Entries[1])
	}
}
