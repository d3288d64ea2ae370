// Package config handles cubetool configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// Config holds all cubetool settings.
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Animation AnimationConfig `yaml:"animation"`
	Export    ExportConfig    `yaml:"export"`
	Batch     BatchConfig     `yaml:"batch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RenderConfig holds preview renderer settings.
type RenderConfig struct {
	Size        int     `yaml:"size"`        // Output width and height in pixels
	Supersample int     `yaml:"supersample"` // Render at Size*Supersample, then downscale
	Yaw         float32 `yaml:"yaw"`         // Camera yaw in degrees
	Pitch       float32 `yaml:"pitch"`       // Camera pitch in degrees
	Turntable   float32 `yaml:"turntable"`   // Extra yaw per second for animated output
	Background  string  `yaml:"background"`  // #rrggbb or #rrggbbaa
	FPS         int     `yaml:"fps"`
	MaxFrames   int     `yaml:"max_frames"`
}

// Loop modes for AnimationConfig.Loop.
const (
	LoopAuto   = "auto" // Use the clip's own loop flag
	LoopAlways = "always"
	LoopNever  = "never"
)

// AnimationConfig holds playback settings.
type AnimationConfig struct {
	DefaultClip string             `yaml:"default_clip"`
	Loop        string             `yaml:"loop"`
	Queries     map[string]float64 `yaml:"queries"` // Extra query.* values for expressions
}

// LoopOverride returns the forced loop flag, or ok=false when the clip decides.
func (a AnimationConfig) LoopOverride() (loop bool, ok bool) {
	switch a.Loop {
	case LoopAlways:
		return true, true
	case LoopNever:
		return false, true
	}
	return false, false
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	Generator string  `yaml:"generator"`
	Scale     float32 `yaml:"scale"` // Model units per exported unit
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Workers int    `yaml:"workers"` // 0 means one per CPU
	Format  string `yaml:"format"`  // webp or glb
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Size:        256,
			Supersample: 2,
			Yaw:         145, // Model front (-Z) toward the camera
			Pitch:       25,
			Turntable:   0,
			Background:  "#00000000",
			FPS:         20,
			MaxFrames:   200,
		},
		Animation: AnimationConfig{
			Loop: LoopAuto,
		},
		Export: ExportConfig{
			Generator: "cubekit",
			Scale:     16,
		},
		Batch: BatchConfig{
			Workers: 0,
			Format:  "webp",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	if c.Render.Size <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("render.size must be positive, got %d", c.Render.Size))
	}
	if c.Render.Supersample < 1 || c.Render.Supersample > 8 {
		errs = multierr.Append(errs, fmt.Errorf("render.supersample must be in 1..8, got %d", c.Render.Supersample))
	}
	if c.Render.FPS <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS))
	}
	if c.Render.MaxFrames <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("render.max_frames must be positive, got %d", c.Render.MaxFrames))
	}
	switch c.Animation.Loop {
	case LoopAuto, LoopAlways, LoopNever:
	default:
		errs = multierr.Append(errs, fmt.Errorf("animation.loop must be auto, always or never, got %q", c.Animation.Loop))
	}
	if c.Export.Scale <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("export.scale must be positive, got %g", c.Export.Scale))
	}
	if c.Batch.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers))
	}
	switch c.Batch.Format {
	case "webp", "glb":
	default:
		errs = multierr.Append(errs, fmt.Errorf("batch.format must be webp or glb, got %q", c.Batch.Format))
	}
	return errs
}
