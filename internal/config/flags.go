package config

import "flag"

// Flags holds command-line overrides. Zero values leave the config untouched.
type Flags struct {
	Config      string
	Debug       bool
	LogFile     string
	Size        int
	Supersample int
	FPS         int
	Workers     int
	Loop        string
	Format      string
}

// Bind registers the override flags on fs.
func (f *Flags) Bind(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log", "", "Write logs to this file")
	fs.IntVar(&f.Size, "size", 0, "Output size in pixels")
	fs.IntVar(&f.Supersample, "ss", 0, "Supersampling factor")
	fs.IntVar(&f.FPS, "fps", 0, "Frames per second for animated output")
	fs.IntVar(&f.Workers, "workers", 0, "Batch worker count")
	fs.StringVar(&f.Loop, "loop", "", "Loop mode: auto, always or never")
	fs.StringVar(&f.Format, "format", "", "Batch output format: webp or glb")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Size > 0 {
		cfg.Render.Size = f.Size
	}
	if f.Supersample > 0 {
		cfg.Render.Supersample = f.Supersample
	}
	if f.FPS > 0 {
		cfg.Render.FPS = f.FPS
	}
	if f.Workers > 0 {
		cfg.Batch.Workers = f.Workers
	}
	if f.Loop != "" {
		cfg.Animation.Loop = f.Loop
	}
	if f.Format != "" {
		cfg.Batch.Format = f.Format
	}
}
