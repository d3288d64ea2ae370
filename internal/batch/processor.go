// Package batch renders or exports every clip of an animation document in parallel.
package batch

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/cubekit/internal/engine/animation"
	"github.com/Faultbox/cubekit/internal/engine/model"
	"github.com/Faultbox/cubekit/internal/engine/raster"
	"github.com/Faultbox/cubekit/internal/export"
	"github.com/Faultbox/cubekit/internal/logger"
	"github.com/Faultbox/cubekit/internal/molang"
	"github.com/Faultbox/cubekit/pkg/formats"
)

// Output formats.
const (
	FormatWebP = "webp"
	FormatGLB  = "glb"
)

// Config holds the shared, read-only inputs of a batch run.
type Config struct {
	Geometry   *formats.Geometry
	Animations *formats.AnimationDocument
	Atlas      *image.NRGBA // May be nil
	Evaluator  molang.Evaluator
	OutputDir  string
	Format     string
	Workers    int

	Render    raster.Options
	Camera    raster.Camera
	Clip      raster.ClipOptions
	Export    export.Options
	PoseTime  float64 // Clip time exported to glb
	Loop      *bool   // Overrides each clip's loop flag when set
	Queries   map[string]float64
	Progress  time.Duration // Interval between progress logs, 0 disables
}

// Result holds the outcome of one clip.
type Result struct {
	Clip     string
	File     string
	Frames   int
	Duration float64
	Success  bool
	Error    string
}

// Run processes clips with a worker pool. Each job builds its own skeleton, so
// no pose is ever shared between goroutines. Results keep the order of clips.
func Run(ctx context.Context, cfg Config, clips []string) []Result {
	total := len(clips)
	results := make([]Result, total)
	if total == 0 {
		return results
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, total)

	log := logger.Named("batch")
	renderer := raster.NewRenderer(cfg.Render, cfg.Atlas)

	var processed atomic.Int64
	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					log.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("clips_per_sec", float64(p)/time.Since(start).Seconds()))
				}
			}
		}()
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Clip: clips[idx], Error: err.Error()}
				} else {
					results[idx] = processClip(cfg, renderer, clips[idx])
				}
				processed.Add(1)
			}
		}()
	}

	for i := range clips {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	log.Info("batch finished",
		zap.Int("clips", total),
		zap.Int("failed", countFailed(results)),
		zap.Duration("elapsed", time.Since(start)))

	return results
}

func processClip(cfg Config, renderer *raster.Renderer, name string) Result {
	res := Result{Clip: name}
	fail := func(err error) Result {
		res.Error = err.Error()
		logger.Named("batch").Warn("clip failed", zap.String("clip", name), zap.Error(err))
		return res
	}

	sk, err := model.BuildSkeleton(cfg.Geometry)
	if err != nil {
		return fail(err)
	}
	p, err := animation.NewPlayer(sk, cfg.Animations, name, cfg.Evaluator)
	if err != nil {
		return fail(err)
	}
	if cfg.Loop != nil {
		p.SetLoop(*cfg.Loop)
	}
	for k, v := range cfg.Queries {
		p.SetQuery(k, v)
	}
	res.Duration = p.Duration()

	format := cfg.Format
	if format == "" {
		format = FormatWebP
	}
	res.File = FileName(name, format)
	path := filepath.Join(cfg.OutputDir, res.File)

	switch format {
	case FormatWebP:
		frames, err := renderer.RenderClip(sk, p, cfg.Camera, cfg.Clip)
		if err != nil {
			return fail(err)
		}
		res.Frames = len(frames)
		fps := cfg.Clip.FPS
		if fps <= 0 {
			fps = 20
		}
		err = raster.WriteFile(path, func(w io.Writer) error {
			return raster.EncodeAnimation(w, frames, fps, p.Loop(), cfg.Render.Background)
		})
		if err != nil {
			return fail(err)
		}
	case FormatGLB:
		if err := p.Seek(cfg.PoseTime); err != nil {
			return fail(err)
		}
		if err := export.WriteGLB(path, sk, cfg.Export); err != nil {
			return fail(err)
		}
		res.Frames = 1
	default:
		return fail(fmt.Errorf("unknown format %q", format))
	}

	res.Success = true
	return res
}

// FileName returns a filesystem-safe output name for a clip.
func FileName(clip, format string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, clip)
	return safe + "." + format
}

func countFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
