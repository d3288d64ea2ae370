package raster

import (
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/cubekit/internal/engine/animation"
	"github.com/Faultbox/cubekit/internal/engine/model"
	"github.com/Faultbox/cubekit/internal/logger"
)

// ClipOptions controls frame sampling for RenderClip.
type ClipOptions struct {
	FPS       int
	MaxFrames int
	Turntable float32 // Degrees of yaw added per second
}

// FrameCount returns how many frames cover duration at fps, capped at maxFrames.
// Non-looping clips get one extra frame so the final pose is shown.
func FrameCount(duration float64, fps, maxFrames int, loop bool) int {
	n := int(math.Round(duration * float64(fps)))
	if !loop {
		n++
	}
	n = max(n, 1)
	if maxFrames > 0 {
		n = min(n, maxFrames)
	}
	return n
}

// RenderClip plays p from the start and renders one image per frame.
// All frames share one framing so the model does not jump between them.
func (r *Renderer) RenderClip(sk *model.Skeleton, p *animation.Player, cam Camera, opts ClipOptions) ([]*image.NRGBA, error) {
	if opts.FPS <= 0 {
		opts.FPS = 20
	}
	duration := p.Duration()
	if duration <= 0 && opts.Turntable != 0 {
		duration = 360 / math.Abs(float64(opts.Turntable))
	}
	n := FrameCount(duration, opts.FPS, opts.MaxFrames, p.Loop())
	dt := 1 / float64(opts.FPS)

	// Bake every frame first to find the union bounds
	meshes := make([]*model.Mesh, n)
	var bounds model.Bounds
	for i := range meshes {
		var err error
		if i == 0 {
			err = p.Seek(0)
		} else {
			err = p.Advance(dt)
		}
		if err != nil {
			return nil, err
		}
		meshes[i] = model.BuildMesh(sk)
		bounds = unionBounds(bounds, meshes[i].Bounds, i == 0)
	}

	frames := make([]*image.NRGBA, n)
	for i, mesh := range meshes {
		c := cam
		c.Yaw += opts.Turntable * float32(float64(i)*dt)
		var view View
		if opts.Turntable != 0 {
			view = c.FitSphere(bounds, r.RenderSize())
		} else {
			view = c.Fit(bounds, r.RenderSize())
		}
		frames[i] = r.Render(mesh, view)
	}

	logger.Debug("clip rendered",
		zap.String("clip", p.Clip().Name),
		zap.Int("frames", n),
		zap.Float64("duration", duration))

	return frames, nil
}

func unionBounds(a, b model.Bounds, first bool) model.Bounds {
	if first {
		return b
	}
	for k := 0; k < 3; k++ {
		a.Min[k] = min(a.Min[k], b.Min[k])
		a.Max[k] = max(a.Max[k], b.Max[k])
	}
	return a
}
