package raster

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/cubekit/internal/engine/model"
)

// Options configures a Renderer.
type Options struct {
	Size        int // Output width and height
	Supersample int // Internal resolution multiplier
	Background  color.NRGBA
	Untextured  color.NRGBA // Color of cubes without UVs or when no atlas is loaded
	Light       LightConfig
}

// DefaultOptions returns a 256px transparent render with 2x supersampling.
func DefaultOptions() Options {
	return Options{
		Size:        256,
		Supersample: 2,
		Untextured:  color.NRGBA{R: 160, G: 160, B: 170, A: 255},
		Light:       DefaultLightConfig(),
	}
}

// Renderer draws baked meshes. It holds no per-frame state and may be shared
// across goroutines.
type Renderer struct {
	opts  Options
	atlas *image.NRGBA
}

// NewRenderer creates a renderer. atlas may be nil.
func NewRenderer(opts Options, atlas *image.NRGBA) *Renderer {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	return &Renderer{opts: opts, atlas: atlas}
}

// RenderSize is the internal framebuffer size.
func (r *Renderer) RenderSize() int {
	return r.opts.Size * r.opts.Supersample
}

// Still renders the skeleton's current pose, framed to fit.
func (r *Renderer) Still(sk *model.Skeleton, cam Camera) *image.NRGBA {
	mesh := model.BuildMesh(sk)
	return r.Render(mesh, cam.Fit(mesh.Bounds, r.RenderSize()))
}

// Render draws mesh with a view fitted to RenderSize and returns an image of Size.
func (r *Renderer) Render(mesh *model.Mesh, view View) *image.NRGBA {
	rs := r.RenderSize()
	fb := NewFrameBuffer(rs, rs)
	fb.Clear(r.opts.Background)

	verts := make([]screenVertex, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		p := mgl32.TransformCoordinate(mgl32.Vec3{v.Position[0], v.Position[1], v.Position[2]}, view.Screen)
		verts[i] = screenVertex{x: p[0], y: p[1], z: p[2], u: v.TexCoord[0], v: v.TexCoord[1]}
	}

	lc := r.opts.Light
	for _, g := range mesh.Groups {
		var tex *image.NRGBA
		if g.Textured {
			tex = r.atlas
		}
		end := g.StartIndex + g.IndexCount
		for i := g.StartIndex; i+2 < end; i += 3 {
			i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
			n := mesh.Vertices[i0].Normal
			vn := mgl32.TransformNormal(mgl32.Vec3{n[0], n[1], n[2]}, view.Rotation)
			shade := lc.ComputeShade(vn)
			rasterizeTriangle(fb, verts[i0], verts[i1], verts[i2], tex, r.opts.Untextured, shade)
		}
	}

	img := fb.Image()
	if r.opts.Supersample > 1 {
		img = Downsample(img, r.opts.Size)
	}
	return img
}
