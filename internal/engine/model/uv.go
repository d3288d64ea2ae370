package model

import (
	"github.com/Faultbox/cubekit/pkg/formats"
	"github.com/Faultbox/cubekit/pkg/math"
)

// pixelRect is a face region in atlas pixels. Y grows downwards and
// y1 may be smaller than y0 for faces authored upside down.
type pixelRect struct {
	x0, y0, x1, y1 float32
}

// unfold returns the pixel regions of the six faces for a box of size s at offset o.
func unfold(o math.Vec2, s math.Vec3) [FaceCount]pixelRect {
	ox, oy := o.X, o.Y
	sx, sy, sz := s.X, s.Y, s.Z
	return [FaceCount]pixelRect{
		FaceRight:  {ox + sx + 2*sz, oy + sz, ox + 2*sx + 2*sz, oy + sz + sy},
		FaceFront:  {ox + sz, oy + sz, ox + sz + sx, oy + sz + sy},
		FaceLeft:   {ox + sz + sx, oy + sz, ox + 2*sz + sx, oy + sz + sy},
		FaceBack:   {ox, oy + sz, ox + sz, oy + sz + sy},
		FaceTop:    {ox + sz, oy, ox + sz + sx, oy + sz},
		FaceBottom: {ox + sz + sx, oy + sz, ox + sz + 2*sx, oy},
	}
}

// Unwrap maps a box of the given size onto the atlas with the cross-unfold layout.
// Size components <= 0 are clamped to MinThickness so every face keeps a positive area.
// The result is normalized with v measured from the bottom edge.
func Unwrap(offset math.Vec2, size math.Vec3, atlasW, atlasH float32) FaceUVs {
	var uvs FaceUVs
	for f, r := range unfold(offset, size.ClampMin(MinThickness)) {
		uv := FaceUV{
			U0: r.x0 / atlasW,
			U1: r.x1 / atlasW,
			V0: (atlasH - r.y1) / atlasH,
			V1: (atlasH - r.y0) / atlasH,
		}
		if uv.U0 > uv.U1 {
			uv.U0, uv.U1 = uv.U1, uv.U0
			uv.FlipU = true
		}
		if uv.V0 > uv.V1 {
			uv.V0, uv.V1 = uv.V1, uv.V0
			uv.FlipV = true
		}
		uvs[f] = uv
	}
	return uvs
}

// UnwrapCuboid returns the face UVs of a cuboid, or nil when the cuboid has no atlas
// offset or the geometry has no atlas size. Mirrored cuboids flip their side faces.
func UnwrapCuboid(c *formats.CuboidSpec, geo *formats.Geometry) *FaceUVs {
	if c.UV == nil || !geo.HasAtlas() {
		return nil
	}
	uvs := Unwrap(c.UV.Vec(), c.Size.Vec(), geo.TextureWidth, geo.TextureHeight)
	if c.Mirror {
		for _, f := range []Face{FaceRight, FaceFront, FaceLeft, FaceBack} {
			uvs[f].FlipU = !uvs[f].FlipU
		}
	}
	return &uvs
}
