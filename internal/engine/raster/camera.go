package raster

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/cubekit/internal/engine/model"
)

// Camera is an orthographic camera on +Z looking toward the origin.
type Camera struct {
	Yaw    float32 // Degrees around Y
	Pitch  float32 // Degrees around X, positive looks down on the model
	Margin float32 // Fraction of the image left empty on each side
}

// View maps model space to pixel space for one frame.
type View struct {
	Rotation mgl32.Mat4 // Model to view rotation, used for normals
	Screen   mgl32.Mat4 // Model to pixel space
}

func (c Camera) rotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(mgl32.DegToRad(c.Pitch)).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(c.Yaw)))
}

// Fit frames the bounds tightly for this camera angle.
func (c Camera) Fit(b model.Bounds, size int) View {
	rot := c.rotation()

	lo := mgl32.Vec2{inf32, inf32}
	hi := mgl32.Vec2{-inf32, -inf32}
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		p := mgl32.TransformCoordinate(corner, rot)
		lo = mgl32.Vec2{min(lo[0], p[0]), min(lo[1], p[1])}
		hi = mgl32.Vec2{max(hi[0], p[0]), max(hi[1], p[1])}
	}

	center := lo.Add(hi).Mul(0.5)
	span := max(hi[0]-lo[0], hi[1]-lo[1])
	return c.view(rot, center, span, size)
}

// FitSphere frames the bounding sphere of b, so the framing holds for any yaw.
func (c Camera) FitSphere(b model.Bounds, size int) View {
	rot := c.rotation()
	mid := b.Center()
	ext := b.Size()
	p := mgl32.TransformCoordinate(mgl32.Vec3{mid[0], mid[1], mid[2]}, rot)
	diameter := mgl32.Vec3{ext[0], ext[1], ext[2]}.Len()
	return c.view(rot, mgl32.Vec2{p[0], p[1]}, diameter, size)
}

func (c Camera) view(rot mgl32.Mat4, center mgl32.Vec2, span float32, size int) View {
	if span < 1e-3 {
		span = 1e-3
	}
	half := float32(size) / 2
	scale := float32(size) * (1 - 2*c.Margin) / span

	screen := mgl32.Translate3D(half, half, 0).
		Mul4(mgl32.Scale3D(scale, -scale, scale)).
		Mul4(mgl32.Translate3D(-center[0], -center[1], 0)).
		Mul4(rot)
	return View{Rotation: rot, Screen: screen}
}

const inf32 = float32(3.4e38)
