package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/cubekit/pkg/math"
)

// Matrix returns Translate * Rx * Ry * Rz * Scale.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position.X, t.Position.Y, t.Position.Z)
	m = m.Mul4(mgl32.HomogRotate3DX(t.Rotation.X))
	m = m.Mul4(mgl32.HomogRotate3DY(t.Rotation.Y))
	m = m.Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z))
	return m.Mul4(mgl32.Scale3D(t.Scale.X, t.Scale.Y, t.Scale.Z))
}

// Quat returns the rotation part of the transform as a quaternion.
func (t Transform) Quat() mgl32.Quat {
	return mgl32.Mat4ToQuat(mgl32.HomogRotate3DX(t.Rotation.X).
		Mul4(mgl32.HomogRotate3DY(t.Rotation.Y)).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z)))
}

// WorldMatrix composes the current transforms from the root down to b.
func (s *Skeleton) WorldMatrix(b *Bone) mgl32.Mat4 {
	m := b.Transform.Matrix()
	for p := b.Parent; p != nil; p = p.Parent {
		m = p.Transform.Matrix().Mul4(m)
	}
	return m
}

// WorldMatrices returns the world matrix of every bone, indexed by Bone.Index.
// Each matrix is computed once by walking down from the root.
func (s *Skeleton) WorldMatrices() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.bones))
	var walk func(b *Bone, parent mgl32.Mat4)
	walk = func(b *Bone, parent mgl32.Mat4) {
		out[b.Index] = parent.Mul4(b.Transform.Matrix())
		for _, c := range b.Children {
			walk(c, out[b.Index])
		}
	}
	walk(s.root, mgl32.Ident4())
	return out
}

// WorldPosition returns the origin of b in model space.
func (s *Skeleton) WorldPosition(b *Bone) math.Vec3 {
	p := s.WorldMatrix(b).Col(3)
	return math.Vec3{X: p.X(), Y: p.Y(), Z: p.Z()}
}

// TransformPoint applies a 4x4 matrix to a point.
func TransformPoint(m mgl32.Mat4, p [3]float32) [3]float32 {
	v := mgl32.TransformCoordinate(mgl32.Vec3{p[0], p[1], p[2]}, m)
	return [3]float32{v.X(), v.Y(), v.Z()}
}

// TransformNormal applies the rotation part of m to n and renormalizes.
func TransformNormal(m mgl32.Mat4, n [3]float32) [3]float32 {
	v := mgl32.TransformNormal(mgl32.Vec3{n[0], n[1], n[2]}, m)
	if l := v.Len(); l > 1e-6 {
		v = v.Mul(1 / l)
	}
	return [3]float32{v.X(), v.Y(), v.Z()}
}
