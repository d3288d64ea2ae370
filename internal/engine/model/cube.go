package model

import (
	"github.com/Faultbox/cubekit/pkg/math"
)

// CubeParams are the inputs of BuildCube.
type CubeParams struct {
	Name          string
	Size          math.Vec3 // Components <= 0 are clamped to MinThickness
	LocalPosition math.Vec3 // Min corner relative to the owning bone
	Rotation      math.Vec3 // Degrees about the box centre
	Inflate       float32
	UV            *FaceUVs
}

// CubeMesh is one box owned by a bone. It is immutable once built.
type CubeMesh struct {
	Name      string
	Size      math.Vec3 // Clamped extents
	Transform Transform // Centre position, rotation in radians, inflate scale
	Faces     *FaceUVs  // Nil when untextured
}

// BuildCube creates a box whose min corner sits at LocalPosition.
// The transform is placed at the box centre so rotation and inflate act about it.
func BuildCube(p CubeParams) *CubeMesh {
	size := p.Size.ClampMin(MinThickness)
	return &CubeMesh{
		Name: p.Name,
		Size: size,
		Transform: Transform{
			Position: p.LocalPosition.Add(size.Scale(0.5)),
			Rotation: p.Rotation.Radians(),
			Scale:    math.Splat3(1 + p.Inflate),
		},
		Faces: p.UV,
	}
}

// HalfExtents returns half the box size.
func (c *CubeMesh) HalfExtents() math.Vec3 {
	return c.Size.Scale(0.5)
}
