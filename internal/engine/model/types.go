// Package model builds bone hierarchies of textured boxes from geometry documents.
package model

import (
	"github.com/Faultbox/cubekit/pkg/math"
)

// MinThickness replaces zero or absent size components so every box stays renderable.
const MinThickness float32 = 0.01

// Transform is a local position, rotation (radians) and scale.
type Transform struct {
	Position math.Vec3
	Rotation math.Vec3
	Scale    math.Vec3
}

// IdentityTransform returns a transform with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: math.Splat3(1)}
}

// Face identifies one side of a box in the cross-unfold layout.
type Face int

// Faces in layout order.
const (
	FaceRight Face = iota
	FaceFront
	FaceLeft
	FaceBack
	FaceTop
	FaceBottom
	FaceCount
)

// String returns the face name.
func (f Face) String() string {
	switch f {
	case FaceRight:
		return "right"
	case FaceFront:
		return "front"
	case FaceLeft:
		return "left"
	case FaceBack:
		return "back"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// FaceUV is a normalized atlas rectangle with U0 < U1 and V0 < V1.
// V is measured from the bottom edge of the texture.
type FaceUV struct {
	U0, V0, U1, V1 float32
	FlipU          bool // Sample right-to-left
	FlipV          bool // Sample top-to-bottom
}

// Corners returns the UVs for the bottom-left, bottom-right, top-right and
// top-left corners of the face as seen from outside the box.
func (f FaceUV) Corners() [4][2]float32 {
	u0, u1, v0, v1 := f.U0, f.U1, f.V0, f.V1
	if f.FlipU {
		u0, u1 = u1, u0
	}
	if f.FlipV {
		v0, v1 = v1, v0
	}
	return [4][2]float32{{u0, v0}, {u1, v0}, {u1, v1}, {u0, v1}}
}

// FaceUVs holds one rectangle per face, indexed by Face.
type FaceUVs [FaceCount]FaceUV

// Vertex represents a baked mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the extent of the box on each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}
