package raster

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/cubekit/pkg/math"
)

// LightConfig holds flat-shading parameters. Directions are in view space.
type LightConfig struct {
	LightDir mgl32.Vec3
	RimDir   mgl32.Vec3
	Ambient  float32
	Hemi     float32
	Direct   float32
	Rim      float32
}

// DefaultLightConfig returns a key light from the upper left and a faint rim from behind.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir: mgl32.Vec3{-0.45, 0.75, 0.5}.Normalize(),
		RimDir:   mgl32.Vec3{0.6, 0.3, -0.75}.Normalize(),
		Ambient:  0.45,
		Hemi:     0.2,
		Direct:   0.45,
		Rim:      0.15,
	}
}

// ComputeShade returns the lighting scalar for a view-space face normal.
func (lc *LightConfig) ComputeShade(n mgl32.Vec3) float32 {
	// Lambertian, abs for double-sided
	ndl := math.Abs(n.Dot(lc.LightDir))
	ndr := math.Abs(n.Dot(lc.RimDir))

	// Hemisphere fill favours upward faces
	hemi := (n.Y() + 1) * 0.5 * lc.Hemi

	return lc.Ambient + hemi + ndl*lc.Direct + ndr*lc.Rim
}

func shadeChannel(c uint8, shade float32) uint8 {
	v := float32(c)*shade + 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
