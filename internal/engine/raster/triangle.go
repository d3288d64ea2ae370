package raster

import (
	"image"
	"image/color"
	"math"
)

// screenVertex is a vertex in pixel space. z grows toward the viewer.
type screenVertex struct {
	x, y, z float32
	u, v    float32
}

// rasterizeTriangle fills one flat-shaded triangle with depth testing.
// When tex is nil every pixel uses flat.
func rasterizeTriangle(fb *FrameBuffer, a, b, c screenVertex, tex *image.NRGBA, flat color.NRGBA, shade float32) {
	minX := int(math.Floor(float64(min(a.x, b.x, c.x))))
	maxX := int(math.Ceil(float64(max(a.x, b.x, c.x))))
	minY := int(math.Floor(float64(min(a.y, b.y, c.y))))
	maxY := int(math.Ceil(float64(max(a.y, b.y, c.y))))

	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, fb.Width-1)
	maxY = min(maxY, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (b.y-c.y)*(a.x-c.x) + (c.x-b.x)*(a.y-c.y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1 / det

	dy12 := b.y - c.y
	dx21 := c.x - b.x
	dy20 := c.y - a.y
	dx02 := a.x - c.x

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) + 0.5 - c.y
		row := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) + 0.5 - c.x
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -1e-4 || w1 < -1e-4 || w2 < -1e-4 {
				continue
			}

			z := w0*a.z + w1*b.z + w2*c.z
			zi := row + sx
			if z <= fb.Depth[zi] {
				continue
			}

			col := flat
			if tex != nil {
				u := w0*a.u + w1*b.u + w2*c.u
				v := w0*a.v + w1*b.v + w2*c.v
				col = SampleNearest(tex, u, v)
			}

			// Skip transparent texels
			if col.A < 8 {
				continue
			}
			fb.Depth[zi] = z

			pi := zi * 4
			fb.Color[pi] = shadeChannel(col.R, shade)
			fb.Color[pi+1] = shadeChannel(col.G, shade)
			fb.Color[pi+2] = shadeChannel(col.B, shade)
			fb.Color[pi+3] = col.A
		}
	}
}
