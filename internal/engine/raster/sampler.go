package raster

import (
	"image"
	"image/color"
)

// SampleNearest returns the texel under (u, v). v runs bottom to top, and
// coordinates outside [0,1] clamp to the edge. Nearest filtering keeps pixel-art
// atlases crisp.
func SampleNearest(tex *image.NRGBA, u, v float32) color.NRGBA {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return color.NRGBA{}
	}

	x := int(u * float32(w))
	y := int((1 - v) * float32(h))
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)

	i := tex.PixOffset(b.Min.X+x, b.Min.Y+y)
	return color.NRGBA{R: tex.Pix[i], G: tex.Pix[i+1], B: tex.Pix[i+2], A: tex.Pix[i+3]}
}
