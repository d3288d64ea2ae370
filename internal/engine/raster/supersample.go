package raster

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to size x size with premultiplied alpha so transparent
// edges do not bleed dark halos.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := uint32(img.Pix[si+3])
			premul.Pix[di] = uint8((uint32(img.Pix[si])*a + 127) / 255)
			premul.Pix[di+1] = uint8((uint32(img.Pix[si+1])*a + 127) / 255)
			premul.Pix[di+2] = uint8((uint32(img.Pix[si+2])*a + 127) / 255)
			premul.Pix[di+3] = uint8(a)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(dst.Pix); i += 4 {
		a := uint32(dst.Pix[i+3])
		if a > 0 {
			out.Pix[i] = uint8(min((uint32(dst.Pix[i])*255+a/2)/a, 255))
			out.Pix[i+1] = uint8(min((uint32(dst.Pix[i+1])*255+a/2)/a, 255))
			out.Pix[i+2] = uint8(min((uint32(dst.Pix[i+2])*255+a/2)/a, 255))
		}
		out.Pix[i+3] = uint8(a)
	}
	return out
}
