package raster

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// EncodeStill writes a lossless WebP image.
func EncodeStill(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

// EncodeAnimation writes frames as an animated WebP at fps.
// A non-looping animation plays once and stops on the last frame.
func EncodeAnimation(w io.Writer, frames []*image.NRGBA, fps int, loop bool, bg color.NRGBA) error {
	if len(frames) == 0 {
		return fmt.Errorf("webp: no frames")
	}
	if fps <= 0 {
		return fmt.Errorf("webp: fps must be positive, got %d", fps)
	}

	delay := uint(1000 / fps)
	ani := &nativewebp.Animation{
		Images:    make([]image.Image, len(frames)),
		Durations: make([]uint, len(frames)),
		Disposals: make([]uint, len(frames)),
		// Canvas color is stored as BGRA bytes
		BackgroundColor: uint32(bg.B) | uint32(bg.G)<<8 | uint32(bg.R)<<16 | uint32(bg.A)<<24,
	}
	if !loop {
		ani.LoopCount = 1
	}
	for i, f := range frames {
		ani.Images[i] = f
		ani.Durations[i] = delay
		// Clear before the next frame; frames alpha-blend over the canvas otherwise
		ani.Disposals[i] = 1
	}
	return nativewebp.EncodeAll(w, ani, nil)
}

// WriteFile creates path and its parent directories and streams encode into it.
func WriteFile(path string, encode func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encode(f)
}
