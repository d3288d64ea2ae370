package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/cubekit/internal/engine/animation"
	"github.com/Faultbox/cubekit/internal/engine/model"
	"github.com/Faultbox/cubekit/pkg/formats"
)

func cubeSkeleton(t *testing.T, textured bool) *model.Skeleton {
	t.Helper()
	geo := &formats.Geometry{
		Bones: []formats.BoneSpec{{
			Name: "root",
			Cubes: []formats.CuboidSpec{
				{Origin: formats.Vector3{-4, 0, -4}, Size: formats.Vector3{8, 8, 8}},
			},
		}},
	}
	if textured {
		geo.TextureWidth, geo.TextureHeight = 32, 32
		geo.Bones[0].Cubes[0].UV = &formats.Vector2{0, 0}
	}
	sk, err := model.BuildSkeleton(geo)
	if err != nil {
		t.Fatalf("BuildSkeleton failed: %v", err)
	}
	return sk
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestFrameBuffer(t *testing.T) {
	fb := NewFrameBuffer(4, 3)
	if got := fb.At(3, 2); got != (color.NRGBA{}) {
		t.Errorf("new buffer should be transparent, got %v", got)
	}

	bg := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	fb.Clear(bg)
	img := fb.Image()
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if got := img.NRGBAAt(1, 1); got != bg {
		t.Errorf("expected %v, got %v", bg, got)
	}
}

func TestSampleNearest(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	tex.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255}) // top left
	tex.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 255}) // bottom right

	tests := []struct {
		name string
		u, v float32
		want color.NRGBA
	}{
		{"top left", 0.25, 0.75, color.NRGBA{R: 255, A: 255}},
		{"bottom right", 0.75, 0.25, color.NRGBA{B: 255, A: 255}},
		{"clamped to top left", -1, 5, color.NRGBA{R: 255, A: 255}},
		{"clamped to bottom right", 5, -1, color.NRGBA{B: 255, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleNearest(tex, tt.u, tt.v); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff8000", color.NRGBA{R: 255, G: 128, A: 255}, false},
		{"#00000000", color.NRGBA{}, false},
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, false},
		{"102030ff", color.NRGBA{R: 16, G: 32, B: 48, A: 255}, false},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("expected ErrInvalidColor, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStill_Untextured(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 32
	opts.Supersample = 1
	r := NewRenderer(opts, nil)

	img := r.Still(cubeSkeleton(t, false), Camera{Margin: 0.1})
	if img.Bounds().Dx() != 32 {
		t.Fatalf("expected 32px image, got %v", img.Bounds())
	}

	center := img.NRGBAAt(16, 16)
	if center.A != 255 || center.G == 0 {
		t.Errorf("center should be an opaque untextured face, got %v", center)
	}
	if corner := img.NRGBAAt(0, 0); corner.A != 0 {
		t.Errorf("corner should be background, got %v", corner)
	}
}

func TestStill_Textured(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 32
	opts.Supersample = 1
	atlas := solidImage(32, 32, color.NRGBA{R: 200, A: 255})
	r := NewRenderer(opts, atlas)

	img := r.Still(cubeSkeleton(t, true), Camera{Yaw: 30, Pitch: 20, Margin: 0.1})
	center := img.NRGBAAt(16, 16)
	if center.A != 255 || center.R == 0 || center.G != 0 || center.B != 0 {
		t.Errorf("center should sample the red atlas, got %v", center)
	}
}

func TestStill_Supersampled(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 16
	opts.Supersample = 3
	opts.Background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	r := NewRenderer(opts, nil)

	if r.RenderSize() != 48 {
		t.Errorf("expected render size 48, got %d", r.RenderSize())
	}
	img := r.Still(cubeSkeleton(t, false), Camera{Margin: 0.2})
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Fatalf("expected 16px output, got %v", img.Bounds())
	}
	if corner := img.NRGBAAt(0, 0); corner != opts.Background {
		t.Errorf("corner should keep the background, got %v", corner)
	}
}

func TestDownsample(t *testing.T) {
	src := solidImage(8, 8, color.NRGBA{R: 100, G: 50, B: 25, A: 255})
	dst := Downsample(src, 4)
	if dst.Bounds().Dx() != 4 {
		t.Fatalf("expected 4px, got %v", dst.Bounds())
	}
	if got := dst.NRGBAAt(2, 2); got != (color.NRGBA{R: 100, G: 50, B: 25, A: 255}) {
		t.Errorf("solid color should survive scaling, got %v", got)
	}
	if same := Downsample(src, 8); same != src {
		t.Error("no-op downsample should return the input")
	}
}

func TestEncodeStill(t *testing.T) {
	var buf bytes.Buffer
	img := solidImage(5, 7, color.NRGBA{G: 255, A: 255})
	if err := EncodeStill(&buf, img); err != nil {
		t.Fatalf("EncodeStill failed: %v", err)
	}

	decoded, err := nativewebp.Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 5 || decoded.Bounds().Dy() != 7 {
		t.Errorf("unexpected decoded bounds %v", decoded.Bounds())
	}
}

func TestEncodeAnimation(t *testing.T) {
	frames := []*image.NRGBA{
		solidImage(4, 4, color.NRGBA{R: 255, A: 255}),
		solidImage(4, 4, color.NRGBA{B: 255, A: 255}),
	}

	var buf bytes.Buffer
	if err := EncodeAnimation(&buf, frames, 10, true, color.NRGBA{}); err != nil {
		t.Fatalf("EncodeAnimation failed: %v", err)
	}
	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Contains(data, []byte("ANIM")) {
		t.Error("expected an animated RIFF/WEBP container")
	}
	if n := bytes.Count(data, []byte("ANMF")); n != 2 {
		t.Errorf("expected 2 frames, got %d", n)
	}

	if err := EncodeAnimation(&buf, nil, 10, true, color.NRGBA{}); err == nil {
		t.Error("expected error for empty animation")
	}
	if err := EncodeAnimation(&buf, frames, 0, true, color.NRGBA{}); err == nil {
		t.Error("expected error for zero fps")
	}
}

func TestLoadAtlas(t *testing.T) {
	dir := t.TempDir()
	src := solidImage(4, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	write := func(name string, enc func(w io.Writer) error) string {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, enc); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return path
	}

	paths := []string{
		write("atlas.png", func(w io.Writer) error { return png.Encode(w, src) }),
		write("atlas.bmp", func(w io.Writer) error { return bmp.Encode(w, src) }),
		write("atlas.webp", func(w io.Writer) error { return EncodeStill(w, src) }),
	}

	for _, path := range paths {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			img, err := LoadAtlas(path)
			if err != nil {
				t.Fatalf("LoadAtlas failed: %v", err)
			}
			if img.Bounds() != image.Rect(0, 0, 4, 2) {
				t.Errorf("unexpected bounds %v", img.Bounds())
			}
			if got := img.NRGBAAt(3, 1); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
				t.Errorf("unexpected pixel %v", got)
			}
		})
	}

	if _, err := LoadAtlas(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing atlas")
	}
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		name      string
		duration  float64
		fps, maxF int
		loop      bool
		want      int
	}{
		{"looping", 2, 10, 0, true, 20},
		{"non-looping adds final pose", 2, 10, 0, false, 21},
		{"capped", 10, 30, 50, true, 50},
		{"static", 0, 20, 0, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameCount(tt.duration, tt.fps, tt.maxF, tt.loop); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderClip(t *testing.T) {
	sk := cubeSkeleton(t, false)
	doc, err := formats.ParseAnimations([]byte(`{"animations":{"animation.cube.bob":{"loop":true,"bones":{
		"root":{"position":{"0":[0,0,0],"0.5":[0,4,0],"1":[0,0,0]}}
	}}}}`))
	if err != nil {
		t.Fatalf("ParseAnimations failed: %v", err)
	}
	p, err := animation.NewPlayer(sk, doc, "bob", nil)
	if err != nil {
		t.Fatalf("NewPlayer failed: %v", err)
	}

	opts := DefaultOptions()
	opts.Size = 16
	opts.Supersample = 1
	r := NewRenderer(opts, nil)

	frames, err := r.RenderClip(sk, p, Camera{Margin: 0.1}, ClipOptions{FPS: 4})
	if err != nil {
		t.Fatalf("RenderClip failed: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	// Shared framing: the raised frame differs from the rest frame
	if bytes.Equal(frames[0].Pix, frames[2].Pix) {
		t.Error("frames at rest and at peak should differ")
	}
}
