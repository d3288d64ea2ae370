package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/cubekit/internal/batch"
	"github.com/Faultbox/cubekit/internal/config"
	"github.com/Faultbox/cubekit/internal/engine/animation"
	"github.com/Faultbox/cubekit/internal/engine/model"
	"github.com/Faultbox/cubekit/internal/engine/raster"
	"github.com/Faultbox/cubekit/internal/export"
	"github.com/Faultbox/cubekit/internal/logger"
	"github.com/Faultbox/cubekit/internal/molang"
	"github.com/Faultbox/cubekit/pkg/formats"
	"github.com/Faultbox/cubekit/pkg/math"
)

var errNoClip = errors.New("no clip given: use -clip or animation.default_clip")

func cmdInfo(args []string) {
	c := setup("info", args, 1, "info <geo.json>", nil)
	geo, sk := loadModel(c.fs.Arg(0))
	mesh := model.BuildMesh(sk)

	atlas := "none"
	if geo.HasAtlas() {
		atlas = fmt.Sprintf("%gx%g", geo.TextureWidth, geo.TextureHeight)
	}
	size := mesh.Bounds.Size()

	fmt.Printf("Model:    %s\n", c.fs.Arg(0))
	fmt.Printf("Geometry: %s\n", geo.Identifier)
	fmt.Printf("Format:   %s\n", geo.FormatVersion)
	fmt.Printf("Atlas:    %s\n", atlas)
	fmt.Printf("Bones:    %d (root %s)\n", len(sk.Bones()), sk.Root().Name)
	fmt.Printf("Cubes:    %d\n", geo.CubeCount())
	fmt.Printf("Bounds:   %g x %g x %g\n", size[0], size[1], size[2])
}

func cmdTree(args []string) {
	c := setup("tree", args, 1, "tree <geo.json>", nil)
	_, sk := loadModel(c.fs.Arg(0))

	var walk func(b *model.Bone, depth int)
	walk = func(b *model.Bone, depth int) {
		rest := sk.Rest(b)
		fmt.Printf("%s%s  pivot=%s pos=%s rot=%s cubes=%d\n",
			strings.Repeat("  ", depth), b.Name,
			fmtVec(rest.Pivot), fmtVec(rest.Position), fmtVec(rest.Rotation), len(b.Cubes))
		for _, child := range b.Children {
			walk(child, depth+1)
		}
	}
	walk(sk.Root(), 0)
}

func cmdUV(args []string) {
	var bone string
	c := setup("uv", args, 1, "uv [-bone name] <geo.json>", func(fs *flag.FlagSet) {
		fs.StringVar(&bone, "bone", "", "Only print this bone")
	})
	_, sk := loadModel(c.fs.Arg(0))

	for _, b := range sk.Bones() {
		if bone != "" && b.Name != bone {
			continue
		}
		for _, cube := range b.Cubes {
			if cube.Faces == nil {
				fmt.Printf("%s: untextured\n", cube.Name)
				continue
			}
			fmt.Printf("%s:\n", cube.Name)
			for f := model.Face(0); f < model.FaceCount; f++ {
				uv := cube.Faces[f]
				var flags []string
				if uv.FlipU {
					flags = append(flags, "flip-u")
				}
				if uv.FlipV {
					flags = append(flags, "flip-v")
				}
				fmt.Printf("  %-6s u=[%.4f, %.4f] v=[%.4f, %.4f] %s\n",
					f, uv.U0, uv.U1, uv.V0, uv.V1, strings.Join(flags, " "))
			}
		}
	}
}

func cmdClips(args []string) {
	c := setup("clips", args, 1, "clips <anim.json>", nil)
	doc, err := formats.LoadAnimations(c.fs.Arg(0))
	if err != nil {
		fatal("loading animations", err)
	}

	for _, name := range doc.Names() {
		clip := doc.Clips[name]
		fmt.Printf("%-40s %-16s %6.2fs loop=%-5v bones=%d\n",
			name, clip.ShortName, clip.Duration(), clip.Loop, len(clip.Bones))
	}
	fmt.Fprintf(os.Stderr, "\n(%d clips)\n", len(doc.Clips))
}

func cmdPose(args []string) {
	var t float64
	c := setup("pose", args, 3, "pose [-t sec] <geo.json> <anim.json> <clip>", func(fs *flag.FlagSet) {
		fs.Float64Var(&t, "t", 0, "Clip time in seconds")
	})
	_, sk := loadModel(c.fs.Arg(0))
	doc := loadAnimations(c.fs.Arg(1))

	p := newPlayer(c.cfg, sk, doc, c.fs.Arg(2))
	if err := p.Seek(t); err != nil {
		fatal("evaluating clip", err)
	}

	fmt.Printf("%s at %.3fs (duration %.3fs)\n", p.Clip().Name, p.Time(), p.Duration())
	for _, b := range sk.Bones() {
		rot := b.Transform.Rotation
		deg := math.Vec3{X: math.Degrees(rot.X), Y: math.Degrees(rot.Y), Z: math.Degrees(rot.Z)}
		fmt.Printf("  %-20s pos=%s rot=%s world=%s\n",
			b.Name, fmtVec(b.Transform.Position), fmtVec(deg), fmtVec(sk.WorldPosition(b)))
	}
}

func cmdRender(args []string) {
	var (
		animPath, clipName, texPath, out string
		t, yaw, pitch, turntable         float64
		still                            bool
	)
	c := setup("render", args, 1, "render [-anim f -clip c -texture f -o out.webp] <geo.json>", func(fs *flag.FlagSet) {
		fs.StringVar(&animPath, "anim", "", "Animation document")
		fs.StringVar(&clipName, "clip", "", "Clip name (full or short)")
		fs.StringVar(&texPath, "texture", "", "Texture atlas (png, jpg, tga, bmp, webp)")
		fs.StringVar(&out, "o", "out.webp", "Output file")
		fs.Float64Var(&t, "t", 0, "Clip time for -still")
		fs.Float64Var(&yaw, "yaw", 0, "Camera yaw in degrees")
		fs.Float64Var(&pitch, "pitch", 0, "Camera pitch in degrees")
		fs.Float64Var(&turntable, "turntable", 0, "Yaw degrees per second")
		fs.BoolVar(&still, "still", false, "Render a single frame even with -anim")
	})
	applyCameraFlags(c, yaw, pitch, turntable)

	_, sk := loadModel(c.fs.Arg(0))
	renderer, bg := newRenderer(c.cfg, texPath)
	cam := camera(c.cfg)

	var encode func(w io.Writer) error
	switch {
	case animPath == "":
		img := renderer.Still(sk, cam)
		encode = func(w io.Writer) error { return raster.EncodeStill(w, img) }
	case still:
		p := newPlayer(c.cfg, sk, loadAnimations(animPath), pickClip(c.cfg, clipName))
		if err := p.Seek(t); err != nil {
			fatal("evaluating clip", err)
		}
		img := renderer.Still(sk, cam)
		encode = func(w io.Writer) error { return raster.EncodeStill(w, img) }
	default:
		p := newPlayer(c.cfg, sk, loadAnimations(animPath), pickClip(c.cfg, clipName))
		frames, err := renderer.RenderClip(sk, p, cam, clipOptions(c.cfg))
		if err != nil {
			fatal("rendering clip", err)
		}
		encode = func(w io.Writer) error {
			return raster.EncodeAnimation(w, frames, c.cfg.Render.FPS, p.Loop(), bg)
		}
	}

	if err := raster.WriteFile(out, encode); err != nil {
		fatal("writing output", err)
	}
	logger.Info("rendered", zap.String("output", out))
}

func cmdExport(args []string) {
	var (
		animPath, clipName, out string
		t                       float64
	)
	c := setup("export", args, 1, "export [-anim f -clip c -t sec -o out.glb] <geo.json>", func(fs *flag.FlagSet) {
		fs.StringVar(&animPath, "anim", "", "Animation document")
		fs.StringVar(&clipName, "clip", "", "Clip name (full or short)")
		fs.Float64Var(&t, "t", 0, "Clip time in seconds")
		fs.StringVar(&out, "o", "out.glb", "Output file")
	})
	_, sk := loadModel(c.fs.Arg(0))

	if animPath != "" {
		p := newPlayer(c.cfg, sk, loadAnimations(animPath), pickClip(c.cfg, clipName))
		if err := p.Seek(t); err != nil {
			fatal("evaluating clip", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		fatal("creating output directory", err)
	}
	if err := export.WriteGLB(out, sk, exportOptions(c.cfg)); err != nil {
		fatal("exporting", err)
	}
	logger.Info("exported", zap.String("output", out))
}

func cmdBatch(args []string) {
	var (
		texPath, outDir string
		t               float64
	)
	c := setup("batch", args, 2, "batch [-texture f -o dir] <geo.json> <anim.json> [clip...]", func(fs *flag.FlagSet) {
		fs.StringVar(&texPath, "texture", "", "Texture atlas")
		fs.StringVar(&outDir, "o", "out", "Output directory")
		fs.Float64Var(&t, "t", 0, "Clip time for glb export")
	})
	geo, _ := loadModel(c.fs.Arg(0))
	doc := loadAnimations(c.fs.Arg(1))

	clips := c.fs.Args()[2:]
	if len(clips) == 0 {
		clips = doc.Names()
	}

	var atlas *image.NRGBA
	if texPath != "" {
		var err error
		if atlas, err = raster.LoadAtlas(texPath); err != nil {
			fatal("loading texture", err)
		}
	}
	opts, _ := renderOptions(c.cfg)

	cfg := batch.Config{
		Geometry:   geo,
		Animations: doc,
		Atlas:      atlas,
		Evaluator:  molang.NewEngine(),
		OutputDir:  outDir,
		Format:     c.cfg.Batch.Format,
		Workers:    c.cfg.Batch.Workers,
		Render:     opts,
		Camera:     camera(c.cfg),
		Clip:       clipOptions(c.cfg),
		Export:     exportOptions(c.cfg),
		PoseTime:   t,
		Queries:    c.cfg.Animation.Queries,
		Progress:   2 * time.Second,
	}
	if loop, ok := c.cfg.Animation.LoopOverride(); ok {
		cfg.Loop = &loop
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		fatal("creating output directory", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("batch started",
		zap.Int("clips", len(clips)),
		zap.String("format", cfg.Format),
		zap.String("output", outDir))
	results := batch.Run(ctx, cfg, clips)

	manifest := batch.NewManifest(geo.Identifier, cfg.Format, results)
	if err := manifest.Write(filepath.Join(outDir, "manifest.json")); err != nil {
		fatal("writing manifest", err)
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %s\n", r.Clip, r.Error)
		}
	}
	fmt.Printf("%d/%d clips written to %s\n", len(results)-failed, len(results), outDir)
	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

func cmdConfig(args []string) {
	var out string
	c := setup("config", args, 0, "config [-o path]", func(fs *flag.FlagSet) {
		fs.StringVar(&out, "o", "", "Output path (default: user config dir)")
	})

	var err error
	if out == "" {
		out = filepath.Join(config.ConfigDir(), "config.yaml")
		err = c.cfg.Save()
	} else {
		err = c.cfg.SaveTo(out)
	}
	if err != nil {
		fatal("saving config", err)
	}
	fmt.Println(out)
}

func loadModel(path string) (*formats.Geometry, *model.Skeleton) {
	geo, err := formats.LoadGeometry(path)
	if err != nil {
		fatal("loading geometry", err)
	}
	sk, err := model.BuildSkeleton(geo)
	if err != nil {
		fatal("building skeleton", err)
	}
	return geo, sk
}

func loadAnimations(path string) *formats.AnimationDocument {
	doc, err := formats.LoadAnimations(path)
	if err != nil {
		fatal("loading animations", err)
	}
	return doc
}

func pickClip(cfg *config.Config, name string) string {
	if name == "" {
		name = cfg.Animation.DefaultClip
	}
	if name == "" {
		fatal("selecting clip", errNoClip)
	}
	return name
}

func newPlayer(cfg *config.Config, sk *model.Skeleton, doc *formats.AnimationDocument, name string) *animation.Player {
	p, err := animation.NewPlayer(sk, doc, name, molang.NewEngine())
	if err != nil {
		fatal("selecting clip", err)
	}
	if loop, ok := cfg.Animation.LoopOverride(); ok {
		p.SetLoop(loop)
	}
	for k, v := range cfg.Animation.Queries {
		p.SetQuery(k, v)
	}
	return p
}

// applyCameraFlags copies camera flags into the config only when they were given.
func applyCameraFlags(c *command, yaw, pitch, turntable float64) {
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "yaw":
			c.cfg.Render.Yaw = float32(yaw)
		case "pitch":
			c.cfg.Render.Pitch = float32(pitch)
		case "turntable":
			c.cfg.Render.Turntable = float32(turntable)
		}
	})
}

func renderOptions(cfg *config.Config) (raster.Options, color.NRGBA) {
	bg, err := raster.ParseColor(cfg.Render.Background)
	if err != nil {
		fatal("parsing render.background", err)
	}
	opts := raster.DefaultOptions()
	opts.Size = cfg.Render.Size
	opts.Supersample = cfg.Render.Supersample
	opts.Background = bg
	return opts, bg
}

func newRenderer(cfg *config.Config, texPath string) (*raster.Renderer, color.NRGBA) {
	opts, bg := renderOptions(cfg)
	var atlas *image.NRGBA
	if texPath != "" {
		var err error
		if atlas, err = raster.LoadAtlas(texPath); err != nil {
			fatal("loading texture", err)
		}
	}
	return raster.NewRenderer(opts, atlas), bg
}

func camera(cfg *config.Config) raster.Camera {
	return raster.Camera{Yaw: cfg.Render.Yaw, Pitch: cfg.Render.Pitch, Margin: 0.06}
}

func clipOptions(cfg *config.Config) raster.ClipOptions {
	return raster.ClipOptions{
		FPS:       cfg.Render.FPS,
		MaxFrames: cfg.Render.MaxFrames,
		Turntable: cfg.Render.Turntable,
	}
}

func exportOptions(cfg *config.Config) export.Options {
	return export.Options{Generator: cfg.Export.Generator, Scale: cfg.Export.Scale}
}

func fmtVec(v math.Vec3) string {
	return fmt.Sprintf("[%g %g %g]", v.X, v.Y, v.Z)
}
