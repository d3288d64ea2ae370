package formats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/multierr"
)

// GeometryKey is the top-level key holding geometry definitions.
const GeometryKey = "minecraft:geometry"

// CuboidSpec is one axis-aligned box of a bone.
type CuboidSpec struct {
	Origin   Vector3  // Min corner in model space
	Size     Vector3  // Extents; zero components get a minimum thickness
	UV       *Vector2 // Atlas offset of the box unfold (nil = untextured)
	Rotation *Vector3 // Degrees about the cube centre
	Inflate  float32  // Uniform growth about the centre
	Mirror   bool     // Mirror side faces horizontally
}

// BoneSpec is one named pivot of the model.
type BoneSpec struct {
	Name     string
	Parent   string // Empty for the root
	Pivot    Vector3
	Rotation Vector3 // Rest rotation in degrees
	Cubes    []CuboidSpec
}

// Geometry is a parsed geometry document.
type Geometry struct {
	FormatVersion string
	Identifier    string
	TextureWidth  float32 // 0 when absent
	TextureHeight float32 // 0 when absent
	Bones         []BoneSpec
}

// HasAtlas reports whether both atlas dimensions are known.
func (g *Geometry) HasAtlas() bool {
	return g.TextureWidth > 0 && g.TextureHeight > 0
}

// CubeCount returns the total number of cuboids.
func (g *Geometry) CubeCount() int {
	n := 0
	for i := range g.Bones {
		n += len(g.Bones[i].Cubes)
	}
	return n
}

type rawGeometryFile struct {
	FormatVersion string        `json:"format_version"`
	Geometry      []rawGeometry `json:"minecraft:geometry"`
}

type rawGeometry struct {
	Description struct {
		Identifier    string   `json:"identifier"`
		TextureWidth  *float32 `json:"texture_width"`
		TextureHeight *float32 `json:"texture_height"`
	} `json:"description"`
	Bones []rawBone `json:"bones"`
}

type rawBone struct {
	Name     string    `json:"name"`
	Parent   string    `json:"parent"`
	Pivot    *Vector3  `json:"pivot"`
	Rotation *Vector3  `json:"rotation"`
	Cubes    []rawCube `json:"cubes"`
}

type rawCube struct {
	Origin   *Vector3        `json:"origin"`
	Size     *Vector3        `json:"size"`
	UV       json.RawMessage `json:"uv"`
	Rotation *Vector3        `json:"rotation"`
	Inflate  float32         `json:"inflate"`
	Mirror   bool            `json:"mirror"`
}

// LoadGeometry reads and parses a geometry document from disk.
func LoadGeometry(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geometry: %w", err)
	}
	return ParseGeometry(data)
}

// ParseGeometry parses a geometry document.
// Only the first entry of the geometry array is used.
func ParseGeometry(data []byte) (*Geometry, error) {
	var raw rawGeometryFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if len(raw.Geometry) == 0 {
		return nil, fmt.Errorf("%w: missing %q entry", ErrMalformedDocument, GeometryKey)
	}

	src := raw.Geometry[0]
	geo := &Geometry{
		FormatVersion: raw.FormatVersion,
		Identifier:    src.Description.Identifier,
		Bones:         make([]BoneSpec, 0, len(src.Bones)),
	}
	if src.Description.TextureWidth != nil {
		geo.TextureWidth = *src.Description.TextureWidth
	}
	if src.Description.TextureHeight != nil {
		geo.TextureHeight = *src.Description.TextureHeight
	}

	var errs error
	for i, rb := range src.Bones {
		bone := BoneSpec{Name: rb.Name, Parent: rb.Parent}
		if rb.Pivot == nil {
			errs = multierr.Append(errs, fmt.Errorf("bone %d (%q): missing pivot", i, rb.Name))
		} else {
			bone.Pivot = *rb.Pivot
		}
		if rb.Rotation != nil {
			bone.Rotation = *rb.Rotation
		}

		for j, rc := range rb.Cubes {
			cube, err := convertCube(rc)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("bone %q cube %d: %v", rb.Name, j, err))
				continue
			}
			bone.Cubes = append(bone.Cubes, cube)
		}
		geo.Bones = append(geo.Bones, bone)
	}
	if errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, errs)
	}

	if err := geo.Validate(); err != nil {
		return nil, err
	}
	return geo, nil
}

func convertCube(rc rawCube) (CuboidSpec, error) {
	cube := CuboidSpec{
		Rotation: rc.Rotation,
		Inflate:  rc.Inflate,
		Mirror:   rc.Mirror,
	}
	if rc.Origin == nil {
		return cube, fmt.Errorf("missing origin")
	}
	cube.Origin = *rc.Origin
	if rc.Size != nil {
		cube.Size = *rc.Size
	}

	// Per-face UV objects are not part of the box unfold; such cubes stay untextured.
	uv := bytes.TrimSpace(rc.UV)
	if len(uv) > 0 && uv[0] == '[' {
		var v Vector2
		if err := json.Unmarshal(uv, &v); err != nil {
			return cube, err
		}
		cube.UV = &v
	}
	return cube, nil
}

// Validate checks the structural rules that do not depend on parent linkage.
// All problems are reported together.
func (g *Geometry) Validate() error {
	var errs error

	if g.TextureWidth < 0 || g.TextureHeight < 0 {
		errs = multierr.Append(errs, fmt.Errorf("negative texture size %gx%g", g.TextureWidth, g.TextureHeight))
	}
	if len(g.Bones) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("no bones"))
	}

	seen := make(map[string]bool, len(g.Bones))
	for i := range g.Bones {
		b := &g.Bones[i]
		if b.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("bone %d: missing name", i))
			continue
		}
		if seen[b.Name] {
			errs = multierr.Append(errs, fmt.Errorf("duplicate bone name %q", b.Name))
		}
		seen[b.Name] = true

		for j, c := range b.Cubes {
			if c.Size[0] < 0 || c.Size[1] < 0 || c.Size[2] < 0 {
				errs = multierr.Append(errs, fmt.Errorf("bone %q cube %d: negative size %v", b.Name, j, c.Size))
			}
			if c.UV != nil && (c.UV[0] < 0 || c.UV[1] < 0) {
				errs = multierr.Append(errs, fmt.Errorf("bone %q cube %d: negative uv offset %v", b.Name, j, *c.UV))
			}
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, errs)
	}
	return nil
}
