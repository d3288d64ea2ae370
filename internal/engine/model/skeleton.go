package model

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/cubekit/internal/logger"
	"github.com/Faultbox/cubekit/pkg/formats"
	"github.com/Faultbox/cubekit/pkg/math"
)

// ErrUnresolvedParent is returned when parent links do not form a single tree.
var ErrUnresolvedParent = errors.New("unresolved bone parent")

// Bone is a runtime transform node. Position is relative to the parent bone.
type Bone struct {
	Name      string
	Index     int // Position in Skeleton.Bones and the rest pose table
	Parent    *Bone
	Children  []*Bone
	Cubes     []*CubeMesh
	Transform Transform // Current pose, rewritten every frame
}

// RestPose is the bind pose of one bone as declared in the document.
type RestPose struct {
	Pivot    math.Vec3 // Model space
	Rotation math.Vec3 // Degrees, document convention
	Position math.Vec3 // Pivot relative to the parent pivot
}

// Skeleton owns every bone of one model instance.
type Skeleton struct {
	Identifier string
	root       *Bone
	bones      []*Bone
	rest       []RestPose
	index      map[string]int
}

// Root returns the root bone.
func (s *Skeleton) Root() *Bone {
	return s.root
}

// Bones returns all bones in document order.
func (s *Skeleton) Bones() []*Bone {
	return s.bones
}

// Lookup finds a bone by name.
func (s *Skeleton) Lookup(name string) (*Bone, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.bones[i], true
}

// Rest returns the rest pose of a bone.
func (s *Skeleton) Rest(b *Bone) RestPose {
	return s.rest[b.Index]
}

// Reset returns every bone to its rest pose.
func (s *Skeleton) Reset() {
	for i, b := range s.bones {
		b.Transform = restTransform(s.rest[i])
	}
}

// RuntimeRotation converts document degrees to renderer radians.
// X and Z are negated to compensate for the handedness change.
func RuntimeRotation(deg math.Vec3) math.Vec3 {
	return math.Vec3{X: -math.Radians(deg.X), Y: math.Radians(deg.Y), Z: -math.Radians(deg.Z)}
}

func restTransform(r RestPose) Transform {
	return Transform{
		Position: r.Position,
		Rotation: RuntimeRotation(r.Rotation),
		Scale:    math.Splat3(1),
	}
}

// BuildSkeleton builds the bone tree in two passes: every bone is created and
// indexed first, then linked to its parent, so declaration order does not matter.
// The document is fully validated before anything is built.
func BuildSkeleton(geo *formats.Geometry) (*Skeleton, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	rootIdx, err := resolveParents(geo)
	if err != nil {
		return nil, err
	}

	sk := &Skeleton{
		Identifier: geo.Identifier,
		bones:      make([]*Bone, len(geo.Bones)),
		rest:       make([]RestPose, len(geo.Bones)),
		index:      make(map[string]int, len(geo.Bones)),
	}

	// Pass 1: create bones
	for i := range geo.Bones {
		bs := &geo.Bones[i]
		pivot := bs.Pivot.Vec()
		sk.rest[i] = RestPose{
			Pivot:    pivot,
			Rotation: bs.Rotation.Vec(),
			Position: pivot,
		}
		bone := &Bone{Name: bs.Name, Index: i}
		for j := range bs.Cubes {
			c := &bs.Cubes[j]
			params := CubeParams{
				Name:          fmt.Sprintf("%s-%d", bs.Name, j),
				Size:          c.Size.Vec(),
				LocalPosition: c.Origin.Vec().Sub(pivot),
				Inflate:       c.Inflate,
				UV:            UnwrapCuboid(c, geo),
			}
			if c.Rotation != nil {
				params.Rotation = c.Rotation.Vec()
			}
			bone.Cubes = append(bone.Cubes, BuildCube(params))
		}
		sk.bones[i] = bone
		sk.index[bs.Name] = i
	}

	// Pass 2: link parents
	for i := range geo.Bones {
		bs := &geo.Bones[i]
		if bs.Parent == "" {
			continue
		}
		child := sk.bones[i]
		parent := sk.bones[sk.index[bs.Parent]]
		child.Parent = parent
		parent.Children = append(parent.Children, child)
		sk.rest[i].Position = sk.rest[i].Pivot.Sub(sk.rest[parent.Index].Pivot)
	}

	sk.root = sk.bones[rootIdx]
	sk.Reset()

	logger.Debug("skeleton built",
		zap.String("identifier", geo.Identifier),
		zap.Int("bones", len(sk.bones)),
		zap.Int("cubes", geo.CubeCount()),
		zap.String("root", sk.root.Name))

	return sk, nil
}

// resolveParents checks that parent names form a single tree and returns the root index.
func resolveParents(geo *formats.Geometry) (int, error) {
	index := make(map[string]int, len(geo.Bones))
	for i := range geo.Bones {
		index[geo.Bones[i].Name] = i
	}

	root := -1
	for i := range geo.Bones {
		b := &geo.Bones[i]
		if b.Parent == "" {
			if root >= 0 {
				return 0, fmt.Errorf("%w: multiple roots %q and %q", ErrUnresolvedParent, geo.Bones[root].Name, b.Name)
			}
			root = i
			continue
		}
		if _, ok := index[b.Parent]; !ok {
			return 0, fmt.Errorf("%w: bone %q references unknown parent %q", ErrUnresolvedParent, b.Name, b.Parent)
		}
	}
	if root < 0 {
		return 0, fmt.Errorf("%w: no root bone", ErrUnresolvedParent)
	}

	// Every bone must reach the root; anything else sits on a cycle.
	for i := range geo.Bones {
		steps := 0
		for j := i; geo.Bones[j].Parent != ""; j = index[geo.Bones[j].Parent] {
			steps++
			if steps > len(geo.Bones) {
				return 0, fmt.Errorf("%w: cycle through bone %q", ErrUnresolvedParent, geo.Bones[i].Name)
			}
		}
	}
	return root, nil
}
