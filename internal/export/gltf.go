// Package export writes posed cube models to interchange formats.
package export

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/cubekit/internal/engine/model"
	"github.com/Faultbox/cubekit/internal/logger"
)

// ErrEmptyMesh is returned when there is no geometry to export.
var ErrEmptyMesh = errors.New("mesh has no geometry")

// Options configures glTF output.
type Options struct {
	Generator string
	Scale     float32 // Model units per glTF unit; 16 turns pixels into blocks
}

// Material indices in every exported document.
const (
	materialUntextured = 0
	materialTextured   = 1
)

// Document converts a baked mesh into a glTF document with one node per bone group.
// Vertices are already in model space, so nodes carry no transform.
func Document(mesh *model.Mesh, opts Options) (*gltf.Document, error) {
	if len(mesh.Vertices) == 0 || len(mesh.Groups) == 0 {
		return nil, ErrEmptyMesh
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = opts.Generator
	doc.Materials = []*gltf.Material{
		materialUntextured: {
			Name: "untextured",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{0.63, 0.63, 0.67, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
			AlphaMode: gltf.AlphaOpaque,
		},
		materialTextured: {
			Name: "atlas",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{1, 1, 1, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
			AlphaMode: gltf.AlphaMask,
		},
	}

	for _, g := range mesh.Groups {
		indices := mesh.Indices[g.StartIndex : g.StartIndex+g.IndexCount]
		if len(indices) == 0 {
			continue
		}

		// Groups own a contiguous vertex range; rebase indices onto it
		lo, hi := indices[0], indices[0]
		for _, i := range indices {
			lo = min(lo, i)
			hi = max(hi, i)
		}
		verts := mesh.Vertices[lo : hi+1]

		positions := make([][3]float32, len(verts))
		normals := make([][3]float32, len(verts))
		uvs := make([][2]float32, len(verts))
		for i, v := range verts {
			positions[i] = [3]float32{v.Position[0] / scale, v.Position[1] / scale, v.Position[2] / scale}
			normals[i] = v.Normal
			// glTF puts v=0 at the top of the image
			uvs[i] = [2]float32{v.TexCoord[0], 1 - v.TexCoord[1]}
		}
		local := make([]uint32, len(indices))
		for i, idx := range indices {
			local[i] = idx - lo
		}

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: uint32(modeler.WritePosition(doc, positions)),
				gltf.NORMAL:   uint32(modeler.WriteNormal(doc, normals)),
			},
			Indices:  gltf.Index(uint32(modeler.WriteIndices(doc, local))),
			Material: gltf.Index(materialUntextured),
		}
		if g.Textured {
			prim.Attributes[gltf.TEXCOORD_0] = uint32(modeler.WriteTextureCoord(doc, uvs))
			prim.Material = gltf.Index(materialTextured)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: g.Bone, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: g.Bone, Mesh: gltf.Index(uint32(len(doc.Meshes) - 1))})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}

	return doc, nil
}

// WriteGLB bakes the skeleton's current pose and saves it as binary glTF.
func WriteGLB(path string, sk *model.Skeleton, opts Options) error {
	mesh := model.BuildMesh(sk)
	doc, err := Document(mesh, opts)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	logger.Debug("glb written",
		zap.String("path", path),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("vertices", len(mesh.Vertices)))
	return nil
}
