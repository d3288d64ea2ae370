package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BoneGroup is the index range contributed by one bone's cubes.
type BoneGroup struct {
	Bone       string
	StartIndex int32
	IndexCount int32
	Textured   bool
}

// Mesh holds the posed skeleton baked into model-space triangles.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Groups   []BoneGroup
	Bounds   Bounds
}

// faceBasis gives the outward normal and the in-plane right and up axes
// of each face as seen from outside the box.
var faceBasis = [FaceCount]struct {
	normal, right, up [3]float32
}{
	FaceRight:  {normal: [3]float32{0, 0, 1}, right: [3]float32{1, 0, 0}, up: [3]float32{0, 1, 0}},
	FaceFront:  {normal: [3]float32{0, 0, -1}, right: [3]float32{-1, 0, 0}, up: [3]float32{0, 1, 0}},
	FaceLeft:   {normal: [3]float32{1, 0, 0}, right: [3]float32{0, 0, -1}, up: [3]float32{0, 1, 0}},
	FaceBack:   {normal: [3]float32{-1, 0, 0}, right: [3]float32{0, 0, 1}, up: [3]float32{0, 1, 0}},
	FaceTop:    {normal: [3]float32{0, 1, 0}, right: [3]float32{1, 0, 0}, up: [3]float32{0, 0, -1}},
	FaceBottom: {normal: [3]float32{0, -1, 0}, right: [3]float32{1, 0, 0}, up: [3]float32{0, 0, 1}},
}

// cornerSigns orders the quad as bottom-left, bottom-right, top-right, top-left.
var cornerSigns = [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// BuildMesh bakes every cube of the skeleton in its current pose.
// Each face becomes a quad of four vertices and two counter-clockwise triangles.
func BuildMesh(sk *Skeleton) *Mesh {
	world := sk.WorldMatrices()
	mesh := &Mesh{
		Bounds: Bounds{
			Min: [3]float32{1e10, 1e10, 1e10},
			Max: [3]float32{-1e10, -1e10, -1e10},
		},
	}

	for _, bone := range sk.Bones() {
		if len(bone.Cubes) == 0 {
			continue
		}
		// A bone splits into several groups when textured and untextured cubes alternate
		var group *BoneGroup
		for _, cube := range bone.Cubes {
			textured := cube.Faces != nil
			if group == nil || group.Textured != textured {
				mesh.Groups = append(mesh.Groups, BoneGroup{
					Bone:       bone.Name,
					StartIndex: int32(len(mesh.Indices)),
					Textured:   textured,
				})
				group = &mesh.Groups[len(mesh.Groups)-1]
			}
			appendCube(mesh, cube, world[bone.Index].Mul4(cube.Transform.Matrix()))
			group.IndexCount = int32(len(mesh.Indices)) - group.StartIndex
		}
	}

	if len(mesh.Vertices) == 0 {
		mesh.Bounds = Bounds{}
	}
	return mesh
}

func appendCube(mesh *Mesh, cube *CubeMesh, m mgl32.Mat4) {
	h := cube.HalfExtents()
	half := [3]float32{h.X, h.Y, h.Z}

	for f := Face(0); f < FaceCount; f++ {
		basis := faceBasis[f]
		normal := TransformNormal(m, basis.normal)

		var uvs [4][2]float32
		if cube.Faces != nil {
			uvs = cube.Faces[f].Corners()
		}

		base := uint32(len(mesh.Vertices))
		for i, s := range cornerSigns {
			var local [3]float32
			for k := 0; k < 3; k++ {
				local[k] = (basis.normal[k] + basis.right[k]*s[0] + basis.up[k]*s[1]) * half[k]
			}
			pos := TransformPoint(m, local)
			updateBounds(&mesh.Bounds, pos)
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: pos,
				Normal:   normal,
				TexCoord: uvs[i],
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
}

func updateBounds(b *Bounds, p [3]float32) {
	for k := 0; k < 3; k++ {
		if p[k] < b.Min[k] {
			b.Min[k] = p[k]
		}
		if p[k] > b.Max[k] {
			b.Max[k] = p[k]
		}
	}
}
