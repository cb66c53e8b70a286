package models

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/tinunadno/render-engine-family/internal/logging"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// ErrNoMeshes is returned when a glTF document has no triangle primitives.
var ErrNoMeshes = errors.New("gltf: no triangle meshes")

// GLTFLoader loads GLTF/GLB files into a single Model.
type GLTFLoader struct {
	// CalculateNormals generates normals when the file has none.
	CalculateNormals bool
	// LoadTextures decodes the base color texture of the first material.
	LoadTextures bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		LoadTextures:     true,
	}
}

// LoadGLTF loads a .gltf or .glb file with the default loader.
func LoadGLTF[T math3d.Float](path string) (*Model[T], error) {
	return Load[T](NewGLTFLoader(), path)
}

// Load loads a GLTF or GLB file and merges every triangle primitive into one
// model. The material comes from the first primitive that has one.
func Load[T math3d.Float](l *GLTFLoader, path string) (*Model[T], error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	model := NewModel[T](filepath.Base(path))
	materialIdx := -1

	for _, m := range doc.Meshes {
		idx, err := processMesh(doc, m, &model.Geometry)
		if err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
		if materialIdx < 0 {
			materialIdx = idx
		}
	}
	if len(model.Geometry.Faces) == 0 {
		return nil, ErrNoMeshes
	}

	if l.CalculateNormals && len(model.Geometry.Normals) == 0 {
		model.Geometry.CalculateSmoothNormals()
	}

	if materialIdx >= 0 {
		model.Material = convertMaterial[T](doc, doc.Materials[materialIdx], filepath.Dir(path), l.LoadTextures)
	}
	return model, nil
}

// processMesh appends the triangle primitives of m and returns the first
// material index it references, or -1.
func processMesh[T math3d.Float](doc *gltf.Document, m *gltf.Mesh, g *Geometry[T]) (int, error) {
	materialIdx := -1

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return -1, fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
			if err != nil {
				return -1, fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
			if err != nil {
				return -1, fmt.Errorf("read uvs: %w", err)
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return -1, fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		base := len(g.Vertices)
		uvBase := len(g.UVs)
		nBase := len(g.Normals)

		for _, p := range positions {
			g.Vertices = append(g.Vertices, math3d.V3(T(p[0]), T(p[1]), T(p[2])))
		}
		for _, n := range normals {
			g.Normals = append(g.Normals, math3d.V3(T(n[0]), T(n[1]), T(n[2])))
		}
		for _, uv := range uvs {
			// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
			g.UVs = append(g.UVs, math3d.V2(T(uv[0]), 1-T(uv[1])))
		}

		corner := func(i uint32) FaceVertex {
			fv := FaceVertex{V: base + int(i), UV: Absent, N: Absent}
			if int(i) < len(uvs) {
				fv.UV = uvBase + int(i)
			}
			if int(i) < len(normals) {
				fv.N = nBase + int(i)
			}
			return fv
		}

		// glTF front faces are counter-clockwise, which is what the renderer expects.
		for i := 0; i+2 < len(indices); i += 3 {
			g.Faces = append(g.Faces, Face{corner(indices[i]), corner(indices[i+1]), corner(indices[i+2])})
		}

		if materialIdx < 0 && prim.Material != nil {
			materialIdx = *prim.Material
		}
	}

	return materialIdx, nil
}

func convertMaterial[T math3d.Float](doc *gltf.Document, gm *gltf.Material, dir string, loadTextures bool) Material[T] {
	mat := DefaultMaterial[T]()
	mat.Name = gm.Name

	pbr := gm.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}
	if c := pbr.BaseColorFactor; c != nil {
		mat.BaseColor = math3d.V3(T(c[0]), T(c[1]), T(c[2]))
	}
	if r := pbr.RoughnessFactor; r != nil {
		mat.Roughness = T(*r)
	}
	if pbr.BaseColorTexture != nil && loadTextures {
		img, err := readImage(doc, pbr.BaseColorTexture.Index, dir)
		if err != nil {
			logging.Logger().Warn("base color texture unavailable", "material", gm.Name, "err", err)
		} else {
			mat.DiffuseMap = TextureFromImage[T](img)
		}
	}
	return mat
}

// readImage decodes the image behind texture index tex, embedded or external.
func readImage(doc *gltf.Document, tex int, dir string) (image.Image, error) {
	if tex < 0 || tex >= len(doc.Textures) || doc.Textures[tex].Source == nil {
		return nil, fmt.Errorf("texture %d has no source", tex)
	}
	src := doc.Images[*doc.Textures[tex].Source]

	var data []byte
	var err error
	switch {
	case src.BufferView != nil:
		data, err = modeler.ReadBufferView(doc, doc.BufferViews[*src.BufferView])
	case src.URI != "":
		data, err = os.ReadFile(filepath.Join(dir, src.URI))
	default:
		return nil, fmt.Errorf("image for texture %d has no data", tex)
	}
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
