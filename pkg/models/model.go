// Package models holds renderable geometry, materials and textures, plus the
// OBJ and glTF loaders that produce them.
package models

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Sampler is a read-only 2D texture lookup returning linear RGB in [0,1].
// Implementations must be safe for concurrent use.
type Sampler[T math3d.Float] interface {
	Sample(uv math3d.Vec2[T]) math3d.Vec3[T]
}

// FaceVertex indexes one face corner into the geometry arrays.
// A UV or N index outside its array marks the attribute as absent.
type FaceVertex struct {
	V, UV, N int
}

// Face is a triangle of three corners.
type Face [3]FaceVertex

// Absent is the conventional index for a missing UV or normal.
const Absent = -1

// Geometry is an indexed triangle soup with a local transform.
// UVs and Normals may be shorter than Vertices.
type Geometry[T math3d.Float] struct {
	Vertices []math3d.Vec3[T]
	UVs      []math3d.Vec2[T]
	Normals  []math3d.Vec3[T]
	Faces    []Face

	Position math3d.Vec3[T]
	Rotation math3d.Vec3[T] // Euler angles in radians, applied X then Y then Z
	Scale    math3d.Vec3[T] // zero value means unit scale
}

// Material describes surface appearance. Nil maps are absent; shaders check
// before sampling. Maps may be shared between materials.
type Material[T math3d.Float] struct {
	Name         string
	BaseColor    math3d.Vec3[T]
	DiffuseMap   Sampler[T]
	NormalMap    Sampler[T]
	RoughnessMap Sampler[T]
	Ambient      T
	Specular     T
	Roughness    T
}

// DefaultMaterial returns a white material with 0.1 ambient and no specular.
func DefaultMaterial[T math3d.Float]() Material[T] {
	return Material[T]{
		Name:      "default",
		BaseColor: math3d.Splat3[T](1),
		Ambient:   0.1,
		Specular:  0,
		Roughness: 0.5,
	}
}

// Model pairs geometry with its material.
type Model[T math3d.Float] struct {
	Name     string
	Geometry Geometry[T]
	Material Material[T]
}

// NewModel creates an empty model with the default material.
func NewModel[T math3d.Float](name string) *Model[T] {
	return &Model[T]{
		Name:     name,
		Material: DefaultMaterial[T](),
	}
}

// TriangleCount returns the number of triangles.
func (m *Model[T]) TriangleCount() int {
	return len(m.Geometry.Faces)
}

// VertexCount returns the number of vertices.
func (m *Model[T]) VertexCount() int {
	return len(m.Geometry.Vertices)
}

// Transform returns the local-to-world matrix: translate * rotate * scale.
func (g *Geometry[T]) Transform() math3d.Mat4[T] {
	s := g.Scale
	if s == (math3d.Vec3[T]{}) {
		s = math3d.Splat3[T](1)
	}
	return math3d.Translate(g.Position).
		Mul(math3d.RotateEuler(g.Rotation)).
		Mul(math3d.Scale(s))
}

// Corner is a fully resolved face corner in local space.
type Corner[T math3d.Float] struct {
	Position math3d.Vec3[T]
	UV       math3d.Vec2[T]
	Normal   math3d.Vec3[T]
}

// Corners resolves face i into positions, UVs and normals. Absent UVs become
// (0,0); absent normals fall back to the face's geometric normal.
func (g *Geometry[T]) Corners(i int) [3]Corner[T] {
	f := g.Faces[i]
	var out [3]Corner[T]
	var faceNormal math3d.Vec3[T]
	haveFaceNormal := false

	for k, fv := range f {
		out[k].Position = g.Vertices[fv.V]
		if fv.UV >= 0 && fv.UV < len(g.UVs) {
			out[k].UV = g.UVs[fv.UV]
		}
		if fv.N >= 0 && fv.N < len(g.Normals) {
			out[k].Normal = g.Normals[fv.N]
			continue
		}
		if !haveFaceNormal {
			faceNormal = g.FaceNormal(i)
			haveFaceNormal = true
		}
		out[k].Normal = faceNormal
	}
	return out
}

// FaceNormal returns the unit geometric normal of face i (counter-clockwise
// winding faces outward), or zero for a degenerate face.
func (g *Geometry[T]) FaceNormal(i int) math3d.Vec3[T] {
	f := g.Faces[i]
	v0 := g.Vertices[f[0].V]
	v1 := g.Vertices[f[1].V]
	v2 := g.Vertices[f[2].V]
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

// FaceTangents returns the tangent and bitangent of face i derived from its
// UV layout. Faces without usable UVs get an arbitrary frame around the face
// normal.
func (g *Geometry[T]) FaceTangents(i int) (tangent, bitangent math3d.Vec3[T]) {
	c := g.Corners(i)
	e1 := c[1].Position.Sub(c[0].Position)
	e2 := c[2].Position.Sub(c[0].Position)
	d1 := c[1].UV.Sub(c[0].UV)
	d2 := c[2].UV.Sub(c[0].UV)

	det := d1.X*d2.Y - d2.X*d1.Y
	if det != 0 {
		r := 1 / det
		tangent = e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(r)
		bitangent = e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(r)
		if t, ok := tangent.TryNormalize(); ok {
			if b, ok := bitangent.TryNormalize(); ok {
				return t, b
			}
		}
	}

	n := g.FaceNormal(i)
	axis := math3d.Up[T]()
	if math3d.Abs(n.Y) > 0.9 {
		axis = math3d.Right[T]()
	}
	tangent = axis.Cross(n).Normalize()
	bitangent = n.Cross(tangent)
	return tangent, bitangent
}

// Bounds returns the local-space axis-aligned bounding box.
// An empty geometry reports zero bounds.
func (g *Geometry[T]) Bounds() (lo, hi math3d.Vec3[T]) {
	if len(g.Vertices) == 0 {
		return lo, hi
	}
	lo, hi = g.Vertices[0], g.Vertices[0]
	for _, v := range g.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi
}

// CalculateSmoothNormals replaces the normal array with area-weighted vertex
// normals and points every face corner at them.
func (g *Geometry[T]) CalculateSmoothNormals() {
	normals := make([]math3d.Vec3[T], len(g.Vertices))

	for _, f := range g.Faces {
		v0 := g.Vertices[f[0].V]
		v1 := g.Vertices[f[1].V]
		v2 := g.Vertices[f[2].V]
		n := v1.Sub(v0).Cross(v2.Sub(v0)) // Don't normalize yet
		for _, fv := range f {
			normals[fv.V] = normals[fv.V].Add(n)
		}
	}

	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	for i := range g.Faces {
		for k := range 3 {
			g.Faces[i][k].N = g.Faces[i][k].V
		}
	}
	g.Normals = normals
}

// Normalize recenters the vertices on the origin and scales them uniformly so
// the largest bounding box side equals size.
func (g *Geometry[T]) Normalize(size T) {
	lo, hi := g.Bounds()
	center := lo.Add(hi).Scale(0.5)
	extent := hi.Sub(lo).MaxComponent()
	scale := T(1)
	if extent > 0 {
		scale = size / extent
	}
	for i, v := range g.Vertices {
		g.Vertices[i] = v.Sub(center).Scale(scale)
	}
}

// Clone creates a deep copy of the geometry arrays. Texture samplers in the
// material are shared.
func (m *Model[T]) Clone() *Model[T] {
	c := *m
	c.Geometry.Vertices = append([]math3d.Vec3[T](nil), m.Geometry.Vertices...)
	c.Geometry.UVs = append([]math3d.Vec2[T](nil), m.Geometry.UVs...)
	c.Geometry.Normals = append([]math3d.Vec3[T](nil), m.Geometry.Normals...)
	c.Geometry.Faces = append([]Face(nil), m.Geometry.Faces...)
	return &c
}
