package models

import (
	"math"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Cube returns an axis-aligned cube of the given side centered on the origin,
// with per-face normals and a full [0,1] UV square on every face.
func Cube[T math3d.Float](size T) *Model[T] {
	m := NewModel[T]("cube")
	h := size / 2

	sides := [6][3]math3d.Vec3[T]{
		// normal, u axis, v axis with u x v = normal
		{{X: 1}, {Z: -1}, {Y: 1}},
		{{X: -1}, {Z: 1}, {Y: 1}},
		{{Y: 1}, {X: 1}, {Z: -1}},
		{{Y: -1}, {X: 1}, {Z: 1}},
		{{Z: 1}, {X: 1}, {Y: 1}},
		{{Z: -1}, {X: -1}, {Y: 1}},
	}
	m.Geometry.UVs = []math3d.Vec2[T]{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	for _, s := range sides {
		n, u, v := s[0], s[1].Scale(h), s[2].Scale(h)
		c := n.Scale(h)
		base := len(m.Geometry.Vertices)
		m.Geometry.Vertices = append(m.Geometry.Vertices,
			c.Sub(u).Sub(v),
			c.Add(u).Sub(v),
			c.Add(u).Add(v),
			c.Sub(u).Add(v),
		)
		ni := len(m.Geometry.Normals)
		m.Geometry.Normals = append(m.Geometry.Normals, n)
		quad(&m.Geometry, base, base+1, base+2, base+3, 0, 1, 2, 3, ni)
	}
	return m
}

// Plane returns a square in the XZ plane facing +Y.
func Plane[T math3d.Float](size T) *Model[T] {
	m := NewModel[T]("plane")
	h := size / 2
	m.Geometry.Vertices = []math3d.Vec3[T]{
		{X: -h, Z: h}, {X: h, Z: h}, {X: h, Z: -h}, {X: -h, Z: -h},
	}
	m.Geometry.UVs = []math3d.Vec2[T]{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	m.Geometry.Normals = []math3d.Vec3[T]{{Y: 1}}
	quad(&m.Geometry, 0, 1, 2, 3, 0, 1, 2, 3, 0)
	return m
}

func quad[T math3d.Float](g *Geometry[T], a, b, c, d, ta, tb, tc, td, n int) {
	g.Faces = append(g.Faces,
		Face{{a, ta, n}, {b, tb, n}, {c, tc, n}},
		Face{{a, ta, n}, {c, tc, n}, {d, td, n}},
	)
}

// UVSphere returns a latitude/longitude sphere. segments is the number of
// longitudinal slices (at least 3) and rings the number of latitude bands
// (at least 2).
func UVSphere[T math3d.Float](radius T, segments, rings int) *Model[T] {
	segments = max(segments, 3)
	rings = max(rings, 2)
	m := NewModel[T]("sphere")
	g := &m.Geometry

	for i := 0; i <= rings; i++ {
		theta := math.Pi * float64(i) / float64(rings)
		for j := 0; j <= segments; j++ {
			phi := 2 * math.Pi * float64(j) / float64(segments)
			n := math3d.V3(
				T(math.Sin(theta)*math.Cos(phi)),
				T(math.Cos(theta)),
				T(math.Sin(theta)*math.Sin(phi)),
			)
			g.Vertices = append(g.Vertices, n.Scale(radius))
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, math3d.V2(T(j)/T(segments), 1-T(i)/T(rings)))
		}
	}

	idx := func(i, j int) FaceVertex {
		k := i*(segments+1) + j
		return FaceVertex{V: k, UV: k, N: k}
	}
	for i := range rings {
		for j := range segments {
			a, b := idx(i, j), idx(i, j+1)
			c, d := idx(i+1, j), idx(i+1, j+1)
			if i != 0 {
				g.Faces = append(g.Faces, Face{a, b, c})
			}
			if i != rings-1 {
				g.Faces = append(g.Faces, Face{b, d, c})
			}
		}
	}
	return m
}
