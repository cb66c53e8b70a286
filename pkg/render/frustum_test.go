package render

import (
	"math"
	"testing"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane[float64]{Normal: v3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3[float64]
		expected float64
	}{
		{"origin", v3(0, 0, 0), 0},
		{"in front", v3(0, 0, 5), 5},
		{"behind", v3(0, 0, -3), -3},
		{"offset XY", v3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane[float64]{Normal: v3(0, 3, 4), D: 10}
	plane.Normalize()

	if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", length)
	}
	// Check components (3/5, 4/5)
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 || math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	// D should be scaled too (10/5 = 2)
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

func TestAABBTransform(t *testing.T) {
	box := AABB[float64]{Min: v3(-1, -1, -1), Max: v3(1, 1, 1)}

	t.Run("translate", func(t *testing.T) {
		got := box.Transform(math3d.Translate(v3(5, 0, -2)))
		if !got.Min.ApproxEqual(v3(4, -1, -3), 1e-12) || !got.Max.ApproxEqual(v3(6, 1, -1), 1e-12) {
			t.Errorf("translated box = %+v", got)
		}
	})

	t.Run("rotate 45 degrees", func(t *testing.T) {
		got := box.Transform(math3d.RotateY(math.Pi / 4))
		r := math.Sqrt2
		if math.Abs(got.Max.X-r) > 1e-9 || math.Abs(got.Max.Z-r) > 1e-9 || math.Abs(got.Max.Y-1) > 1e-9 {
			t.Errorf("rotated max = %v, want (%v, 1, %v)", got.Max, r, r)
		}
	})

	t.Run("model bounds", func(t *testing.T) {
		cube := models.Cube[float64](2)
		cube.Geometry.Position = v3(0, 3, 0)
		cube.Geometry.Scale = v3(2, 1, 1)
		got := ModelBounds(&cube.Geometry)
		if !got.Min.ApproxEqual(v3(-2, 2, -1), 1e-12) || !got.Max.ApproxEqual(v3(2, 4, 1), 1e-12) {
			t.Errorf("model bounds = %+v", got)
		}
		if c := got.Center(); !c.ApproxEqual(v3(0, 3, 0), 1e-12) {
			t.Errorf("center = %v", c)
		}
	})
}

func TestFrustumFromCamera(t *testing.T) {
	cam := NewCamera[float64](160, 90)
	cam.SetClipPlanes(0.1, 100)
	frustum := NewFrustumFromMatrix(cam.ViewProjectionMatrix())

	// Verify planes are normalized
	for i, plane := range frustum.Planes {
		if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1.0", i, length)
		}
	}

	tests := []struct {
		name     string
		point    math3d.Vec3[float64]
		expected bool
	}{
		{"center near", v3(0, 0, -1), true},
		{"center mid", v3(0, 0, -50), true},
		{"center far", v3(0, 0, -99), true},
		{"behind camera", v3(0, 0, 1), false},
		{"too far", v3(0, 0, -200), false},
		{"too close", v3(0, 0, -0.01), false},
		{"left of view", v3(-20, 0, -10), false},
		{"inside left edge", v3(-9, 0, -10), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectAABB(t *testing.T) {
	cam := NewCamera[float64](160, 90)
	cam.SetClipPlanes(1, 100)
	frustum := NewFrustumFromMatrix(cam.ViewProjectionMatrix())

	tests := []struct {
		name     string
		box      AABB[float64]
		expected bool
	}{
		{"inside", AABB[float64]{Min: v3(-1, -1, -11), Max: v3(1, 1, -9)}, true},
		{"straddles near", AABB[float64]{Min: v3(-1, -1, -2), Max: v3(1, 1, 2)}, true},
		{"behind", AABB[float64]{Min: v3(-1, -1, 2), Max: v3(1, 1, 4)}, false},
		{"far right", AABB[float64]{Min: v3(50, -1, -11), Max: v3(52, 1, -9)}, false},
		{"beyond far", AABB[float64]{Min: v3(-1, -1, -300), Max: v3(1, 1, -200)}, false},
		{"contains frustum", AABB[float64]{Min: v3(-500, -500, -500), Max: v3(500, 500, 500)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectAABB(tc.box); got != tc.expected {
				t.Errorf("IntersectAABB = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	cam := NewCamera[float64](100, 100)
	cam.SetClipPlanes(1, 100)
	frustum := NewFrustumFromMatrix(cam.ViewProjectionMatrix())

	if !frustum.IntersectsSphere(v3(0, 0, -10), 1) {
		t.Error("sphere in view reported outside")
	}
	if frustum.IntersectsSphere(v3(0, 0, 10), 1) {
		t.Error("sphere behind camera reported inside")
	}
	if !frustum.IntersectsSphere(v3(0, 0, -0.5), 1) {
		t.Error("sphere touching the near plane reported outside")
	}
}

func TestFrustumWithRotatedCamera(t *testing.T) {
	cam := NewCamera[float64](100, 100)
	cam.SetPosition(v3(0, 0, 10))
	cam.LookAt(v3(10, 0, 10)) // look along +X
	frustum := NewFrustumFromMatrix(cam.ViewProjectionMatrix())

	if !frustum.ContainsPoint(v3(20, 0, 10)) {
		t.Error("point ahead of rotated camera not contained")
	}
	if frustum.ContainsPoint(v3(0, 0, 0)) {
		t.Error("point beside rotated camera contained")
	}
}

func BenchmarkFrustumIntersectAABB(b *testing.B) {
	cam := DefaultCamera[float64]()
	frustum := NewFrustumFromMatrix(cam.ViewProjectionMatrix())
	box := AABB[float64]{Min: v3(-1, -1, -11), Max: v3(1, 1, -9)}
	for b.Loop() {
		_ = frustum.IntersectAABB(box)
	}
}

func BenchmarkFrustumExtraction(b *testing.B) {
	m := DefaultCamera[float64]().ViewProjectionMatrix()
	for b.Loop() {
		_ = NewFrustumFromMatrix(m)
	}
}
