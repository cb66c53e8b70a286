package render

import (
	"math"
	"testing"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// clipTriangle builds world-space attributes for a triangle.
func clipTriangle(a, b, c math3d.Vec3[float64]) [3]Attributes[float64] {
	return [3]Attributes[float64]{
		{WorldPos: a, UV: math3d.V2(0.0, 0.0)},
		{WorldPos: b, UV: math3d.V2(1.0, 0.0)},
		{WorldPos: c, UV: math3d.V2(0.0, 1.0)},
	}
}

func TestClipNearCounts(t *testing.T) {
	cam := NewCamera[float64](100, 100)
	viewProj := cam.ViewProjectionMatrix()

	// The camera sits at the origin looking down -Z; z > -near is behind the near plane.
	tests := []struct {
		name    string
		tri     [3]Attributes[float64]
		nOut    int
		wantOut int
	}{
		{"none clipped", clipTriangle(v3(-1, -1, -5), v3(1, -1, -5), v3(0, 1, -5)), 0, 1},
		{"one clipped", clipTriangle(v3(-1, -1, -5), v3(1, -1, -5), v3(0, 0.1, 1)), 1, 2},
		{"two clipped", clipTriangle(v3(-1, -1, -5), v3(1, -0.2, 1), v3(-0.3, 0.1, 2)), 2, 1},
		{"all clipped", clipTriangle(v3(-1, -1, 1), v3(1, -1, 2), v3(0, 1, 3)), 3, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cv [3]ClipVertex[float64]
			outside := 0
			for i := range tc.tri {
				cv[i] = ToClip(viewProj, tc.tri[i])
				if cv[i].Clip.Z < -cv[i].Clip.W {
					outside++
				}
			}
			if outside != tc.nOut {
				t.Fatalf("fixture has %d near-clipped vertices, want %d", outside, tc.nOut)
			}

			tris, n := ClipNear(cv)
			if n != tc.wantOut {
				t.Fatalf("ClipNear emitted %d triangles, want %d", n, tc.wantOut)
			}
			if tc.nOut == 0 && tris[0] != cv {
				t.Error("unclipped triangle was modified")
			}
			for i := range n {
				for j, v := range tris[i] {
					if v.Clip.Z < -v.Clip.W-1e-9 {
						t.Errorf("triangle %d vertex %d behind near plane: %v", i, j, v.Clip)
					}
					if math.Abs(v.InvW*v.Clip.W-1) > 1e-9 {
						t.Errorf("triangle %d vertex %d invW = %v for w = %v", i, j, v.InvW, v.Clip.W)
					}
				}
			}
		})
	}
}

func TestClipNearPreservesWinding(t *testing.T) {
	cam := NewCamera[float64](100, 100)
	viewProj := cam.ViewProjectionMatrix()

	// Counter-clockwise as seen from the camera, with each vertex in turn
	// pushed behind the near plane.
	base := [3]math3d.Vec3[float64]{v3(-1, -1, -3), v3(1, -1, -3), v3(0, 1, -3)}
	for k := range 3 {
		pts := base
		pts[k].Z = 2
		tri := clipTriangle(pts[0], pts[1], pts[2])

		out, n := ClipAndProject(tri, viewProj, cam)
		if n != 2 {
			t.Fatalf("vertex %d clipped: got %d triangles, want 2", k, n)
		}
		for i := range n {
			if area := out[i].SignedArea(); area <= 0 {
				t.Errorf("vertex %d clipped: triangle %d has area %v, want > 0", k, i, area)
			}
		}
	}
}

func TestClipNearInterpolatesAttributes(t *testing.T) {
	cam := NewCamera[float64](100, 100)
	viewProj := cam.ViewProjectionMatrix()
	near, _ := cam.ClipPlanes()

	in := Attributes[float64]{WorldPos: v3(0, 0, -1), UV: math3d.V2(0.0, 0.0)}
	out := Attributes[float64]{WorldPos: v3(0, 0, 1), UV: math3d.V2(1.0, 0.0)}
	p := intersectNear(ToClip(viewProj, in), ToClip(viewProj, out))

	if math.Abs(p.Clip.Z+p.Clip.W) > 1e-12 {
		t.Errorf("intersection not on near plane: %v", p.Clip)
	}
	if math.Abs(p.Clip.W-near) > 1e-12 {
		t.Errorf("intersection w = %v, want near distance %v", p.Clip.W, near)
	}
	// Attributes are interpolated linearly in clip space, so the world
	// position lands on the near plane as well.
	if math.Abs(p.Attr.WorldPos.Z+near) > 1e-9 {
		t.Errorf("interpolated world z = %v, want %v", p.Attr.WorldPos.Z, -near)
	}
	if p.Attr.UV.X <= 0 || p.Attr.UV.X >= 1 {
		t.Errorf("interpolated UV = %v, want strictly between endpoints", p.Attr.UV)
	}
}

func TestTriviallyRejected(t *testing.T) {
	cam := NewCamera[float64](100, 100)
	viewProj := cam.ViewProjectionMatrix()

	tests := []struct {
		name string
		tri  [3]Attributes[float64]
		want bool
	}{
		{"visible", clipTriangle(v3(-1, -1, -5), v3(1, -1, -5), v3(0, 1, -5)), false},
		{"left", clipTriangle(v3(-20, -1, -5), v3(-19, -1, -5), v3(-19, 1, -5)), true},
		{"right", clipTriangle(v3(20, -1, -5), v3(19, -1, -5), v3(19, 1, -5)), true},
		{"above", clipTriangle(v3(-1, 20, -5), v3(1, 20, -5), v3(0, 21, -5)), true},
		{"below", clipTriangle(v3(-1, -20, -5), v3(1, -20, -5), v3(0, -21, -5)), true},
		{"beyond far", clipTriangle(v3(-1, -1, -2000), v3(1, -1, -2000), v3(0, 1, -2000)), true},
		{"behind", clipTriangle(v3(-1, -1, 5), v3(1, -1, 5), v3(0, 1, 5)), true},
		{"straddles left", clipTriangle(v3(-20, -1, -5), v3(1, -1, -5), v3(0, 1, -5)), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cv [3]ClipVertex[float64]
			for i := range tc.tri {
				cv[i] = ToClip(viewProj, tc.tri[i])
			}
			if got := TriviallyRejected(cv); got != tc.want {
				t.Errorf("TriviallyRejected = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProjectViewport(t *testing.T) {
	v := ClipVertex[float64]{Clip: math3d.V4(-2.0, 2.0, 1.0, 2.0), InvW: 0.5}
	p := Project(v, 200, 100)
	if p.Screen.X != 0 || p.Screen.Y != 0 {
		t.Errorf("top-left NDC corner maps to %v, want (0, 0)", p.Screen)
	}
	if p.Depth != 0.5 {
		t.Errorf("depth = %v, want 0.5", p.Depth)
	}
}
