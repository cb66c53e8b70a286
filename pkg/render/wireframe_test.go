package render

import (
	"testing"
)

func countPainted(fb *Framebuffer) int {
	n := 0
	for _, p := range fb.Pixels {
		if p.A != 0 {
			n++
		}
	}
	return n
}

func TestWireframeDrawLine3D(t *testing.T) {
	tests := []struct {
		name    string
		a, b    [3]float64
		painted bool
	}{
		{"in front", [3]float64{-1, 0, -5}, [3]float64{1, 0, -5}, true},
		{"crosses near plane", [3]float64{0, -0.5, -5}, [3]float64{0, -0.5, 5}, true},
		{"behind", [3]float64{-1, 0, 5}, [3]float64{1, 0, 5}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(64, 48)
			cam := NewCamera[float64](64, 48)
			w := NewWireframe(cam, fb)
			w.DrawLine3D(v3(tc.a[0], tc.a[1], tc.a[2]), v3(tc.b[0], tc.b[1], tc.b[2]), ColorWhite)
			if got := countPainted(fb) > 0; got != tc.painted {
				t.Errorf("painted = %v, want %v", got, tc.painted)
			}
		})
	}
}

func TestWireframeGizmos(t *testing.T) {
	fb := NewFramebuffer(64, 48)
	cam := NewCamera[float64](64, 48)
	cam.SetPosition(v3(3, 3, 3))
	cam.LookAt(v3(0, 0, 0))
	w := NewWireframe(cam, fb)

	w.DrawAxes(1)
	seen := map[Color]bool{}
	for _, p := range fb.Pixels {
		seen[p] = true
	}
	for _, c := range []Color{ColorRed, ColorGreen, ColorBlue} {
		if !seen[c] {
			t.Errorf("axis color %v not drawn", c)
		}
	}

	fb.Clear(Color{})
	w.DrawCone(v3(0, 0, 0), v3(0, -1, 0), 1, 0.3, 8, ColorYellow)
	if countPainted(fb) == 0 {
		t.Error("cone not drawn")
	}

	fb.Clear(Color{})
	w.DrawLight(NewDirectionalLight(v3(0, 0, 0), 1), v3(0, 0, 0), 1, ColorYellow)
	if countPainted(fb) != 0 {
		t.Error("light with zero direction drew a cone")
	}
}
