package raymarch

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"testing"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

func testCamera(width, height int) *render.Camera[float64] {
	cam := render.NewCamera[float64](width, height)
	cam.SetPosition(v3(0, 0, 2))
	return cam
}

func TestRenderFrame(t *testing.T) {
	cam := testCamera(16, 12)
	fb := render.NewFramebuffer(16, 12)
	r := NewRenderer(sphereScene(0.5))
	r.Shade = FlatShade(v3(0, 0, 1))
	r.Workers = 1

	stats, err := r.RenderFrame(context.Background(), cam, fb)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if stats.Rays != 16*12 || stats.Hits == 0 || stats.Hits == stats.Rays {
		t.Errorf("stats = %+v, want some hits out of %d rays", stats, 16*12)
	}

	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	if got := fb.GetPixel(8, 6); got != red {
		t.Errorf("center pixel = %v, want %v", got, red)
	}
	if got := fb.GetPixel(0, 0); got != blue {
		t.Errorf("corner pixel = %v, want %v", got, blue)
	}
}

func TestRenderFrameParallelMatchesSerial(t *testing.T) {
	scene := sphereScene(0.5)
	scene.AddObject(Object[float64]{Shape: NewEllipsoid(1, v3(1, 0.2, 1)), Material: Material[float64]{Color: v3(1, 0.5, 0)}})
	scene.AddCurvature(&BlackHole[float64]{SchwarzschildRadius: 0.7, InfluenceRadius: 0.7, Strength: 0.5})
	cam := testCamera(40, 30)
	cam.SetPosition(v3(0, 0.4, 2))

	render1 := func(workers int) []color.RGBA {
		fb := render.NewFramebuffer(40, 30)
		r := NewRenderer(scene)
		r.Shade = LambertShade(v3(-1, -1, -1), 0.2, v3(0.3, 0.05, 0.2))
		r.Workers = workers
		if _, err := r.RenderFrame(context.Background(), cam, fb); err != nil {
			t.Fatalf("RenderFrame(workers=%d): %v", workers, err)
		}
		return fb.Pixels
	}

	serial := render1(1)
	parallel := render1(4)
	if !slices.Equal(serial, parallel) {
		t.Error("parallel frame differs from serial frame")
	}
}

func TestRenderFrameCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fb := render.NewFramebuffer(8, 8)
	r := NewRenderer(sphereScene(0.5))
	_, err := r.RenderFrame(ctx, testCamera(8, 8), fb)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRenderFrameSmallTarget(t *testing.T) {
	fb := render.NewFramebuffer(4, 4)
	r := NewRenderer(sphereScene(0.5))
	stats, err := r.RenderFrame(context.Background(), testCamera(16, 12), fb)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if stats.Rays != 16 {
		t.Errorf("Rays = %d, want 16", stats.Rays)
	}
}

func TestStepsShade(t *testing.T) {
	shade := StepsShade[float64](80)
	got := shade(render.Ray[float64]{}, &Result[float64]{Iterations: 40})
	if !got.ApproxEqual(math3d.Splat3(0.5), 1e-12) {
		t.Errorf("StepsShade = %v, want 0.5 gray", got)
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	scene := sphereScene(0.5)
	scene.AddCurvature(&BlackHole[float64]{SchwarzschildRadius: 0.7, InfluenceRadius: 0.7, Strength: 0.5})
	cam := testCamera(80, 60)
	fb := render.NewFramebuffer(80, 60)
	r := NewRenderer(scene)
	for b.Loop() {
		r.RenderFrame(context.Background(), cam, fb)
	}
}
