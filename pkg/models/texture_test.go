package models

import (
	"image"
	"image/color"
	"testing"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

func uv(u, v float64) math3d.Vec2[float64] { return math3d.V2(u, v) }

func TestTextureFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 0, 255, 255})

	tex := TextureFromImage[float64](img)
	w, h := tex.Size()
	if w != 2 || h != 1 {
		t.Fatalf("size = %dx%d", w, h)
	}
	if tex.At(1, 0) != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("At(1,0) = %v", tex.At(1, 0))
	}
	if tex.At(5, 5) != (color.RGBA{}) {
		t.Error("out of range pixel should be zero")
	}
}

func TestSampleBilinear(t *testing.T) {
	tex := NewCheckerTexture[float64](2, 2, 1, white, black)

	tests := []struct {
		name string
		uv   math3d.Vec2[float64]
		want math3d.Vec3[float64]
	}{
		// Texel centers reproduce the texel exactly. v=0.75 is image row 0.
		{"top-left texel", uv(0.25, 0.75), math3d.Splat3(1.0)},
		{"top-right texel", uv(0.75, 0.75), math3d.Splat3(0.0)},
		{"bottom-left texel", uv(0.25, 0.25), math3d.Splat3(0.0)},
		// Halfway between texels blends evenly.
		{"center", uv(0.5, 0.5), math3d.Splat3(0.5)},
		// Repeat wrap: shifting by whole units does not change the result.
		{"wrapped", uv(1.25, -0.25), math3d.Splat3(1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tex.Sample(tt.uv)
			if !got.ApproxEqual(tt.want, 1e-9) {
				t.Errorf("Sample(%v) = %v, want %v", tt.uv, got, tt.want)
			}
		})
	}
}

func TestSampleWrapBlendsAcrossEdge(t *testing.T) {
	tex := NewCheckerTexture[float64](2, 2, 1, white, black)
	// u=0 sits between the last and first column under repeat wrap.
	got := tex.Sample(uv(0, 0.75))
	if !got.ApproxEqual(math3d.Splat3(0.5), 1e-9) {
		t.Errorf("edge sample = %v, want 0.5 grey", got)
	}

	clamped := *tex
	clamped.WrapU = WrapClamp
	got = clamped.Sample(uv(0, 0.75))
	if !got.ApproxEqual(math3d.Splat3(1.0), 1e-9) {
		t.Errorf("clamped edge sample = %v, want white", got)
	}
}

func TestSampleNearest(t *testing.T) {
	tex := NewCheckerTexture[float32](4, 4, 2, white, black)
	tex.Filter = FilterNearest
	if got := tex.Sample(math3d.V2[float32](0.1, 0.9)); got != math3d.Splat3[float32](1) {
		t.Errorf("nearest top-left = %v", got)
	}
	if got := tex.Sample(math3d.V2[float32](0.9, 0.9)); got != math3d.Splat3[float32](0) {
		t.Errorf("nearest top-right = %v", got)
	}
}

func TestSharedTextureIsSampler(t *testing.T) {
	tex := NewSolidTexture[float64](white)
	a := DefaultMaterial[float64]()
	b := DefaultMaterial[float64]()
	a.DiffuseMap = tex
	b.DiffuseMap = tex
	if a.DiffuseMap.Sample(uv(0.3, 0.3)) != b.DiffuseMap.Sample(uv(0.9, 0.1)) {
		t.Error("solid texture should sample identically everywhere")
	}
}
