package render

import (
	"image/color"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/tinunadno/render-engine-family/internal/parallel"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
)

// triangleModel creates a single-triangle model without UVs or normals.
func triangleModel(a, b, c math3d.Vec3[float64]) *models.Model[float64] {
	m := models.NewModel[float64]("triangle")
	m.Geometry.Vertices = []math3d.Vec3[float64]{a, b, c}
	m.Geometry.Faces = []models.Face{{
		{V: 0, UV: models.Absent, N: models.Absent},
		{V: 1, UV: models.Absent, N: models.Absent},
		{V: 2, UV: models.Absent, N: models.Absent},
	}}
	return m
}

// createTestRenderer creates a renderer and a matching camera at the origin
// looking down -Z.
func createTestRenderer(width, height int) (*Renderer[float64], *Camera[float64]) {
	return NewRenderer[float64](width, height), NewCamera[float64](width, height)
}

func solid(c math3d.Vec3[float64]) ShaderFactory[float64] {
	return func(*models.Model[float64]) Shader[float64] {
		return func(*FragmentInput[float64]) math3d.Vec3[float64] { return c }
	}
}

func coverage(fb *Framebuffer) []bool {
	out := make([]bool, len(fb.Pixels))
	for i, p := range fb.Pixels {
		out[i] = p.A != 0
	}
	return out
}

func TestRasterizeCoversTriangle(t *testing.T) {
	r, cam := createTestRenderer(64, 48)
	m := triangleModel(v3(-1, -1, -3), v3(1, -1, -3), v3(0, 1, -3))
	r.RenderFrame(cam, []*models.Model[float64]{m}, solid(v3(1, 0, 0)), color.RGBA{})

	if got := r.Framebuffer.GetPixel(32, 24); got != ColorRed {
		t.Errorf("center pixel = %v, want red", got)
	}
	if got := r.Framebuffer.GetPixel(1, 1); got.A != 0 {
		t.Errorf("corner pixel = %v, want untouched", got)
	}
	if d := r.Depth.At(32, 24); math.Abs(d-3) > 1e-9 {
		t.Errorf("center depth = %v, want 3", d)
	}
	if s := r.Rasterizer.TriangleStats; s.Submitted != 1 || s.Binned != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRasterizeDepthOrder(t *testing.T) {
	near := triangleModel(v3(-1, -1, -2), v3(1, -1, -2), v3(0, 1, -2))
	far := triangleModel(v3(-2, -2, -4), v3(2, -2, -4), v3(0, 2, -4))
	near.Material.BaseColor = v3(1, 0, 0)
	far.Material.BaseColor = v3(0, 0, 1)

	orders := map[string][]*models.Model[float64]{
		"near first": {near, far},
		"far first":  {far, near},
	}
	for name, scene := range orders {
		t.Run(name, func(t *testing.T) {
			r, cam := createTestRenderer(64, 48)
			r.RenderFrame(cam, scene, FlatShader[float64], color.RGBA{})
			if got := r.Framebuffer.GetPixel(32, 24); got != ColorRed {
				t.Errorf("center pixel = %v, want red", got)
			}
		})
	}
}

func TestDepthBufferMonotonic(t *testing.T) {
	const w, h = 96, 64
	rng := rand.New(rand.NewPCG(1, 2))
	cam := NewCamera[float64](w, h)

	var scene []*models.Model[float64]
	for range 40 {
		z := -1 - rng.Float64()*20
		p := func() math3d.Vec3[float64] {
			return v3((rng.Float64()*2-1)*-z, (rng.Float64()*2-1)*-z*0.7, z+rng.Float64()*2-1)
		}
		scene = append(scene, triangleModel(p(), p(), p()))
	}

	// Depth of each triangle on its own: the candidate depths for every pixel.
	candidates := make([][]float64, len(scene))
	for i, m := range scene {
		fb := NewFramebuffer(w, h)
		depth := NewDepthBuffer[float64](w, h)
		NewRasterizer[float64](fb).Rasterize(m, cam.ViewProjectionMatrix(), cam, depth, nil)
		candidates[i] = slices.Clone(depth.Values())
	}

	fb := NewFramebuffer(w, h)
	depth := NewDepthBuffer[float64](w, h)
	rast := NewRasterizer[float64](fb)
	prev := slices.Clone(depth.Values())
	for _, m := range scene {
		rast.Rasterize(m, cam.ViewProjectionMatrix(), cam, depth, nil)
		for i, d := range depth.Values() {
			if d > prev[i] {
				t.Fatalf("pixel %d depth increased from %v to %v", i, prev[i], d)
			}
		}
		copy(prev, depth.Values())
	}

	for i, d := range depth.Values() {
		for _, c := range candidates {
			if c[i] < d {
				t.Fatalf("pixel %d depth %v exceeds candidate %v", i, d, c[i])
			}
		}
	}
}

func TestWindingInvariance(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c math3d.Vec3[float64]
	}{
		{"centered", v3(-1, -1, -3), v3(1, -1, -3), v3(0, 1, -3)},
		{"sliver", v3(-2, -0.1, -4), v3(2, 0, -4), v3(-1.5, 0.05, -4)},
		{"partly off screen", v3(-9, -1, -3), v3(1, -5, -3), v3(0.3, 2, -3)},
		{"tilted", v3(-1, -1, -2), v3(1, -1, -6), v3(0, 1.2, -3)},
		{"spans tiles", v3(-3, -2.5, -3), v3(3, -2, -3.5), v3(0.2, 2.4, -2.5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r1, cam := createTestRenderer(80, 64)
			r2, _ := createTestRenderer(80, 64)
			r1.RenderFrame(cam, []*models.Model[float64]{triangleModel(tc.a, tc.b, tc.c)}, FlatShader[float64], color.RGBA{})
			r2.RenderFrame(cam, []*models.Model[float64]{triangleModel(tc.a, tc.c, tc.b)}, FlatShader[float64], color.RGBA{})

			c1, c2 := coverage(r1.Framebuffer), coverage(r2.Framebuffer)
			if !slices.Contains(c1, true) {
				t.Fatal("triangle painted nothing")
			}
			if !slices.Equal(c1, c2) {
				t.Error("reversed winding painted a different pixel set")
			}
		})
	}
}

func TestBackfaceCulling(t *testing.T) {
	r, cam := createTestRenderer(64, 48)
	r.Rasterizer.CullBackfaces = true

	ccw := triangleModel(v3(-1, -1, -3), v3(1, -1, -3), v3(0, 1, -3))
	cw := triangleModel(v3(-1, -1, -3), v3(0, 1, -3), v3(1, -1, -3))

	r.RenderFrame(cam, []*models.Model[float64]{cw}, nil, color.RGBA{})
	if slices.Contains(coverage(r.Framebuffer), true) {
		t.Error("back face was drawn with culling enabled")
	}
	r.RenderFrame(cam, []*models.Model[float64]{ccw}, nil, color.RGBA{})
	if !slices.Contains(coverage(r.Framebuffer), true) {
		t.Error("front face was not drawn")
	}
}

func TestDegenerateTriangleSkipped(t *testing.T) {
	r, cam := createTestRenderer(64, 48)
	m := triangleModel(v3(-1, 0, -3), v3(0, 0, -3), v3(1, 0, -3))
	r.RenderFrame(cam, []*models.Model[float64]{m}, nil, color.RGBA{})

	if slices.Contains(coverage(r.Framebuffer), true) {
		t.Error("zero-area triangle painted pixels")
	}
	if got := r.Rasterizer.TriangleStats.Culled; got != 1 {
		t.Errorf("culled = %d, want 1", got)
	}
}

func TestFrustumCullingStats(t *testing.T) {
	r, cam := createTestRenderer(64, 48)
	visible := models.Cube[float64](1)
	visible.Geometry.Position = v3(0, 0, -5)
	behind := models.Cube[float64](1)
	behind.Geometry.Position = v3(0, 0, 5)

	r.RenderFrame(cam, []*models.Model[float64]{visible, behind}, nil, color.RGBA{})
	want := CullingStats{MeshesTested: 2, MeshesCulled: 1, MeshesDrawn: 1}
	if r.Rasterizer.CullingStats != want {
		t.Errorf("culling stats = %+v, want %+v", r.Rasterizer.CullingStats, want)
	}
}

func TestPerspectiveCorrectInterpolation(t *testing.T) {
	const w, h = 64, 48
	r, cam := createTestRenderer(w, h)
	floor := models.Plane[float64](40)
	floor.Geometry.Position = v3(0, -1, -20)

	world := make([]math3d.Vec3[float64], w*h)
	seen := make([]bool, w*h)
	capture := func(*models.Model[float64]) Shader[float64] {
		return func(in *FragmentInput[float64]) math3d.Vec3[float64] {
			world[in.Y*w+in.X] = in.WorldPos
			seen[in.Y*w+in.X] = true
			return v3(1, 1, 1)
		}
	}
	r.RenderFrame(cam, []*models.Model[float64]{floor}, capture, color.RGBA{})

	checked := 0
	for y := range h {
		for x := range w {
			i := y*w + x
			if !seen[i] {
				continue
			}
			ray := cam.Ray(x, y)
			hit := ray.At(-1 / ray.Direction.Y)
			if hit.Len() > 30 {
				continue
			}
			if d := world[i].Distance(hit); d > 1e-6*hit.Len() {
				t.Fatalf("pixel (%d,%d) world position %v, want %v", x, y, world[i], hit)
			}
			if got, want := r.Depth.At(x, y), cam.ViewDepth(hit); math.Abs(got-want) > 1e-6*want {
				t.Fatalf("pixel (%d,%d) depth %v, want %v", x, y, got, want)
			}
			checked++
		}
	}
	if checked < w*h/4 {
		t.Errorf("only %d floor pixels checked", checked)
	}
}

func TestFragmentInput(t *testing.T) {
	r, cam := createTestRenderer(32, 32)
	cam.SetPosition(v3(0, 0, 1))
	light := NewPointLight(v3(0, 5, 0), 2)
	r.SetLights(light)

	var got FragmentInput[float64]
	probe := func(*models.Model[float64]) Shader[float64] {
		return func(in *FragmentInput[float64]) math3d.Vec3[float64] {
			if in.X == 16 && in.Y == 16 {
				got = *in
			}
			return v3(1, 1, 1)
		}
	}
	m := triangleModel(v3(-2, -2, -2), v3(2, -2, -2), v3(0, 2, -2))
	r.RenderFrame(cam, []*models.Model[float64]{m}, probe, color.RGBA{})

	if got.CameraPos != cam.Position() {
		t.Errorf("CameraPos = %v", got.CameraPos)
	}
	if len(got.Lights) != 1 || got.Lights[0] != light {
		t.Errorf("Lights = %v", got.Lights)
	}
	if math.Abs(got.Depth-3) > 1e-9 {
		t.Errorf("Depth = %v, want 3", got.Depth)
	}
	if n := got.Normal.Normalize(); !n.ApproxEqual(v3(0, 0, 1), 1e-9) {
		t.Errorf("Normal = %v, want face normal +Z", n)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	const w, h = 160, 120
	sphere := models.UVSphere[float64](1, 24, 16)
	sphere.Geometry.Position = v3(-0.8, 0, -4)
	sphere.Material.Specular = 0.5
	cube := models.Cube[float64](1.5)
	cube.Geometry.Position = v3(1, 0.2, -5)
	cube.Geometry.Rotation = v3(0.4, 0.7, 0)
	cube.Material.DiffuseMap = models.NewCheckerTexture[float64](8, 8, 2, ColorWhite, ColorGray)
	scene := []*models.Model[float64]{sphere, cube}

	cam := NewCamera[float64](w, h)
	lights := []Light[float64]{NewDirectionalLight(v3(-1, -1, -1), 1)}

	serial := NewRenderer[float64](w, h)
	serial.SetLights(lights...)
	serial.RenderFrame(cam, scene, BlinnPhong[float64], ColorBlack)

	pool := parallel.NewWorkerPool(4)
	defer pool.Close()
	par := NewRenderer[float64](w, h)
	par.SetLights(lights...)
	par.SetPool(pool)
	par.RenderFrame(cam, scene, BlinnPhong[float64], ColorBlack)

	if !slices.Equal(serial.Framebuffer.Pixels, par.Framebuffer.Pixels) {
		t.Error("parallel framebuffer differs from serial")
	}
	if !slices.Equal(serial.Depth.Values(), par.Depth.Values()) {
		t.Error("parallel depth buffer differs from serial")
	}
	if !slices.Contains(coverage(serial.Framebuffer), true) {
		t.Error("scene painted nothing")
	}
}

func TestRendererResize(t *testing.T) {
	r, cam := createTestRenderer(64, 48)
	r.Resize(100, 80)
	Apply(cam, Resize[float64]{Width: 100, Height: 80})

	m := triangleModel(v3(-1, -1, -3), v3(1, -1, -3), v3(0, 1, -3))
	r.RenderFrame(cam, []*models.Model[float64]{m}, nil, color.RGBA{})
	if w, h := r.Depth.Size(); w != 100 || h != 80 {
		t.Errorf("depth size = %dx%d", w, h)
	}
	if got := r.Framebuffer.GetPixel(50, 40); got.A == 0 {
		t.Error("center pixel not painted after resize")
	}
}

func TestRasterizeFloat32(t *testing.T) {
	r := NewRenderer[float32](32, 32)
	cam := NewCamera[float32](32, 32)
	m := models.Cube[float32](1)
	m.Geometry.Position = math3d.V3[float32](0, 0, -3)
	r.RenderFrame(cam, []*models.Model[float32]{m}, NormalShader[float32], color.RGBA{})
	if got := r.Framebuffer.GetPixel(16, 16); got.A == 0 {
		t.Error("center pixel not painted")
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	sphere := models.UVSphere[float64](1, 48, 32)
	sphere.Geometry.Position = v3(0, 0, -3)
	scene := []*models.Model[float64]{sphere}
	cam := NewCamera[float64](320, 240)

	b.Run("serial", func(b *testing.B) {
		r := NewRenderer[float64](320, 240)
		r.SetLights(NewDirectionalLight(v3(-1, -1, -1), 1))
		for b.Loop() {
			r.RenderFrame(cam, scene, BlinnPhong[float64], ColorBlack)
		}
	})
	b.Run("parallel", func(b *testing.B) {
		pool := parallel.NewWorkerPool(0)
		defer pool.Close()
		r := NewRenderer[float64](320, 240)
		r.SetPool(pool)
		r.SetLights(NewDirectionalLight(v3(-1, -1, -1), 1))
		for b.Loop() {
			r.RenderFrame(cam, scene, BlinnPhong[float64], ColorBlack)
		}
	})
}
