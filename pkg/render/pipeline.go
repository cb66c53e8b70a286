package render

import (
	"image/color"

	"github.com/tinunadno/render-engine-family/internal/parallel"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
)

// Renderer owns the per-frame buffers and draws whole scenes. It is not safe
// for concurrent use; run one frame at a time.
type Renderer[T math3d.Float] struct {
	Framebuffer *Framebuffer
	Depth       *DepthBuffer[T]
	Rasterizer  *Rasterizer[T]
}

// NewRenderer allocates buffers for a width x height frame.
func NewRenderer[T math3d.Float](width, height int) *Renderer[T] {
	fb := NewFramebuffer(width, height)
	return &Renderer[T]{
		Framebuffer: fb,
		Depth:       NewDepthBuffer[T](width, height),
		Rasterizer:  NewRasterizer[T](fb),
	}
}

// SetPool dispatches tiles on pool. Nil renders serially.
func (r *Renderer[T]) SetPool(pool *parallel.WorkerPool) {
	r.Rasterizer.SetPool(pool)
}

// SetLights replaces the light list passed to shaders.
func (r *Renderer[T]) SetLights(lights ...Light[T]) {
	r.Rasterizer.Lights = append(r.Rasterizer.Lights[:0], lights...)
}

// Size returns the frame size.
func (r *Renderer[T]) Size() (width, height int) {
	return r.Framebuffer.Size()
}

// Resize reallocates the frame buffers and tile bins.
func (r *Renderer[T]) Resize(width, height int) {
	if w, h := r.Size(); w == width && h == height {
		return
	}
	r.Framebuffer.Resize(width, height)
	r.Depth.Resize(width, height)
	r.Rasterizer.Resize()
}

// RenderFrame clears both buffers to background and +Inf, then rasterizes
// every model with a shader built by factory. A nil factory uses BlinnPhong.
func (r *Renderer[T]) RenderFrame(cam *Camera[T], scene []*models.Model[T], factory ShaderFactory[T], background color.RGBA) {
	if factory == nil {
		factory = BlinnPhong[T]
	}
	r.Framebuffer.Clear(background)
	r.Depth.Clear()
	r.Rasterizer.ResetStats()

	viewProj := cam.ViewProjectionMatrix()
	for _, m := range scene {
		if m == nil {
			continue
		}
		r.Rasterizer.Rasterize(m, viewProj, cam, r.Depth, factory(m))
	}
}
