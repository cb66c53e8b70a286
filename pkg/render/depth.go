package render

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// DepthBuffer is a frame-scoped z-buffer of view-space depths. It must be
// cleared before each frame and is written by exactly one frame at a time.
// During a tiled pass each tile owns a disjoint range of pixels.
type DepthBuffer[T math3d.Float] struct {
	width, height int
	data          []T
}

// NewDepthBuffer allocates a cleared depth buffer.
func NewDepthBuffer[T math3d.Float](width, height int) *DepthBuffer[T] {
	d := &DepthBuffer[T]{}
	d.Resize(width, height)
	return d
}

// Resize reallocates the buffer and clears it.
func (d *DepthBuffer[T]) Resize(width, height int) {
	d.width, d.height = max(width, 0), max(height, 0)
	d.data = make([]T, d.width*d.height)
	d.Clear()
}

// Size returns the buffer dimensions.
func (d *DepthBuffer[T]) Size() (width, height int) {
	return d.width, d.height
}

// Clear resets every depth to +Inf.
func (d *DepthBuffer[T]) Clear() {
	// Use copy-doubling for faster clearing
	n := len(d.data)
	if n == 0 {
		return
	}
	d.data[0] = math3d.Inf[T]()
	for i := 1; i < n; i *= 2 {
		copy(d.data[i:], d.data[:i])
	}
}

// At returns the depth at (x, y), or +Inf out of bounds.
func (d *DepthBuffer[T]) At(x, y int) T {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return math3d.Inf[T]()
	}
	return d.data[y*d.width+x]
}

// Set stores z at (x, y). Out-of-bounds writes are ignored.
func (d *DepthBuffer[T]) Set(x, y int, z T) {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return
	}
	d.data[y*d.width+x] = z
}

// TestAndSet stores z at (x, y) when it is positive and strictly closer than
// the current value, and reports whether it did.
func (d *DepthBuffer[T]) TestAndSet(x, y int, z T) bool {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return false
	}
	i := y*d.width + x
	if !(z > 0 && z < d.data[i]) {
		return false
	}
	d.data[i] = z
	return true
}

// Values returns the backing slice in row-major order.
func (d *DepthBuffer[T]) Values() []T {
	return d.data
}
