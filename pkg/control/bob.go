package control

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

// Bob oscillates a camera along Axis around Base as a sine wave of the given
// amplitude and period. The wave is built from three eased quarter and half
// segments that loop forever.
type Bob[T math3d.Float] struct {
	Base math3d.Vec3[T]
	Axis math3d.Vec3[T]

	seq    *gween.Sequence
	offset float32
}

// NewBob starts at Base moving toward +Axis. period is in the same unit as
// the dt passed to Update.
func NewBob[T math3d.Float](base, axis math3d.Vec3[T], amplitude, period float32) *Bob[T] {
	quarter := period / 4
	seq := gween.NewSequence(
		gween.New(0, amplitude, quarter, ease.OutSine),
		gween.New(amplitude, -amplitude, 2*quarter, ease.InOutSine),
		gween.New(-amplitude, 0, quarter, ease.InSine),
	)
	seq.SetLoop(-1)
	return &Bob[T]{Base: base, Axis: axis, seq: seq}
}

// Update advances the wave by dt and returns the camera placement.
func (b *Bob[T]) Update(dt float32) render.Command[T] {
	b.offset, _, _ = b.seq.Update(dt)
	return b.Position()
}

// Offset returns the current displacement along Axis.
func (b *Bob[T]) Offset() T { return T(b.offset) }

// Position returns the current placement without advancing.
func (b *Bob[T]) Position() render.MoveTo[T] {
	return render.MoveTo[T]{Position: b.Base.Add(b.Axis.Scale(b.Offset()))}
}

// Reset rewinds to Base.
func (b *Bob[T]) Reset() {
	b.seq.Reset()
	b.offset = 0
}
