package raymarch

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Curvature bends a marching ray. Deflect may rotate dir (keeping it unit
// length) and shrink step before the ray advances from pos.
type Curvature[T math3d.Float] interface {
	Deflect(pos math3d.Vec3[T], dir *math3d.Vec3[T], step *T)
}

// MaxStepFraction limits the step near a black hole to this fraction of the
// distance to its center.
const MaxStepFraction = 0.02

// BlackHole pulls rays toward Center with a 1/r^2 force integrated with one
// explicit Euler step per march iteration. Rays farther than InfluenceRadius
// are not affected.
type BlackHole[T math3d.Float] struct {
	Center              math3d.Vec3[T]
	SchwarzschildRadius T
	InfluenceRadius     T
	Strength            T
}

// Deflect implements Curvature.
func (b *BlackHole[T]) Deflect(pos math3d.Vec3[T], dir *math3d.Vec3[T], step *T) {
	toCenter := b.Center.Sub(pos)
	dist := toCenter.Len()
	if dist > b.InfluenceRadius || dist == 0 {
		return
	}

	if maxStep := dist * MaxStepFraction; *step > maxStep {
		*step = maxStep
	}

	force := b.Strength / (dist*dist + 1e-6)
	*dir = bend(*dir, toCenter.Div(dist), force*(*step))
}

// Horizon returns a black sphere of the Schwarzschild radius at the center.
func (b *BlackHole[T]) Horizon() Object[T] {
	return Object[T]{
		Shape:    NewSphere(b.SchwarzschildRadius),
		Material: Material[T]{},
		Position: b.Center,
	}
}

// bend returns dir + toward*k renormalized, or dir when the sum vanishes.
func bend[T math3d.Float](dir, toward math3d.Vec3[T], k T) math3d.Vec3[T] {
	out, ok := dir.Add(toward.Scale(k)).TryNormalize()
	if !ok {
		return dir
	}
	return out
}
