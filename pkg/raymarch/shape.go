package raymarch

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Shape is a signed distance field in object-local space. Distance is
// negative inside the surface. Normal is only evaluated near the surface.
type Shape[T math3d.Float] interface {
	Distance(p math3d.Vec3[T]) T
	Normal(p math3d.Vec3[T]) math3d.Vec3[T]
}

// Sphere is a sphere of Radius stretched per axis by Scale. A non-uniform
// scale turns it into an ellipsoid whose distance is a conservative bound.
type Sphere[T math3d.Float] struct {
	Radius T
	Scale  math3d.Vec3[T]
}

// NewSphere returns an unscaled sphere.
func NewSphere[T math3d.Float](radius T) *Sphere[T] {
	return &Sphere[T]{Radius: radius, Scale: math3d.Splat3[T](1)}
}

// NewEllipsoid returns a sphere of radius stretched by scale. Every scale
// component must be positive.
func NewEllipsoid[T math3d.Float](radius T, scale math3d.Vec3[T]) *Sphere[T] {
	return &Sphere[T]{Radius: radius, Scale: scale}
}

func (s *Sphere[T]) Distance(p math3d.Vec3[T]) T {
	q := math3d.V3(p.X/s.Scale.X, p.Y/s.Scale.Y, p.Z/s.Scale.Z)
	return (q.Len() - s.Radius) * min(s.Scale.X, s.Scale.Y, s.Scale.Z)
}

func (s *Sphere[T]) Normal(p math3d.Vec3[T]) math3d.Vec3[T] {
	sq := s.Scale.Mul(s.Scale)
	n, ok := math3d.V3(p.X/sq.X, p.Y/sq.Y, p.Z/sq.Z).TryNormalize()
	if !ok {
		return math3d.Up[T]()
	}
	return n
}

// Box is an axis-aligned box centered on the origin.
type Box[T math3d.Float] struct {
	HalfExtents math3d.Vec3[T]
}

func (b *Box[T]) Distance(p math3d.Vec3[T]) T {
	q := p.Abs().Sub(b.HalfExtents)
	outside := q.Max(math3d.Vec3[T]{}).Len()
	inside := min(q.MaxComponent(), 0)
	return outside + inside
}

func (b *Box[T]) Normal(p math3d.Vec3[T]) math3d.Vec3[T] {
	return GradientNormal[T](b, p, 1e-4)
}

// Plane is the half-space boundary N.p = Offset.
type Plane[T math3d.Float] struct {
	N      math3d.Vec3[T] // unit normal
	Offset T
}

// NewPlane returns the plane with unit normal n passing offset units from
// the origin along n.
func NewPlane[T math3d.Float](n math3d.Vec3[T], offset T) *Plane[T] {
	return &Plane[T]{N: n.Normalize(), Offset: offset}
}

func (pl *Plane[T]) Distance(p math3d.Vec3[T]) T {
	return pl.N.Dot(p) - pl.Offset
}

func (pl *Plane[T]) Normal(math3d.Vec3[T]) math3d.Vec3[T] {
	return pl.N
}

// GradientNormal estimates the surface normal of s at p with central
// differences of step eps.
func GradientNormal[T math3d.Float](s Shape[T], p math3d.Vec3[T], eps T) math3d.Vec3[T] {
	dx := math3d.V3(eps, 0, 0)
	dy := math3d.V3(0, eps, 0)
	dz := math3d.V3(0, 0, eps)
	g := math3d.V3(
		s.Distance(p.Add(dx))-s.Distance(p.Sub(dx)),
		s.Distance(p.Add(dy))-s.Distance(p.Sub(dy)),
		s.Distance(p.Add(dz))-s.Distance(p.Sub(dz)),
	)
	n, ok := g.TryNormalize()
	if !ok {
		return math3d.Up[T]()
	}
	return n
}
