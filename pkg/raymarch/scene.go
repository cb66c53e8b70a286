// Package raymarch renders signed distance field scenes by sphere tracing
// along rays that curvature sources may bend.
package raymarch

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Material is the surface description returned with a hit.
type Material[T math3d.Float] struct {
	Color math3d.Vec3[T]
}

// DefaultMaterial is plain red.
func DefaultMaterial[T math3d.Float]() Material[T] {
	return Material[T]{Color: math3d.V3[T](1, 0, 0)}
}

// Object places a shape in the world. Position translates the shape; any
// scale is carried by the shape itself.
type Object[T math3d.Float] struct {
	Shape    Shape[T]
	Material Material[T]
	Position math3d.Vec3[T]
}

// Distance returns the signed distance from world point p to the object.
func (o *Object[T]) Distance(p math3d.Vec3[T]) T {
	return o.Shape.Distance(p.Sub(o.Position))
}

// Normal returns the world-space surface normal near p.
func (o *Object[T]) Normal(p math3d.Vec3[T]) math3d.Vec3[T] {
	return o.Shape.Normal(p.Sub(o.Position))
}

// Scene is a flat list of objects and curvature sources. It is read-only
// while a frame is rendered, so a single Scene may be marched concurrently.
type Scene[T math3d.Float] struct {
	objects    []Object[T]
	curvatures []Curvature[T]
}

// NewScene returns an empty scene.
func NewScene[T math3d.Float]() *Scene[T] {
	return &Scene[T]{}
}

// AddObject appends objects. Objects without a shape are ignored.
func (s *Scene[T]) AddObject(objs ...Object[T]) {
	for _, o := range objs {
		if o.Shape == nil {
			continue
		}
		s.objects = append(s.objects, o)
	}
}

// AddCurvature appends curvature sources. They are applied in the order they
// were added.
func (s *Scene[T]) AddCurvature(cs ...Curvature[T]) {
	for _, c := range cs {
		if c == nil {
			continue
		}
		s.curvatures = append(s.curvatures, c)
	}
}

// Objects returns the scene's objects. The slice must not be modified.
func (s *Scene[T]) Objects() []Object[T] { return s.objects }

// Len returns the number of objects.
func (s *Scene[T]) Len() int { return len(s.objects) }

// Nearest returns the smallest signed distance from p to any object and that
// object. An empty scene yields +Inf and nil.
func (s *Scene[T]) Nearest(p math3d.Vec3[T]) (T, *Object[T]) {
	best := math3d.Inf[T]()
	var closest *Object[T]
	for i := range s.objects {
		if d := s.objects[i].Distance(p); d < best {
			best = d
			closest = &s.objects[i]
		}
	}
	return best, closest
}

// ApplyCurvature runs every curvature source at pos. Each source sees the
// direction and step left by the previous one.
func (s *Scene[T]) ApplyCurvature(pos math3d.Vec3[T], dir *math3d.Vec3[T], step *T) {
	for _, c := range s.curvatures {
		c.Deflect(pos, dir, step)
	}
}
