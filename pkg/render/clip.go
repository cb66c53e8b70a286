package render

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Attributes is the per-vertex bundle carried from world space to the
// fragment shader.
type Attributes[T math3d.Float] struct {
	UV        math3d.Vec2[T]
	Normal    math3d.Vec3[T]
	WorldPos  math3d.Vec3[T]
	Tangent   math3d.Vec3[T]
	Bitangent math3d.Vec3[T]
}

// Scale multiplies every attribute by s.
func (a Attributes[T]) Scale(s T) Attributes[T] {
	return Attributes[T]{
		UV:        a.UV.Scale(s),
		Normal:    a.Normal.Scale(s),
		WorldPos:  a.WorldPos.Scale(s),
		Tangent:   a.Tangent.Scale(s),
		Bitangent: a.Bitangent.Scale(s),
	}
}

// Add returns the component-wise sum a + b.
func (a Attributes[T]) Add(b Attributes[T]) Attributes[T] {
	return Attributes[T]{
		UV:        a.UV.Add(b.UV),
		Normal:    a.Normal.Add(b.Normal),
		WorldPos:  a.WorldPos.Add(b.WorldPos),
		Tangent:   a.Tangent.Add(b.Tangent),
		Bitangent: a.Bitangent.Add(b.Bitangent),
	}
}

// Lerp linearly interpolates every attribute from a to b.
func (a Attributes[T]) Lerp(b Attributes[T], t T) Attributes[T] {
	return Attributes[T]{
		UV:        a.UV.Lerp(b.UV, t),
		Normal:    a.Normal.Lerp(b.Normal, t),
		WorldPos:  a.WorldPos.Lerp(b.WorldPos, t),
		Tangent:   a.Tangent.Lerp(b.Tangent, t),
		Bitangent: a.Bitangent.Lerp(b.Bitangent, t),
	}
}

// ClipVertex is a vertex in homogeneous clip space.
type ClipVertex[T math3d.Float] struct {
	Clip math3d.Vec4[T]
	InvW T
	Attr Attributes[T]
}

// ProjectedVertex is a vertex in screen space. Screen is in pixels with row 0
// at the top; Depth is the NDC depth.
type ProjectedVertex[T math3d.Float] struct {
	Screen math3d.Vec2[T]
	InvW   T
	Depth  T
	Attr   Attributes[T]
}

// Triangle is a screen-space triangle ready for rasterization.
type Triangle[T math3d.Float] [3]ProjectedVertex[T]

// ToClip transforms a world-space vertex into clip space. InvW is left at
// zero when w is zero; such vertices are always near-clipped.
func ToClip[T math3d.Float](viewProj math3d.Mat4[T], a Attributes[T]) ClipVertex[T] {
	clip := viewProj.MulVec4(math3d.V4FromV3(a.WorldPos, 1))
	cv := ClipVertex[T]{Clip: clip, Attr: a}
	if clip.W != 0 {
		cv.InvW = 1 / clip.W
	}
	return cv
}

// TriviallyRejected reports whether all three vertices lie outside the same
// frustum plane. It is conservative: a false result does not mean the
// triangle is visible.
func TriviallyRejected[T math3d.Float](v [3]ClipVertex[T]) bool {
	outside := func(test func(c math3d.Vec4[T]) bool) bool {
		return test(v[0].Clip) && test(v[1].Clip) && test(v[2].Clip)
	}
	switch {
	case outside(func(c math3d.Vec4[T]) bool { return c.W > 0 && c.X < -c.W }):
		return true
	case outside(func(c math3d.Vec4[T]) bool { return c.W > 0 && c.X > c.W }):
		return true
	case outside(func(c math3d.Vec4[T]) bool { return c.W > 0 && c.Y < -c.W }):
		return true
	case outside(func(c math3d.Vec4[T]) bool { return c.W > 0 && c.Y > c.W }):
		return true
	case outside(func(c math3d.Vec4[T]) bool { return c.W > 0 && c.Z > c.W }):
		return true
	case outside(outsideNear[T]):
		return true
	}
	return false
}

func outsideNear[T math3d.Float](c math3d.Vec4[T]) bool {
	return c.Z < -c.W
}

// intersectNear returns the point where the edge from in to out crosses the
// near plane z = -w. Position and attributes are interpolated linearly in
// clip space.
func intersectNear[T math3d.Float](in, out ClipVertex[T]) ClipVertex[T] {
	da := in.Clip.Z + in.Clip.W
	db := out.Clip.Z + out.Clip.W
	t := da / (da - db)
	clip := in.Clip.Lerp(out.Clip, t)
	return ClipVertex[T]{
		Clip: clip,
		InvW: 1 / clip.W,
		Attr: in.Attr.Lerp(out.Attr, t),
	}
}

// ClipNear clips a triangle against the near plane and returns up to two
// triangles in the original winding order. n is 0 when the whole triangle
// is behind the near plane.
func ClipNear[T math3d.Float](v [3]ClipVertex[T]) (out [2][3]ClipVertex[T], n int) {
	var isOut [3]bool
	count := 0
	for i := range v {
		if outsideNear(v[i].Clip) {
			isOut[i] = true
			count++
		}
	}

	switch count {
	case 0:
		out[0] = v
		return out, 1
	case 1:
		k := 0
		for !isOut[k] {
			k++
		}
		o, in1, in2 := v[k], v[(k+1)%3], v[(k+2)%3]
		p1 := intersectNear(in1, o)
		p2 := intersectNear(in2, o)
		// The quad in1, in2, p2, p1 is split along in1-p2.
		out[0] = [3]ClipVertex[T]{in1, in2, p2}
		out[1] = [3]ClipVertex[T]{in1, p2, p1}
		return out, 2
	case 2:
		k := 0
		for isOut[k] {
			k++
		}
		in, o1, o2 := v[k], v[(k+1)%3], v[(k+2)%3]
		out[0] = [3]ClipVertex[T]{in, intersectNear(in, o1), intersectNear(in, o2)}
		return out, 1
	default:
		return out, 0
	}
}

// Project performs the perspective divide and viewport transform for a
// width x height target.
func Project[T math3d.Float](v ClipVertex[T], width, height int) ProjectedVertex[T] {
	ndcX := v.Clip.X * v.InvW
	ndcY := v.Clip.Y * v.InvW
	return ProjectedVertex[T]{
		Screen: math3d.V2((ndcX+1)*0.5*T(width), (1-ndcY)*0.5*T(height)),
		InvW:   v.InvW,
		Depth:  v.Clip.Z * v.InvW,
		Attr:   v.Attr,
	}
}

// ClipAndProject turns one world-space triangle into zero, one or two
// screen-space triangles for cam's resolution.
func ClipAndProject[T math3d.Float](tri [3]Attributes[T], viewProj math3d.Mat4[T], cam *Camera[T]) (out [2]Triangle[T], n int) {
	var cv [3]ClipVertex[T]
	for i := range tri {
		cv[i] = ToClip(viewProj, tri[i])
	}
	if TriviallyRejected(cv) {
		return out, 0
	}

	clipped, n := ClipNear(cv)
	width, height := cam.Resolution()
	for i := range n {
		for j := range 3 {
			out[i][j] = Project(clipped[i][j], width, height)
		}
	}
	return out, n
}

// SignedArea returns the doubled signed screen-space area of t. It is
// positive for triangles that were counter-clockwise in world space when
// seen from the camera.
func (t *Triangle[T]) SignedArea() T {
	return edge(t[0].Screen, t[1].Screen, t[2].Screen)
}

// edge evaluates the edge function of a->b at p.
func edge[T math3d.Float](a, b, p math3d.Vec2[T]) T {
	return (p.X-a.X)*(b.Y-a.Y) - (p.Y-a.Y)*(b.X-a.X)
}
