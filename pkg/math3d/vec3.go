// Package math3d provides generic 3D math primitives for the renderers.
//
// All types are values parameterized over [Float], so the same code serves
// float32 and float64 builds.
package math3d

// Vec3 represents a 3D vector. It doubles as an RGB color in shading code.
type Vec3[T Float] struct {
	X, Y, Z T
}

// V3 creates a new Vec3.
func V3[T Float](x, y, z T) Vec3[T] {
	return Vec3[T]{x, y, z}
}

// Splat3 returns a vector with all components set to s.
func Splat3[T Float](s T) Vec3[T] {
	return Vec3[T]{s, s, s}
}

// Up returns the world up vector (0, 1, 0).
func Up[T Float]() Vec3[T] {
	return Vec3[T]{0, 1, 0}
}

// Forward returns the world forward vector (0, 0, -1).
func Forward[T Float]() Vec3[T] {
	return Vec3[T]{0, 0, -1}
}

// Right returns the world right vector (1, 0, 0).
func Right[T Float]() Vec3[T] {
	return Vec3[T]{1, 0, 0}
}

// Add returns the vector sum a + b.
func (a Vec3[T]) Add(b Vec3[T]) Vec3[T] {
	return Vec3[T]{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns the vector difference a - b.
func (a Vec3[T]) Sub(b Vec3[T]) Vec3[T] {
	return Vec3[T]{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Mul returns the component-wise product a * b.
func (a Vec3[T]) Mul(b Vec3[T]) Vec3[T] {
	return Vec3[T]{a.X * b.X, a.Y * b.Y, a.Z * b.Z}
}

// Scale returns the scalar product a * s.
func (a Vec3[T]) Scale(s T) Vec3[T] {
	return Vec3[T]{a.X * s, a.Y * s, a.Z * s}
}

// Div returns the scalar division a / s.
func (a Vec3[T]) Div(s T) Vec3[T] {
	return Vec3[T]{a.X / s, a.Y / s, a.Z / s}
}

// Dot returns the dot product a · b.
func (a Vec3[T]) Dot(b Vec3[T]) T {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product a × b.
func (a Vec3[T]) Cross(b Vec3[T]) Vec3[T] {
	return Vec3[T]{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Len returns the length (magnitude) of the vector.
func (a Vec3[T]) Len() T {
	return Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// LenSq returns the squared length (faster, no sqrt).
func (a Vec3[T]) LenSq() T {
	return a.X*a.X + a.Y*a.Y + a.Z*a.Z
}

// Normalize returns the unit vector in the same direction.
// The zero vector normalizes to itself.
func (a Vec3[T]) Normalize() Vec3[T] {
	l := a.Len()
	if l == 0 {
		return Vec3[T]{}
	}
	return Vec3[T]{a.X / l, a.Y / l, a.Z / l}
}

// TryNormalize returns the unit vector and true, or a unchanged and false
// when a has no usable length.
func (a Vec3[T]) TryNormalize() (Vec3[T], bool) {
	l := a.Len()
	if l == 0 || !IsFinite(l) {
		return a, false
	}
	return Vec3[T]{a.X / l, a.Y / l, a.Z / l}, true
}

// Negate returns the negated vector.
func (a Vec3[T]) Negate() Vec3[T] {
	return Vec3[T]{-a.X, -a.Y, -a.Z}
}

// Lerp returns the linear interpolation between a and b by t.
func (a Vec3[T]) Lerp(b Vec3[T], t T) Vec3[T] {
	return Vec3[T]{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// Distance returns the distance between two points.
func (a Vec3[T]) Distance(b Vec3[T]) T {
	return a.Sub(b).Len()
}

// Min returns the component-wise minimum.
func (a Vec3[T]) Min(b Vec3[T]) Vec3[T] {
	return Vec3[T]{min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)}
}

// Max returns the component-wise maximum.
func (a Vec3[T]) Max(b Vec3[T]) Vec3[T] {
	return Vec3[T]{max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)}
}

// Abs returns the component-wise absolute value.
func (a Vec3[T]) Abs() Vec3[T] {
	return Vec3[T]{Abs(a.X), Abs(a.Y), Abs(a.Z)}
}

// Clamp restricts every component to [lo, hi].
func (a Vec3[T]) Clamp(lo, hi T) Vec3[T] {
	return Vec3[T]{Clamp(a.X, lo, hi), Clamp(a.Y, lo, hi), Clamp(a.Z, lo, hi)}
}

// MaxComponent returns the largest component.
func (a Vec3[T]) MaxComponent() T {
	return max(a.X, a.Y, a.Z)
}

// ApproxEqual reports whether every component of a and b differs by at most eps.
func (a Vec3[T]) ApproxEqual(b Vec3[T], eps T) bool {
	return ApproxEqual(a.X, b.X, eps) && ApproxEqual(a.Y, b.Y, eps) && ApproxEqual(a.Z, b.Z, eps)
}

// Convert changes the scalar type of a vector.
func Convert[U, T Float](v Vec3[T]) Vec3[U] {
	return Vec3[U]{U(v.X), U(v.Y), U(v.Z)}
}
