package math3d

import "math"

// Float is the scalar constraint shared by every vector and matrix type.
// Instantiate with float32 for compact buffers or float64 for precision.
type Float interface {
	~float32 | ~float64
}

// Sqrt returns the square root of x.
func Sqrt[T Float](x T) T {
	return T(math.Sqrt(float64(x)))
}

// Abs returns the absolute value of x.
func Abs[T Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp restricts x to [lo, hi].
func Clamp[T Float](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp interpolates linearly between a and b.
func Lerp[T Float](a, b, t T) T {
	return a + (b-a)*t
}

// Inf returns positive infinity in T.
func Inf[T Float]() T {
	return T(math.Inf(1))
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite[T Float](x T) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SinCos returns sin(a) and cos(a).
func SinCos[T Float](a T) (T, T) {
	s, c := math.Sincos(float64(a))
	return T(s), T(c)
}

// Pow returns x**y.
func Pow[T Float](x, y T) T {
	return T(math.Pow(float64(x), float64(y)))
}

// Floor returns the greatest integer value less than or equal to x.
func Floor[T Float](x T) T {
	return T(math.Floor(float64(x)))
}

// ApproxEqual reports whether a and b differ by at most eps.
func ApproxEqual[T Float](a, b, eps T) bool {
	return Abs(a-b) <= eps
}
