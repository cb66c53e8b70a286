package math3d

// RotateEulerVec rotates v by the Euler angles r (radians), applying the X
// rotation first, then Y, then Z.
func RotateEulerVec[T Float](v, r Vec3[T]) Vec3[T] {
	sx, cx := SinCos(r.X)
	sy, cy := SinCos(r.Y)
	sz, cz := SinCos(r.Z)

	v1 := Vec3[T]{v.X, cx*v.Y - sx*v.Z, sx*v.Y + cx*v.Z}
	v2 := Vec3[T]{cy*v1.X + sy*v1.Z, v1.Y, -sy*v1.X + cy*v1.Z}
	return Vec3[T]{cz*v2.X - sz*v2.Y, sz*v2.X + cz*v2.Y, v2.Z}
}

// Basis returns the forward, right and up unit vectors of a frame rotated by
// the Euler angles r. At zero rotation forward is -Z, right is +X and up is +Y.
func Basis[T Float](r Vec3[T]) (forward, right, up Vec3[T]) {
	forward = RotateEulerVec(Forward[T](), r)
	right = RotateEulerVec(Right[T](), r)
	up = right.Cross(forward)
	return forward, right, up
}
