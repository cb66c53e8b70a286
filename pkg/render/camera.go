package render

import (
	"iter"
	"math"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Camera is a pinhole camera described by a sensor of the given physical size
// placed focalLength in front of the eye. The sensor aspect ratio always
// matches the pixel resolution.
type Camera[T math3d.Float] struct {
	position math3d.Vec3[T]
	rotation math3d.Vec3[T] // Euler angles in radians: pitch, yaw, roll

	width, height int
	sensor        math3d.Vec2[T]
	focalLength   T
	near, far     T

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4[T]
	projMatrix     math3d.Mat4[T]
	viewProjMatrix math3d.Mat4[T]
	viewDirty      bool
	projDirty      bool
	viewProjDirty  bool
}

// Ray is a half-line starting at Origin. Direction is unit length.
type Ray[T math3d.Float] struct {
	Origin    math3d.Vec3[T]
	Direction math3d.Vec3[T]
}

// At returns the point t units along the ray.
func (r Ray[T]) At(t T) math3d.Vec3[T] {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Default camera parameters. The sensor is 0.8x0.6 world units with a 0.4
// focal length, which gives a 90 degree horizontal field of view.
const (
	DefaultWidth       = 800
	DefaultHeight      = 600
	DefaultSensorWidth = 0.8
	DefaultFocalLength = 0.4
	DefaultNear        = 0.01
	DefaultFar         = 1000
)

// NewCamera creates a camera at the origin looking down -Z with the given
// resolution and default optics.
func NewCamera[T math3d.Float](width, height int) *Camera[T] {
	c := &Camera[T]{
		width:       DefaultWidth,
		height:      DefaultHeight,
		sensor:      math3d.V2[T](DefaultSensorWidth, DefaultSensorWidth*DefaultHeight/DefaultWidth),
		focalLength: DefaultFocalLength,
		near:        DefaultNear,
		far:         DefaultFar,
	}
	c.SetResolution(width, height)
	c.markDirty()
	return c
}

// DefaultCamera returns an 800x600 camera with default optics.
func DefaultCamera[T math3d.Float]() *Camera[T] {
	return NewCamera[T](DefaultWidth, DefaultHeight)
}

func (c *Camera[T]) markDirty() {
	c.viewDirty = true
	c.projDirty = true
	c.viewProjDirty = true
}

// Position returns the camera position in world space.
func (c *Camera[T]) Position() math3d.Vec3[T] { return c.position }

// Rotation returns the Euler rotation (pitch, yaw, roll) in radians.
func (c *Camera[T]) Rotation() math3d.Vec3[T] { return c.rotation }

// Resolution returns the image size in pixels.
func (c *Camera[T]) Resolution() (width, height int) { return c.width, c.height }

// SensorSize returns the physical sensor size in world units.
func (c *Camera[T]) SensorSize() math3d.Vec2[T] { return c.sensor }

// FocalLength returns the distance from the eye to the sensor.
func (c *Camera[T]) FocalLength() T { return c.focalLength }

// ClipPlanes returns the near and far clip distances.
func (c *Camera[T]) ClipPlanes() (near, far T) { return c.near, c.far }

// Aspect returns width / height.
func (c *Camera[T]) Aspect() T {
	return T(c.width) / T(c.height)
}

// SetPosition sets the camera position.
func (c *Camera[T]) SetPosition(pos math3d.Vec3[T]) {
	c.position = pos
	c.viewDirty = true
	c.viewProjDirty = true
}

// SetRotation sets the camera rotation (pitch, yaw, roll in radians).
func (c *Camera[T]) SetRotation(rot math3d.Vec3[T]) {
	c.rotation = rot
	c.viewDirty = true
	c.viewProjDirty = true
}

// SetResolution sets the image size and adjusts the sensor height so both
// share the same aspect ratio. Non-positive sizes are ignored.
func (c *Camera[T]) SetResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.sensor.Y = c.sensor.X / c.Aspect()
	c.projDirty = true
	c.viewProjDirty = true
}

// SetSensorSize sets the sensor size and adjusts the vertical resolution so
// both share the same aspect ratio. Non-positive sizes are ignored.
func (c *Camera[T]) SetSensorSize(size math3d.Vec2[T]) {
	if size.X <= 0 || size.Y <= 0 {
		return
	}
	c.sensor = size
	c.height = max(1, int(math.Round(float64(T(c.width)/(size.X/size.Y)))))
	c.projDirty = true
	c.viewProjDirty = true
}

// SetFocalLength sets the eye-to-sensor distance. Non-positive values are ignored.
func (c *Camera[T]) SetFocalLength(f T) {
	if f <= 0 {
		return
	}
	c.focalLength = f
	c.projDirty = true
	c.viewProjDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera[T]) SetClipPlanes(near, far T) {
	c.near = near
	c.far = far
	c.projDirty = true
	c.viewProjDirty = true
}

// Basis returns the camera's forward, right and up unit vectors.
func (c *Camera[T]) Basis() (forward, right, up math3d.Vec3[T]) {
	return math3d.Basis(c.rotation)
}

// Forward returns the forward direction vector.
func (c *Camera[T]) Forward() math3d.Vec3[T] {
	f, _, _ := c.Basis()
	return f
}

// Right returns the right direction vector.
func (c *Camera[T]) Right() math3d.Vec3[T] {
	_, r, _ := c.Basis()
	return r
}

// Up returns the up direction vector.
func (c *Camera[T]) Up() math3d.Vec3[T] {
	_, _, u := c.Basis()
	return u
}

// LookAt orients the camera toward target with zero roll.
func (c *Camera[T]) LookAt(target math3d.Vec3[T]) {
	dir, ok := target.Sub(c.position).TryNormalize()
	if !ok {
		return
	}
	c.SetRotation(math3d.V3(
		T(math.Asin(float64(math3d.Clamp(dir.Y, -1, 1)))),
		T(math.Atan2(float64(-dir.X), float64(-dir.Z))),
		0,
	))
}

// ViewMatrix returns the world-to-view matrix.
func (c *Camera[T]) ViewMatrix() math3d.Mat4[T] {
	if c.viewDirty {
		c.computeViewMatrix()
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the view-to-clip matrix.
func (c *Camera[T]) ProjectionMatrix() math3d.Mat4[T] {
	if c.projDirty {
		c.computeProjectionMatrix()
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera[T]) ViewProjectionMatrix() math3d.Mat4[T] {
	if c.viewProjDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.viewProjDirty = false
	}
	return c.viewProjMatrix
}

func (c *Camera[T]) computeViewMatrix() {
	// The camera's world transform is Translate(pos) * R. Its inverse is
	// R^T * Translate(-pos) since R is orthonormal.
	rot := math3d.RotateEuler(c.rotation).Transpose()
	c.viewMatrix = rot.Mul(math3d.Translate(c.position.Negate()))
}

func (c *Camera[T]) computeProjectionMatrix() {
	fx := 2 * c.focalLength / c.sensor.X
	fy := 2 * c.focalLength / c.sensor.Y
	c.projMatrix = math3d.Frustum(fx, fy, c.near, c.far)
}

// Ray returns the primary ray through the center of pixel (x, y). Row 0 is
// the top of the image.
func (c *Camera[T]) Ray(x, y int) Ray[T] {
	forward, right, up := c.Basis()
	return c.ray(forward, right, up, x, y)
}

func (c *Camera[T]) ray(forward, right, up math3d.Vec3[T], x, y int) Ray[T] {
	u := (T(x)+0.5)/T(c.width)*c.sensor.X - c.sensor.X/2
	v := c.sensor.Y/2 - (T(y)+0.5)/T(c.height)*c.sensor.Y
	dir := forward.Scale(c.focalLength).Add(right.Scale(u)).Add(up.Scale(v))
	return Ray[T]{Origin: c.position, Direction: dir.Normalize()}
}

// RowRays appends the primary rays of row y to dst and returns it. The
// camera must not be modified while rows are generated concurrently.
func (c *Camera[T]) RowRays(y int, dst []Ray[T]) []Ray[T] {
	forward, right, up := c.Basis()
	for x := range c.width {
		dst = append(dst, c.ray(forward, right, up, x, y))
	}
	return dst
}

// Rays yields the primary ray of every pixel in row-major order, keyed by
// pixel index y*width + x.
func (c *Camera[T]) Rays() iter.Seq2[int, Ray[T]] {
	return func(yield func(int, Ray[T]) bool) {
		forward, right, up := c.Basis()
		for y := range c.height {
			for x := range c.width {
				if !yield(y*c.width+x, c.ray(forward, right, up, x, y)) {
					return
				}
			}
		}
	}
}

// ProjectToScreen transforms a world point to pixel coordinates. The result's
// Z is the NDC depth. ok is false when the point is behind the camera or
// outside the view frustum.
func (c *Camera[T]) ProjectToScreen(p math3d.Vec3[T]) (screen math3d.Vec3[T], ok bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(p, 1))
	if clip.W <= 0 {
		return screen, false
	}
	ndc := clip.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return screen, false
	}
	return math3d.V3(
		(ndc.X+1)*0.5*T(c.width),
		(1-ndc.Y)*0.5*T(c.height),
		ndc.Z,
	), true
}

// ScreenToWorldDepth recovers the view-space distance along the camera axis
// from a screen point produced by ProjectToScreen.
func (c *Camera[T]) ScreenToWorldDepth(screen math3d.Vec3[T]) T {
	n, f := c.near, c.far
	a := (f + n) / (n - f)
	b := 2 * f * n / (n - f)
	return b / (screen.Z + a)
}

// ViewDepth returns the distance of p along the camera's forward axis.
func (c *Camera[T]) ViewDepth(p math3d.Vec3[T]) T {
	return -c.ViewMatrix().MulVec3(p).Z
}
