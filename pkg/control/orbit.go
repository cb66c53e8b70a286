// Package control turns user input and animation clocks into camera
// commands. Nothing here touches a camera directly; callers apply the
// returned commands with render.Apply.
package control

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

// Axis tracks position and velocity for one degree of freedom. Velocity
// decays toward zero through a critically damped spring.
type Axis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewAxis creates an axis updated fps times per second.
func NewAxis(fps int) Axis {
	return Axis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *Axis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// Orbit circles a camera around Target. Yaw and pitch are in radians,
// distance in world units; impulses add velocity that springs back to rest.
type Orbit[T math3d.Float] struct {
	Target                   math3d.Vec3[T]
	Yaw, Pitch, Distance     Axis
	MinDistance, MaxDistance float64

	fps          int
	initDistance float64
}

// NewOrbit returns an orbit distance units in front of target (+Z side).
func NewOrbit[T math3d.Float](target math3d.Vec3[T], distance float64, fps int) *Orbit[T] {
	o := &Orbit[T]{
		Target:       target,
		MinDistance:  distance / 5,
		MaxDistance:  distance * 4,
		fps:          fps,
		initDistance: distance,
	}
	o.Reset()
	return o
}

// Reset stops all motion and returns to the initial pose.
func (o *Orbit[T]) Reset() {
	o.Yaw = NewAxis(o.fps)
	o.Pitch = NewAxis(o.fps)
	o.Distance = NewAxis(o.fps)
	o.Distance.Position = o.initDistance
}

// ApplyImpulse adds velocity to each axis.
func (o *Orbit[T]) ApplyImpulse(pitch, yaw, zoom float64) {
	o.Pitch.Velocity += pitch
	o.Yaw.Velocity += yaw
	o.Distance.Velocity += zoom
}

// Update advances one frame and returns the resulting pose.
func (o *Orbit[T]) Update() render.Command[T] {
	o.Yaw.Update()
	o.Pitch.Update()
	o.Distance.Update()

	if lim := float64(render.MaxPitch); math.Abs(o.Pitch.Position) > lim {
		o.Pitch.Position = math.Copysign(lim, o.Pitch.Position)
		o.Pitch.Velocity = 0
	}
	if o.Distance.Position < o.MinDistance || o.Distance.Position > o.MaxDistance {
		o.Distance.Position = math.Max(o.MinDistance, math.Min(o.MaxDistance, o.Distance.Position))
		o.Distance.Velocity = 0
	}
	return o.Pose()
}

// Pose returns the camera pose for the current axis positions. The camera
// sits on a sphere around Target and looks at it with zero roll.
func (o *Orbit[T]) Pose() render.SetPose[T] {
	sy, cy := math.Sincos(o.Yaw.Position)
	sp, cp := math.Sincos(o.Pitch.Position)
	d := o.Distance.Position
	offset := math3d.V3(T(sy*cp*d), T(sp*d), T(cy*cp*d))
	return render.SetPose[T]{
		Position: o.Target.Add(offset),
		Rotation: math3d.V3(T(-o.Pitch.Position), T(o.Yaw.Position), 0),
	}
}

// ScreenToLightDir maps a screen position onto the hemisphere facing the
// viewer and returns the direction from the scene toward that point. The
// screen center gives +Z; corners are pushed onto the unit circle.
func ScreenToLightDir[T math3d.Float](screenX, screenY, width, height int) math3d.Vec3[T] {
	nx := (float64(screenX)/float64(max(width, 1)))*2 - 1
	ny := (float64(screenY)/float64(max(height, 1)))*2 - 1

	lenSq := nx*nx + ny*ny
	if lenSq > 1 {
		l := math.Sqrt(lenSq)
		nx /= l
		ny /= l
		lenSq = 1
	}
	nz := math.Sqrt(1 - lenSq)
	return math3d.V3(T(nx), T(-ny), T(nz)).Normalize()
}
