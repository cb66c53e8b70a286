package render

import (
	"math"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// Command is a camera mutation produced by an input layer. Commands are plain
// values so input handling never captures the camera itself.
type Command[T math3d.Float] interface {
	Apply(c *Camera[T])
}

// Apply runs cmds against c in order.
func Apply[T math3d.Float](c *Camera[T], cmds ...Command[T]) {
	for _, cmd := range cmds {
		if cmd != nil {
			cmd.Apply(c)
		}
	}
}

// MaxPitch keeps the camera just short of looking straight up or down.
const MaxPitch = math.Pi/2 - 0.01

// Move translates the camera. When Local is set, Delta is expressed in the
// camera frame as (right, up, forward); otherwise it is a world offset.
type Move[T math3d.Float] struct {
	Delta math3d.Vec3[T]
	Local bool
}

func (m Move[T]) Apply(c *Camera[T]) {
	d := m.Delta
	if m.Local {
		forward, right, up := c.Basis()
		d = right.Scale(m.Delta.X).Add(up.Scale(m.Delta.Y)).Add(forward.Scale(m.Delta.Z))
	}
	c.SetPosition(c.Position().Add(d))
}

// Rotate adds Delta (pitch, yaw, roll in radians) to the camera rotation.
// Pitch is clamped to +-MaxPitch.
type Rotate[T math3d.Float] struct {
	Delta math3d.Vec3[T]
}

func (r Rotate[T]) Apply(c *Camera[T]) {
	rot := c.Rotation().Add(r.Delta)
	rot.X = math3d.Clamp(rot.X, -T(MaxPitch), T(MaxPitch))
	c.SetRotation(rot)
}

// MoveTo places the camera at Position without changing its rotation.
type MoveTo[T math3d.Float] struct {
	Position math3d.Vec3[T]
}

func (m MoveTo[T]) Apply(c *Camera[T]) {
	c.SetPosition(m.Position)
}

// SetPose replaces the camera position and rotation.
type SetPose[T math3d.Float] struct {
	Position math3d.Vec3[T]
	Rotation math3d.Vec3[T]
}

func (p SetPose[T]) Apply(c *Camera[T]) {
	c.SetPosition(p.Position)
	c.SetRotation(p.Rotation)
}

// Zoom multiplies the focal length by Factor.
type Zoom[T math3d.Float] struct {
	Factor T
}

func (z Zoom[T]) Apply(c *Camera[T]) {
	c.SetFocalLength(c.FocalLength() * z.Factor)
}

// Resize changes the camera resolution, typically after a window resize.
type Resize[T math3d.Float] struct {
	Width, Height int
}

func (r Resize[T]) Apply(c *Camera[T]) {
	c.SetResolution(r.Width, r.Height)
}

// LookAt turns the camera toward Target.
type LookAt[T math3d.Float] struct {
	Target math3d.Vec3[T]
}

func (l LookAt[T]) Apply(c *Camera[T]) {
	c.LookAt(l.Target)
}
