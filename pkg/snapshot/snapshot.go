// Package snapshot captures rendered frames together with the camera that
// produced them, stores them in a compact binary container and exports them
// as ordinary images.
package snapshot

import (
	"image"
	"image/color"
	"math"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

// Pose is the camera state needed to reproduce a frame.
type Pose struct {
	Position    [3]float64 `json:"position"`
	Rotation    [3]float64 `json:"rotation"`
	Forward     [3]float64 `json:"forward"`
	Right       [3]float64 `json:"right"`
	Up          [3]float64 `json:"up"`
	FocalLength float64    `json:"focal_length"`
	Sensor      [2]float64 `json:"sensor"`
	Near        float64    `json:"near"`
	Far         float64    `json:"far"`
}

// Header is the metadata stored in front of the pixel payload.
type Header struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Pose   Pose          `json:"pose"`
	ROI    []image.Point `json:"roi,omitempty"`
	Label  string        `json:"label,omitempty"`
}

// Snapshot is one captured frame. Depth holds view depth per pixel (+Inf
// where nothing was drawn) and may be empty.
type Snapshot struct {
	Header
	Pixels []color.RGBA
	Depth  []float32
}

func vec3Array[T math3d.Float](v math3d.Vec3[T]) [3]float64 {
	return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

func arrayVec3[T math3d.Float](a [3]float64) math3d.Vec3[T] {
	return math3d.V3(T(a[0]), T(a[1]), T(a[2]))
}

// PoseOf records cam's current state.
func PoseOf[T math3d.Float](cam *render.Camera[T]) Pose {
	forward, right, up := cam.Basis()
	sensor := cam.SensorSize()
	near, far := cam.ClipPlanes()
	return Pose{
		Position:    vec3Array(cam.Position()),
		Rotation:    vec3Array(cam.Rotation()),
		Forward:     vec3Array(forward),
		Right:       vec3Array(right),
		Up:          vec3Array(up),
		FocalLength: float64(cam.FocalLength()),
		Sensor:      [2]float64{float64(sensor.X), float64(sensor.Y)},
		Near:        float64(near),
		Far:         float64(far),
	}
}

// Camera rebuilds a width x height camera from p.
func Camera[T math3d.Float](p Pose, width, height int) *render.Camera[T] {
	cam := render.NewCamera[T](width, height)
	cam.SetSensorSize(math3d.V2(T(p.Sensor[0]), T(p.Sensor[1])))
	cam.SetResolution(width, height)
	cam.SetFocalLength(T(p.FocalLength))
	cam.SetClipPlanes(T(p.Near), T(p.Far))
	render.Apply(cam, render.SetPose[T]{
		Position: arrayVec3[T](p.Position),
		Rotation: arrayVec3[T](p.Rotation),
	})
	return cam
}

// Capture copies the framebuffer and, when depth is non-nil, the depth
// buffer. roi is an optional polygon of pixel positions marking the region
// of interest.
func Capture[T math3d.Float](fb *render.Framebuffer, depth *render.DepthBuffer[T], cam *render.Camera[T], roi []image.Point) *Snapshot {
	s := &Snapshot{
		Header: Header{
			Width:  fb.Width,
			Height: fb.Height,
			Pose:   PoseOf(cam),
			ROI:    append([]image.Point(nil), roi...),
		},
		Pixels: append([]color.RGBA(nil), fb.Pixels...),
	}
	if depth != nil {
		if w, h := depth.Size(); w == fb.Width && h == fb.Height {
			s.Depth = make([]float32, w*h)
			for i, z := range depth.Values() {
				s.Depth[i] = float32(z)
			}
		}
	}
	return s
}

// Image returns the captured pixels as an image.
func (s *Snapshot) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for i, c := range s.Pixels {
		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img
}

// DepthImage maps view depth to gray, white at near and black at far. Pixels
// without depth are black. It returns nil when no depth was captured.
func (s *Snapshot) DepthImage(near, far float64) *image.Gray16 {
	if len(s.Depth) == 0 || far <= near {
		return nil
	}
	img := image.NewGray16(image.Rect(0, 0, s.Width, s.Height))
	for i, z := range s.Depth {
		d := float64(z)
		if math.IsInf(d, 1) || math.IsNaN(d) {
			continue
		}
		v := 1 - math3d.Clamp((d-near)/(far-near), 0, 1)
		img.SetGray16(i%s.Width, i/s.Width, color.Gray16{Y: uint16(v*math.MaxUint16 + 0.5)})
	}
	return img
}
