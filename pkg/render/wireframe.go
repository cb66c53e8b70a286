package render

import (
	"math"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
)

// Wireframe renders 3D lines and gizmos on top of a framebuffer.
type Wireframe[T math3d.Float] struct {
	camera *Camera[T]
	fb     *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe[T math3d.Float](camera *Camera[T], fb *Framebuffer) *Wireframe[T] {
	return &Wireframe[T]{
		camera: camera,
		fb:     fb,
	}
}

// DrawLine3D draws a world-space line. The segment is clipped to the view
// volume in clip space before projection.
func (w *Wireframe[T]) DrawLine3D(p1, p2 math3d.Vec3[T], color Color) {
	viewProj := w.camera.ViewProjectionMatrix()
	a, b, ok := clipLine(
		viewProj.MulVec4(math3d.V4FromV3(p1, 1)),
		viewProj.MulVec4(math3d.V4FromV3(p2, 1)),
	)
	if !ok {
		return
	}
	x0, y0 := w.toPixel(a)
	x1, y1 := w.toPixel(b)
	w.fb.DrawLine(x0, y0, x1, y1, color)
}

// clipLine clips the homogeneous segment a-b against all six frustum planes
// (Liang-Barsky in clip space).
func clipLine[T math3d.Float](a, b math3d.Vec4[T]) (math3d.Vec4[T], math3d.Vec4[T], bool) {
	planes := func(c math3d.Vec4[T]) [6]T {
		return [6]T{c.W + c.X, c.W - c.X, c.W + c.Y, c.W - c.Y, c.W + c.Z, c.W - c.Z}
	}
	da, db := planes(a), planes(b)
	t0, t1 := T(0), T(1)
	for i := range da {
		switch {
		case da[i] < 0 && db[i] < 0:
			return a, b, false
		case da[i] < 0:
			t0 = max(t0, da[i]/(da[i]-db[i]))
		case db[i] < 0:
			t1 = min(t1, da[i]/(da[i]-db[i]))
		}
	}
	if t0 > t1 {
		return a, b, false
	}
	a, b = a.Lerp(b, t0), a.Lerp(b, t1)
	if a.W <= 0 || b.W <= 0 {
		return a, b, false
	}
	return a, b, true
}

// toPixel converts a clip position inside the view volume to pixel coordinates.
func (w *Wireframe[T]) toPixel(c math3d.Vec4[T]) (x, y int) {
	ndc := c.PerspectiveDivide()
	fx := (float64(ndc.X) + 1) * 0.5 * float64(w.fb.Width)
	fy := (1 - float64(ndc.Y)) * 0.5 * float64(w.fb.Height)
	x = min(int(math.Floor(fx)), w.fb.Width-1)
	y = min(int(math.Floor(fy)), w.fb.Height-1)
	return x, y
}

var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0}, // bottom
	{4, 5}, {5, 7}, {7, 6}, {6, 4}, // top
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // verticals
}

// DrawBox draws the edges of an axis-aligned box.
func (w *Wireframe[T]) DrawBox(box AABB[T], color Color) {
	w.DrawTransformedBox(math3d.Identity[T](), box, color)
}

// DrawTransformedBox draws the edges of box after transforming its corners.
func (w *Wireframe[T]) DrawTransformedBox(transform math3d.Mat4[T], box AABB[T], color Color) {
	var corners [8]math3d.Vec3[T]
	for i := range corners {
		c := box.Min
		if i&1 != 0 {
			c.X = box.Max.X
		}
		if i&4 != 0 {
			c.Y = box.Max.Y
		}
		if i&2 != 0 {
			c.Z = box.Max.Z
		}
		corners[i] = transform.MulVec3(c)
	}
	for _, e := range boxEdges {
		w.DrawLine3D(corners[e[0]], corners[e[1]], color)
	}
}

// DrawCube draws a wireframe cube.
func (w *Wireframe[T]) DrawCube(center math3d.Vec3[T], size T, color Color) {
	half := math3d.Splat3(size / 2)
	w.DrawBox(AABB[T]{Min: center.Sub(half), Max: center.Add(half)}, color)
}

// DrawModel draws every triangle edge of m.
func (w *Wireframe[T]) DrawModel(m *models.Model[T], color Color) {
	g := &m.Geometry
	transform := g.Transform()
	for _, f := range g.Faces {
		v0 := transform.MulVec3(g.Vertices[f[0].V])
		v1 := transform.MulVec3(g.Vertices[f[1].V])
		v2 := transform.MulVec3(g.Vertices[f[2].V])
		w.DrawLine3D(v0, v1, color)
		w.DrawLine3D(v1, v2, color)
		w.DrawLine3D(v2, v0, color)
	}
}

// DrawAxes draws the coordinate axes at the origin.
func (w *Wireframe[T]) DrawAxes(length T) {
	var origin math3d.Vec3[T]
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)   // X axis
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen) // Y axis
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)  // Z axis
}

// DrawGrid draws a grid on the XZ plane at y=0.
func (w *Wireframe[T]) DrawGrid(size, step T, color Color) {
	if step <= 0 {
		return
	}
	half := size / 2
	n := int(size / step)
	for i := 0; i <= n; i++ {
		o := -half + T(i)*step
		w.DrawLine3D(math3d.V3(o, 0, -half), math3d.V3(o, 0, half), color)
		w.DrawLine3D(math3d.V3(-half, 0, o), math3d.V3(half, 0, o), color)
	}
}

// DrawPoint draws a point as a small cross.
func (w *Wireframe[T]) DrawPoint(pos math3d.Vec3[T], size T, color Color) {
	h := size / 2
	w.DrawLine3D(pos.Sub(math3d.V3(h, 0, 0)), pos.Add(math3d.V3(h, 0, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, h, 0)), pos.Add(math3d.V3(0, h, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, 0, h)), pos.Add(math3d.V3(0, 0, h)), color)
}

// DrawLight draws a gizmo for l: a cross at point lights, and a cone of the
// given length along the direction for directional lights anchored at pos.
func (w *Wireframe[T]) DrawLight(l Light[T], pos math3d.Vec3[T], length T, color Color) {
	if l.Kind == PointLight {
		w.DrawPoint(l.Position, length/4, color)
		return
	}
	w.DrawCone(pos, l.Direction, length, length/4, 8, color)
}

// DrawCone draws a cone with its apex at apex opening along dir.
func (w *Wireframe[T]) DrawCone(apex, dir math3d.Vec3[T], length, radius T, segments int, color Color) {
	d, ok := dir.TryNormalize()
	if !ok || segments < 3 {
		return
	}
	axis := math3d.Up[T]()
	if math3d.Abs(d.Y) > 0.9 {
		axis = math3d.Right[T]()
	}
	u := d.Cross(axis).Normalize()
	v := d.Cross(u)
	base := apex.Add(d.Scale(length))

	prev := base.Add(u.Scale(radius))
	for i := 1; i <= segments; i++ {
		s, c := math3d.SinCos(T(i) * 2 * math.Pi / T(segments))
		p := base.Add(u.Scale(c * radius)).Add(v.Scale(s * radius))
		w.DrawLine3D(prev, p, color)
		w.DrawLine3D(apex, p, color)
		prev = p
	}
}
