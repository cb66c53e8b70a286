// Package render provides the software rasterization pipeline: camera,
// near-plane clipping, tile binning, scan conversion and shading, plus the
// framebuffer and its terminal presenter.
package render

import (
	"image"
	"math"

	"github.com/tinunadno/render-engine-family/internal/logging"
	"github.com/tinunadno/render-engine-family/internal/parallel"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
)

// Rasterizer scan-converts models into a Target through a shared depth
// buffer. Triangles are binned into TileSize tiles first; tiles are then
// rasterized independently, serially or on a worker pool.
type Rasterizer[T math3d.Float] struct {
	target        Target
	width, height int
	bins          *TileBins
	tris          []setupTriangle[T]
	bounds        []image.Rectangle
	pool          *parallel.WorkerPool
	work          []func()

	Lights                []Light[T]
	CullBackfaces         bool         // Skip triangles with negative screen area
	DisableFrustumCulling bool         // Rasterize models whose bounds are off screen
	CullingStats          CullingStats // Statistics for debugging/benchmarking
	TriangleStats         TriangleStats
}

// CullingStats tracks frustum culling performance.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
}

// TriangleStats counts triangles through the clip and setup stages.
type TriangleStats struct {
	Submitted int // Faces read from models
	Rejected  int // Trivially rejected or fully behind the near plane
	Culled    int // Degenerate or back-facing after projection
	Binned    int // Triangles handed to the tile pass
}

// setupTriangle holds per-triangle rasterization constants. Edge i is the
// edge opposite vertex i; its value at (x, y) is a[i]*x + b[i]*y + c[i].
type setupTriangle[T math3d.Float] struct {
	a, b, c [3]T
	invW    [3]T
	attr    [3]Attributes[T] // pre-multiplied by invW
	invArea T
}

// NewRasterizer creates a rasterizer drawing into target.
func NewRasterizer[T math3d.Float](target Target) *Rasterizer[T] {
	r := &Rasterizer[T]{target: target}
	r.Resize()
	return r
}

// SetPool makes the rasterizer dispatch tiles on pool. A nil pool restores
// serial rasterization. Output is identical either way.
func (r *Rasterizer[T]) SetPool(pool *parallel.WorkerPool) {
	r.pool = pool
}

// Resize re-reads the target size and resizes the tile bins.
func (r *Rasterizer[T]) Resize() {
	w, h := 0, 0
	if r.target != nil {
		w, h = r.target.Size()
	}
	r.width, r.height = w, h
	if r.bins == nil {
		r.bins = NewTileBins(w, h)
		return
	}
	r.bins.Resize(w, h)
}

// Width returns the target width.
func (r *Rasterizer[T]) Width() int { return r.width }

// Height returns the target height.
func (r *Rasterizer[T]) Height() int { return r.height }

// ResetStats resets the culling and triangle statistics (call once per frame).
func (r *Rasterizer[T]) ResetStats() {
	r.CullingStats = CullingStats{}
	r.TriangleStats = TriangleStats{}
}

// IsVisible tests if a world-space AABB intersects the frustum of viewProj.
func (r *Rasterizer[T]) IsVisible(worldBounds AABB[T], viewProj math3d.Mat4[T]) bool {
	return NewFrustumFromMatrix(viewProj).IntersectAABB(worldBounds)
}

// Rasterize draws model into the target. depth must be cleared before the
// first model of a frame and must not be shared with a concurrent frame.
// A nil shader draws the flat base color.
func (r *Rasterizer[T]) Rasterize(model *models.Model[T], viewProj math3d.Mat4[T], cam *Camera[T], depth *DepthBuffer[T], shader Shader[T]) {
	if model == nil || len(model.Geometry.Faces) == 0 || r.target == nil {
		return
	}
	if w, h := r.target.Size(); w != r.width || h != r.height {
		r.Resize()
	}
	if shader == nil {
		shader = FlatShader(model)
	}

	g := &model.Geometry
	if !r.DisableFrustumCulling {
		r.CullingStats.MeshesTested++
		if !r.IsVisible(ModelBounds(g), viewProj) {
			r.CullingStats.MeshesCulled++
			return
		}
		r.CullingStats.MeshesDrawn++
	}

	r.setup(g, viewProj, cam)
	if len(r.tris) == 0 {
		return
	}
	r.bins.Build(r.bounds)

	camPos := cam.Position()
	r.work = r.work[:0]
	tiles := 0
	for t := range r.bins.Len() {
		if len(r.bins.Tile(t)) == 0 {
			continue
		}
		tiles++
		if r.pool == nil {
			r.rasterizeTile(t, camPos, depth, shader)
			continue
		}
		r.work = append(r.work, func() { r.rasterizeTile(t, camPos, depth, shader) })
	}
	if r.pool != nil {
		r.pool.ExecuteAll(r.work)
	}

	logging.Logger().Debug("rasterized model",
		"model", model.Name,
		"triangles", len(r.tris),
		"tiles", tiles,
	)
}

// setup transforms, clips and projects every face of g and prepares the
// surviving triangles for the tile pass.
func (r *Rasterizer[T]) setup(g *models.Geometry[T], viewProj math3d.Mat4[T], cam *Camera[T]) {
	r.tris = r.tris[:0]
	r.bounds = r.bounds[:0]

	modelMatrix := g.Transform()
	normalMatrix, ok := modelMatrix.Inverse()
	if ok {
		normalMatrix = normalMatrix.Transpose()
	} else {
		normalMatrix = modelMatrix
	}

	for i := range g.Faces {
		r.TriangleStats.Submitted++
		corners := g.Corners(i)
		tangent, bitangent := g.FaceTangents(i)
		tangent = modelMatrix.MulVec3Dir(tangent)
		bitangent = modelMatrix.MulVec3Dir(bitangent)

		var world [3]Attributes[T]
		for k, c := range corners {
			world[k] = Attributes[T]{
				UV:        c.UV,
				Normal:    normalMatrix.MulVec3Dir(c.Normal).Normalize(),
				WorldPos:  modelMatrix.MulVec3(c.Position),
				Tangent:   tangent,
				Bitangent: bitangent,
			}
		}

		out, n := ClipAndProject(world, viewProj, cam)
		if n == 0 {
			r.TriangleStats.Rejected++
			continue
		}
		for k := range n {
			r.addTriangle(&out[k])
		}
	}
	r.TriangleStats.Binned += len(r.tris)
}

// addTriangle computes edge equations and bounds for tri. Degenerate
// triangles, back faces when culling is on and triangles with non-finite
// coordinates are dropped. Negative-area triangles are reordered so edge
// values are non-negative inside, which keeps the covered pixel set
// independent of winding.
func (r *Rasterizer[T]) addTriangle(tri *Triangle[T]) {
	area := tri.SignedArea()
	if area == 0 || !math3d.IsFinite(area) {
		r.TriangleStats.Culled++
		return
	}
	if area < 0 {
		if r.CullBackfaces {
			r.TriangleStats.Culled++
			return
		}
		tri[1], tri[2] = tri[2], tri[1]
		area = -area
	}

	minX, minY := math3d.Inf[T](), math3d.Inf[T]()
	maxX, maxY := -minX, -minY
	for _, v := range tri {
		minX, maxX = min(minX, v.Screen.X), max(maxX, v.Screen.X)
		minY, maxY = min(minY, v.Screen.Y), max(maxY, v.Screen.Y)
	}
	bounds := image.Rect(
		clampPixel(math.Floor(float64(minX)), r.width),
		clampPixel(math.Floor(float64(minY)), r.height),
		clampPixel(math.Ceil(float64(maxX)), r.width),
		clampPixel(math.Ceil(float64(maxY)), r.height),
	)
	if bounds.Empty() {
		r.TriangleStats.Culled++
		return
	}

	var st setupTriangle[T]
	for i := range 3 {
		a := tri[(i+1)%3].Screen
		b := tri[(i+2)%3].Screen
		st.a[i], st.b[i], st.c[i] = edgeCoeffs(a, b)
		st.invW[i] = tri[i].InvW
		st.attr[i] = tri[i].Attr.Scale(tri[i].InvW)
	}
	st.invArea = 1 / area

	r.tris = append(r.tris, st)
	r.bounds = append(r.bounds, bounds)
}

// clampPixel converts a pixel coordinate to int, clamped to [0, limit].
func clampPixel(v float64, limit int) int {
	if v <= 0 {
		return 0
	}
	if v >= float64(limit) {
		return limit
	}
	return int(v)
}

// edgeCoeffs returns A, B, C such that A*x + B*y + C equals edge(a, b, p).
func edgeCoeffs[T math3d.Float](a, b math3d.Vec2[T]) (A, B, C T) {
	A = b.Y - a.Y
	B = a.X - b.X
	C = -(A*a.X + B*a.Y)
	return A, B, C
}

// rasterizeTile draws every triangle binned into tile t, clipped to the
// tile's pixel rectangle.
func (r *Rasterizer[T]) rasterizeTile(t int, camPos math3d.Vec3[T], depth *DepthBuffer[T], shader Shader[T]) {
	rect := r.bins.TileRect(t)
	in := FragmentInput[T]{CameraPos: camPos, Lights: r.Lights}

	for _, ti := range r.bins.Tile(t) {
		area := r.bounds[ti].Intersect(rect)
		if area.Empty() {
			continue
		}
		st := &r.tris[ti]

		// Evaluate edge functions at the first pixel center
		px := T(area.Min.X) + 0.5
		py := T(area.Min.Y) + 0.5
		var row [3]T
		for i := range 3 {
			row[i] = st.a[i]*px + st.b[i]*py + st.c[i]
		}

		for y := area.Min.Y; y < area.Max.Y; y++ {
			w := row
			entered := false
			for x := area.Min.X; x < area.Max.X; x++ {
				if w[0] >= 0 && w[1] >= 0 && w[2] >= 0 {
					entered = true
					r.shade(st, x, y, w, &in, depth, shader)
				} else if entered {
					// A triangle covers one contiguous span per row.
					break
				}
				w[0] += st.a[0]
				w[1] += st.a[1]
				w[2] += st.a[2]
			}
			row[0] += st.b[0]
			row[1] += st.b[1]
			row[2] += st.b[2]
		}
	}
}

// shade interpolates attributes perspective-correctly at (x, y), runs the
// depth test and, on pass, the shader.
func (r *Rasterizer[T]) shade(st *setupTriangle[T], x, y int, w [3]T, in *FragmentInput[T], depth *DepthBuffer[T], shader Shader[T]) {
	b0 := w[0] * st.invArea
	b1 := w[1] * st.invArea
	b2 := w[2] * st.invArea

	invW := b0*st.invW[0] + b1*st.invW[1] + b2*st.invW[2]
	if !(invW > 0) {
		return
	}
	z := 1 / invW
	if !depth.TestAndSet(x, y, z) {
		return
	}

	attr := st.attr[0].Scale(b0).Add(st.attr[1].Scale(b1)).Add(st.attr[2].Scale(b2)).Scale(z)
	in.X, in.Y = x, y
	in.UV = attr.UV
	in.Normal = attr.Normal
	in.WorldPos = attr.WorldPos
	in.Tangent = attr.Tangent
	in.Bitangent = attr.Bitangent
	in.Depth = z

	r.target.SetPixel(x, y, ToRGBA(shader(in)))
}
