package raymarch

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tinunadno/render-engine-family/internal/logging"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

// ShadeFunc turns the result of marching ray into a linear RGB color. It is
// called concurrently from several rows.
type ShadeFunc[T math3d.Float] func(ray render.Ray[T], res *Result[T]) math3d.Vec3[T]

// FlatShade returns the material color on hits and background on misses.
func FlatShade[T math3d.Float](background math3d.Vec3[T]) ShadeFunc[T] {
	return func(_ render.Ray[T], res *Result[T]) math3d.Vec3[T] {
		if !res.Hit {
			return background
		}
		return res.Material.Color
	}
}

// LambertShade lights hits with a directional light shining along lightDir
// plus a constant ambient term.
func LambertShade[T math3d.Float](lightDir math3d.Vec3[T], ambient T, background math3d.Vec3[T]) ShadeFunc[T] {
	toLight := lightDir.Negate().Normalize()
	return func(_ render.Ray[T], res *Result[T]) math3d.Vec3[T] {
		if !res.Hit {
			return background
		}
		diffuse := max(res.Normal.Dot(toLight), 0)
		return res.Material.Color.Scale(ambient + (1-ambient)*diffuse)
	}
}

// StepsShade maps the iteration count to a gray ramp, white at maxIterations.
func StepsShade[T math3d.Float](maxIterations int) ShadeFunc[T] {
	return func(_ render.Ray[T], res *Result[T]) math3d.Vec3[T] {
		return math3d.Splat3(T(res.Iterations) / T(max(maxIterations, 1)))
	}
}

// FrameStats summarizes one rendered frame.
type FrameStats struct {
	Rays       int
	Hits       int
	Iterations int
}

// Renderer marches one ray per pixel of a camera and writes shaded colors to
// a target.
type Renderer[T math3d.Float] struct {
	Scene   *Scene[T]
	Params  Params[T]
	Shade   ShadeFunc[T]
	Workers int // Rows marched concurrently; 0 uses GOMAXPROCS, 1 is serial
}

// NewRenderer returns a renderer with default params and flat shading on a
// black background.
func NewRenderer[T math3d.Float](scene *Scene[T]) *Renderer[T] {
	return &Renderer[T]{
		Scene:  scene,
		Params: DefaultParams[T](),
		Shade:  FlatShade(math3d.Vec3[T]{}),
	}
}

// RenderFrame marches every pixel of cam into target, which must be at least
// as large as the camera resolution. Rows are distributed over Workers
// goroutines. ctx is checked before each row; on cancellation the frame is
// left partially drawn and ctx's error is returned. cam and the scene must
// not change until RenderFrame returns.
func (r *Renderer[T]) RenderFrame(ctx context.Context, cam *render.Camera[T], target render.Target) (FrameStats, error) {
	width, height := cam.Resolution()
	if tw, th := target.Size(); tw < width || th < height {
		width, height = min(width, tw), min(height, th)
	}
	shade := r.Shade
	if shade == nil {
		shade = FlatShade(math3d.Vec3[T]{})
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var hits, iterations atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := range height {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var rowHits, rowIter int64
			rays := cam.RowRays(y, nil)
			for x := range width {
				res := March(rays[x], r.Scene, r.Params)
				if res.Hit {
					rowHits++
				}
				rowIter += int64(res.Iterations)
				target.SetPixel(x, y, render.ToRGBA(shade(rays[x], &res)))
			}
			hits.Add(rowHits)
			iterations.Add(rowIter)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	stats := FrameStats{
		Rays:       width * height,
		Hits:       int(hits.Load()),
		Iterations: int(iterations.Load()),
	}
	logging.Logger().Debug("marched frame",
		"rays", stats.Rays,
		"hits", stats.Hits,
		"iterations", stats.Iterations,
	)
	return stats, err
}
