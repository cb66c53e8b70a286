package raymarch

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

// Params bounds the work done for one ray.
type Params[T math3d.Float] struct {
	Threshold     T   // Surface distance that counts as a hit
	MaxIterations int // Steps before giving up
	MaxDistance   T   // Path length before giving up
}

// DefaultParams returns a threshold of 1e-6, 80 iterations and a maximum
// path length of 100.
func DefaultParams[T math3d.Float]() Params[T] {
	return Params[T]{
		Threshold:     1e-6,
		MaxIterations: 80,
		MaxDistance:   100,
	}
}

// Result describes where a march ended. For a miss, Position is the last
// point reached and Normal, Material and Object are zero.
type Result[T math3d.Float] struct {
	Hit        bool
	Position   math3d.Vec3[T]
	Normal     math3d.Vec3[T]
	Material   Material[T]
	Object     *Object[T]
	Distance   T   // Path length traveled
	Iterations int // Steps taken
}

// March sphere-traces ray through scene. Each iteration steps by the
// distance to the nearest surface after letting the scene's curvature
// sources bend the direction and shorten the step. The march misses when
// the budget in params runs out or the step stops being finite.
func March[T math3d.Float](ray render.Ray[T], scene *Scene[T], params Params[T]) Result[T] {
	pos := ray.Origin
	res := Result[T]{Position: pos}
	dir, ok := ray.Direction.TryNormalize()
	if !ok {
		return res
	}

	var traveled T
	for i := 0; i < params.MaxIterations; i++ {
		res.Iterations = i + 1
		step, closest := scene.Nearest(pos)
		if traveled > params.MaxDistance {
			break
		}
		if closest != nil && step <= params.Threshold {
			res.Hit = true
			res.Position = pos
			res.Normal = closest.Normal(pos)
			res.Material = closest.Material
			res.Object = closest
			res.Distance = traveled
			return res
		}
		if !math3d.IsFinite(step) {
			break
		}

		scene.ApplyCurvature(pos, &dir, &step)
		pos = pos.Add(dir.Scale(step))
		traveled += step
	}

	res.Position = pos
	res.Distance = traveled
	return res
}
