package render

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
)

// LightKind selects how a light's direction is derived.
type LightKind int

const (
	// PointLight shines from Position in all directions.
	PointLight LightKind = iota
	// DirectionalLight shines along Direction from infinitely far away.
	DirectionalLight
)

// Light is a host-supplied light source. The rasterizer only reads it.
type Light[T math3d.Float] struct {
	Kind      LightKind
	Position  math3d.Vec3[T]
	Direction math3d.Vec3[T]
	Color     math3d.Vec3[T]
	Intensity T
}

// NewPointLight returns a white point light.
func NewPointLight[T math3d.Float](pos math3d.Vec3[T], intensity T) Light[T] {
	return Light[T]{
		Kind:      PointLight,
		Position:  pos,
		Color:     math3d.Splat3[T](1),
		Intensity: intensity,
	}
}

// NewDirectionalLight returns a white directional light shining along dir.
func NewDirectionalLight[T math3d.Float](dir math3d.Vec3[T], intensity T) Light[T] {
	return Light[T]{
		Kind:      DirectionalLight,
		Direction: dir.Normalize(),
		Color:     math3d.Splat3[T](1),
		Intensity: intensity,
	}
}

// ToLight returns the unit vector from p toward the light.
func (l Light[T]) ToLight(p math3d.Vec3[T]) (math3d.Vec3[T], bool) {
	if l.Kind == DirectionalLight {
		return l.Direction.Negate().TryNormalize()
	}
	return l.Position.Sub(p).TryNormalize()
}

// Radiance returns Color scaled by Intensity.
func (l Light[T]) Radiance() math3d.Vec3[T] {
	return l.Color.Scale(l.Intensity)
}

// FragmentInput is everything a shader sees for one covered pixel. The
// rasterizer reuses one value per tile, so shaders must not retain it.
type FragmentInput[T math3d.Float] struct {
	X, Y      int
	UV        math3d.Vec2[T]
	Normal    math3d.Vec3[T] // world space, not normalized
	WorldPos  math3d.Vec3[T]
	CameraPos math3d.Vec3[T]
	Tangent   math3d.Vec3[T]
	Bitangent math3d.Vec3[T]
	Depth     T // view-space depth
	Lights    []Light[T]
}

// Shader computes a linear RGB color for a fragment. The result is clamped to
// [0,1] by the rasterizer. Shaders run concurrently when the rasterizer uses a
// worker pool.
type Shader[T math3d.Float] func(in *FragmentInput[T]) math3d.Vec3[T]

// ShaderFactory builds a shader for one model, typically capturing its
// material. It is called once per model per frame.
type ShaderFactory[T math3d.Float] func(m *models.Model[T]) Shader[T]

// RoughnessToShininess maps roughness in [0,1] to a Blinn-Phong exponent and
// a specular intensity scale.
func RoughnessToShininess[T math3d.Float](roughness, specular T) (shininess, intensity T) {
	smoothness := 1 - math3d.Clamp(roughness, 0, 1)
	s2 := smoothness * smoothness
	return s2*s2*510 + 2, s2 * specular
}

// BlinnPhong is the default shader factory: ambient plus per-light Lambert
// diffuse and Blinn specular, with optional diffuse, normal and roughness
// maps.
func BlinnPhong[T math3d.Float](m *models.Model[T]) Shader[T] {
	mat := m.Material
	return func(in *FragmentInput[T]) math3d.Vec3[T] {
		base := mat.BaseColor
		if mat.DiffuseMap != nil {
			base = base.Mul(mat.DiffuseMap.Sample(in.UV))
		}

		n, ok := in.Normal.TryNormalize()
		if !ok {
			return base.Scale(mat.Ambient)
		}
		if mat.NormalMap != nil {
			n = perturbNormal(n, in.Tangent, in.Bitangent, mat.NormalMap.Sample(in.UV))
		}

		roughness := mat.Roughness
		if mat.RoughnessMap != nil {
			roughness = mat.RoughnessMap.Sample(in.UV).X
		}
		shininess, specIntensity := RoughnessToShininess(roughness, mat.Specular)

		view, _ := in.CameraPos.Sub(in.WorldPos).TryNormalize()
		color := base.Scale(mat.Ambient)
		for i := range in.Lights {
			l := &in.Lights[i]
			toLight, ok := l.ToLight(in.WorldPos)
			if !ok {
				continue
			}
			diffuse := n.Dot(toLight)
			if diffuse <= 0 {
				continue
			}
			radiance := l.Radiance()
			color = color.Add(base.Mul(radiance).Scale(diffuse))

			if specIntensity > 0 {
				if h, ok := toLight.Add(view).TryNormalize(); ok {
					spec := math3d.Pow(max(n.Dot(h), 0), shininess) * specIntensity
					color = color.Add(radiance.Scale(spec))
				}
			}
		}
		return color.Clamp(0, 1)
	}
}

// perturbNormal applies a tangent-space normal map sample to n. The tangent is
// Gram-Schmidt orthogonalized against n and the bitangent keeps the sign of
// the interpolated one.
func perturbNormal[T math3d.Float](n, tangent, bitangent, sample math3d.Vec3[T]) math3d.Vec3[T] {
	t, ok := tangent.Sub(n.Scale(n.Dot(tangent))).TryNormalize()
	if !ok {
		return n
	}
	b := n.Cross(t)
	if b.Dot(bitangent) < 0 {
		b = b.Negate()
	}
	m := sample.Scale(2).Sub(math3d.Splat3[T](1))
	out, ok := t.Scale(m.X).Add(b.Scale(m.Y)).Add(n.Scale(m.Z)).TryNormalize()
	if !ok {
		return n
	}
	return out
}

// FlatShader returns the unlit base color, modulated by the diffuse map.
func FlatShader[T math3d.Float](m *models.Model[T]) Shader[T] {
	mat := m.Material
	return func(in *FragmentInput[T]) math3d.Vec3[T] {
		if mat.DiffuseMap != nil {
			return mat.BaseColor.Mul(mat.DiffuseMap.Sample(in.UV))
		}
		return mat.BaseColor
	}
}

// NormalShader visualizes world-space normals.
func NormalShader[T math3d.Float](*models.Model[T]) Shader[T] {
	return func(in *FragmentInput[T]) math3d.Vec3[T] {
		return in.Normal.Normalize().Scale(0.5).Add(math3d.Splat3[T](0.5))
	}
}

// DepthShader maps view depth to a gray ramp that is white at near and black
// at far.
func DepthShader[T math3d.Float](near, far T) ShaderFactory[T] {
	return func(*models.Model[T]) Shader[T] {
		return func(in *FragmentInput[T]) math3d.Vec3[T] {
			v := 1 - math3d.Clamp((in.Depth-near)/(far-near), 0, 1)
			return math3d.Splat3(v)
		}
	}
}
