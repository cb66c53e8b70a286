package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/tinunadno/render-engine-family/pkg/control"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
	"github.com/tinunadno/render-engine-family/pkg/raymarch"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

type vec3 = math3d.Vec3[float64]

// modelSize is the bounding box side loaded models are normalized to.
const modelSize = 2.0

// loadModel reads an OBJ or glTF file, or builds a textured sphere when
// path is empty. The result is centered and scaled to modelSize. When
// texturePath is set it replaces the diffuse map; models without one get a
// checker texture.
func loadModel(path, texturePath string) (*models.Model[float64], error) {
	var (
		m   *models.Model[float64]
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "":
		if path != "" {
			return nil, fmt.Errorf("unsupported format: %s (use .obj or .glb)", path)
		}
		m = models.UVSphere(1.0, 32, 16)
	case ".obj":
		m, err = models.LoadOBJ[float64](path)
	case ".glb", ".gltf":
		m, err = models.LoadGLTF[float64](path)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .obj or .glb)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	if texturePath != "" {
		tex, err := models.LoadTexture[float64](texturePath)
		if err != nil {
			return nil, fmt.Errorf("load texture: %w", err)
		}
		m.Material.DiffuseMap = tex
	}
	if m.Material.DiffuseMap == nil {
		m.Material.DiffuseMap = models.NewCheckerTexture[float64](64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100))
	}
	if len(m.Geometry.Normals) == 0 {
		m.Geometry.CalculateSmoothNormals()
	}
	m.Geometry.Normalize(modelSize)
	return m, nil
}

// untextured returns a copy of m without its diffuse map.
func untextured(m *models.Model[float64]) *models.Model[float64] {
	c := m.Clone()
	c.Material.DiffuseMap = nil
	return c
}

// parseRGB parses "R,G,B" with components in 0..255.
func parseRGB(s string) (color.RGBA, error) {
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	for _, c := range []int{r, g, b} {
		if c < 0 || c > 255 {
			return color.RGBA{}, fmt.Errorf("parse color %q: component %d out of range", s, c)
		}
	}
	return render.RGB(uint8(r), uint8(g), uint8(b)), nil
}

// roiRect is the centered region of interest drawn in the viewer: half the
// frame in each dimension.
func roiRect(width, height int) image.Rectangle {
	return image.Rect(width/4, height/4, width-width/4, height-height/4)
}

// roiPolygon returns the corners of r in drawing order.
func roiPolygon(r image.Rectangle) []image.Point {
	return []image.Point{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	}
}

// Black hole demo scene. The camera starts on +Z looking at the hole and
// bobs vertically with a period of about 628 frames.
var (
	blackHoleCamera     = vec3{X: 0, Y: 0, Z: 2}
	blackHoleBackground = vec3{X: 0.3, Y: 0.05, Z: 0.2}
	blackHoleBobPeriod  = float32(200 * math.Pi)
)

const blackHoleBobAmplitude = 1

// blackHoleScene builds the demo: a flattened red disk around a lensing
// black hole with a black event horizon.
func blackHoleScene() *raymarch.Scene[float64] {
	hole := &raymarch.BlackHole[float64]{
		SchwarzschildRadius: 0.5,
		InfluenceRadius:     0.7,
		Strength:            0.5,
	}
	scene := raymarch.NewScene[float64]()
	scene.AddObject(
		hole.Horizon(),
		raymarch.Object[float64]{
			Shape:    raymarch.NewEllipsoid(1.0, math3d.V3(1, 0.2, 1.0)),
			Material: raymarch.DefaultMaterial[float64](),
		},
	)
	scene.AddCurvature(hole)
	return scene
}

// newBlackHoleBob returns the vertical camera oscillation, driven in frames.
func newBlackHoleBob() *control.Bob[float64] {
	return control.NewBob(blackHoleCamera, math3d.Up[float64](), blackHoleBobAmplitude, blackHoleBobPeriod)
}

// marchShader names a ray-march shading mode.
type marchShader int

const (
	marchFlat marchShader = iota
	marchLambert
	marchSteps
	marchShaders
)

func (s marchShader) String() string {
	switch s {
	case marchFlat:
		return "flat"
	case marchLambert:
		return "lambert"
	case marchSteps:
		return "steps"
	default:
		return fmt.Sprintf("marchShader(%d)", int(s))
	}
}

func parseMarchShader(s string) (marchShader, error) {
	for m := range marchShaders {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown shading %q (use flat, lambert or steps)", s)
}

func (s marchShader) shade(params raymarch.Params[float64]) raymarch.ShadeFunc[float64] {
	switch s {
	case marchLambert:
		return raymarch.LambertShade(math3d.V3(-0.5, -1, -0.3), 0.15, blackHoleBackground)
	case marchSteps:
		return raymarch.StepsShade[float64](params.MaxIterations)
	default:
		return raymarch.FlatShade(blackHoleBackground)
	}
}
