package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/tinunadno/render-engine-family/pkg/control"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
	"github.com/tinunadno/render-engine-family/pkg/render"
	"github.com/tinunadno/render-engine-family/pkg/snapshot"
)

const viewControls = `Controls:
  Mouse drag  - Orbit the model
  Scroll      - Zoom in/out
  W/S/A/D     - Pitch and yaw (fly mode: move)
  Space       - Random spin
  R           - Reset view
  F           - Toggle fly camera
  T           - Toggle texture
  N           - Cycle shading (lit, flat, normals, depth)
  X           - Toggle wireframe
  G           - Toggle axes, grid and light gizmo
  O           - Toggle region of interest
  P           - Save a snapshot of the current frame
  L           - Position light (mouse to aim, click to set)
  ?           - Toggle HUD overlay
  Esc         - Quit`

type viewOptions struct {
	FPS         int
	Texture     string
	Background  string
	SnapshotDir string
	Codec       string
}

func newViewCmd(g *globalOptions) *cobra.Command {
	opts := viewOptions{
		FPS:         60,
		Background:  "30,30,40",
		SnapshotDir: ".",
		Codec:       snapshot.CodecZstd.String(),
	}
	cmd := &cobra.Command{
		Use:   "view [model.obj|model.glb]",
		Short: "Interactive terminal model viewer",
		Long:  "View OBJ and glTF models in the terminal. Without a model a textured sphere is shown.\n\n" + viewControls,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.setupLogging(true); err != nil {
				return err
			}
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runView(cmd.Context(), g, path, opts)
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&opts.FPS, "fps", opts.FPS, "target FPS")
	fs.StringVar(&opts.Texture, "texture", "", "texture image (PNG, JPEG or WebP) replacing the model's own")
	fs.StringVar(&opts.Background, "bg", opts.Background, "background color (R,G,B)")
	fs.StringVar(&opts.SnapshotDir, "snapshot-dir", opts.SnapshotDir, "directory for snapshots saved with P")
	fs.StringVar(&opts.Codec, "codec", opts.Codec, "snapshot compression (none, zstd, snappy)")
	return cmd
}

// shading selects the fragment shader used for solid rendering.
type shading int

const (
	shadeLit shading = iota
	shadeFlat
	shadeNormals
	shadeDepth
	shadings
)

func (s shading) String() string {
	return [...]string{"lit", "flat", "normals", "depth"}[s]
}

// viewState holds all view-related settings (UI state, not library code)
type viewState struct {
	Texture   bool
	Shading   shading
	Wireframe bool
	Gizmos    bool
	ROI       bool
	ShowHUD   bool
	Fly       bool

	LightMode    bool
	LightDir     vec3 // toward the light, in camera space
	PendingLight vec3
	lightCursor  image.Point
}

func newViewState() viewState {
	return viewState{
		Texture:  true,
		ShowHUD:  true,
		LightDir: math3d.V3(0.5, 1, 0.3).Normalize(),
	}
}

type viewer struct {
	opts  viewOptions
	codec snapshot.Codec
	scr   *screen
	state viewState
	hud   *HUD

	renderer   *render.Renderer[float64]
	cam        *render.Camera[float64]
	orbit      *control.Orbit[float64]
	fly        *control.Keymap[float64]
	textured   *models.Model[float64]
	plain      *models.Model[float64]
	background color.RGBA
	name       string

	mouseDown    bool
	lastX, lastY int
	torque       struct{ pitch, yaw float64 }

	snapshots int
	status    string
	statusAt  time.Time
	quit      bool
}

const (
	torqueStrength = 3.0
	orbitDistance  = 4.0
	statusTimeout  = 3 * time.Second
)

func runView(ctx context.Context, g *globalOptions, path string, opts viewOptions) error {
	bg, err := parseRGB(opts.Background)
	if err != nil {
		return err
	}
	codec, err := snapshot.ParseCodec(opts.Codec)
	if err != nil {
		return err
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}
	model, err := loadModel(path, opts.Texture)
	if err != nil {
		return err
	}

	name := "sphere"
	if path != "" {
		name = filepath.Base(path)
	}
	v := &viewer{
		opts:       opts,
		codec:      codec,
		state:      newViewState(),
		hud:        NewHUD(name, "tris", model.TriangleCount()),
		orbit:      control.NewOrbit(math3d.Vec3[float64]{}, orbitDistance, opts.FPS),
		fly:        control.FlyKeymap(0.1, 0.05),
		textured:   model,
		plain:      untextured(model),
		background: bg,
		name:       strings.TrimSuffix(name, filepath.Ext(name)),
	}

	scr, err := openScreen()
	if err != nil {
		return err
	}
	defer scr.close()
	v.scr = scr

	pool := g.pool()
	defer pool.Close()

	w, h := scr.frameSize()
	v.renderer = render.NewRenderer[float64](w, h)
	v.renderer.SetPool(pool)
	v.cam = render.NewCamera[float64](w, h)
	v.cam.SetClipPlanes(0.1, 100)
	render.Apply(v.cam, v.orbit.Pose())

	events := scr.term.Events()
	ticker := time.NewTicker(time.Second / time.Duration(opts.FPS))
	defer ticker.Stop()
	lastFrame := time.Now()

	for !v.quit {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			v.handle(ev)
			continue
		case <-ticker.C:
		}

		now := time.Now()
		dt := min(now.Sub(lastFrame).Seconds(), 0.1)
		lastFrame = now

		v.update(dt)
		v.draw()
		v.hud.UpdateFPS()
		top, bottom := v.overlay()
		if err := scr.present(v.renderer.Framebuffer, top, bottom); err != nil {
			return err
		}
	}
	return nil
}

func (v *viewer) handle(ev uv.Event) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.scr.resize(ev.Width, ev.Height)
		w, h := v.scr.frameSize()
		v.renderer.Resize(w, h)
		render.Apply(v.cam, render.Resize[float64]{Width: w, Height: h})

	case uv.KeyPressEvent:
		v.handleKey(ev)

	case uv.KeyReleaseEvent:
		switch {
		case ev.MatchString("w", "up", "s", "down"):
			v.torque.pitch = 0
		case ev.MatchString("a", "left", "d", "right"):
			v.torque.yaw = 0
		}

	case uv.MouseClickEvent:
		if v.state.LightMode {
			v.state.LightDir = v.state.PendingLight
			v.state.LightMode = false
		} else {
			v.mouseDown = true
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		if v.state.LightMode {
			v.state.PendingLight = control.ScreenToLightDir[float64](ev.X, ev.Y, v.scr.width, v.scr.height)
			v.state.lightCursor = image.Pt(v.scr.toFrame(ev.X, ev.Y))
		} else if v.mouseDown && !v.state.Fly {
			dx := ev.X - v.lastX
			dy := ev.Y - v.lastY
			v.orbit.ApplyImpulse(float64(dy)*0.03, float64(-dx)*0.03, 0)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.zoom(-0.1)
		case uv.MouseWheelDown:
			v.zoom(0.1)
		}
	}
}

func (v *viewer) handleKey(ev uv.KeyPressEvent) {
	switch {
	case ev.MatchString("escape"):
		if v.state.LightMode {
			v.state.LightMode = false
		} else {
			v.quit = true
		}
		return
	case ev.MatchString("ctrl+c"):
		v.quit = true
		return
	case ev.MatchString("f"):
		v.state.Fly = !v.state.Fly
		if !v.state.Fly {
			render.Apply(v.cam, v.orbit.Pose())
		}
		return
	case ev.MatchString("r"):
		v.orbit.Reset()
		v.cam.SetFocalLength(render.DefaultFocalLength)
		render.Apply(v.cam, v.orbit.Pose())
		return
	case ev.MatchString("t"):
		v.state.Texture = !v.state.Texture
		return
	case ev.MatchString("n"):
		v.state.Shading = (v.state.Shading + 1) % shadings
		return
	case ev.MatchString("x"):
		v.state.Wireframe = !v.state.Wireframe
		return
	case ev.MatchString("g"):
		v.state.Gizmos = !v.state.Gizmos
		return
	case ev.MatchString("o"):
		v.state.ROI = !v.state.ROI
		return
	case ev.MatchString("p"):
		v.saveSnapshot()
		return
	case ev.MatchString("l"):
		v.state.LightMode = true
		v.state.PendingLight = v.state.LightDir
		return
	case ev.MatchString("?"), ev.MatchString("shift+/"):
		v.state.ShowHUD = !v.state.ShowHUD
		return
	}

	if v.state.Fly {
		if cmd, ok := v.fly.Match(ev); ok {
			render.Apply(v.cam, cmd)
		}
		return
	}

	switch {
	case ev.MatchString("w", "up"):
		v.torque.pitch = torqueStrength
	case ev.MatchString("s", "down"):
		v.torque.pitch = -torqueStrength
	case ev.MatchString("a", "left"):
		v.torque.yaw = -torqueStrength
	case ev.MatchString("d", "right"):
		v.torque.yaw = torqueStrength
	case ev.MatchString("space"):
		v.orbit.ApplyImpulse(
			(rand.Float64()-0.5)*0.5,
			(rand.Float64()-0.5)*1.5,
			0,
		)
	case ev.MatchString("+", "="):
		v.zoom(-0.1)
	case ev.MatchString("-", "_"):
		v.zoom(0.1)
	}
}

func (v *viewer) zoom(impulse float64) {
	if v.state.Fly {
		render.Apply(v.cam, render.Zoom[float64]{Factor: 1 - impulse})
		return
	}
	v.orbit.ApplyImpulse(0, 0, impulse)
}

// update applies held keys and advances the orbit springs.
func (v *viewer) update(dt float64) {
	if v.state.Fly {
		return
	}
	// Key release events are unreliable, so held torque also decays.
	v.orbit.ApplyImpulse(v.torque.pitch*dt, v.torque.yaw*dt, 0)
	v.torque.pitch *= 0.9
	v.torque.yaw *= 0.9
	render.Apply(v.cam, v.orbit.Update())
}

// light returns the key light for the current camera. Its direction is
// stored in camera space so it stays fixed on screen while orbiting.
func (v *viewer) light() (render.Light[float64], vec3) {
	dir := v.state.LightDir
	if v.state.LightMode {
		dir = v.state.PendingLight
	}
	forward, right, up := v.cam.Basis()
	toLight := right.Scale(dir.X).Add(up.Scale(dir.Y)).Sub(forward.Scale(dir.Z)).Normalize()
	return render.NewDirectionalLight(toLight.Negate(), 1), toLight
}

func (v *viewer) shaderFactory() render.ShaderFactory[float64] {
	switch v.state.Shading {
	case shadeFlat:
		return render.FlatShader[float64]
	case shadeNormals:
		return render.NormalShader[float64]
	case shadeDepth:
		d := v.orbit.Distance.Position
		return render.DepthShader(max(d-modelSize, 0.1), d+modelSize)
	default:
		return nil
	}
}

func (v *viewer) draw() {
	fb := v.renderer.Framebuffer
	light, toLight := v.light()
	v.renderer.SetLights(light)

	model := v.plain
	if v.state.Texture {
		model = v.textured
	}

	wf := render.NewWireframe(v.cam, fb)
	if v.state.Wireframe {
		fb.Clear(v.background)
		v.renderer.Depth.Clear()
		wf.DrawModel(model, render.RGB(0, 255, 128))
	} else {
		v.renderer.RenderFrame(v.cam, []*models.Model[float64]{model}, v.shaderFactory(), v.background)
	}

	if v.state.Gizmos {
		wf.DrawGrid(4, 0.5, render.ColorGray)
		wf.DrawCube(math3d.Vec3[float64]{}, modelSize, render.ColorGray)
		wf.DrawAxes(1.5)
		wf.DrawLight(light, toLight.Scale(modelSize*1.25), 0.6, render.ColorYellow)
	}
	if v.state.ROI {
		r := roiRect(fb.Size())
		fb.DrawRectOutline(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), render.ColorYellow)
	}
	if v.state.LightMode {
		c := v.state.lightCursor
		fb.DrawRect(c.X-1, c.Y-1, 3, 3, render.ColorYellow)
	}
}

func (v *viewer) overlay() (top, bottom string) {
	width := v.scr.width
	if v.state.LightMode {
		return "", v.hud.Bottom(width, nil, "", "◉ LIGHT MODE - Move mouse to position, click to set, Esc to cancel")
	}
	if !v.state.ShowHUD {
		return "", ""
	}
	hint := "L: position light"
	if v.status != "" && time.Since(v.statusAt) < statusTimeout {
		hint = v.status
	}
	toggles := []toggle{
		{"Texture", v.state.Texture && !v.state.Wireframe},
		{"X-Ray (wireframe)", v.state.Wireframe},
		{"Fly", v.state.Fly},
		{"Shading: " + v.state.Shading.String(), v.state.Shading != shadeLit},
	}
	return v.hud.Top(width), v.hud.Bottom(width, toggles, hint, "")
}

// saveSnapshot writes the last rendered frame, its depth and the ROI to the
// snapshot directory.
func (v *viewer) saveSnapshot() {
	fb := v.renderer.Framebuffer
	snap := snapshot.Capture(fb, v.renderer.Depth, v.cam, roiPolygon(roiRect(fb.Size())))
	snap.Label = v.name

	v.snapshots++
	path := filepath.Join(v.opts.SnapshotDir, fmt.Sprintf("%s-%03d.rfsn", v.name, v.snapshots))
	err := writeOutput(path, nil, func(w io.Writer) error {
		return snapshot.Encode(w, snap, v.codec)
	})
	if err != nil {
		v.setStatus("snapshot failed: " + err.Error())
		return
	}
	v.setStatus("saved " + path)
}

func (v *viewer) setStatus(s string) {
	v.status = s
	v.statusAt = time.Now()
}
