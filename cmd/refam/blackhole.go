package main

import (
	"context"
	"fmt"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tinunadno/render-engine-family/internal/logging"
	"github.com/tinunadno/render-engine-family/pkg/control"
	"github.com/tinunadno/render-engine-family/pkg/raymarch"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

const blackHoleControls = `Controls:
  Space       - Pause
  B           - Toggle camera bob
  W/S/A/D/Q/E - Move (bob off)
  Arrows      - Turn
  +/-         - Zoom
  N           - Cycle shading (flat, lambert, steps)
  R           - Reset camera
  ?           - Toggle HUD overlay
  Esc         - Quit`

// marchOptions configure the ray marcher for both the interactive demo and
// headless snapshots.
type marchOptions struct {
	Shading       string
	MaxIterations int
	Threshold     float64
	MaxDistance   float64
}

func defaultMarchOptions() marchOptions {
	p := raymarch.DefaultParams[float64]()
	return marchOptions{
		Shading:       marchFlat.String(),
		MaxIterations: p.MaxIterations,
		Threshold:     p.Threshold,
		MaxDistance:   p.MaxDistance,
	}
}

func (o *marchOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Shading, "shading", o.Shading, "ray-march shading (flat, lambert, steps)")
	fs.IntVar(&o.MaxIterations, "max-iterations", o.MaxIterations, "sphere-tracing steps per ray")
	fs.Float64Var(&o.Threshold, "threshold", o.Threshold, "surface hit distance")
	fs.Float64Var(&o.MaxDistance, "max-distance", o.MaxDistance, "distance after which a ray misses")
}

// renderer builds a ray-march renderer for the black hole scene.
func (o marchOptions) renderer(workers int) (*raymarch.Renderer[float64], marchShader, error) {
	shader, err := parseMarchShader(o.Shading)
	if err != nil {
		return nil, 0, err
	}
	if o.MaxIterations <= 0 || o.Threshold <= 0 || o.MaxDistance <= 0 {
		return nil, 0, fmt.Errorf("march params must be positive (iterations %d, threshold %g, distance %g)",
			o.MaxIterations, o.Threshold, o.MaxDistance)
	}
	rm := raymarch.NewRenderer(blackHoleScene())
	rm.Params = raymarch.Params[float64]{
		Threshold:     o.Threshold,
		MaxIterations: o.MaxIterations,
		MaxDistance:   o.MaxDistance,
	}
	rm.Shade = shader.shade(rm.Params)
	rm.Workers = workers
	return rm, shader, nil
}

type blackHoleOptions struct {
	FPS int
	marchOptions
}

func newBlackHoleCmd(g *globalOptions) *cobra.Command {
	opts := blackHoleOptions{FPS: 30, marchOptions: defaultMarchOptions()}
	cmd := &cobra.Command{
		Use:   "blackhole",
		Short: "Animated ray-marched black hole",
		Long:  "Sphere-trace a red disk around a black hole that bends the rays passing near it.\n\n" + blackHoleControls,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := g.setupLogging(true); err != nil {
				return err
			}
			return runBlackHole(cmd.Context(), g, opts)
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&opts.FPS, "fps", opts.FPS, "target FPS")
	opts.marchOptions.bind(fs)
	return cmd
}

func runBlackHole(ctx context.Context, g *globalOptions, opts blackHoleOptions) error {
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}
	rm, shader, err := opts.renderer(g.Workers)
	if err != nil {
		return err
	}

	scr, err := openScreen()
	if err != nil {
		return err
	}
	defer scr.close()

	w, h := scr.frameSize()
	fb := render.NewFramebuffer(w, h)
	cam := render.NewCamera[float64](w, h)
	render.Apply(cam, render.MoveTo[float64]{Position: blackHoleCamera})

	bob := newBlackHoleBob()
	keys := control.FlyKeymap(0.05, 0.03)
	hud := NewHUD("black hole", "hits", 0)
	var (
		paused  bool
		bobbing = true
		showHUD = true
	)

	events := scr.term.Events()
	ticker := time.NewTicker(time.Second / time.Duration(opts.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				scr.resize(ev.Width, ev.Height)
				w, h := scr.frameSize()
				fb.Resize(w, h)
				render.Apply(cam, render.Resize[float64]{Width: w, Height: h})
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "ctrl+c"):
					return nil
				case ev.MatchString("space"):
					paused = !paused
				case ev.MatchString("b"):
					bobbing = !bobbing
					if bobbing {
						bob.Base = cam.Position()
						bob.Reset()
					}
				case ev.MatchString("n"):
					shader = (shader + 1) % marchShaders
					rm.Shade = shader.shade(rm.Params)
				case ev.MatchString("r"):
					bob.Base = blackHoleCamera
					bob.Reset()
					render.Apply(cam, render.SetPose[float64]{Position: blackHoleCamera})
					cam.SetFocalLength(render.DefaultFocalLength)
				case ev.MatchString("?", "shift+/"):
					showHUD = !showHUD
				default:
					if cmd, ok := keys.Match(ev); ok {
						render.Apply(cam, cmd)
					}
				}
			}
			continue
		case <-ticker.C:
		}

		if bobbing && !paused {
			// The bob period is measured in frames.
			render.Apply(cam, bob.Update(1))
		}
		stats, err := rm.RenderFrame(ctx, cam, fb)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		hud.SetCount(stats.Hits)
		hud.UpdateFPS()
		logging.Logger().Debug("black hole frame",
			"rays", stats.Rays,
			"hits", stats.Hits,
			"iterations", stats.Iterations,
			"camera_y", cam.Position().Y,
		)

		var top, bottom string
		if showHUD {
			top = hud.Top(scr.width)
			bottom = hud.Bottom(scr.width, []toggle{
				{"Bob", bobbing},
				{"Paused", paused},
				{"Shading: " + shader.String(), shader != marchFlat},
			}, "N: shading", "")
		}
		if err := scr.present(fb, top, bottom); err != nil {
			return err
		}
	}
}
