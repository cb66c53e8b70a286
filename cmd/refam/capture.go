package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinunadno/render-engine-family/internal/logging"
	"github.com/tinunadno/render-engine-family/pkg/control"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
	"github.com/tinunadno/render-engine-family/pkg/render"
	"github.com/tinunadno/render-engine-family/pkg/snapshot"
)

// containerExt marks outputs written as snapshot containers.
const containerExt = ".rfsn"

type captureOptions struct {
	Scene      string
	Texture    string
	Output     string
	Format     string
	Codec      string
	Width      int
	Height     int
	Yaw        float64
	Pitch      float64
	Distance   float64
	Frame      int
	Background string
	Depth      bool
	ROI        bool
	Thumbnail  int
	Label      string

	march marchOptions
}

func newSnapshotCmd(g *globalOptions) *cobra.Command {
	opts := captureOptions{
		Scene:      "model",
		Output:     "frame.png",
		Codec:      snapshot.CodecZstd.String(),
		Width:      render.DefaultWidth,
		Height:     render.DefaultHeight,
		Distance:   orbitDistance,
		Background: "30,30,40",
		march:      defaultMarchOptions(),
	}
	cmd := &cobra.Command{
		Use:   "snapshot [model.obj|model.glb]",
		Short: "Render one frame without a terminal",
		Long: "Render a model or the black hole scene to an image (png, bmp, tiff) or,\n" +
			"when the output ends in " + containerExt + ", to a compressed snapshot container\n" +
			"holding color, depth, camera pose and region of interest.",
		Example: "  refam snapshot teapot.obj -o teapot.tiff --yaw 0.6 --pitch 0.3\n" +
			"  refam snapshot --scene blackhole --frame 150 -o hole.rfsn --codec snappy",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.setupLogging(false); err != nil {
				return err
			}
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runCapture(cmd.Context(), g, path, opts, cmd.OutOrStdout())
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.Scene, "scene", opts.Scene, "scene to render (model, blackhole)")
	fs.StringVar(&opts.Texture, "texture", "", "texture image replacing the model's own")
	fs.StringVarP(&opts.Output, "output", "o", opts.Output, "output file, - for stdout")
	fs.StringVar(&opts.Format, "format", "", "output format (png, bmp, tiff, rfsn); default from the output name")
	fs.StringVar(&opts.Codec, "codec", opts.Codec, "container compression (none, zstd, snappy)")
	fs.IntVar(&opts.Width, "width", opts.Width, "image width in pixels")
	fs.IntVar(&opts.Height, "height", opts.Height, "image height in pixels")
	fs.Float64Var(&opts.Yaw, "yaw", 0, "orbit yaw in radians (model scene)")
	fs.Float64Var(&opts.Pitch, "pitch", 0, "orbit pitch in radians (model scene)")
	fs.Float64Var(&opts.Distance, "distance", opts.Distance, "orbit distance (model scene)")
	fs.IntVar(&opts.Frame, "frame", 0, "animation frame (blackhole scene)")
	fs.StringVar(&opts.Background, "bg", opts.Background, "background color (R,G,B)")
	fs.BoolVar(&opts.Depth, "depth", false, "export the depth buffer instead of color")
	fs.BoolVar(&opts.ROI, "roi", false, "record the centered region of interest")
	fs.IntVar(&opts.Thumbnail, "thumbnail", 0, "downscale images so the longer side is at most this many pixels")
	fs.StringVar(&opts.Label, "label", "", "label stored in the container")
	opts.march.bind(fs)
	return cmd
}

// resolveOutput decides how output is written: as a snapshot container when
// the format or file name says rfsn, otherwise as an image.
func resolveOutput(output, format string) (container bool, f snapshot.Format, err error) {
	name := format
	if name == "" {
		name = output
	}
	if strings.EqualFold(name, containerExt[1:]) || strings.EqualFold(filepath.Ext(name), containerExt) {
		return true, "", nil
	}
	f, err = snapshot.ParseFormat(name)
	return false, f, err
}

// frame is one rendered capture and the depth range useful for display.
type frame struct {
	fb        *render.Framebuffer
	depth     *render.DepthBuffer[float64]
	cam       *render.Camera[float64]
	near, far float64
}

func runCapture(ctx context.Context, g *globalOptions, path string, opts captureOptions, stdout io.Writer) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", opts.Width, opts.Height)
	}
	container, format, err := resolveOutput(opts.Output, opts.Format)
	if err != nil {
		return err
	}
	codec, err := snapshot.ParseCodec(opts.Codec)
	if err != nil {
		return err
	}

	var fr *frame
	switch opts.Scene {
	case "model":
		fr, err = captureModel(g, path, opts)
	case "blackhole":
		if path != "" {
			return fmt.Errorf("the blackhole scene takes no model")
		}
		fr, err = captureBlackHole(ctx, g, opts)
	default:
		return fmt.Errorf("unknown scene %q (use model or blackhole)", opts.Scene)
	}
	if err != nil {
		return err
	}

	var roi []image.Point
	if opts.ROI {
		roi = roiPolygon(roiRect(opts.Width, opts.Height))
	}
	snap := snapshot.Capture(fr.fb, fr.depth, fr.cam, roi)
	snap.Label = opts.Label

	return writeOutput(opts.Output, stdout, func(w io.Writer) error {
		if container {
			return snapshot.Encode(w, snap, codec)
		}
		var img image.Image = snap.Image()
		if opts.Depth {
			d := snap.DepthImage(fr.near, fr.far)
			if d == nil {
				return fmt.Errorf("scene %q has no depth buffer", opts.Scene)
			}
			img = d
		}
		if opts.Thumbnail > 0 {
			img = snapshot.Thumbnail(img, opts.Thumbnail)
		}
		return snapshot.Export(w, img, format)
	})
}

func captureModel(g *globalOptions, path string, opts captureOptions) (*frame, error) {
	bg, err := parseRGB(opts.Background)
	if err != nil {
		return nil, err
	}
	model, err := loadModel(path, opts.Texture)
	if err != nil {
		return nil, err
	}

	orbit := control.NewOrbit(math3d.Vec3[float64]{}, opts.Distance, 60)
	orbit.Yaw.Position = opts.Yaw
	orbit.Pitch.Position = opts.Pitch
	cam := render.NewCamera[float64](opts.Width, opts.Height)
	cam.SetClipPlanes(0.1, 100)
	render.Apply(cam, orbit.Update())

	pool := g.pool()
	defer pool.Close()
	r := render.NewRenderer[float64](opts.Width, opts.Height)
	r.SetPool(pool)

	forward, right, up := cam.Basis()
	toLight := right.Scale(0.5).Add(up).Sub(forward.Scale(0.3))
	r.SetLights(render.NewDirectionalLight(toLight.Negate(), 1))
	r.RenderFrame(cam, []*models.Model[float64]{model}, nil, bg)

	st := r.Rasterizer.TriangleStats
	logging.Logger().Info("rendered model",
		"model", path,
		"triangles", model.TriangleCount(),
		"binned", st.Binned,
		"size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
	)
	d := orbit.Distance.Position
	return &frame{fb: r.Framebuffer, depth: r.Depth, cam: cam, near: max(d-modelSize, 0.1), far: d + modelSize}, nil
}

func captureBlackHole(ctx context.Context, g *globalOptions, opts captureOptions) (*frame, error) {
	rm, _, err := opts.march.renderer(g.Workers)
	if err != nil {
		return nil, err
	}
	cam := render.NewCamera[float64](opts.Width, opts.Height)
	bob := newBlackHoleBob()
	render.Apply(cam, bob.Update(float32(opts.Frame)))

	fb := render.NewFramebuffer(opts.Width, opts.Height)
	stats, err := rm.RenderFrame(ctx, cam, fb)
	if err != nil {
		return nil, fmt.Errorf("march frame: %w", err)
	}
	logging.Logger().Info("rendered black hole",
		"frame", opts.Frame,
		"rays", stats.Rays,
		"hits", stats.Hits,
		"iterations", stats.Iterations,
	)
	return &frame{fb: fb, cam: cam}, nil
}

// writeOutput runs write against stdout when name is "-" and against a new
// file otherwise.
func writeOutput(name string, stdout io.Writer, write func(io.Writer) error) (err error) {
	if name == "-" {
		return write(stdout)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	if err := write(f); err != nil {
		return err
	}
	logging.Logger().Info("wrote snapshot", "path", name)
	return nil
}
