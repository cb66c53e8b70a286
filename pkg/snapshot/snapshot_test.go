package snapshot

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"slices"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

func renderedSnapshot(t testing.TB) (*Snapshot, *render.Camera[float64]) {
	t.Helper()
	r := render.NewRenderer[float64](32, 24)
	cam := render.NewCamera[float64](32, 24)
	cam.SetPosition(math3d.V3(0.5, 0.8, 3))
	cam.LookAt(math3d.Vec3[float64]{})
	r.SetLights(render.NewDirectionalLight(math3d.V3(-1.0, -1, -1), 1))
	r.RenderFrame(cam, []*models.Model[float64]{models.Cube(1.0)}, nil, render.ColorSky)

	roi := []image.Point{{4, 4}, {28, 4}, {16, 20}}
	return Capture(r.Framebuffer, r.Depth, cam, roi), cam
}

func TestEncodeDecode(t *testing.T) {
	snap, _ := renderedSnapshot(t)
	snap.Label = "cube"

	for _, codec := range []Codec{CodecNone, CodecZstd, CodecSnappy} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, snap, codec); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Width != snap.Width || got.Height != snap.Height || got.Label != "cube" {
				t.Errorf("header = %+v, want %+v", got.Header, snap.Header)
			}
			if got.Pose != snap.Pose {
				t.Errorf("pose = %+v, want %+v", got.Pose, snap.Pose)
			}
			if !slices.Equal(got.ROI, snap.ROI) {
				t.Errorf("roi = %v, want %v", got.ROI, snap.ROI)
			}
			if !slices.Equal(got.Pixels, snap.Pixels) {
				t.Error("pixels differ after round trip")
			}
			if len(got.Depth) != len(snap.Depth) {
				t.Fatalf("depth len = %d, want %d", len(got.Depth), len(snap.Depth))
			}
			for i := range got.Depth {
				a, b := got.Depth[i], snap.Depth[i]
				if a != b && !(math.IsInf(float64(a), 1) && math.IsInf(float64(b), 1)) {
					t.Fatalf("depth[%d] = %v, want %v", i, a, b)
				}
			}
		})
	}
}

func TestCompressionShrinksFlatFrame(t *testing.T) {
	fb := render.NewFramebuffer(64, 64)
	fb.Clear(render.ColorSky)
	snap := Capture[float64](fb, nil, render.NewCamera[float64](64, 64), nil)

	sizes := map[Codec]int{}
	for _, codec := range []Codec{CodecNone, CodecZstd, CodecSnappy} {
		var buf bytes.Buffer
		if err := Encode(&buf, snap, codec); err != nil {
			t.Fatalf("Encode(%v): %v", codec, err)
		}
		sizes[codec] = buf.Len()
	}
	if sizes[CodecZstd] >= sizes[CodecNone] || sizes[CodecSnappy] >= sizes[CodecNone] {
		t.Errorf("compressed sizes %v not smaller than raw", sizes)
	}
}

func TestDecodeErrors(t *testing.T) {
	snap, _ := renderedSnapshot(t)
	var valid bytes.Buffer
	if err := Encode(&valid, snap, CodecSnappy); err != nil {
		t.Fatal(err)
	}

	corrupt := func(i int, b byte) []byte {
		data := bytes.Clone(valid.Bytes())
		data[i] = b
		return data
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad magic", corrupt(0, 'X'), ErrBadMagic},
		{"future version", corrupt(4, 99), ErrUnsupportedVersion},
		{"unknown codec", corrupt(5, 42), ErrUnknownCodec},
		{"truncated payload", valid.Bytes()[:valid.Len()-10], nil},
		{"short prefix", []byte("RFS"), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.data))
			if err == nil {
				t.Fatal("Decode succeeded on invalid input")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseCodec(t *testing.T) {
	for _, c := range []Codec{CodecNone, CodecZstd, CodecSnappy} {
		got, err := ParseCodec(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCodec(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCodec("lz4"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("ParseCodec(lz4) err = %v, want ErrUnknownCodec", err)
	}
}

func TestCameraFromPose(t *testing.T) {
	snap, cam := renderedSnapshot(t)
	got := Camera[float64](snap.Pose, snap.Width, snap.Height)

	if !got.Position().ApproxEqual(cam.Position(), 1e-12) || !got.Rotation().ApproxEqual(cam.Rotation(), 1e-12) {
		t.Errorf("pose = %v %v, want %v %v", got.Position(), got.Rotation(), cam.Position(), cam.Rotation())
	}
	if got.FocalLength() != cam.FocalLength() || got.SensorSize() != cam.SensorSize() {
		t.Errorf("optics differ: %v %v, want %v %v", got.FocalLength(), got.SensorSize(), cam.FocalLength(), cam.SensorSize())
	}
	if w, h := got.Resolution(); w != 32 || h != 24 {
		t.Errorf("resolution = %dx%d", w, h)
	}
}

func TestViewConeProjectsToROI(t *testing.T) {
	snap, cam := renderedSnapshot(t)
	cone := ViewCone(snap, 5.0)
	if cone == nil {
		t.Fatal("ViewCone returned nil")
	}
	if cone.TriangleCount() != len(snap.ROI) || cone.VertexCount() != len(snap.ROI)+1 {
		t.Fatalf("cone has %d faces %d vertices", cone.TriangleCount(), cone.VertexCount())
	}
	for i, pt := range snap.ROI {
		v := cone.Geometry.Vertices[i+1]
		if d := v.Distance(cam.Position()); math.Abs(d-5) > 1e-9 {
			t.Errorf("vertex %d at distance %v, want 5", i, d)
		}
		screen, ok := cam.ProjectToScreen(v)
		if !ok {
			t.Fatalf("vertex %d not visible", i)
		}
		if math.Abs(screen.X-float64(pt.X)) > 1e-6 || math.Abs(screen.Y-float64(pt.Y)) > 1e-6 {
			t.Errorf("vertex %d projects to (%v, %v), want %v", i, screen.X, screen.Y, pt)
		}
	}

	snap.ROI = snap.ROI[:2]
	if ViewCone(snap, 5.0) != nil {
		t.Error("ViewCone accepted a two point ROI")
	}
}

func TestExport(t *testing.T) {
	snap, _ := renderedSnapshot(t)
	img := snap.Image()

	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		FormatPNG:  func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		FormatBMP:  func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
		FormatTIFF: func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) },
	}
	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, img, format); err != nil {
				t.Fatalf("Export: %v", err)
			}
			out, err := decode(&buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Bounds() != img.Bounds() {
				t.Fatalf("bounds = %v, want %v", out.Bounds(), img.Bounds())
			}
			for _, p := range []image.Point{{0, 0}, {16, 12}, {31, 23}} {
				want := img.RGBAAt(p.X, p.Y)
				if got := color.RGBAModel.Convert(out.At(p.X, p.Y)).(color.RGBA); got != want {
					t.Errorf("pixel %v = %v, want %v", p, got, want)
				}
			}
		})
	}

	if err := Export(&bytes.Buffer{}, img, "gif"); err == nil {
		t.Error("Export accepted gif")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"png", FormatPNG, true},
		{"frame.BMP", FormatBMP, true},
		{"out/frame.tif", FormatTIFF, true},
		{"tiff", FormatTIFF, true},
		{"jpeg", "", false},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		w, h, maxSide int
		want          image.Point
	}{
		{64, 48, 16, image.Pt(16, 12)},
		{48, 64, 16, image.Pt(12, 16)},
		{10, 8, 16, image.Pt(10, 8)},
		{200, 1, 50, image.Pt(50, 1)},
	}
	for _, tc := range tests {
		img := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
		if got := Thumbnail(img, tc.maxSide).Bounds().Size(); got != tc.want {
			t.Errorf("Thumbnail(%dx%d, %d) = %v, want %v", tc.w, tc.h, tc.maxSide, got, tc.want)
		}
	}
}

func TestDepthImage(t *testing.T) {
	snap, _ := renderedSnapshot(t)
	img := snap.DepthImage(1, 6)
	if img == nil {
		t.Fatal("DepthImage returned nil")
	}
	// The cube covers the center; the corner sees only sky.
	if img.Gray16At(16, 12).Y == 0 {
		t.Error("center depth pixel is black")
	}
	if img.Gray16At(0, 0).Y != 0 {
		t.Error("background depth pixel is not black")
	}
	snap.Depth = nil
	if snap.DepthImage(1, 6) != nil {
		t.Error("DepthImage without depth returned an image")
	}
}
