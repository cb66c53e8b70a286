package models

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterBilinear FilterMode = iota // Bilinear interpolation (smooth)
	FilterNearest                    // Nearest-neighbor (pixelated)
)

// Texture is an immutable RGBA image with sampling state. Once built it is
// never written, so one texture can back any number of materials and be
// sampled from any goroutine.
type Texture[T math3d.Float] struct {
	width  int
	height int
	pixels []color.RGBA // Row-major, row 0 at the top of the image

	WrapU  WrapMode
	WrapV  WrapMode
	Filter FilterMode
}

// LoadTexture decodes an image file (PNG, JPEG or WebP) into a texture.
func LoadTexture[T math3d.Float](path string) (*Texture[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return TextureFromImage[T](img), nil
}

// TextureFromImage copies img into a new texture with repeat wrap and
// bilinear filtering.
func TextureFromImage[T math3d.Float](img image.Image) *Texture[T] {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]color.RGBA, width*height)

	for y := range height {
		for x := range width {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := c.RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			pixels[y*width+x] = color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			}
		}
	}
	return newTexture[T](width, height, pixels)
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture[T math3d.Float](width, height, checkSize int, c1, c2 color.RGBA) *Texture[T] {
	pixels := make([]color.RGBA, width*height)
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				pixels[y*width+x] = c1
			} else {
				pixels[y*width+x] = c2
			}
		}
	}
	return newTexture[T](width, height, pixels)
}

// NewSolidTexture creates a 1x1 texture of a single color.
func NewSolidTexture[T math3d.Float](c color.RGBA) *Texture[T] {
	return newTexture[T](1, 1, []color.RGBA{c})
}

func newTexture[T math3d.Float](width, height int, pixels []color.RGBA) *Texture[T] {
	return &Texture[T]{
		width:  width,
		height: height,
		pixels: pixels,
		WrapU:  WrapRepeat,
		WrapV:  WrapRepeat,
		Filter: FilterBilinear,
	}
}

// Size returns the texture dimensions in pixels.
func (t *Texture[T]) Size() (width, height int) {
	return t.width, t.height
}

// At returns the pixel at (x, y), or transparent black outside the image.
func (t *Texture[T]) At(x, y int) color.RGBA {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return color.RGBA{}
	}
	return t.pixels[y*t.width+x]
}

// Sample returns the RGB color at uv in [0,1] per channel. V runs bottom to
// top, so v=0 samples the last image row.
func (t *Texture[T]) Sample(uv math3d.Vec2[T]) math3d.Vec3[T] {
	if t.width == 0 || t.height == 0 {
		return math3d.Vec3[T]{}
	}

	u := wrapCoord(uv.X, t.WrapU)
	v := wrapCoord(uv.Y, t.WrapV)

	// Flip V coordinate (image Y=0 at top, UV V=0 at bottom)
	v = 1 - v

	if t.Filter == FilterNearest {
		return toVec[T](t.sampleNearest(u, v))
	}
	return t.sampleBilinear(u, v)
}

func wrapCoord[T math3d.Float](coord T, mode WrapMode) T {
	switch mode {
	case WrapClamp:
		return math3d.Clamp(coord, 0, 1)
	default:
		return coord - math3d.Floor(coord) // fmod to [0,1)
	}
}

func (t *Texture[T]) sampleNearest(u, v T) color.RGBA {
	x := min(int(u*T(t.width)), t.width-1)
	y := min(int(v*T(t.height)), t.height-1)
	return t.At(x, y)
}

func (t *Texture[T]) sampleBilinear(u, v T) math3d.Vec3[T] {
	fx := u*T(t.width) - 0.5
	fy := v*T(t.height) - 0.5

	x0 := int(math3d.Floor(fx))
	y0 := int(math3d.Floor(fy))
	tx := fx - T(x0)
	ty := fy - T(y0)

	x1 := wrapPixel(x0+1, t.width, t.WrapU)
	y1 := wrapPixel(y0+1, t.height, t.WrapV)
	x0 = wrapPixel(x0, t.width, t.WrapU)
	y0 = wrapPixel(y0, t.height, t.WrapV)

	c00 := toVec[T](t.At(x0, y0))
	c10 := toVec[T](t.At(x1, y0))
	c01 := toVec[T](t.At(x0, y1))
	c11 := toVec[T](t.At(x1, y1))

	top := c00.Lerp(c10, tx)
	bot := c01.Lerp(c11, tx)
	return top.Lerp(bot, ty)
}

func wrapPixel(x, size int, mode WrapMode) int {
	switch mode {
	case WrapClamp:
		return max(0, min(x, size-1))
	default:
		x %= size
		if x < 0 {
			x += size
		}
		return x
	}
}

func toVec[T math3d.Float](c color.RGBA) math3d.Vec3[T] {
	return math3d.Vec3[T]{T(c.R) / 255, T(c.G) / 255, T(c.B) / 255}
}
