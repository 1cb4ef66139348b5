package systems

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// Field is an externally owned, read-only 2D steering source. Implementations
// must tolerate concurrent reads while a tick is running and must not be
// mutated until it returns.
type Field interface {
	Width() int
	Height() int
	// ColorAt returns the color at integer coordinates; out-of-range
	// coordinates are clamped.
	ColorAt(x, y int) color.RGBA
	// VectorAt returns the steering vector at integer coordinates.
	VectorAt(x, y int) r2.Vec
}

// ImageField samples a decoded image. Colors and luminance-gradient vectors
// are precomputed so sampling never touches the source image.
type ImageField struct {
	w, h    int
	pix     []color.RGBA
	vectors []r2.Vec
}

// NewImageField copies img into a sampling buffer.
func NewImageField(img image.Image) *ImageField {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	f := &ImageField{
		w:       w,
		h:       h,
		pix:     make([]color.RGBA, w*h),
		vectors: make([]r2.Vec, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.pix[y*w+x] = rgba.RGBAAt(x, y)
		}
	}

	// Central-difference luminance gradient, normalised to [-1, 1].
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := f.lum(x+1, y) - f.lum(x-1, y)
			gy := f.lum(x, y+1) - f.lum(x, y-1)
			f.vectors[y*w+x] = r2.Vec{X: gx / 510, Y: gy / 510}
		}
	}
	return f
}

func (f *ImageField) Width() int  { return f.w }
func (f *ImageField) Height() int { return f.h }

func (f *ImageField) ColorAt(x, y int) color.RGBA {
	if f.w == 0 || f.h == 0 {
		return color.RGBA{}
	}
	return f.pix[f.index(x, y)]
}

func (f *ImageField) VectorAt(x, y int) r2.Vec {
	if f.w == 0 || f.h == 0 {
		return r2.Vec{}
	}
	return f.vectors[f.index(x, y)]
}

func (f *ImageField) index(x, y int) int {
	return clampInt(y, 0, f.h-1)*f.w + clampInt(x, 0, f.w-1)
}

func (f *ImageField) lum(x, y int) float64 {
	return Luminance(f.pix[f.index(x, y)])
}

// Luminance returns the Rec. 601 luma of c in [0, 255].
func Luminance(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// NoiseField is a procedural, time-animated field backed by OpenSimplex noise.
// It is used when the host supplies no image.
type NoiseField struct {
	w, h      int
	scale     float64
	timeSpeed float64
	t         float64
	noise     opensimplex.Noise
}

// NewNoiseField creates a w x h noise field. scale is the spatial frequency
// per field unit; timeSpeed scales Advance.
func NewNoiseField(w, h int, seed int64, scale, timeSpeed float64) *NoiseField {
	if scale <= 0 {
		scale = 0.005
	}
	return &NoiseField{
		w:         w,
		h:         h,
		scale:     scale,
		timeSpeed: timeSpeed,
		noise:     opensimplex.NewNormalized(seed),
	}
}

// Advance moves the field forward in time. It must not be called while a
// tick is running.
func (f *NoiseField) Advance(delta float64) {
	f.t += delta * f.timeSpeed
}

func (f *NoiseField) Width() int  { return f.w }
func (f *NoiseField) Height() int { return f.h }

func (f *NoiseField) ColorAt(x, y int) color.RGBA {
	nx, ny := float64(x)*f.scale, float64(y)*f.scale
	return color.RGBA{
		R: uint8(f.noise.Eval3(nx, ny, f.t) * 255),
		G: uint8(f.noise.Eval3(nx+31.7, ny, f.t) * 255),
		B: uint8(f.noise.Eval3(nx, ny+57.3, f.t) * 255),
		A: 255,
	}
}

func (f *NoiseField) VectorAt(x, y int) r2.Vec {
	nx, ny := float64(x)*f.scale, float64(y)*f.scale
	angle := f.noise.Eval3(nx, ny, f.t+100) * 4 * math.Pi
	s, c := math.Sincos(angle)
	return r2.Vec{X: c, Y: s}
}
