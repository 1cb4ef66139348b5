package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/systems"
)

// FieldBackground draws the reference field's colors behind the particles,
// dimmed so trails stay readable.
type FieldBackground struct {
	texture     rl.Texture2D
	pixels      []color.RGBA
	w, h        int
	dim         uint8
	initialized bool
}

// NewFieldBackground creates a background drawn at the given opacity.
func NewFieldBackground(dim uint8) *FieldBackground {
	return &FieldBackground{dim: dim}
}

// Update resamples f into the texture. It must be called after the raylib
// window is created; a size change reallocates the texture.
func (b *FieldBackground) Update(f systems.Field) {
	if f == nil {
		return
	}
	w, h := f.Width(), f.Height()
	if w <= 0 || h <= 0 {
		return
	}
	if !b.initialized || w != b.w || h != b.h {
		b.Unload()
		img := rl.GenImageColor(w, h, rl.Black)
		b.texture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		b.pixels = make([]color.RGBA, w*h)
		b.w, b.h = w, h
		b.initialized = true
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.pixels[y*w+x] = f.ColorAt(x, y)
		}
	}
	rl.UpdateTexture(b.texture, b.pixels)
}

// Draw renders the field scaled by sizeFactor from the origin.
func (b *FieldBackground) Draw(sizeFactor float32) {
	if !b.initialized {
		return
	}
	rl.DrawTextureEx(b.texture, rl.Vector2{}, 0, sizeFactor, rl.Color{R: 255, G: 255, B: 255, A: b.dim})
}

// Unload frees resources.
func (b *FieldBackground) Unload() {
	if b.initialized {
		rl.UnloadTexture(b.texture)
		b.initialized = false
	}
}
