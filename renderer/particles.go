package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/engine"
)

// ParticleRenderer draws particles as short trails from their previous to
// their current position, faded by the particle's alpha.
type ParticleRenderer struct {
	Thickness float32
	// ColorByGroup tints by group instead of the sampled field color.
	ColorByGroup bool

	views []engine.ParticleView
}

// NewParticleRenderer creates a particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{Thickness: 1.5}
}

// groupPalette cycles per group.
var groupPalette = []rl.Color{
	{R: 120, G: 200, B: 255, A: 255},
	{R: 255, G: 160, B: 90, A: 255},
	{R: 150, G: 240, B: 140, A: 255},
	{R: 240, G: 120, B: 200, A: 255},
	{R: 250, G: 230, B: 110, A: 255},
	{R: 180, G: 150, B: 255, A: 255},
}

// Draw snapshots e and renders every particle.
func (r *ParticleRenderer) Draw(e *engine.Engine) {
	r.views = e.Snapshot(r.views[:0])

	for i := range r.views {
		v := &r.views[i]

		col := rl.Color{R: v.Color.R, G: v.Color.G, B: v.Color.B}
		if r.ColorByGroup {
			col = groupPalette[v.Group%len(groupPalette)]
		}
		col.A = v.Alpha

		from := rl.Vector2{X: float32(v.PrevPosition.X), Y: float32(v.PrevPosition.Y)}
		to := rl.Vector2{X: float32(v.Position.X), Y: float32(v.Position.Y)}
		if from == to {
			rl.DrawPixelV(to, col)
		} else {
			rl.DrawLineEx(from, to, r.Thickness, col)
		}

		if v.Leader {
			rl.DrawCircleLines(int32(to.X), int32(to.Y), 4, col)
		}
	}
}

// DrawZones outlines the interaction bands around every leader.
func (r *ParticleRenderer) DrawZones(e *engine.Engine) {
	zone, sep, align := e.ZoneRadii()
	for i := range r.views {
		v := &r.views[i]
		if !v.Leader {
			continue
		}
		x, y := int32(v.Position.X), int32(v.Position.Y)
		rl.DrawCircleLines(x, y, float32(sep), rl.Color{R: 255, G: 80, B: 80, A: 160})
		rl.DrawCircleLines(x, y, float32(align), rl.Color{R: 80, G: 255, B: 80, A: 160})
		rl.DrawCircleLines(x, y, float32(zone), rl.Color{R: 80, G: 80, B: 255, A: 160})
	}
}
