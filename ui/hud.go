package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Counts  telemetry.Counts
	Perf    telemetry.PerfStats
	Workers int
	Modes   string
	Paused  bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	x, y := int32(10), int32(10)
	r.DrawPanel(x-5, y-5, 250, 118)

	c := data.Counts
	y = r.DrawLabelValue(x, y, "Particles", fmt.Sprintf("%d in %d groups", c.Particles, c.Groups))
	y = r.DrawLabelValue(x, y, "Leaders", fmt.Sprintf("%d", c.Leaders))
	y = r.DrawLabelValue(x, y, "Tick", fmt.Sprintf("%d (%d workers)", c.Ticks, data.Workers))
	y = r.DrawLabelValue(x, y, "Tick time", fmt.Sprintf("%v  p99 %v", data.Perf.AvgTickDuration, data.Perf.P99TickDuration))
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%.0f", data.Perf.FPS))
	r.DrawLabelValue(x, y, "Modes", data.Modes)

	if data.Paused {
		rl.DrawText("PAUSED", x, 130, 20, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}
