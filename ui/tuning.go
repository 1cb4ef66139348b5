package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/engine"
	"github.com/pthm-cable/flock/systems"
)

// Tuner is the subset of the engine the tuning panel drives.
type Tuner interface {
	Config() engine.Config
	SetGroupCount(n int)
	SetParticlesPerGroup(n int)
	SetFlockingParameters(p systems.FlockParams)
	SetUpdateModes(m systems.UpdateMode)
	SetFieldStrength(s float64)
}

// slider describes one tunable value.
type slider struct {
	label    string
	min, max float32
	format   string
	get      func(*engine.Config) float32
	set      func(*engine.Config, float32)
}

var flockSliders = []slider{
	{"Repel", 0, 1, "%.3f",
		func(c *engine.Config) float32 { return float32(c.Flocking.Repel) },
		func(c *engine.Config, v float32) { c.Flocking.Repel = float64(v) }},
	{"Align", 0, 1, "%.3f",
		func(c *engine.Config) float32 { return float32(c.Flocking.Align) },
		func(c *engine.Config, v float32) { c.Flocking.Align = float64(v) }},
	{"Attract", 0, 1, "%.3f",
		func(c *engine.Config) float32 { return float32(c.Flocking.Attract) },
		func(c *engine.Config, v float32) { c.Flocking.Attract = float64(v) }},
	{"Zone radius", 5, 200, "%.0f",
		func(c *engine.Config) float32 { return float32(c.Flocking.ZoneRadius) },
		func(c *engine.Config, v float32) { c.Flocking.ZoneRadius = float64(v) }},
	{"Low", 0, 1, "%.2f",
		func(c *engine.Config) float32 { return float32(c.Flocking.LowThreshold) },
		func(c *engine.Config, v float32) { c.Flocking.LowThreshold = min(float64(v), c.Flocking.HighThreshold) }},
	{"High", 0, 1, "%.2f",
		func(c *engine.Config) float32 { return float32(c.Flocking.HighThreshold) },
		func(c *engine.Config, v float32) { c.Flocking.HighThreshold = max(float64(v), c.Flocking.LowThreshold) }},
}

var populationSliders = []slider{
	{"Groups", 0, 16, "%.0f",
		func(c *engine.Config) float32 { return float32(c.Groups) },
		func(c *engine.Config, v float32) { c.Groups = int(v + 0.5) }},
	{"Per group", 0, 2000, "%.0f",
		func(c *engine.Config) float32 { return float32(c.ParticlesPerGroup) },
		func(c *engine.Config, v float32) { c.ParticlesPerGroup = int(v + 0.5) }},
	{"Field force", 0, 20, "%.1f",
		func(c *engine.Config) float32 { return float32(c.FieldStrength) },
		func(c *engine.Config, v float32) { c.FieldStrength = float64(v) }},
}

var modeButtons = []struct {
	label string
	mode  systems.UpdateMode
}{
	{"Function", systems.ModeFunction},
	{"Flocking", systems.ModeFlocking},
	{"Field", systems.ModeField},
}

// TuningPanel is a raygui panel on the right edge of the screen that edits
// engine parameters while the simulation runs.
type TuningPanel struct {
	renderer *Renderer
	width    int32
	visible  bool
}

// NewTuningPanel creates a hidden panel of the given width.
func NewTuningPanel(width int32) *TuningPanel {
	return &TuningPanel{renderer: NewRenderer(), width: width}
}

// Toggle switches panel visibility.
func (p *TuningPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Visible reports whether the panel is shown.
func (p *TuningPanel) Visible() bool {
	return p.visible
}

// Draw renders the panel and pushes any edited value to t.
func (p *TuningPanel) Draw(t Tuner, screenWidth int32) {
	if !p.visible {
		return
	}

	r := p.renderer
	pad := r.Theme.Padding
	x := screenWidth - p.width - pad
	y := pad
	rows := int32(len(flockSliders) + len(populationSliders) + 5)
	r.DrawPanel(x, y, p.width, rows*(r.Theme.LineHeight+8)+pad*2)

	cur := t.Config()
	next := cur
	cx := x + pad
	cy := y + pad

	cy = r.DrawSectionHeader(cx, cy, "Flocking")
	for _, s := range flockSliders {
		cy = p.drawSlider(cx, cy, s, &next)
	}
	if next.Flocking != cur.Flocking {
		t.SetFlockingParameters(next.Flocking)
	}

	cy = r.DrawSectionHeader(cx, cy+4, "Population")
	for _, s := range populationSliders {
		cy = p.drawSlider(cx, cy, s, &next)
	}
	if next.Groups != cur.Groups {
		t.SetGroupCount(next.Groups)
	}
	if next.ParticlesPerGroup != cur.ParticlesPerGroup {
		t.SetParticlesPerGroup(next.ParticlesPerGroup)
	}
	if next.FieldStrength != cur.FieldStrength {
		t.SetFieldStrength(next.FieldStrength)
	}

	cy = r.DrawSectionHeader(cx, cy+4, "Forces")
	bw := float32(p.width-pad*2-8) / float32(len(modeButtons))
	for i, b := range modeButtons {
		label := b.label
		if cur.Modes.Has(b.mode) {
			label = "[x] " + label
		}
		bounds := rl.Rectangle{X: float32(cx) + float32(i)*(bw+4), Y: float32(cy), Width: bw, Height: 22}
		if gui.Button(bounds, label) {
			t.SetUpdateModes(cur.Modes ^ b.mode)
		}
	}
}

func (p *TuningPanel) drawSlider(x, y int32, s slider, cfg *engine.Config) int32 {
	th := p.renderer.Theme
	rl.DrawText(s.label, x, y, th.FontSize, th.LabelColor)

	v := s.get(cfg)
	bounds := rl.Rectangle{
		X:      float32(x + th.LabelWidth),
		Y:      float32(y),
		Width:  float32(p.width - th.LabelWidth - th.Padding*2 - 50),
		Height: float32(th.LineHeight - 2),
	}
	nv := gui.SliderBar(bounds, "", "", v, s.min, s.max)
	rl.DrawText(fmt.Sprintf(s.format, nv), int32(bounds.X+bounds.Width)+6, y+2, th.FontSize, th.ValueColor)
	if nv != v {
		s.set(cfg, nv)
	}
	return y + th.LineHeight + 8
}
