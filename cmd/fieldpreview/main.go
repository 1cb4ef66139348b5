// Reference field preview tool - interactive noise field tuning with sliders.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 620
	fieldSize    = 256
	previewScale = 2
	panelX       = fieldSize*previewScale + 30
	panelWidth   = windowWidth - panelX - 20
	arrowStep    = 16
)

// referenceYAML mirrors the reference section of the config file.
type referenceYAML struct {
	Reference struct {
		Noise config.NoiseConfig `yaml:"noise"`
	} `yaml:"reference"`
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Reference Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	defaults := cfg.Reference.Noise
	params := defaults

	field := systems.NewNoiseField(fieldSize, fieldSize, params.Seed, params.Scale, params.TimeSpeed)
	bg := renderer.NewFieldBackground(255)
	defer bg.Unload()

	animating := false
	showVectors := true
	needsRegen := true

	for !rl.WindowShouldClose() {
		if animating {
			field.Advance(float64(rl.GetFrameTime()))
			needsRegen = true
		}
		if needsRegen {
			bg.Update(field)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		bg.Draw(previewScale)
		rl.DrawRectangleLines(0, 0, fieldSize*previewScale, fieldSize*previewScale, rl.DarkGray)
		if showVectors {
			drawVectors(field)
		}

		y := float32(10)
		rl.DrawText("Noise Field Parameters", panelX, int32(y), 20, rl.DarkGray)
		y += 35

		rebuild := false
		slider := func(label, format string, v, lo, hi float32) float32 {
			rl.DrawText(label, panelX, int32(y), 14, rl.Gray)
			y += 18
			nv := gui.SliderBar(rl.Rectangle{X: panelX, Y: y, Width: panelWidth - 80, Height: 20}, "", "", v, lo, hi)
			rl.DrawText(fmt.Sprintf(format, nv), int32(panelX+panelWidth-70), int32(y+2), 16, rl.DarkGray)
			y += 35
			return nv
		}

		if s := slider("Scale (noise frequency per pixel)", "%.4f", float32(params.Scale), 0.0005, 0.05); s != float32(params.Scale) {
			params.Scale = float64(s)
			rebuild = true
		}
		if s := slider("Time speed", "%.3f", float32(params.TimeSpeed), 0, 1); s != float32(params.TimeSpeed) {
			params.TimeSpeed = float64(s)
			rebuild = true
		}
		if s := slider("Seed", "%.0f", float32(params.Seed), 0, 9999); int64(s) != params.Seed {
			params.Seed = int64(s)
			rebuild = true
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: y, Width: 120, Height: 30}, toggleText(showVectors, "Hide Vectors", "Show Vectors")) {
			showVectors = !showVectors
		}
		y += 45
		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 9999))
			rebuild = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: y, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			rebuild = true
		}
		y += 55

		if rebuild {
			field = systems.NewNoiseField(fieldSize, fieldSize, params.Seed, params.Scale, params.TimeSpeed)
			needsRegen = true
		}

		text := configYAML(params)
		rl.DrawText("YAML Config:", panelX, int32(y), 16, rl.DarkGray)
		y += 25
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			rl.DrawText(line, panelX, int32(y), 14, rl.Gray)
			y += 16
		}
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(text)
		}
		rl.DrawText("Press C to copy YAML to clipboard", panelX, windowHeight-30, 12, rl.LightGray)

		rl.EndDrawing()
	}
}

// drawVectors draws the field's steering vectors on a sparse grid.
func drawVectors(f systems.Field) {
	for y := arrowStep / 2; y < f.Height(); y += arrowStep {
		for x := arrowStep / 2; x < f.Width(); x += arrowStep {
			v := f.VectorAt(x, y)
			from := rl.Vector2{X: float32(x * previewScale), Y: float32(y * previewScale)}
			to := rl.Vector2{
				X: from.X + float32(v.X)*arrowStep*previewScale,
				Y: from.Y + float32(v.Y)*arrowStep*previewScale,
			}
			rl.DrawLineEx(from, to, 1.5, rl.Color{R: 255, G: 255, B: 255, A: 200})
			rl.DrawCircleV(to, 2, rl.Color{R: 255, G: 80, B: 80, A: 220})
		}
	}
}

func configYAML(n config.NoiseConfig) string {
	var doc referenceYAML
	doc.Reference.Noise = n
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
