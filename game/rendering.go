package game

import (
	"context"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/ui"
)

// backgroundEvery is how many frames pass between noise background uploads.
const backgroundEvery = 10

const controlsLegend = "[Space] pause  [D] debug radii  [Tab] tuning  [G] group colors"

// Update handles input and advances the simulation by the last frame time.
func (g *Game) Update(ctx context.Context) {
	g.handleInput()
	g.step(ctx, elapsed(rl.GetFrameTime()))
}

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	// Images upload once; the noise field is refreshed periodically.
	if !g.backgroundLoaded || (g.noise != nil && g.Tick()%backgroundEvery == 0) {
		g.background.Update(g.field)
		g.backgroundLoaded = true
	}
	g.background.Draw(float32(g.sizeFactor))

	g.particles.Draw(g.engine)
	if g.debugMode {
		g.particles.DrawZones(g.engine)
	}

	g.hud.Draw(ui.HUDData{
		Counts:  g.engine.Stats(),
		Perf:    g.perfCollector.Stats(),
		Workers: g.engine.Workers(),
		Modes:   g.engine.Config().Modes.String(),
		Paused:  g.paused,
	})
	g.tuning.Draw(g.engine, int32(rl.GetScreenWidth()))
	g.hud.DrawControls(int32(rl.GetScreenHeight()), controlsLegend)

	rl.EndDrawing()
}
