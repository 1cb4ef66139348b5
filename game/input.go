package game

import rl "github.com/gen2brain/raylib-go/raylib"

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
		if g.paused {
			g.engine.Pause()
		} else {
			g.engine.Resume()
		}
	}

	// Debug mode shows interaction radii around leaders
	if rl.IsKeyPressed(rl.KeyD) {
		g.debugMode = !g.debugMode
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.tuning.Toggle()
	}

	if rl.IsKeyPressed(rl.KeyG) {
		g.particles.ColorByGroup = !g.particles.ColorByGroup
	}
}
