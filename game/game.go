// Package game hosts the simulation: it builds the engine from config, drives
// it with fixed or wall-clock deltas, and wires telemetry, streaming and the
// raylib front end around it.
package game

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/engine"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/stream"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/ui"
)

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = config value
	OutputDir      string
	ImagePath      string // reference image; empty = animated noise field
	Headless       bool
	Hub            *stream.Hub // optional frame stream
}

// Game holds the host state around one engine.
type Game struct {
	cfg    *config.Config
	engine *engine.Engine
	rng    *rand.Rand

	field      systems.Field
	noise      *systems.NoiseField // nil when an image is loaded
	sizeFactor float64

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// Streaming
	hub        *stream.Hub
	frameViews []engine.ParticleView

	// Rendering (graphical mode only)
	headless   bool
	background *renderer.FieldBackground
	particles  *renderer.ParticleRenderer
	hud        *ui.HUD
	tuning     *ui.TuningPanel
	debugMode  bool

	backgroundLoaded bool

	// Simulated time, advanced by each tick's delta
	simTime float64
	paused  bool
}

// NewGameWithOptions builds the engine and host collaborators from the
// global config.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	g := &Game{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		sizeFactor:    cfg.Field.SizeFactor,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		logStats:      opts.LogStats,
		hub:           opts.Hub,
		headless:      opts.Headless,
	}

	windowSec := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		windowSec = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(windowSec)

	if err := g.loadField(opts.ImagePath); err != nil {
		return nil, err
	}

	g.engine = engine.New(engine.ConfigFrom(cfg),
		engine.WithLogger(slog.Default()),
		engine.WithWorkers(cfg.Derived.Workers),
		engine.WithRand(g.rng),
		engine.WithPerf(g.perfCollector),
	)
	g.engine.SetReferenceField(g.field, g.sizeFactor)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			g.engine.Shutdown()
			return nil, err
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			g.engine.Shutdown()
			return nil, err
		}
		g.outputManager = om
	}

	if !g.headless {
		g.background = renderer.NewFieldBackground(90)
		g.particles = renderer.NewParticleRenderer()
		g.hud = ui.NewHUD()
		g.tuning = ui.NewTuningPanel(300)
	}

	return g, nil
}

// SetStatsCallback sets a function called with every flushed stats window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Engine returns the simulation engine.
func (g *Game) Engine() *engine.Engine {
	return g.engine
}

// Tick returns the number of completed engine ticks.
func (g *Game) Tick() uint64 {
	return g.engine.Stats().Ticks
}

// UpdateHeadless advances one fixed step of 1/target_fps seconds.
func (g *Game) UpdateHeadless(ctx context.Context) {
	g.step(ctx, g.cfg.Derived.DT)
}

// step runs one engine tick of delta seconds and the per-tick host work.
func (g *Game) step(ctx context.Context, delta float64) {
	if g.paused {
		return
	}
	if g.noise != nil {
		g.noise.Advance(delta)
	}

	g.simTime += delta
	g.engine.Tick(g.simTime, delta)

	start := time.Now()
	g.flushTelemetry()
	g.publishFrame(ctx)
	g.perfCollector.ExtendLast(telemetry.PhaseTelemetry, time.Since(start))
}

// Unload stops the engine and releases every host resource.
func (g *Game) Unload() {
	g.engine.Shutdown()

	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output files", "error", err)
		}
	}
	if g.background != nil {
		g.background.Unload()
	}
}

// elapsed converts a wall-clock frame time to a tick delta, capped so a
// stalled window does not teleport particles.
func elapsed(frame float32) float64 {
	const maxDelta = 0.1
	return min(max(float64(frame), 0), maxDelta)
}
