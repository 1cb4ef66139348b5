package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pthm-cable/flock/engine"
	"github.com/pthm-cable/flock/stream"
)

// flushTelemetry samples the population and writes a stats window once the
// window of simulated time is complete.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.simTime) {
		return
	}

	g.engine.ForEachParticle(func(v engine.ParticleView) {
		g.collector.Observe(v.Velocity.X, v.Velocity.Y, v.Direction.X, v.Direction.Y, v.Alpha)
	})
	stats := g.collector.Flush(g.simTime, g.engine.Stats())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, int64(stats.WindowEndTick)); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// publishFrame sends a frame to stream clients every frame_every ticks.
func (g *Game) publishFrame(ctx context.Context) {
	if g.hub == nil || g.hub.Clients() == 0 {
		return
	}
	counts := g.engine.Stats()
	if counts.Ticks%uint64(g.cfg.Stream.FrameEvery) != 0 {
		return
	}

	g.frameViews = g.engine.Snapshot(g.frameViews[:0])
	w, h := g.engine.Extent()
	frame := stream.NewFrame(counts.Ticks, g.simTime, w, h, g.frameViews, g.cfg.Stream.MaxParticles)

	if err := g.hub.Publish(ctx, frame); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("frame dropped", "tick", counts.Ticks, "error", err)
	}
}
