package telemetry

import "math"

// Counts is a point-in-time view of the engine's population and its
// cumulative event counters.
type Counts struct {
	Ticks     uint64
	Groups    int
	Particles int
	Leaders   int

	// Cumulative since engine start
	Spawned     uint64
	Culled      uint64
	Trimmed     uint64
	FlockPasses uint64
}

// Collector turns cumulative engine counts and per-particle samples into
// WindowStats, one per window of simulated time.
type Collector struct {
	windowSec float64

	windowStart     float64
	windowStartTick uint64
	base            Counts

	speeds []float64
	alphas []float64
	dirX   float64
	dirY   float64
}

// NewCollector creates a collector with windows of windowSec simulated seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 1
	}
	return &Collector{windowSec: windowSec}
}

// ShouldFlush reports whether the window ending at simTime is complete.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStart >= c.windowSec
}

// Observe records one particle for the end-of-window distribution.
func (c *Collector) Observe(vx, vy, dirX, dirY float64, alpha uint8) {
	c.speeds = append(c.speeds, math.Hypot(vx, vy))
	c.alphas = append(c.alphas, float64(alpha))
	c.dirX += dirX
	c.dirY += dirY
}

// Flush produces the stats for the window ending at simTime and starts the
// next one. counts are the engine's current cumulative counts.
func (c *Collector) Flush(simTime float64, counts Counts) WindowStats {
	speed := Summarize(c.speeds)
	alpha := Summarize(c.alphas)

	var polarization float64
	if n := len(c.speeds); n > 0 {
		polarization = math.Hypot(c.dirX, c.dirY) / float64(n)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   counts.Ticks,
		SimTimeSec:      simTime,

		Groups:    counts.Groups,
		Particles: counts.Particles,
		Leaders:   counts.Leaders,

		Spawned:     counts.Spawned - c.base.Spawned,
		Culled:      counts.Culled - c.base.Culled,
		Trimmed:     counts.Trimmed - c.base.Trimmed,
		FlockPasses: counts.FlockPasses - c.base.FlockPasses,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedMin:  speed.Min,
		SpeedMax:  speed.Max,
		SpeedP10:  speed.P10,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,

		AlphaMean:    alpha.Mean,
		Polarization: polarization,
	}

	c.windowStart = simTime
	c.windowStartTick = counts.Ticks
	c.base = counts
	c.speeds = c.speeds[:0]
	c.alphas = c.alphas[:0]
	c.dirX, c.dirY = 0, 0

	return stats
}
