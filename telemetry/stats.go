package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample distribution.
type Summary struct {
	Mean float64
	Std  float64 // population standard deviation
	Min  float64
	Max  float64
	P10  float64
	P50  float64
	P90  float64
}

// Summarize computes a Summary of values. values is not modified. An empty
// input yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Summary{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
		P10:  stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
}

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Groups    int `csv:"groups"`
	Particles int `csv:"particles"`
	Leaders   int `csv:"leaders"`

	// Events during window
	Spawned     uint64 `csv:"spawned"`
	Culled      uint64 `csv:"culled"`
	Trimmed     uint64 `csv:"trimmed"`
	FlockPasses uint64 `csv:"flock_passes"`

	// Speed distribution, sampled at window end
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedMin  float64 `csv:"speed_min"`
	SpeedMax  float64 `csv:"speed_max"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	AlphaMean float64 `csv:"alpha_mean"`

	// Polarization is the length of the mean heading: 1 when every particle
	// moves the same way, near 0 for disordered motion.
	Polarization float64 `csv:"polarization"`
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("groups", s.Groups),
		slog.Int("particles", s.Particles),
		slog.Int("leaders", s.Leaders),
		slog.Uint64("spawned", s.Spawned),
		slog.Uint64("culled", s.Culled),
		slog.Uint64("trimmed", s.Trimmed),
		slog.Uint64("flock_passes", s.FlockPasses),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("alpha_mean", s.AlphaMean),
		slog.Float64("polarization", s.Polarization),
	)
}

// LogStats logs the window at Info.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"groups", s.Groups,
		"particles", s.Particles,
		"spawned", s.Spawned,
		"culled", s.Culled,
		"trimmed", s.Trimmed,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"polarization", s.Polarization,
	)
}
