package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []float64{5}, Summary{Mean: 5, Min: 5, Max: 5, P10: 5, P50: 5, P90: 5}},
		{
			"one to ten, shuffled",
			[]float64{7, 3, 10, 1, 9, 2, 8, 4, 6, 5},
			Summary{Mean: 5.5, Std: math.Sqrt(8.25), Min: 1, Max: 10, P10: 1, P50: 5, P90: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.values)
			check := func(field string, got, want float64) {
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%s = %v, want %v", field, got, want)
				}
			}
			check("Mean", got.Mean, tt.want.Mean)
			check("Std", got.Std, tt.want.Std)
			check("Min", got.Min, tt.want.Min)
			check("Max", got.Max, tt.want.Max)
			check("P10", got.P10, tt.want.P10)
			check("P50", got.P50, tt.want.P50)
			check("P90", got.P90, tt.want.P90)
		})
	}
}

func TestSummarizeLeavesInputUnsorted(t *testing.T) {
	values := []float64{3, 1, 2}
	Summarize(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input reordered: %v", values)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(2)

	if c.ShouldFlush(1.5) {
		t.Error("window flushed early")
	}
	if !c.ShouldFlush(2) {
		t.Error("window not flushed at its end")
	}

	c.Observe(3, 4, 1, 0, 255)
	c.Observe(0, 2, 1, 0, 128)
	first := c.Flush(2, Counts{Ticks: 120, Groups: 2, Particles: 2, Spawned: 10, Culled: 4, FlockPasses: 20})

	if first.SpeedMean != 3.5 || first.SpeedMax != 5 || first.SpeedMin != 2 {
		t.Errorf("speed mean/min/max = %v/%v/%v, want 3.5/2/5", first.SpeedMean, first.SpeedMin, first.SpeedMax)
	}
	if first.Polarization != 1 {
		t.Errorf("Polarization = %v, want 1 for aligned headings", first.Polarization)
	}
	if first.Spawned != 10 || first.Culled != 4 || first.WindowEndTick != 120 {
		t.Errorf("first window counts = %+v", first)
	}

	c.Observe(1, 0, 1, 0, 255)
	c.Observe(-1, 0, -1, 0, 255)
	second := c.Flush(4, Counts{Ticks: 240, Groups: 2, Particles: 2, Spawned: 13, Culled: 9, FlockPasses: 40})

	if second.Spawned != 3 || second.Culled != 5 || second.FlockPasses != 20 {
		t.Errorf("second window deltas spawned/culled/passes = %d/%d/%d, want 3/5/20",
			second.Spawned, second.Culled, second.FlockPasses)
	}
	if second.WindowStartTick != 120 {
		t.Errorf("WindowStartTick = %d, want 120", second.WindowStartTick)
	}
	if second.Polarization != 0 {
		t.Errorf("Polarization = %v, want 0 for opposed headings", second.Polarization)
	}
	if c.ShouldFlush(5) {
		t.Error("new window flushed early")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := om.WriteStats(WindowStats{WindowEndTick: uint64(i), Particles: 10 * i}); err != nil {
			t.Fatalf("WriteStats: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{PhaseWorkers: 50}}, 7); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("stats.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header written more than once")
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(perf), "workers_pct") {
		t.Errorf("perf.csv missing workers_pct column: %q", perf)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Errorf("WriteStats on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}
