package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePopulation)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseWorkers)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	for _, phase := range []string{PhasePopulation, PhaseWorkers} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if _, ok := stats.PhaseAvg[PhaseDispatch]; ok {
		t.Error("untimed dispatch phase reported")
	}
	if stats.MinTickDuration > stats.AvgTickDuration || stats.AvgTickDuration > stats.MaxTickDuration {
		t.Errorf("expected min <= avg <= max, got %v, %v, %v",
			stats.MinTickDuration, stats.AvgTickDuration, stats.MaxTickDuration)
	}
	if stats.P99TickDuration > stats.MaxTickDuration {
		t.Errorf("p99 %v above max %v", stats.P99TickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseWorkers)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	if got := pc.SampleCount(); got != 5 {
		t.Errorf("SampleCount = %d, want 5", got)
	}
	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDispatch)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseWorkers)
		time.Sleep(500 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseWorkers] <= stats.PhasePct[PhaseDispatch] {
		t.Errorf("expected workers phase (%v%%) > dispatch phase (%v%%)",
			stats.PhasePct[PhaseWorkers], stats.PhasePct[PhaseDispatch])
	}

	row := stats.ToCSV(42)
	if row.WindowEnd != 42 {
		t.Errorf("WindowEnd = %d, want 42", row.WindowEnd)
	}
	if row.WorkersPct != stats.PhasePct[PhaseWorkers] {
		t.Errorf("WorkersPct = %v, want %v", row.WorkersPct, stats.PhasePct[PhaseWorkers])
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(0)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frames, got %v", stats.FPS)
	}
}

func TestPerfCollector_ExtendLast(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.ExtendLast(PhaseTelemetry, time.Second) // no sample yet, ignored

	pc.StartTick()
	pc.StartPhase(PhaseWorkers)
	pc.EndTick()
	pc.ExtendLast(PhaseTelemetry, time.Second)

	stats := pc.Stats()
	if stats.PhaseAvg[PhaseTelemetry] != time.Second {
		t.Errorf("telemetry phase = %v, want 1s", stats.PhaseAvg[PhaseTelemetry])
	}
	if stats.AvgTickDuration < time.Second {
		t.Errorf("tick duration %v does not include extension", stats.AvgTickDuration)
	}
	if pc.SampleCount() != 1 {
		t.Errorf("SampleCount = %d, want 1", pc.SampleCount())
	}
}
