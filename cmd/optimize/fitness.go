package main

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/engine"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// warmupSec is simulated time ignored before windows count toward fitness,
// so the population can fill up.
const warmupSec = 5.0

// FitnessEvaluator runs headless simulations and scores how close the
// flock's polarization stays to a target.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int
	seeds       []int64
	baseConfig  *config.Config
	target      float64
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64 // mean polarization from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		target:      target,
		statsWindow: 2.0,
	}
}

// LastQuality returns the mean polarization from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Evaluate computes fitness for a parameter vector (lower = better): the
// mean absolute distance between window polarization and the target,
// averaged over seeds. Seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		return math.Inf(1)
	}

	polarizations := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			polarizations[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var fitness, quality float64
	for _, p := range polarizations {
		fitness += math.Abs(p - fe.target)
		quality += p
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = quality / n
	fe.mu.Unlock()

	return fitness / n
}

// runSimulation runs one seed and returns its mean window polarization
// after warmup.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) float64 {
	rng := rand.New(rand.NewSource(seed))
	e := engine.New(engine.ConfigFrom(cfg),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithWorkers(1),
		engine.WithRand(rng),
	)
	defer e.Shutdown()

	n := cfg.Reference.Noise
	field := systems.NewNoiseField(cfg.Derived.FieldWidth, cfg.Derived.FieldHeight, seed, n.Scale, n.TimeSpeed)
	e.SetReferenceField(field, cfg.Field.SizeFactor)

	collector := telemetry.NewCollector(fe.statsWindow)
	dt := cfg.Derived.DT
	var simTime, sum float64
	var windows int

	for tick := 0; tick < fe.maxTicks; tick++ {
		field.Advance(dt)
		simTime += dt
		e.Tick(simTime, dt)

		if !collector.ShouldFlush(simTime) {
			continue
		}
		e.ForEachParticle(func(v engine.ParticleView) {
			collector.Observe(v.Velocity.X, v.Velocity.Y, v.Direction.X, v.Direction.Y, v.Alpha)
		})
		stats := collector.Flush(simTime, e.Stats())
		if simTime >= warmupSec && stats.Particles > 0 {
			sum += stats.Polarization
			windows++
		}
	}

	if windows == 0 {
		return 0
	}
	return sum / float64(windows)
}

// copyConfig returns a shallow copy of the base config; slices are not
// modified by ApplyToConfig.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	c := *fe.baseConfig
	return &c
}
