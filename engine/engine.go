// Package engine runs the flocking simulation: it owns the particle groups,
// a fixed worker pool, population control and per-tick timing.
package engine

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// ErrShutdown is the panic value for any use of an engine after Shutdown,
// including a second Shutdown.
var ErrShutdown = errors.New("engine: used after shutdown")

// Config holds the tunable simulation parameters. The engine keeps its own
// copy; changes go through the setters.
type Config struct {
	// Field extent used while no reference field is set.
	Width  float64
	Height float64

	Groups            int
	ParticlesPerGroup int
	SpawnPerTick      int     // per group
	EmissionArea      float64 // fraction of the field
	LeadersPerGroup   int

	MinSpeedSq  systems.Range
	MaxSpeedSq  systems.Range
	Lifetime    systems.Range
	InitialKick float64

	Kinematics systems.Kinematics
	Flocking   systems.FlockParams
	Modes      systems.UpdateMode

	FuncMinChange float64
	FuncMaxChange float64
	FuncStrength  float64
	FuncFrequency float64

	FieldStrength float64
}

// ConfigFrom builds an engine Config from a loaded configuration.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Width:  float64(c.Derived.FieldWidth) * c.Field.SizeFactor,
		Height: float64(c.Derived.FieldHeight) * c.Field.SizeFactor,

		Groups:            c.Population.Groups,
		ParticlesPerGroup: c.Population.ParticlesPerGroup,
		SpawnPerTick:      c.Population.SpawnPerTick,
		EmissionArea:      c.Population.EmissionArea,
		LeadersPerGroup:   c.Population.LeadersPerGroup,

		MinSpeedSq:  c.Particle.MinSpeedSquared,
		MaxSpeedSq:  c.Particle.MaxSpeedSquared,
		Lifetime:    c.Particle.Lifetime,
		InitialKick: c.Particle.InitialKick,

		Kinematics: systems.Kinematics{
			SpeedRatio:      c.Particle.SpeedRatio,
			Friction:        c.Particle.Friction,
			Damping:         c.Particle.Damping,
			ColorGuidance:   c.Derived.ColorGuidanceRad,
			VelocityCeiling: c.Particle.VelocityCeiling,
		},
		Flocking: c.Flocking,
		Modes:    c.Derived.UpdateModes,

		FuncMinChange: c.Functions.MinChangeTime,
		FuncMaxChange: c.Functions.MaxChangeTime,
		FuncStrength:  c.Functions.Strength,
		FuncFrequency: c.Functions.Frequency,

		FieldStrength: c.Reference.FieldStrength,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the lifecycle logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithWorkers sets the worker pool size, clamped to [1, NumCPU].
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithRand sets the random source used for spawning and function selection.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithPerf records per-tick phase timings into p.
func WithPerf(p *telemetry.PerfCollector) Option {
	return func(e *Engine) { e.perf = p }
}

// WithGroupHook calls fn from the worker goroutine after each group update.
func WithGroupHook(fn func(group int)) Option {
	return func(e *Engine) { e.hook = fn }
}

// WithFunctions replaces the steering function pool.
func WithFunctions(pool []systems.ScalarFunc) Option {
	return func(e *Engine) { e.functions = pool }
}

// Engine is a multi-threaded flocking simulation.
//
// Setters and lifecycle calls are safe from any goroutine; parameter changes
// are picked up at the start of the next tick. Snapshot, ForEachParticle and
// Stats are serialized against Tick.
type Engine struct {
	log       *slog.Logger
	rng       *rand.Rand
	perf      *telemetry.PerfCollector
	hook      func(group int)
	functions []systems.ScalarFunc
	workers   int

	// mu guards the pending parameters and lifecycle flags.
	mu         sync.Mutex
	pending    Config
	field      systems.Field
	sizeFactor float64
	paused     bool
	resumed    bool
	closed     bool

	// tickMu serializes Tick with read access. Everything below is owned by
	// the goroutine holding it.
	tickMu sync.Mutex
	pool   *workerPool
	groups []*systems.Group
	frame  systems.Frame
	funcX  *systems.FunctionBlender
	funcY  *systems.FunctionBlender

	gridW, gridH, gridCell float64
	nextID                 uint64
	lastFlock              float64
	flockStarted           bool
	counts                 telemetry.Counts
	culledReleased         uint64 // culls of groups already dropped
}

// New creates an engine and starts its worker pool. The engine owns no
// particles until the first Tick runs population control.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		pending:    cfg,
		sizeFactor: 1,
		workers:    min(4, runtime.GOMAXPROCS(0)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = slog.Default()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.functions == nil {
		e.functions = systems.DefaultFunctions(e.rng.Int63())
	}
	e.workers = max(1, min(e.workers, runtime.NumCPU()))

	e.funcX = systems.NewFunctionBlender(e.functions, cfg.FuncMinChange, cfg.FuncMaxChange, e.rng)
	e.funcY = systems.NewFunctionBlender(e.functions, cfg.FuncMinChange, cfg.FuncMaxChange, e.rng)
	e.pool = newWorkerPool(e.workers)

	e.log.Info("engine started",
		"workers", e.workers,
		"groups", cfg.Groups,
		"particles_per_group", cfg.ParticlesPerGroup,
		"modes", cfg.Modes.String(),
	)
	return e
}

// Tick advances the simulation by delta seconds at host time currentTime and
// blocks until every group has been updated. It is a no-op while paused and
// panics with ErrShutdown after Shutdown.
func (e *Engine) Tick(currentTime, delta float64) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		panic(ErrShutdown)
	}
	if e.paused {
		e.mu.Unlock()
		return
	}
	cfg := e.pending
	field, sf := e.field, e.sizeFactor
	resumed := e.resumed
	e.resumed = false
	e.mu.Unlock()

	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		delta = 0
	}

	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if e.perf != nil {
		e.perf.StartTick()
		e.perf.StartPhase(telemetry.PhasePopulation)
	}

	if resumed {
		e.flockStarted = false
	}
	w, h := extent(cfg, field, sf)
	e.resizeGrids(w, h, cfg.Flocking.ZoneRadius)
	e.controlPopulation(&cfg, w, h)

	if e.perf != nil {
		e.perf.StartPhase(telemetry.PhaseDispatch)
	}
	e.prepareFrame(&cfg, field, sf, currentTime, delta)

	if e.perf != nil {
		e.perf.StartPhase(telemetry.PhaseWorkers)
	}
	e.pool.run(len(e.groups), e.work)

	if e.frame.Flock && cfg.Modes.Has(systems.ModeFlocking) {
		e.counts.FlockPasses++
	}
	e.counts.Ticks++
	if e.perf != nil {
		e.perf.EndTick()
	}
}

// work is the per-worker job: every group whose index is congruent to worker
// modulo the pool size.
func (e *Engine) work(worker int) {
	for g := worker; g < len(e.groups); g += e.pool.size {
		e.groups[g].Update(&e.frame)
		if e.hook != nil {
			e.hook(g)
		}
	}
}

// prepareFrame builds the read-only inputs shared by all workers this tick.
func (e *Engine) prepareFrame(cfg *Config, field systems.Field, sf, now, delta float64) {
	e.funcX.SetChangeWindow(cfg.FuncMinChange, cfg.FuncMaxChange)
	e.funcY.SetChangeWindow(cfg.FuncMinChange, cfg.FuncMaxChange)
	e.funcX.AdvanceTime(delta)
	e.funcY.AdvanceTime(delta)

	flock, ratio := e.flockTiming(cfg.Flocking.UpdateInterval, now)

	e.frame = systems.Frame{
		Time:       now,
		Delta:      delta,
		Modes:      cfg.Modes,
		Flock:      flock,
		FlockRatio: ratio,
		Flocking:   cfg.Flocking,
		Env: systems.Environment{
			Field:      field,
			SizeFactor: sf,
			Kinematics: cfg.Kinematics,
		},
		FuncX:         e.funcX,
		FuncY:         e.funcY,
		FuncStrength:  cfg.FuncStrength,
		FuncFrequency: cfg.FuncFrequency,
		FieldStrength: cfg.FieldStrength,
	}
}

// flockTiming decides whether this tick runs a flocking pass and returns the
// ratio of elapsed time to the configured interval.
func (e *Engine) flockTiming(interval, now float64) (bool, float64) {
	if interval <= 0 {
		return true, 1
	}
	if !e.flockStarted {
		e.flockStarted = true
		e.lastFlock = now
		return true, 1
	}

	elapsed := now - e.lastFlock
	if elapsed < 0 {
		// host clock went backwards
		e.lastFlock = now
		return false, 0
	}
	if elapsed < interval {
		return false, 0
	}
	e.lastFlock = now
	return true, elapsed / interval
}

// resizeGrids rebuilds every grid whose geometry no longer matches the field
// extent or the interaction radius.
func (e *Engine) resizeGrids(w, h, cell float64) {
	if w == e.gridW && h == e.gridH && cell == e.gridCell {
		return
	}
	e.gridW, e.gridH, e.gridCell = w, h, cell
	for _, g := range e.groups {
		g.Resize(w, h, cell)
	}
}

// extent returns the simulation field size in simulation units.
func extent(cfg Config, field systems.Field, sf float64) (w, h float64) {
	if field != nil && field.Width() > 0 && field.Height() > 0 {
		return float64(field.Width()) * sf, float64(field.Height()) * sf
	}
	return math.Max(cfg.Width, 1), math.Max(cfg.Height, 1)
}

// SetGroupCount sets the target number of groups.
func (e *Engine) SetGroupCount(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending.Groups = max(n, 0)
}

// SetParticlesPerGroup sets the target particle count of every group.
func (e *Engine) SetParticlesPerGroup(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending.ParticlesPerGroup = max(n, 0)
}

// SetFlockingParameters replaces the flocking strengths, thresholds and
// radius. A ZoneRadius or UpdateInterval that is not positive and finite
// keeps the current value.
func (e *Engine) SetFlockingParameters(p systems.FlockParams) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !positive(p.ZoneRadius) {
		p.ZoneRadius = e.pending.Flocking.ZoneRadius
	}
	if !positive(p.UpdateInterval) {
		p.UpdateInterval = e.pending.Flocking.UpdateInterval
	}
	e.pending.Flocking = p
}

// SetSpeedLimits sets the ranges the per-particle squared speed limits are
// drawn from. They apply to particles spawned afterwards.
func (e *Engine) SetSpeedLimits(minSq, maxSq systems.Range) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending.MinSpeedSq = ordered(minSq)
	e.pending.MaxSpeedSq = ordered(maxSq)
}

// SetLifetimeRange sets the lifetime range, in seconds, of new particles.
func (e *Engine) SetLifetimeRange(lo, hi float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending.Lifetime = ordered(systems.Range{Min: lo, Max: hi})
}

// SetReferenceField sets the steering field. The field must not be mutated
// while a tick is running. A nil field freezes particle motion.
func (e *Engine) SetReferenceField(f systems.Field, sizeFactor float64) {
	if sizeFactor <= 0 || math.IsNaN(sizeFactor) {
		sizeFactor = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.field = f
	e.sizeFactor = sizeFactor
}

// SetUpdateModes selects the force sources applied each tick.
func (e *Engine) SetUpdateModes(m systems.UpdateMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending.Modes = m
}

// SetFunctionForces sets the strength and frequency of the function forces.
func (e *Engine) SetFunctionForces(strength, frequency float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending.FuncStrength = strength
	e.pending.FuncFrequency = frequency
}

// SetFieldStrength sets the strength of the reference field force.
func (e *Engine) SetFieldStrength(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending.FieldStrength = s
}

// Config returns the parameters the next tick will use.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// ZoneRadii returns the interaction radius and the outer radii of the
// separation and alignment bands, for debug drawing.
func (e *Engine) ZoneRadii() (zone, separation, alignment float64) {
	e.mu.Lock()
	fp := e.pending.Flocking
	e.mu.Unlock()

	zone = fp.ZoneRadius
	return zone, zone * math.Sqrt(math.Max(fp.LowThreshold, 0)), zone * math.Sqrt(math.Max(fp.HighThreshold, 0))
}

// Extent returns the current simulation field size.
func (e *Engine) Extent() (w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return extent(e.pending, e.field, e.sizeFactor)
}

// Workers returns the worker pool size.
func (e *Engine) Workers() int {
	return e.workers
}

// Pause makes Tick a no-op until Resume.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		panic(ErrShutdown)
	}
	if !e.paused {
		e.paused = true
		e.log.Info("engine paused")
	}
}

// Resume undoes Pause. Flocking timing restarts so the paused interval does
// not count as elapsed time.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		panic(ErrShutdown)
	}
	if e.paused {
		e.paused = false
		e.resumed = true
		e.log.Info("engine resumed")
	}
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Shutdown waits for any running tick, stops and joins the workers, then
// releases all particles. Any later use panics with ErrShutdown.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		panic(ErrShutdown)
	}
	e.closed = true
	e.mu.Unlock()

	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.pool.close()
	for _, g := range e.groups {
		g.Release()
	}
	e.groups = nil
	e.frame = systems.Frame{}

	e.log.Info("engine shutdown", "ticks", e.counts.Ticks)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func ordered(r systems.Range) systems.Range {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}
