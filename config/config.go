// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flock/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig        `yaml:"screen"`
	Field      FieldConfig         `yaml:"field"`
	Engine     EngineConfig        `yaml:"engine"`
	Population PopulationConfig    `yaml:"population"`
	Particle   ParticleConfig      `yaml:"particle"`
	Flocking   systems.FlockParams `yaml:"flocking"`
	Functions  FunctionsConfig     `yaml:"functions"`
	Reference  ReferenceConfig     `yaml:"reference"`
	Telemetry  TelemetryConfig     `yaml:"telemetry"`
	Stream     StreamConfig        `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds viewer window settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// FieldConfig sizes the simulation field used when no reference image is
// loaded. Zero width or height falls back to the screen size.
type FieldConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	SizeFactor float64 `yaml:"size_factor"` // simulation units per field pixel
}

// EngineConfig holds worker pool and update settings.
type EngineConfig struct {
	Workers     int      `yaml:"workers"`      // 0 = min(4, GOMAXPROCS)
	UpdateModes []string `yaml:"update_modes"` // function, flocking, field
	Seed        int64    `yaml:"seed"`         // 0 = time based
}

// PopulationConfig holds the population targets.
type PopulationConfig struct {
	Groups            int     `yaml:"groups"`
	ParticlesPerGroup int     `yaml:"particles_per_group"`
	SpawnPerTick      int     `yaml:"spawn_per_tick"` // per group
	EmissionArea      float64 `yaml:"emission_area"`  // fraction of the field
	LeadersPerGroup   int     `yaml:"leaders_per_group"`
}

// ParticleConfig holds spawn ranges and integration tuning.
type ParticleConfig struct {
	MinSpeedSquared systems.Range `yaml:"min_speed_squared"`
	MaxSpeedSquared systems.Range `yaml:"max_speed_squared"`
	Lifetime        systems.Range `yaml:"lifetime"` // seconds
	InitialKick     float64       `yaml:"initial_kick"`
	SpeedRatio      float64       `yaml:"speed_ratio"`
	Friction        float64       `yaml:"friction"`
	Damping         float64       `yaml:"damping"`
	ColorGuidance   float64       `yaml:"color_guidance"` // degrees per second
	VelocityCeiling float64       `yaml:"velocity_ceiling"`
}

// FunctionsConfig holds the procedural function force settings.
type FunctionsConfig struct {
	MinChangeTime float64 `yaml:"min_change_time"`
	MaxChangeTime float64 `yaml:"max_change_time"`
	Strength      float64 `yaml:"strength"`
	Frequency     float64 `yaml:"frequency"`
}

// ReferenceConfig holds reference field settings.
type ReferenceConfig struct {
	FieldStrength float64     `yaml:"field_strength"`
	Noise         NoiseConfig `yaml:"noise"`
}

// NoiseConfig configures the procedural field used without an image.
type NoiseConfig struct {
	Seed      int64   `yaml:"seed"`
	Scale     float64 `yaml:"scale"`
	TimeSpeed float64 `yaml:"time_speed"`
}

// TelemetryConfig holds stats output settings.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds of simulated time
	PerfWindow  int     `yaml:"perf_window"`  // ticks
}

// StreamConfig holds websocket frame streaming settings.
type StreamConfig struct {
	Addr         string `yaml:"addr"`
	FrameEvery   int    `yaml:"frame_every"` // ticks between frames
	MaxParticles int    `yaml:"max_particles"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Workers          int                // effective worker count
	UpdateModes      systems.UpdateMode // parsed Engine.UpdateModes
	FieldWidth       int                // effective field width in pixels
	FieldHeight      int                // effective field height in pixels
	DT               float64            // 1 / Screen.TargetFPS
	ZoneRadiusSq     float64
	ColorGuidanceRad float64 // Particle.ColorGuidance in radians per second
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from path (or embedded defaults if empty) and
// stores it for Cfg.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is Init that panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. It panics before Init.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads the embedded defaults, overlays the file at path if given, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file overwrite the defaults
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every invalid value, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Screen.TargetFPS <= 0 {
		bad("screen.target_fps must be positive, got %d", c.Screen.TargetFPS)
	}
	if c.Field.Width < 0 || c.Field.Height < 0 {
		bad("field size must not be negative, got %dx%d", c.Field.Width, c.Field.Height)
	}
	if c.Field.SizeFactor <= 0 {
		bad("field.size_factor must be positive, got %v", c.Field.SizeFactor)
	}
	if c.Engine.Workers < 0 {
		bad("engine.workers must not be negative, got %d", c.Engine.Workers)
	}
	if _, err := systems.ParseUpdateModes(c.Engine.UpdateModes); err != nil {
		bad("engine.update_modes: %v", err)
	}

	p := c.Population
	if p.Groups < 0 || p.ParticlesPerGroup < 0 || p.LeadersPerGroup < 0 {
		bad("population counts must not be negative")
	}
	if p.SpawnPerTick < 1 {
		bad("population.spawn_per_tick must be at least 1, got %d", p.SpawnPerTick)
	}
	if p.EmissionArea <= 0 || p.EmissionArea > 1 {
		bad("population.emission_area must be in (0, 1], got %v", p.EmissionArea)
	}

	ranges := []struct {
		name string
		r    systems.Range
	}{
		{"particle.min_speed_squared", c.Particle.MinSpeedSquared},
		{"particle.max_speed_squared", c.Particle.MaxSpeedSquared},
		{"particle.lifetime", c.Particle.Lifetime},
	}
	for _, x := range ranges {
		if !x.r.Valid() || x.r.Min < 0 {
			bad("%s must satisfy 0 <= min <= max, got [%v, %v]", x.name, x.r.Min, x.r.Max)
		}
	}
	if c.Particle.Friction < 0 || c.Particle.Damping < 0 {
		bad("particle friction and damping must not be negative")
	}

	f := c.Flocking
	if f.LowThreshold < 0 || f.HighThreshold > 1 || f.LowThreshold > f.HighThreshold {
		bad("flocking thresholds must satisfy 0 <= low <= high <= 1, got %v, %v", f.LowThreshold, f.HighThreshold)
	}
	if f.ZoneRadius <= 0 {
		bad("flocking.zone_radius must be positive, got %v", f.ZoneRadius)
	}
	if f.UpdateInterval <= 0 {
		bad("flocking.update_interval must be positive, got %v", f.UpdateInterval)
	}

	if c.Functions.MinChangeTime <= 0 || c.Functions.MaxChangeTime < c.Functions.MinChangeTime {
		bad("functions change window must satisfy 0 < min <= max, got [%v, %v]",
			c.Functions.MinChangeTime, c.Functions.MaxChangeTime)
	}
	if c.Telemetry.StatsWindow <= 0 || c.Telemetry.PerfWindow < 1 {
		bad("telemetry windows must be positive")
	}
	if c.Stream.FrameEvery < 1 {
		bad("stream.frame_every must be at least 1, got %d", c.Stream.FrameEvery)
	}

	return errors.Join(errs...)
}

// computeDerived fills Derived from the loaded values. Validate must pass first.
func (c *Config) computeDerived() {
	workers := c.Engine.Workers
	if workers == 0 {
		workers = min(4, runtime.GOMAXPROCS(0))
	}
	c.Derived.Workers = max(1, min(workers, runtime.NumCPU()))

	c.Derived.UpdateModes, _ = systems.ParseUpdateModes(c.Engine.UpdateModes)

	c.Derived.FieldWidth = c.Field.Width
	if c.Derived.FieldWidth == 0 {
		c.Derived.FieldWidth = c.Screen.Width
	}
	c.Derived.FieldHeight = c.Field.Height
	if c.Derived.FieldHeight == 0 {
		c.Derived.FieldHeight = c.Screen.Height
	}

	c.Derived.DT = 1 / float64(c.Screen.TargetFPS)
	c.Derived.ZoneRadiusSq = c.Flocking.ZoneRadius * c.Flocking.ZoneRadius
	c.Derived.ColorGuidanceRad = c.Particle.ColorGuidance * math.Pi / 180
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
