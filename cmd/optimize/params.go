package main

import (
	"github.com/pthm-cable/flock/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of flocking parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "repel", Path: "flocking.repel", Min: 0.001, Max: 0.5, Default: 0.04},
			{Name: "align", Path: "flocking.align", Min: 0.001, Max: 0.5, Default: 0.04},
			{Name: "attract", Path: "flocking.attract", Min: 0.001, Max: 0.5, Default: 0.02},
			{Name: "low_threshold", Path: "flocking.low_threshold", Min: 0.02, Max: 0.5, Default: 0.125},
			{Name: "high_threshold", Path: "flocking.high_threshold", Min: 0.5, Max: 0.98, Default: 0.65},
			{Name: "zone_radius", Path: "flocking.zone_radius", Min: 15, Max: 150, Default: 75},
			{Name: "field_strength", Path: "reference.field_strength", Min: 0, Max: 10, Default: 4},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct. Order must
// match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Flocking.Repel = c[0]
	cfg.Flocking.Align = c[1]
	cfg.Flocking.Attract = c[2]
	cfg.Flocking.LowThreshold = c[3]
	cfg.Flocking.HighThreshold = c[4]
	cfg.Flocking.ZoneRadius = c[5]
	cfg.Reference.FieldStrength = c[6]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Flocking.Repel,
		cfg.Flocking.Align,
		cfg.Flocking.Attract,
		cfg.Flocking.LowThreshold,
		cfg.Flocking.HighThreshold,
		cfg.Flocking.ZoneRadius,
		cfg.Reference.FieldStrength,
	}
}
