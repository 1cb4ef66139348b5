package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// fallbackDir is used wherever a direction is needed but the source vector
// has no usable length.
var fallbackDir = r2.Vec{X: 1, Y: 0}

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Valid reports whether Min <= Max.
func (r Range) Valid() bool {
	return r.Min <= r.Max
}

// finite reports whether both components of v are finite.
func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Sanitize zeroes every non-finite component of v.
func Sanitize(v r2.Vec) r2.Vec {
	if math.IsNaN(v.X) || math.IsInf(v.X, 0) {
		v.X = 0
	}
	if math.IsNaN(v.Y) || math.IsInf(v.Y, 0) {
		v.Y = 0
	}
	return v
}

// unitOr returns the unit vector of v, or fallback when v is zero or not finite.
func unitOr(v, fallback r2.Vec) r2.Vec {
	if !finite(v) || (v.X == 0 && v.Y == 0) {
		return fallback
	}
	return r2.Unit(v)
}

// wrapCoord wraps x into [0, size).
func wrapCoord(x, size float64) float64 {
	if size <= 0 {
		return 0
	}
	if x >= 0 && x < size {
		return x
	}
	x = math.Mod(x, size)
	if x < 0 {
		x += size
	}
	// x+size can round up to exactly size for tiny negative x
	if x >= size {
		x = 0
	}
	return x
}

// Wrap wraps p toroidally into [0, w) x [0, h) and reports whether it moved.
func Wrap(p r2.Vec, w, h float64) (r2.Vec, bool) {
	x := wrapCoord(p.X, w)
	y := wrapCoord(p.Y, h)
	return r2.Vec{X: x, Y: y}, x != p.X || y != p.Y
}

// easeBand is the raised-cosine weight used for the alignment and cohesion
// bands: 1 at both band edges, 0 in the middle.
func easeBand(t float64) float64 {
	return 1 - (math.Cos(t*2*math.Pi)*-0.5 + 0.5)
}

// clampInt clamps v into [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
