package systems

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// ScalarFunc is a member of the steering function pool. Pool functions must
// be safe for concurrent calls.
type ScalarFunc func(x float64) float64

// DefaultFunctions returns the built-in function pool. The two Perlin members
// are seeded from seed.
func DefaultFunctions(seed int64) []ScalarFunc {
	slow := perlin.NewPerlin(2, 2, 3, seed)
	rough := perlin.NewPerlin(1.5, 2, 4, seed+1)

	return []ScalarFunc{
		math.Sin,
		math.Cos,
		func(x float64) float64 { return math.Sin(x) * math.Cos(2*x) },
		func(x float64) float64 { return math.Tanh(3 * math.Sin(x)) },
		triangle,
		func(x float64) float64 { return (math.Sin(x) + 0.5*math.Sin(2.7*x)) / 1.5 },
		func(x float64) float64 { return 2 * slow.Noise1D(x*0.5) },
		func(x float64) float64 { return 2 * rough.Noise1D(x) },
	}
}

// triangle is a unit-amplitude triangle wave with period 2π.
func triangle(x float64) float64 {
	t := math.Mod(x/(2*math.Pi), 1)
	if t < 0 {
		t++
	}
	return 4*math.Abs(t-0.5) - 1
}
