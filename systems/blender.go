package systems

import (
	"math"
	"math/rand"
)

// minTimeout keeps the blend window from collapsing to zero.
const minTimeout = 1e-3

// FunctionBlender cross-fades between two functions of a shared pool. The
// "next" function fades in over a randomised timeout, then becomes "current"
// and a new "next" is drawn.
//
// Evaluate is read-only and may be called from several workers at once;
// AdvanceTime and RandomizeSelection must not run concurrently with it.
type FunctionBlender struct {
	pool    []ScalarFunc
	current int
	next    int

	timer   float64
	timeout float64

	minChange float64
	maxChange float64

	rng *rand.Rand
}

// NewFunctionBlender creates a blender over pool with a random selection and
// a timeout drawn from [minChange, maxChange].
func NewFunctionBlender(pool []ScalarFunc, minChange, maxChange float64, rng *rand.Rand) *FunctionBlender {
	b := &FunctionBlender{
		pool:      pool,
		minChange: minChange,
		maxChange: maxChange,
		rng:       rng,
	}
	b.RandomizeSelection()
	b.timeout = b.drawTimeout(0)
	return b
}

// SetChangeWindow replaces the timeout window. It applies from the next
// function change.
func (b *FunctionBlender) SetChangeWindow(minChange, maxChange float64) {
	b.minChange = minChange
	b.maxChange = maxChange
}

// RandomizeSelection draws both slots uniformly from the pool.
func (b *FunctionBlender) RandomizeSelection() {
	if len(b.pool) == 0 {
		return
	}
	b.current = b.rng.Intn(len(b.pool))
	b.next = b.rng.Intn(len(b.pool))
}

// Evaluate returns the blend of the two selected functions at x, weighted by
// how far the timer has progressed. Non-finite results are suppressed to 0.
func (b *FunctionBlender) Evaluate(x float64) float64 {
	if len(b.pool) == 0 {
		return 0
	}
	w := 0.0
	if b.timeout > 0 {
		w = b.timer / b.timeout
	}
	v := (1-w)*b.pool[b.current](x) + w*b.pool[b.next](x)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// AdvanceTime moves the timer forward. On reaching the timeout the next
// function slides into the current slot and a new next and timeout are drawn.
func (b *FunctionBlender) AdvanceTime(delta float64) {
	if delta <= 0 || math.IsNaN(delta) {
		return
	}
	b.timer += delta
	if b.timer < b.timeout {
		return
	}

	b.current = b.next
	if len(b.pool) > 0 {
		b.next = b.rng.Intn(len(b.pool))
	}
	b.timer = 0
	b.timeout = b.drawTimeout(delta)
}

// drawTimeout draws uniformly from the change window narrowed by delta at
// both ends, falling back to the full window when the narrowed one is empty.
func (b *FunctionBlender) drawTimeout(delta float64) float64 {
	lo, hi := b.minChange+delta, b.maxChange-delta
	if hi <= lo {
		lo, hi = b.minChange, b.maxChange
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	t := lo + b.rng.Float64()*(hi-lo)
	return math.Max(t, minTimeout)
}

// Selection returns the current and next pool indices.
func (b *FunctionBlender) Selection() (current, next int) {
	return b.current, b.next
}

// Timer returns the elapsed time and the timeout of the current blend.
func (b *FunctionBlender) Timer() (timer, timeout float64) {
	return b.timer, b.timeout
}
