package systems

import (
	"math"
	"math/rand"
	"testing"
)

func constant(v float64) ScalarFunc {
	return func(float64) float64 { return v }
}

func TestBlenderEvaluateWeights(t *testing.T) {
	pool := []ScalarFunc{constant(0), constant(1), constant(2), constant(3)}
	b := NewFunctionBlender(pool, 2, 4, rand.New(rand.NewSource(5)))

	for step := 0; step < 50; step++ {
		cur, next := b.Selection()
		timer, timeout := b.Timer()
		w := timer / timeout
		want := (1-w)*float64(cur) + w*float64(next)
		if got := b.Evaluate(0); math.Abs(got-want) > 1e-12 {
			t.Fatalf("step %d: Evaluate = %v, want %v (cur %d next %d w %.3f)", step, got, want, cur, next, w)
		}
		b.AdvanceTime(0.13)
	}
}

func TestBlenderTimerInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	const minChange, maxChange = 0.5, 1.5
	b := NewFunctionBlender(DefaultFunctions(1), minChange, maxChange, rng)

	for i := 0; i < 2000; i++ {
		b.AdvanceTime(rng.Float64() * 0.05)
		timer, timeout := b.Timer()
		if timer < 0 || timer > timeout {
			t.Fatalf("advance %d: timer %v outside [0, %v]", i, timer, timeout)
		}
		if timeout < minChange || timeout > maxChange {
			t.Fatalf("advance %d: timeout %v outside [%v, %v]", i, timeout, minChange, maxChange)
		}
	}
}

func TestBlenderSlidesNextIntoCurrent(t *testing.T) {
	pool := []ScalarFunc{constant(0), constant(1), constant(2)}
	b := NewFunctionBlender(pool, 1, 2, rand.New(rand.NewSource(2)))

	_, next := b.Selection()
	_, timeout := b.Timer()
	b.AdvanceTime(timeout)

	cur, _ := b.Selection()
	if cur != next {
		t.Errorf("current = %d after timeout, want previous next %d", cur, next)
	}
	if timer, _ := b.Timer(); timer != 0 {
		t.Errorf("timer = %v after timeout, want 0", timer)
	}
	if got, want := b.Evaluate(0), float64(cur); got != want {
		t.Errorf("Evaluate right after change = %v, want %v", got, want)
	}
}

func TestBlenderDegenerateInputs(t *testing.T) {
	t.Run("non-finite suppressed", func(t *testing.T) {
		pool := []ScalarFunc{constant(math.NaN()), constant(math.Inf(1))}
		b := NewFunctionBlender(pool, 1, 2, rand.New(rand.NewSource(1)))
		b.AdvanceTime(0.3)
		if got := b.Evaluate(1); got != 0 {
			t.Errorf("Evaluate = %v, want 0", got)
		}
	})

	t.Run("empty pool", func(t *testing.T) {
		b := NewFunctionBlender(nil, 1, 2, rand.New(rand.NewSource(1)))
		b.AdvanceTime(5)
		if got := b.Evaluate(1); got != 0 {
			t.Errorf("Evaluate = %v, want 0", got)
		}
	})

	t.Run("inverted window", func(t *testing.T) {
		b := NewFunctionBlender(DefaultFunctions(1), 3, 1, rand.New(rand.NewSource(1)))
		_, timeout := b.Timer()
		if timeout < 1 || timeout > 3 {
			t.Errorf("timeout = %v, want in [1, 3]", timeout)
		}
	})

	t.Run("zero window", func(t *testing.T) {
		b := NewFunctionBlender(DefaultFunctions(1), 0, 0, rand.New(rand.NewSource(1)))
		for i := 0; i < 10; i++ {
			b.AdvanceTime(0.01)
		}
		if _, timeout := b.Timer(); timeout <= 0 {
			t.Errorf("timeout = %v, want positive", timeout)
		}
	})
}

func TestDefaultFunctionsBounded(t *testing.T) {
	pool := DefaultFunctions(42)
	if len(pool) < 2 {
		t.Fatalf("pool has %d functions, want at least 2", len(pool))
	}
	for i, f := range pool {
		for x := -50.0; x <= 50; x += 0.37 {
			v := f(x)
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 3 {
				t.Fatalf("function %d(%v) = %v, want finite in [-3, 3]", i, x, v)
			}
		}
	}
}
