package systems

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// flatField returns a w x h field of a single gray color.
func flatField(w, h int) *ImageField {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 128, G: 128, B: 128, A: 255}}, image.Point{}, draw.Src)
	return NewImageField(img)
}

func testEnv(f Field, sf float64) *Environment {
	return &Environment{
		Field:      f,
		SizeFactor: sf,
		Kinematics: Kinematics{
			SpeedRatio:      1,
			Friction:        0.5,
			Damping:         2,
			ColorGuidance:   math.Pi / 2,
			VelocityCeiling: 1000,
		},
	}
}

func TestIntegrateWrap(t *testing.T) {
	env := testEnv(flatField(100, 50), 2)
	w, h := 200.0, 100.0

	tests := []struct {
		name string
		pos  r2.Vec
		vel  r2.Vec
	}{
		{"inside", r2.Vec{X: 10, Y: 10}, r2.Vec{X: 1, Y: 1}},
		{"negative", r2.Vec{X: -5, Y: -0.25}, r2.Vec{X: -1, Y: 0}},
		{"tiny negative", r2.Vec{X: -1e-18, Y: -1e-18}, r2.Vec{}},
		{"far positive", r2.Vec{X: 1e9, Y: 3e7}, r2.Vec{X: 2, Y: 2}},
		{"far negative", r2.Vec{X: -1e9, Y: -7.5e8}, r2.Vec{X: -2, Y: 2}},
		{"exact edge", r2.Vec{X: 200, Y: 100}, r2.Vec{}},
		{"crossing edge", r2.Vec{X: 199.9, Y: 99.9}, r2.Vec{X: 4, Y: 4}},
		{"nan", r2.Vec{X: math.NaN(), Y: math.Inf(1)}, r2.Vec{X: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticle(1, 0, tt.pos, r2.Vec{X: 1})
			p.Velocity = tt.vel
			p.MinSpeedSq = 1
			p.MaxSpeedSq = 16
			p.LifeLeft = 10

			for i := 0; i < 5; i++ {
				p.Integrate(1.0/60, env)
				if p.Position.X < 0 || p.Position.X >= w || p.Position.Y < 0 || p.Position.Y >= h {
					t.Fatalf("step %d: position %v outside [0,%v)x[0,%v)", i, p.Position, w, h)
				}
			}
		})
	}
}

func TestIntegrateSpeedLimit(t *testing.T) {
	env := testEnv(flatField(64, 64), 1)

	tests := []struct {
		name  string
		vel   r2.Vec
		accel r2.Vec
	}{
		{"at rest", r2.Vec{}, r2.Vec{}},
		{"slow", r2.Vec{X: 0.5}, r2.Vec{}},
		{"fast", r2.Vec{X: 30, Y: -30}, r2.Vec{}},
		{"accelerated", r2.Vec{X: 3}, r2.Vec{X: 100, Y: 50}},
		{"runaway", r2.Vec{X: 1e12, Y: 1e12}, r2.Vec{}},
		{"nan velocity", r2.Vec{X: math.NaN()}, r2.Vec{Y: 1}},
		{"inf accel", r2.Vec{X: 2}, r2.Vec{X: math.Inf(-1)}},
	}

	const minSq, maxSq = 4.0, 25.0
	const eps = 1e-9

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticle(1, 0, r2.Vec{X: 32, Y: 32}, r2.Vec{X: 0, Y: 1})
			p.Velocity = tt.vel
			p.Acceleration = tt.accel
			p.MinSpeedSq = minSq
			p.MaxSpeedSq = maxSq
			p.LifeLeft = 10

			for i := 0; i < 10; i++ {
				p.Integrate(1.0/30, env)
				sq := r2.Norm2(p.Velocity)
				if sq < minSq-eps || sq > maxSq+eps {
					t.Fatalf("step %d: |v|^2 = %v, want in [%v, %v]", i, sq, minSq, maxSq)
				}
				if !finite(p.Position) || !finite(p.Acceleration) {
					t.Fatalf("step %d: non-finite state pos=%v acc=%v", i, p.Position, p.Acceleration)
				}
			}
		})
	}
}

func TestIntegrateWithoutFieldIsFrozen(t *testing.T) {
	p := NewParticle(7, 0, r2.Vec{X: 12, Y: 34}, r2.Vec{X: 1, Y: 1})
	p.Velocity = r2.Vec{X: 3, Y: -2}
	p.Acceleration = r2.Vec{X: 1, Y: 1}
	p.MinSpeedSq = 1
	p.MaxSpeedSq = 9

	before := p
	p.Integrate(0.1, testEnv(nil, 1))
	if p.Position != before.Position || p.Velocity != before.Velocity {
		t.Errorf("particle moved without field: pos %v -> %v, vel %v -> %v",
			before.Position, p.Position, before.Velocity, p.Velocity)
	}

	p.Integrate(0.1, nil)
	if p.Position != before.Position || p.Velocity != before.Velocity {
		t.Errorf("particle moved with nil environment")
	}
}

func TestIntegrateResetsTrailOnWrap(t *testing.T) {
	env := testEnv(flatField(50, 50), 1)
	env.ColorGuidance = 0

	p := NewParticle(1, 0, r2.Vec{X: 49.9, Y: 25}, r2.Vec{X: 1})
	p.Velocity = r2.Vec{X: 5}
	p.MinSpeedSq = 25
	p.MaxSpeedSq = 25

	p.Integrate(0.1, env)
	if p.Position.X >= 1 {
		t.Fatalf("expected wrap to left edge, got %v", p.Position)
	}
	if p.PrevPosition != p.Position {
		t.Errorf("PrevPosition = %v, want reset to %v after wrap", p.PrevPosition, p.Position)
	}
}

func TestUpdateTimer(t *testing.T) {
	p := NewParticle(1, 0, r2.Vec{}, r2.Vec{X: 1})
	p.LifeLeft = 3

	const delta = 0.1
	for i := 0; i < 40; i++ {
		before := p.LifeLeft
		p.UpdateTimer(delta)
		if p.LifeLeft != before-delta {
			t.Fatalf("tick %d: LifeLeft = %v, want %v", i, p.LifeLeft, before-delta)
		}
	}
	if p.Alive() {
		t.Errorf("particle still alive with LifeLeft %v", p.LifeLeft)
	}
	if p.Alpha != 0 {
		t.Errorf("expired particle alpha = %d, want 0", p.Alpha)
	}
}

func TestUpdateTimerAlpha(t *testing.T) {
	tests := []struct {
		name     string
		age      float64
		lifeLeft float64
		want     uint8
	}{
		{"fading in", 0.5, 10, 127},
		{"steady", 2, 5, 255},
		{"fading out", 5, 0.25, 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Particle{Age: tt.age - 0.1, LifeLeft: tt.lifeLeft + 0.1}
			p.UpdateTimer(0.1)
			if d := int(p.Alpha) - int(tt.want); d < -1 || d > 1 {
				t.Errorf("alpha = %d, want %d", p.Alpha, tt.want)
			}
		})
	}
}

func TestApplyForceUpdatesDirection(t *testing.T) {
	p := NewParticle(1, 0, r2.Vec{}, r2.Vec{X: 1})
	p.ApplyForce(r2.Vec{Y: 3})
	if math.Abs(p.Direction.X) > 1e-12 || math.Abs(p.Direction.Y-1) > 1e-12 {
		t.Errorf("Direction = %v, want (0, 1)", p.Direction)
	}

	p.ApplyInstantForce(r2.Vec{X: -6})
	want := r2.Unit(r2.Vec{X: -6, Y: 3})
	if r2.Norm(r2.Sub(p.Direction, want)) > 1e-12 {
		t.Errorf("Direction = %v, want %v", p.Direction, want)
	}

	p.Integrate(0.1, testEnv(flatField(10, 10), 1))
	if p.Instant != (r2.Vec{}) {
		t.Errorf("Instant = %v, want cleared after integration", p.Instant)
	}
}

// patternField is bright wherever bright reports true and black elsewhere.
type patternField struct {
	w, h   int
	bright func(x, y int) bool
}

func (f patternField) Width() int  { return f.w }
func (f patternField) Height() int { return f.h }

func (f patternField) ColorAt(x, y int) color.RGBA {
	if f.bright(x, y) {
		return color.RGBA{R: 200, G: 200, B: 200, A: 255}
	}
	return color.RGBA{A: 255}
}

func (f patternField) VectorAt(x, y int) r2.Vec { return r2.Vec{} }

func TestSteerTurnRates(t *testing.T) {
	// The particle sits at (50, 50) heading +x; the samples land on (52, 50)
	// ahead, (51, 51) counter-clockwise and (51, 48) clockwise.
	tests := []struct {
		name   string
		bright func(x, y int) bool
		turns  float64 // expected rotation in units of ColorGuidance*delta
	}{
		{"counter-clockwise", func(x, y int) bool { return x <= 50 || y > 50 }, 1},
		{"clockwise", func(x, y int) bool { return x <= 50 || y < 50 }, -2},
		{"straight", func(x, y int) bool { return true }, 0},
	}
	const delta = 0.1
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := patternField{w: 100, h: 100, bright: tt.bright}
			env := testEnv(f, 1)

			p := NewParticle(1, 0, r2.Vec{X: 50, Y: 50}, r2.Vec{X: 1})
			p.Velocity = r2.Vec{X: 1}
			p.steer(delta, 1, 100, 100, env)

			got := math.Atan2(p.Velocity.Y, p.Velocity.X)
			want := tt.turns * env.ColorGuidance * delta
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("heading = %v rad, want %v", got, want)
			}
		})
	}
}

func TestColorDelta(t *testing.T) {
	tests := []struct {
		a, b color.RGBA
		want float64
	}{
		{color.RGBA{R: 100, G: 100, B: 100}, color.RGBA{R: 100, G: 100, B: 100}, 0},
		{color.RGBA{R: 100}, color.RGBA{R: 40}, 120},
		{color.RGBA{R: 40}, color.RGBA{R: 100}, 0},
		{color.RGBA{R: 10, G: 20, B: 30}, color.RGBA{}, 120},
	}
	for _, tt := range tests {
		if got := colorDelta(tt.a, tt.b); got != tt.want {
			t.Errorf("colorDelta(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want r2.Vec
	}{
		{r2.Vec{X: 1, Y: -2}, r2.Vec{X: 1, Y: -2}},
		{r2.Vec{X: math.NaN(), Y: 2}, r2.Vec{X: 0, Y: 2}},
		{r2.Vec{X: 3, Y: math.Inf(-1)}, r2.Vec{X: 3, Y: 0}},
		{r2.Vec{X: math.Inf(1), Y: math.NaN()}, r2.Vec{}},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func BenchmarkIntegrate(b *testing.B) {
	env := testEnv(flatField(256, 256), 2)
	p := NewParticle(1, 0, r2.Vec{X: 100, Y: 100}, r2.Vec{X: 1, Y: 1})
	p.Velocity = r2.Vec{X: 3, Y: 2}
	p.MinSpeedSq = 4
	p.MaxSpeedSq = 25

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		p.Integrate(1.0/60, env)
	}
}
