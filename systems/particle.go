package systems

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// sampleDistance is how far ahead, in field pixels, color guidance samples.
const sampleDistance = 2.0

// sampleAngle is the rotation of the side samples.
const sampleAngle = math.Pi / 4

// Particle is a single aging, flocking particle. It is owned by exactly one
// Group and lives in that group's arena.
type Particle struct {
	ID    uint64
	Group int

	Position     r2.Vec
	PrevPosition r2.Vec // previous tick position, reset on wrap
	Direction    r2.Vec // unit heading
	Velocity     r2.Vec
	Acceleration r2.Vec // standing acceleration, decays over time
	Instant      r2.Vec // one-shot acceleration, cleared on integration

	MinSpeedSq float64
	MaxSpeedSq float64

	Age      float64
	LifeLeft float64
	Alpha    uint8
	Color    color.RGBA

	Leader bool
}

// NewParticle creates a particle at pos heading along dir.
func NewParticle(id uint64, group int, pos, dir r2.Vec) Particle {
	return Particle{
		ID:           id,
		Group:        group,
		Position:     pos,
		PrevPosition: pos,
		Direction:    unitOr(dir, fallbackDir),
		Color:        color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Kinematics holds the integration tuning shared by all particles.
type Kinematics struct {
	SpeedRatio      float64 // global position step multiplier
	Friction        float64 // velocity decay rate per second
	Damping         float64 // acceleration decay rate per second
	ColorGuidance   float64 // steering rotation, radians per second
	VelocityCeiling float64 // velocity magnitude that triggers the sanity clamp
}

// Environment is what a particle integrates against.
type Environment struct {
	Field      Field
	SizeFactor float64
	Kinematics
}

// Alive reports whether the particle still has life left.
func (p *Particle) Alive() bool {
	return p.LifeLeft > 0
}

// ApplyForce accumulates f into the standing acceleration.
func (p *Particle) ApplyForce(f r2.Vec) {
	p.Acceleration = r2.Add(p.Acceleration, f)
	p.updateDirection()
}

// ApplyInstantForce accumulates f into the one-shot acceleration.
func (p *Particle) ApplyInstantForce(f r2.Vec) {
	p.Instant = r2.Add(p.Instant, f)
	p.updateDirection()
}

func (p *Particle) updateDirection() {
	next := r2.Add(p.Velocity, r2.Add(p.Acceleration, p.Instant))
	p.Direction = unitOr(next, p.Direction)
}

// UpdateTimer ages the particle and derives its alpha: a linear fade in over
// the first second of life and a fade out over the last.
func (p *Particle) UpdateTimer(delta float64) {
	p.Age += delta
	p.LifeLeft -= delta

	a := 1.0
	if p.Age < 1 {
		a = p.Age
	} else if p.LifeLeft < 1 {
		a = p.LifeLeft
	}
	p.Alpha = uint8(math.Max(0, math.Min(255, 255*a)))
}

// Integrate advances the particle by delta seconds. Without a field the call
// is a no-op.
func (p *Particle) Integrate(delta float64, env *Environment) {
	if env == nil || env.Field == nil {
		return
	}
	sf := env.SizeFactor
	if sf <= 0 {
		sf = 1
	}
	w := float64(env.Field.Width()) * sf
	h := float64(env.Field.Height()) * sf
	if w <= 0 || h <= 0 {
		return
	}

	p.PrevPosition = p.Position

	// Recover from accumulated numerical error before anything else.
	ceiling := env.VelocityCeiling
	if !finite(p.Velocity) || (ceiling > 0 && r2.Norm2(p.Velocity) > ceiling*ceiling) {
		dir := unitOr(p.Velocity, unitOr(p.Direction, fallbackDir))
		p.Velocity = r2.Scale(p.restSpeed(), dir)
	}

	p.Velocity = r2.Add(p.Velocity, r2.Add(p.Acceleration, p.Instant))
	p.Instant = r2.Vec{}

	p.Velocity = Sanitize(p.Velocity)
	p.Acceleration = Sanitize(p.Acceleration)
	p.Position = Sanitize(p.Position)
	p.wrap(w, h)
	p.Direction = unitOr(p.Velocity, p.Direction)

	p.steer(delta, sf, w, h, env)

	p.Velocity = r2.Scale(math.Exp(-env.Friction*delta), p.Velocity)
	p.limitSpeed()
	p.Direction = unitOr(p.Velocity, p.Direction)

	step := delta * env.SpeedRatio
	p.Position = Sanitize(r2.Add(p.Position, r2.Scale(step, p.Velocity)))
	p.wrap(w, h)

	p.Acceleration = r2.Scale(math.Exp(-env.Damping*delta), p.Acceleration)
}

// wrap keeps the particle on the torus; a wrap also resets the trail origin.
func (p *Particle) wrap(w, h float64) {
	pos, moved := Wrap(p.Position, w, h)
	if moved {
		p.Position = pos
		p.PrevPosition = pos
	}
}

// steer rotates the velocity toward whichever side sample shows less color
// change than the sample straight ahead, checking the counter-clockwise sample
// first.
func (p *Particle) steer(delta, sf, w, h float64, env *Environment) {
	cur := sampleColor(env.Field, p.Position, sf)
	p.Color = blendHalf(p.Color, cur)

	if env.ColorGuidance == 0 {
		return
	}

	ahead := r2.Scale(sampleDistance*sf, p.Direction)
	samples := [3]r2.Vec{
		ahead,
		r2.Rotate(ahead, sampleAngle, r2.Vec{}),
		r2.Rotate(ahead, -sampleAngle, r2.Vec{}),
	}
	var l [3]float64
	for i, off := range samples {
		at, _ := Wrap(r2.Add(p.Position, off), w, h)
		l[i] = colorDelta(cur, sampleColor(env.Field, at, sf))
	}

	// Clockwise turns are twice as fast as counter-clockwise ones.
	turn := env.ColorGuidance * delta
	switch {
	case l[1] < l[0]:
		p.Velocity = r2.Rotate(p.Velocity, turn, r2.Vec{})
	case l[2] < l[0]:
		p.Velocity = r2.Rotate(p.Velocity, -2*turn, r2.Vec{})
	}
}

// limitSpeed clamps |v|^2 into [MinSpeedSq, MaxSpeedSq] along the current
// heading. A degenerate range only enforces the maximum.
func (p *Particle) limitSpeed() {
	sq := r2.Norm2(p.Velocity)
	dir := unitOr(p.Velocity, unitOr(p.Direction, fallbackDir))
	switch {
	case sq > p.MaxSpeedSq && p.MaxSpeedSq >= 0:
		p.Velocity = r2.Scale(math.Sqrt(p.MaxSpeedSq), dir)
	case sq < p.MinSpeedSq && p.MinSpeedSq <= p.MaxSpeedSq:
		p.Velocity = r2.Scale(math.Sqrt(p.MinSpeedSq), dir)
	}
}

// restSpeed is the magnitude a runaway velocity is reset to.
func (p *Particle) restSpeed() float64 {
	if p.MaxSpeedSq > 0 {
		return math.Sqrt(p.MaxSpeedSq)
	}
	return 1
}

func sampleColor(f Field, pos r2.Vec, sf float64) color.RGBA {
	return f.ColorAt(int(pos.X/sf), int(pos.Y/sf))
}

// colorDelta is the saturating per-channel drop from a to b, doubled.
func colorDelta(a, b color.RGBA) float64 {
	sub := func(x, y uint8) float64 {
		if x > y {
			return float64(x - y)
		}
		return 0
	}
	return 2 * (sub(a.R, b.R) + sub(a.G, b.G) + sub(a.B, b.B))
}

func blendHalf(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(a.R) + uint16(b.R)) / 2),
		G: uint8((uint16(a.G) + uint16(b.G)) / 2),
		B: uint8((uint16(a.B) + uint16(b.B)) / 2),
		A: 255,
	}
}
