package engine

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/telemetry"
)

// ParticleView is the read-only projection of a particle handed to renderers
// and streams.
type ParticleView struct {
	ID           uint64
	Group        int
	Position     r2.Vec
	PrevPosition r2.Vec
	Velocity     r2.Vec
	Direction    r2.Vec
	Alpha        uint8
	Color        color.RGBA
	Leader       bool
}

// Snapshot appends every live particle to dst and returns the extended
// slice. It blocks while a tick is running.
func (e *Engine) Snapshot(dst []ParticleView) []ParticleView {
	e.ForEachParticle(func(v ParticleView) {
		dst = append(dst, v)
	})
	return dst
}

// ForEachParticle calls fn for every live particle, group by group. fn must
// not call back into the engine.
func (e *Engine) ForEachParticle(fn func(ParticleView)) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	for _, g := range e.groups {
		for i := range g.Particles {
			p := &g.Particles[i]
			fn(ParticleView{
				ID:           p.ID,
				Group:        p.Group,
				Position:     p.Position,
				PrevPosition: p.PrevPosition,
				Velocity:     p.Velocity,
				Direction:    p.Direction,
				Alpha:        p.Alpha,
				Color:        p.Color,
				Leader:       p.Leader,
			})
		}
	}
}

// Stats returns the current population and cumulative event counts.
func (e *Engine) Stats() telemetry.Counts {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	c := e.counts
	c.Groups = len(e.groups)
	c.Culled = e.culledReleased
	for _, g := range e.groups {
		c.Particles += g.Len()
		c.Leaders += g.Leaders()
		c.Culled += g.Culled
	}
	return c
}

// GroupSizes returns the particle count of every group.
func (e *Engine) GroupSizes() []int {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	sizes := make([]int, len(e.groups))
	for i, g := range e.groups {
		sizes[i] = g.Len()
	}
	return sizes
}
