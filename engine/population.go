package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/systems"
)

// headingSpread is the width of the random heading fan around a group's base
// angle.
const headingSpread = 0.8 * math.Pi

// controlPopulation brings the group count and each group's size toward the
// targets in cfg. Excess particles are truncated at once; missing particles
// are spawned at most SpawnPerTick per group per tick.
func (e *Engine) controlPopulation(cfg *Config, w, h float64) {
	target := max(cfg.Groups, 0)
	if len(e.groups) != target {
		before := len(e.groups)
		e.resizeGroupList(target, w, h, cfg.Flocking.ZoneRadius)
		e.log.Info("groups changed", "from", before, "to", target)
	}

	for _, g := range e.groups {
		want := max(cfg.ParticlesPerGroup, 0)
		if n := g.Truncate(want); n > 0 {
			e.counts.Trimmed += uint64(n)
			continue
		}

		deficit := want - g.Len()
		if deficit <= 0 {
			continue
		}
		n := min(deficit, max(cfg.SpawnPerTick, 1))
		e.spawn(g, n, cfg, w, h)
	}
}

// resizeGroupList adds empty groups or drops groups from the end.
func (e *Engine) resizeGroupList(n int, w, h, cell float64) {
	for len(e.groups) > n {
		last := len(e.groups) - 1
		e.culledReleased += e.groups[last].Culled
		e.groups[last].Release()
		e.groups[last] = nil
		e.groups = e.groups[:last]
	}
	for len(e.groups) < n {
		e.groups = append(e.groups, systems.NewGroup(len(e.groups), w, h, cell))
	}
}

// spawn adds n particles to g inside a random emission rectangle covering
// EmissionArea of the field. Each group has its own base heading so groups
// stream in different directions.
func (e *Engine) spawn(g *systems.Group, n int, cfg *Config, w, h float64) {
	area := cfg.EmissionArea
	if area <= 0 || area > 1 || math.IsNaN(area) {
		area = 1
	}
	ew, eh := w*area, h*area
	ox := e.rng.Float64() * (w - ew)
	oy := e.rng.Float64() * (h - eh)

	base := 2 * math.Pi * float64(g.Index) / float64(max(len(e.groups), 1))
	leaders := g.Leaders()

	for i := 0; i < n; i++ {
		pos := r2.Vec{
			X: ox + e.rng.Float64()*ew,
			Y: oy + e.rng.Float64()*eh,
		}
		angle := base + e.rng.Float64()*headingSpread
		dir := r2.Vec{X: math.Sin(angle), Y: math.Cos(angle)}

		e.nextID++
		p := systems.NewParticle(e.nextID, g.Index, pos, dir)

		lo := e.draw(cfg.MinSpeedSq)
		hi := e.draw(cfg.MaxSpeedSq)
		p.MinSpeedSq = math.Min(lo, hi)
		p.MaxSpeedSq = hi
		p.LifeLeft = e.draw(cfg.Lifetime)
		p.Acceleration = r2.Scale(cfg.InitialKick, p.Direction)

		if leaders < cfg.LeadersPerGroup {
			p.Leader = true
			leaders++
		}

		g.Add(p)
		e.counts.Spawned++
	}
}

// draw returns a uniform sample from r, tolerating an inverted range.
func (e *Engine) draw(r systems.Range) float64 {
	r = ordered(r)
	return r.Min + e.rng.Float64()*(r.Max-r.Min)
}
