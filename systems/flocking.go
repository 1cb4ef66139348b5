package systems

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// strengthEpsilon is the strength below which a band is skipped entirely.
const strengthEpsilon = 1e-4

// FlockParams configures the three flocking bands. Thresholds are fractions
// of the squared zone radius.
type FlockParams struct {
	Repel          float64 `yaml:"repel"`
	Align          float64 `yaml:"align"`
	Attract        float64 `yaml:"attract"`
	LowThreshold   float64 `yaml:"low_threshold"`
	HighThreshold  float64 `yaml:"high_threshold"`
	ZoneRadius     float64 `yaml:"zone_radius"`
	UpdateInterval float64 `yaml:"update_interval"` // seconds between flocking passes
}

// Flock runs one flocking pass over grp. Every particle queries the group
// grid, so each unordered pair is visited once from each side and both
// visits apply the pair force to both particles. ratio scales all forces by
// the real time elapsed since the previous pass.
func Flock(grp *Group, fp FlockParams, ratio float64) {
	ps := grp.Particles
	if len(ps) < 2 || fp.ZoneRadius <= 0 {
		return
	}

	zoneSq := fp.ZoneRadius * fp.ZoneRadius
	low, high := fp.LowThreshold, fp.HighThreshold

	visit := func(_ *SpatialGrid, i, j int) {
		if i == j {
			return
		}
		a, b := &ps[i], &ps[j]
		dir := r2.Sub(a.Position, b.Position)
		d2 := r2.Norm2(dir)
		if d2 >= zoneSq {
			return
		}
		pct := d2 / zoneSq

		switch {
		case pct < low:
			if fp.Repel < strengthEpsilon {
				return
			}
			f := r2.Scale(low*fp.Repel*ratio, separationDir(dir, a.ID, b.ID))
			push(a, f)
			push(b, r2.Scale(-1, f))

		case pct < high:
			if fp.Align < strengthEpsilon {
				return
			}
			t := (pct - low) / (high - low)
			f := easeBand(t) * fp.Align * ratio
			push(a, r2.Scale(f, b.Direction))
			push(b, r2.Scale(f, a.Direction))

		default:
			if fp.Attract < strengthEpsilon || d2 == 0 {
				return
			}
			t := 0.0
			if span := 1 - high; span > 0 {
				t = (pct - high) / span
			}
			f := r2.Scale(easeBand(t)*fp.Attract*ratio, r2.Unit(dir))
			push(a, r2.Scale(-1, f))
			push(b, f)
		}
	}

	for i := range ps {
		grp.Grid.ForEachInRadius(i, ps[i].Position, fp.ZoneRadius, visit)
	}
}

// push applies f to p. Leaders exert forces but never receive them.
func push(p *Particle, f r2.Vec) {
	if p.Leader {
		return
	}
	p.ApplyForce(f)
}

// separationDir returns the unit vector from b to a. Coincident particles are
// separated along the x axis, ordered by id so the two visits of the pair
// agree on the direction.
func separationDir(d r2.Vec, aID, bID uint64) r2.Vec {
	if d.X != 0 || d.Y != 0 {
		return r2.Unit(d)
	}
	if aID < bID {
		return fallbackDir
	}
	return r2.Scale(-1, fallbackDir)
}
