package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Frame holds the read-only inputs of one group update. A single Frame is
// shared by every worker during a tick.
type Frame struct {
	Time  float64
	Delta float64
	Modes UpdateMode

	Flock      bool    // run a flocking pass this tick
	FlockRatio float64 // elapsed time since the last pass / interval
	Flocking   FlockParams

	Env Environment

	FuncX         *FunctionBlender
	FuncY         *FunctionBlender
	FuncStrength  float64
	FuncFrequency float64

	FieldStrength float64
}

// Group is an arena of particles plus the spatial grid indexing it. It is the
// unit of parallel work: one worker owns a group for a whole tick.
type Group struct {
	Index     int
	Particles []Particle
	Grid      *SpatialGrid

	// Updates counts completed calls to Update.
	Updates uint64
	// Culled counts particles removed by Update after their lifetime ran out.
	Culled uint64

	dirty bool
}

// NewGroup creates an empty group whose grid covers width x height.
func NewGroup(index int, width, height, cellSize float64) *Group {
	return &Group{
		Index:     index,
		Particles: make([]Particle, 0, 64),
		Grid:      NewSpatialGrid(width, height, cellSize),
	}
}

// Len returns the number of live particles.
func (g *Group) Len() int {
	return len(g.Particles)
}

// Add appends p to the arena.
func (g *Group) Add(p Particle) {
	p.Group = g.Index
	g.Particles = append(g.Particles, p)
	g.dirty = true
}

// RemoveAt swap-removes the particle at i. Out-of-range indices are ignored.
func (g *Group) RemoveAt(i int) {
	n := len(g.Particles)
	if i < 0 || i >= n {
		return
	}
	g.Particles[i] = g.Particles[n-1]
	g.Particles[n-1] = Particle{}
	g.Particles = g.Particles[:n-1]
	g.dirty = true
}

// Truncate removes particles from the end until at most n remain and
// returns how many were removed.
func (g *Group) Truncate(n int) int {
	if n < 0 {
		n = 0
	}
	if n >= len(g.Particles) {
		return 0
	}
	removed := len(g.Particles) - n
	clear(g.Particles[n:])
	g.Particles = g.Particles[:n]
	g.dirty = true
	return removed
}

// Cull removes every particle without life left and returns the count.
func (g *Group) Cull() int {
	removed := 0
	for i := 0; i < len(g.Particles); {
		if g.Particles[i].Alive() {
			i++
			continue
		}
		g.RemoveAt(i)
		removed++
	}
	return removed
}

// Leaders returns the number of flock leaders in the group.
func (g *Group) Leaders() int {
	n := 0
	for i := range g.Particles {
		if g.Particles[i].Leader {
			n++
		}
	}
	return n
}

// Resize changes the grid geometry; the grid is rebuilt on the next update.
func (g *Group) Resize(width, height, cellSize float64) {
	g.Grid.Resize(width, height, cellSize)
	g.dirty = true
}

// RebuildGrid reinserts every particle at its current position.
func (g *Group) RebuildGrid() {
	g.Grid.Clear()
	for i := range g.Particles {
		g.Grid.Insert(i, g.Particles[i].Position)
	}
	g.dirty = false
}

// Release drops all particles.
func (g *Group) Release() {
	g.Particles = nil
	g.Grid.Clear()
}

// Update advances the group by one tick: age and cull, apply the enabled
// forces, integrate, and rebuild the grid from the survivors.
func (g *Group) Update(f *Frame) {
	for i := range g.Particles {
		g.Particles[i].UpdateTimer(f.Delta)
	}
	g.Culled += uint64(g.Cull())

	if g.dirty || g.Grid.Len() != len(g.Particles) {
		g.RebuildGrid()
	}

	if f.Env.Field != nil {
		if f.Modes.Has(ModeFunction) && f.FuncX != nil && f.FuncY != nil {
			g.applyFunctions(f)
		}
		if f.Modes.Has(ModeField) && f.FieldStrength != 0 {
			g.applyField(f)
		}
		if f.Modes.Has(ModeFlocking) && f.Flock {
			Flock(g, f.Flocking, f.FlockRatio)
		}
	}

	ps := g.Particles
	g.Grid.DrainAndApply(func(grid *SpatialGrid, i int) {
		p := &ps[i]
		p.Integrate(f.Delta, &f.Env)
		grid.Insert(i, p.Position)
	})

	g.Updates++
}

// applyFunctions pushes every particle along the blended procedural functions,
// phase-shifted by its position so neighbouring particles move coherently.
func (g *Group) applyFunctions(f *Frame) {
	w, h := fieldExtent(&f.Env)
	phase := f.Time * f.FuncFrequency
	scale := f.FuncStrength * f.Delta
	for i := range g.Particles {
		p := &g.Particles[i]
		fx := f.FuncX.Evaluate(phase + p.Position.Y/h*2*math.Pi)
		fy := f.FuncY.Evaluate(phase + p.Position.X/w*2*math.Pi)
		p.ApplyForce(r2.Scale(scale, r2.Vec{X: fx, Y: fy}))
	}
}

// applyField pushes every particle along the field vector under it.
func (g *Group) applyField(f *Frame) {
	sf := sizeFactor(&f.Env)
	scale := f.FieldStrength * f.Delta
	for i := range g.Particles {
		p := &g.Particles[i]
		v := f.Env.Field.VectorAt(int(p.Position.X/sf), int(p.Position.Y/sf))
		p.ApplyForce(r2.Scale(scale, Sanitize(v)))
	}
}

func sizeFactor(env *Environment) float64 {
	if env.SizeFactor <= 0 {
		return 1
	}
	return env.SizeFactor
}

// fieldExtent returns the simulation extent of env's field, never zero.
func fieldExtent(env *Environment) (w, h float64) {
	sf := sizeFactor(env)
	w = math.Max(float64(env.Field.Width())*sf, 1)
	h = math.Max(float64(env.Field.Height())*sf, 1)
	return w, h
}
