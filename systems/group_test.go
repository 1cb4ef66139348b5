package systems

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func testFrame(f Field) *Frame {
	fp := defaultFlockParams()
	return &Frame{
		Time:       1,
		Delta:      0.1,
		Modes:      ModeAll,
		Flock:      true,
		FlockRatio: 1,
		Flocking:   fp,
		Env: Environment{
			Field:      f,
			SizeFactor: 1,
			Kinematics: Kinematics{SpeedRatio: 1, VelocityCeiling: 1000},
		},
	}
}

func livingParticle(id uint64, pos r2.Vec, life float64) Particle {
	p := NewParticle(id, 0, pos, r2.Vec{X: 1})
	p.LifeLeft = life
	p.MinSpeedSq = 1
	p.MaxSpeedSq = 100
	return p
}

func TestGroupRemoval(t *testing.T) {
	g := NewGroup(3, 100, 100, 10)
	for i := 0; i < 5; i++ {
		g.Add(livingParticle(uint64(i), r2.Vec{X: float64(i)}, 1))
	}
	if g.Particles[0].Group != 3 {
		t.Errorf("particle group = %d, want 3", g.Particles[0].Group)
	}

	g.RemoveAt(1)
	if g.Len() != 4 || g.Particles[1].ID != 4 {
		t.Errorf("after swap-remove: len %d, slot 1 id %d; want 4 and 4", g.Len(), g.Particles[1].ID)
	}

	g.RemoveAt(-1)
	g.RemoveAt(99)
	if g.Len() != 4 {
		t.Errorf("out-of-range RemoveAt changed len to %d", g.Len())
	}

	if n := g.Truncate(10); n != 0 || g.Len() != 4 {
		t.Errorf("Truncate above len removed %d, len %d", n, g.Len())
	}
	if n := g.Truncate(1); n != 3 || g.Len() != 1 {
		t.Errorf("Truncate(1) removed %d, len %d; want 3 and 1", n, g.Len())
	}
	if n := g.Truncate(-5); n != 1 || g.Len() != 0 {
		t.Errorf("Truncate(-5) removed %d, len %d; want 1 and 0", n, g.Len())
	}
	if n := g.Truncate(0); n != 0 {
		t.Errorf("Truncate on empty group removed %d", n)
	}
}

func TestGroupUpdateCullsDead(t *testing.T) {
	g := NewGroup(0, 200, 200, 75)
	g.Add(livingParticle(1, r2.Vec{X: 10, Y: 10}, 0.05))
	g.Add(livingParticle(2, r2.Vec{X: 150, Y: 150}, 5))
	g.Add(livingParticle(3, r2.Vec{X: 20, Y: 180}, 0.1))

	g.Update(testFrame(flatField(200, 200)))

	if g.Len() != 1 || g.Particles[0].ID != 2 {
		t.Fatalf("survivors = %d (first id %d), want only id 2", g.Len(), g.Particles[0].ID)
	}
	if g.Grid.Len() != 1 {
		t.Errorf("grid holds %d entries, want 1", g.Grid.Len())
	}
	if g.Updates != 1 {
		t.Errorf("Updates = %d, want 1", g.Updates)
	}
}

func TestGroupUpdateGridConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g := NewGroup(0, 300, 200, 40)
	for i := 0; i < 150; i++ {
		p := livingParticle(uint64(i), r2.Vec{X: rng.Float64() * 300, Y: rng.Float64() * 200}, rng.Float64()*2)
		p.Velocity = r2.Vec{X: rng.Float64()*10 - 5, Y: rng.Float64()*10 - 5}
		g.Add(p)
	}

	field := flatField(300, 200)
	for tick := 0; tick < 30; tick++ {
		g.Update(testFrame(field))

		seen := make([]int, g.Len())
		for c := 0; c < g.Grid.NumCells(); c++ {
			for _, i := range g.Grid.Cell(c) {
				if i < 0 || i >= g.Len() {
					t.Fatalf("tick %d: stale index %d (len %d)", tick, i, g.Len())
				}
				seen[i]++
				if want := g.Grid.CellIndex(g.Particles[i].Position); c != want {
					t.Errorf("tick %d: particle %d in cell %d, want %d", tick, i, c, want)
				}
			}
		}
		for i, n := range seen {
			if n != 1 {
				t.Fatalf("tick %d: particle %d in %d cells, want 1", tick, i, n)
			}
			if !g.Particles[i].Alive() {
				t.Fatalf("tick %d: dead particle %d survived update", tick, i)
			}
		}
	}
}

func TestGroupPureSeparation(t *testing.T) {
	g := NewGroup(0, 200, 200, 75)
	origin := r2.Vec{X: 100, Y: 100}
	a := livingParticle(1, origin, 10)
	b := livingParticle(2, origin, 10)
	a.MinSpeedSq, b.MinSpeedSq = 0, 0
	g.Add(a)
	g.Add(b)

	f := testFrame(flatField(200, 200))
	f.Modes = ModeFlocking
	f.Flocking.Align, f.Flocking.Attract = 0, 0
	g.Update(f)

	da := r2.Sub(g.Particles[0].Position, origin)
	db := r2.Sub(g.Particles[1].Position, origin)
	if !finite(da) || !finite(db) {
		t.Fatalf("non-finite displacement a=%v b=%v", da, db)
	}
	if da.X == 0 || db.X == 0 || (da.X > 0) == (db.X > 0) {
		t.Errorf("displacements a=%v b=%v, want nonzero with opposite x signs", da, db)
	}
}

func TestGroupUpdateWithoutField(t *testing.T) {
	g := NewGroup(0, 100, 100, 75)
	p := livingParticle(1, r2.Vec{X: 30, Y: 30}, 5)
	p.Velocity = r2.Vec{X: 2, Y: 2}
	g.Add(p)

	g.Update(testFrame(nil))

	got := g.Particles[0]
	if got.Position != p.Position || got.Velocity != p.Velocity {
		t.Errorf("particle moved without field: %v -> %v", p.Position, got.Position)
	}
	if got.LifeLeft >= p.LifeLeft {
		t.Errorf("particle did not age: life %v -> %v", p.LifeLeft, got.LifeLeft)
	}
	if g.Grid.Len() != 1 {
		t.Errorf("grid holds %d entries, want 1", g.Grid.Len())
	}
}

func TestGroupFunctionForces(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := []ScalarFunc{constant(1)}

	g := NewGroup(0, 100, 100, 75)
	g.Add(livingParticle(1, r2.Vec{X: 50, Y: 50}, 5))

	f := testFrame(flatField(100, 100))
	f.Modes = ModeFunction
	f.FuncX = NewFunctionBlender(pool, 1, 2, rng)
	f.FuncY = NewFunctionBlender(pool, 1, 2, rng)
	f.FuncStrength = 10
	f.FuncFrequency = 1
	g.Update(f)

	acc := g.Particles[0].Acceleration
	if acc.X <= 0 || acc.Y <= 0 {
		t.Errorf("acceleration = %v, want pushed along (+, +)", acc)
	}
}

func BenchmarkGroupUpdate(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	g := NewGroup(0, 1280, 720, 75)
	for i := 0; i < 1000; i++ {
		g.Add(livingParticle(uint64(i), r2.Vec{X: rng.Float64() * 1280, Y: rng.Float64() * 720}, 1e9))
	}
	f := testFrame(flatField(1280, 720))
	f.FuncX = NewFunctionBlender(DefaultFunctions(1), 1, 2, rng)
	f.FuncY = NewFunctionBlender(DefaultFunctions(2), 1, 2, rng)
	f.FuncStrength = 1
	f.FuncFrequency = 0.5
	f.FieldStrength = 1

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		g.Update(f)
	}
}
