// Package systems provides the simulation core: particles, the spatial grid,
// flocking, function blending and group updates.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// maxCellsPerAxis bounds the grid resolution. Cells grow beyond the requested
// size when the field is wider than maxCellsPerAxis cells.
const maxCellsPerAxis = 256

// RadiusVisitor is called for every candidate found by ForEachInRadius.
// source and candidate are arena indices; source may equal candidate.
type RadiusVisitor func(g *SpatialGrid, source, candidate int)

// Visitor is called once per element by DrainAndApply.
type Visitor func(g *SpatialGrid, idx int)

// SpatialGrid is a uniform cell grid over a 2D field. Cells hold indices into
// the owning group's particle arena, never the particles themselves.
type SpatialGrid struct {
	cellSize float64
	width    float64
	height   float64
	cols     int
	rows     int
	cells    [][]int
	spare    [][]int // drained cells, reused by the next DrainAndApply
	count    int
}

// NewSpatialGrid creates a grid covering width x height with square cells.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	g := &SpatialGrid{}
	g.Resize(width, height, cellSize)
	return g
}

// Resize changes the grid geometry. All contents are dropped.
func (g *SpatialGrid) Resize(width, height, cellSize float64) {
	if !(width > 0) || math.IsInf(width, 0) {
		width = 0
	}
	if !(height > 0) || math.IsInf(height, 0) {
		height = 0
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = 1
	}
	cellSize = math.Max(cellSize, math.Max(width, height)/maxCellsPerAxis)

	g.cellSize = cellSize
	g.width = width
	g.height = height
	g.cols = int(width/cellSize) + 1
	g.rows = int(height/cellSize) + 1

	n := g.cols * g.rows
	g.cells = make([][]int, n)
	g.spare = make([][]int, n)
	for i := range g.cells {
		g.cells[i] = make([]int, 0, 8)
	}
	g.count = 0
}

// Clear removes all entries, keeping cell capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert appends idx to the cell covering pos. O(1).
func (g *SpatialGrid) Insert(idx int, pos r2.Vec) {
	c := g.CellIndex(pos)
	g.cells[c] = append(g.cells[c], idx)
	g.count++
}

// ForEachInRadius visits every entry in the cells intersecting the square of
// side 2*radius centred on pos. Candidates are not filtered by true distance;
// that is left to the visitor. Visit order is row-major over cells, then
// insertion order within a cell.
func (g *SpatialGrid) ForEachInRadius(source int, pos r2.Vec, radius float64, visit RadiusVisitor) {
	if g.count == 0 || !finite(pos) || math.IsNaN(radius) {
		return
	}
	radius = math.Abs(radius)

	x0 := g.clampCol(math.Floor((pos.X - radius) / g.cellSize))
	x1 := g.clampCol(math.Floor((pos.X + radius) / g.cellSize))
	y0 := g.clampRow(math.Floor((pos.Y - radius) / g.cellSize))
	y1 := g.clampRow(math.Floor((pos.Y + radius) / g.cellSize))

	for y := y0; y <= y1; y++ {
		row := y * g.cols
		for x := x0; x <= x1; x++ {
			for _, e := range g.cells[row+x] {
				visit(g, source, e)
			}
		}
	}
}

// DrainAndApply snapshots and empties every cell, then calls visit once per
// snapshotted entry. The visitor may Insert into the now-empty grid; entries
// it does not reinsert are gone.
func (g *SpatialGrid) DrainAndApply(visit Visitor) {
	drained := g.cells
	g.cells = g.spare
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0

	for _, cell := range drained {
		for _, e := range cell {
			visit(g, e)
		}
	}

	for i := range drained {
		drained[i] = drained[i][:0]
	}
	g.spare = drained
}

// CellIndex returns the flat cell index covering pos. Coordinates outside the
// field are clamped onto the border cells.
func (g *SpatialGrid) CellIndex(pos r2.Vec) int {
	col := g.clampCol(math.Floor(pos.X / g.cellSize))
	row := g.clampRow(math.Floor(pos.Y / g.cellSize))
	return row*g.cols + col
}

// Cell returns the entries of cell i. The slice is owned by the grid.
func (g *SpatialGrid) Cell(i int) []int {
	if i < 0 || i >= len(g.cells) {
		return nil
	}
	return g.cells[i]
}

// NumCells returns the number of cells.
func (g *SpatialGrid) NumCells() int {
	return len(g.cells)
}

// Len returns the number of entries currently stored.
func (g *SpatialGrid) Len() int {
	return g.count
}

// CellSize returns the cell edge length.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

func (g *SpatialGrid) clampCol(f float64) int {
	return clampFloor(f, g.cols-1)
}

func (g *SpatialGrid) clampRow(f float64) int {
	return clampFloor(f, g.rows-1)
}

// clampFloor converts an already floored coordinate to an int in [0, hi]
// without overflowing on huge or non-finite inputs.
func clampFloor(f float64, hi int) int {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= float64(hi) {
		return hi
	}
	return clampInt(int(f), 0, hi)
}
