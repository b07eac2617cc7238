// Package grid implements the uniform spatial-hash grid that buckets
// particles by position so the force evaluator only ever looks at a
// particle's own cell and its eight neighbours.
//
// Grounded on the teacher's systems.SpatialGrid, generalised from a fixed
// vision-radius neighbour query over a single flat []ecs.Entity matrix to
// an explicit Cell-addressed bucket grid whose neighbour offsets and wrap
// handling are driven by the caller (the force evaluator and re-bucketer
// in package forces/sim, which alone know the active edge policy).
package grid

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particlelife/matrix"
	"github.com/pthm-cable/particlelife/simerr"
)

// Cell is a bucket coordinate, 0 <= X < Width(), 0 <= Y < Height().
type Cell struct {
	X, Y int
}

// Offsets enumerates the eight neighbour directions around a cell, in the
// order the spec's force evaluator traverses them. The cell itself is
// handled separately by callers.
var Offsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Grid is a W x H matrix of variable-length particle buckets.
type Grid struct {
	cellSize float64
	cells    *matrix.Matrix[[]ecs.Entity]
}

// New allocates a Grid with w x h cells of the given edge length. w and h
// must each be at least 3, so that 8-neighbour traversal never wraps a
// cell into itself (see SPEC_FULL.md §9 on the degenerate small-world
// question); cellSize must be positive.
func New(w, h int, cellSize float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("grid: cellSize=%v: %w", cellSize, simerr.ErrInvalidCellSize)
	}
	if w < 3 || h < 3 {
		return nil, fmt.Errorf("grid: %dx%d: %w", w, h, simerr.ErrInvalidGridSize)
	}
	cells := matrix.New[[]ecs.Entity](w, h)
	cells.Each(func(x, y int, _ []ecs.Entity) {
		cells.Set(x, y, make([]ecs.Entity, 0, 4))
	})
	return &Grid{cellSize: cellSize, cells: cells}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.cells.Width() }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.cells.Height() }

// CellSize returns the edge length of one cell.
func (g *Grid) CellSize() float64 { return g.cellSize }

// WorldSize returns (Width*CellSize, Height*CellSize), the extent of the
// world rectangle this grid covers.
func (g *Grid) WorldSize() (float64, float64) {
	return float64(g.Width()) * g.cellSize, float64(g.Height()) * g.cellSize
}

// CellOf returns the cell a world position maps to via Euclidean-floor
// division, or ok=false if the position lies outside the world (including
// any negative component).
func (g *Grid) CellOf(x, y float64) (cell Cell, ok bool) {
	if x < 0 || y < 0 {
		return Cell{}, false
	}
	cx := int(math.Floor(x / g.cellSize))
	cy := int(math.Floor(y / g.cellSize))
	if !g.cells.InBounds(cx, cy) {
		return Cell{}, false
	}
	return Cell{X: cx, Y: cy}, true
}

// Insert places e into the cell indicated by (x, y). Reports false without
// modifying the grid if the position is outside the world; the grid does
// not otherwise validate that (x, y) is the entity's true position.
func (g *Grid) Insert(e ecs.Entity, x, y float64) bool {
	c, ok := g.CellOf(x, y)
	if !ok {
		return false
	}
	g.InsertAt(c, e)
	return true
}

// InsertAt appends e to a cell already known to be in range, skipping the
// CellOf computation. Used by the re-bucketer once it has resolved an
// edge policy's target cell.
func (g *Grid) InsertAt(c Cell, e ecs.Entity) {
	p := g.cells.Ptr(c.X, c.Y)
	*p = append(*p, e)
}

// Clear empties every cell, preserving dimensions and cell capacity.
func (g *Grid) Clear() {
	g.cells.Each(func(x, y int, cell []ecs.Entity) {
		*g.cells.Ptr(x, y) = cell[:0]
	})
}

// Entities returns the particles currently bucketed in cell c. The
// returned slice aliases grid-owned storage and must not be retained
// across a Clear or re-bucketing pass.
func (g *Grid) Entities(c Cell) []ecs.Entity {
	return g.cells.At(c.X, c.Y)
}

// CellPtr exposes a pointer to cell c's entity slice for in-place
// extraction during re-bucketing (swap-remove of out-of-cell particles).
func (g *Grid) CellPtr(c Cell) *[]ecs.Entity {
	return g.cells.Ptr(c.X, c.Y)
}

// Neighbour resolves the cell reached from c by one of Offsets, without
// any wrap handling: ok is false if the result falls outside the grid.
// Wrap-around (toroidal) resolution is the caller's responsibility, since
// it depends on the active edge policy, not on the grid itself.
func (g *Grid) Neighbour(c Cell, dx, dy int) (Cell, bool) {
	nx, ny := c.X+dx, c.Y+dy
	if !g.cells.InBounds(nx, ny) {
		return Cell{}, false
	}
	return Cell{X: nx, Y: ny}, true
}

// WrappedNeighbour resolves the cell reached from c by one of Offsets
// under toroidal wrap-around, returning the wrapped cell together with
// the world-space offset (in +/-Width*CellSize, +/-Height*CellSize) that
// must be added to that cell's particles' real positions to recover the
// toroidal-shortest delta from c.
func (g *Grid) WrappedNeighbour(c Cell, dx, dy int) (cell Cell, worldDX, worldDY float64) {
	w, h := g.Width(), g.Height()
	nx, ny := c.X+dx, c.Y+dy

	switch {
	case nx < 0:
		nx += w
		worldDX = -float64(w) * g.cellSize
	case nx >= w:
		nx -= w
		worldDX = float64(w) * g.cellSize
	}
	switch {
	case ny < 0:
		ny += h
		worldDY = -float64(h) * g.cellSize
	case ny >= h:
		ny -= h
		worldDY = float64(h) * g.cellSize
	}
	return Cell{X: nx, Y: ny}, worldDX, worldDY
}

// Cells calls fn once for every cell coordinate in the grid, row-major.
func (g *Grid) Cells(fn func(c Cell)) {
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			fn(Cell{X: x, Y: y})
		}
	}
}
