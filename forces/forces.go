// Package forces implements the pairwise force evaluator: the parallel,
// per-cell computation of impulses from the current grid state, type
// table and edge parameters.
//
// Grounded on the teacher's game.updateBehaviorAndPhysicsParallel, which
// chunks an entity snapshot across goroutines and writes results into a
// parallel intents slice with no shared mutable state between workers.
// Here the unit of parallel work is a grid cell rather than an entity
// snapshot slice, since the spec requires data-parallel-over-cells.
package forces

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particlelife/components"
	"github.com/pthm-cable/particlelife/grid"
	"github.com/pthm-cable/particlelife/matrix"
	"github.com/pthm-cable/particlelife/typetable"
)

// ParticleRadius is the normative constant from the spec; it sets both the
// close-range repulsion scale and the boundary between the 1/r^2
// attraction regime and close-range repulsion.
const ParticleRadius = 5.0

// EdgeType selects the policy applied to a particle that leaves the world
// during integration, and (for Wrapping) how the force evaluator resolves
// out-of-range neighbour cells.
type EdgeType int

const (
	// EdgeWrapping treats the world as a torus: out-of-range neighbours
	// wrap around, and particles that exit on one side reappear on the
	// opposite side.
	EdgeWrapping EdgeType = iota
	// EdgeDeleting removes a particle that leaves the world; out-of-range
	// neighbours contribute no force.
	EdgeDeleting
	// EdgeBouncing clamps a particle to the world rectangle and reflects
	// its velocity on any clamped axis; out-of-range neighbours
	// contribute no force.
	EdgeBouncing
)

// BounceParams configures the EdgeBouncing policy's velocity response.
type BounceParams struct {
	Multiplier float64
	Pushback   float64
}

// Params bundles the edge policy and the ejection-prevention toggle the
// force evaluator and re-bucketer both consult.
type Params struct {
	EdgeType                EdgeType
	Bounce                  BounceParams
	PreventParticleEjecting bool
}

// Impulse is the additive velocity change accumulated for one particle
// during a single force-evaluation pass, before integration applies it.
type Impulse struct {
	DX, DY float64
}

// Add returns the componentwise sum of two impulses.
func (i Impulse) Add(o Impulse) Impulse {
	return Impulse{DX: i.DX + o.DX, DY: i.DY + o.DY}
}

// Maps bundles the component accessors the evaluator needs to read
// particle state by entity handle.
type Maps struct {
	Pos     *ecs.Map1[components.Position]
	Species *ecs.Map1[components.Species]
}

// Evaluate fills scratch so that scratch cell (cx,cy) holds one impulse
// per particle currently bucketed in grid cell (cx,cy), in the same
// order as g.Entities(cx,cy). Cells are processed in parallel; within a
// cell, particles are processed sequentially. scratch is resized in
// place and may be reused across steps.
func Evaluate(g *grid.Grid, tt *typetable.TypeTable, p Params, m Maps, scratch *matrix.Matrix[[]Impulse]) {
	cells := make([]grid.Cell, 0, g.Width()*g.Height())
	g.Cells(func(c grid.Cell) { cells = append(cells, c) })

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(cells) {
		numWorkers = len(cells)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	chunkSize := (len(cells) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(cells) {
			end = len(cells)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(chunk []grid.Cell) {
			defer wg.Done()
			for _, c := range chunk {
				evaluateCell(g, tt, p, m, scratch, c)
			}
		}(cells[start:end])
	}
	wg.Wait()
}

func evaluateCell(g *grid.Grid, tt *typetable.TypeTable, p Params, m Maps, scratch *matrix.Matrix[[]Impulse], c grid.Cell) {
	entities := g.Entities(c)
	n := len(entities)

	out := scratch.Ptr(c.X, c.Y)
	if cap(*out) < n {
		*out = make([]Impulse, n)
	} else {
		*out = (*out)[:n]
	}
	for k := range *out {
		(*out)[k] = Impulse{}
	}

	cutoff := g.CellSize()

	for i, pe := range entities {
		pp := *m.Pos.Get(pe)
		ps := m.Species.Get(pe).Index

		var acc Impulse

		// Same-cell pairs: every other particle, both directions evaluated
		// independently (no Newton's-third-law fusion).
		for j, qe := range entities {
			if i == j {
				continue
			}
			qp := *m.Pos.Get(qe)
			qs := m.Species.Get(qe).Index
			acc = acc.Add(pairForce(tt, p, pp, ps, qp, qs, cutoff))
		}

		// Eight neighbour cells.
		for _, off := range grid.Offsets {
			var (
				nc       grid.Cell
				wdx, wdy float64
				ok       bool
			)
			if p.EdgeType == EdgeWrapping {
				nc, wdx, wdy = g.WrappedNeighbour(c, off[0], off[1])
				ok = true
			} else {
				nc, ok = g.Neighbour(c, off[0], off[1])
			}
			if !ok {
				continue
			}
			for _, qe := range g.Entities(nc) {
				real := *m.Pos.Get(qe)
				virtual := components.Position{X: real.X + wdx, Y: real.Y + wdy}
				qs := m.Species.Get(qe).Index
				acc = acc.Add(pairForce(tt, p, pp, ps, virtual, qs, cutoff))
			}
		}

		(*out)[i] = acc
	}
}

// pairForce implements the per-pair force law of SPEC_FULL.md §4.2.
func pairForce(tt *typetable.TypeTable, p Params, pp components.Position, ps int, qp components.Position, qs int, cutoff float64) Impulse {
	dx := qp.X - pp.X
	dy := qp.Y - pp.Y

	if dx == 0 && dy == 0 {
		dx = jitterComponent()
		dy = jitterComponent()
	}

	r2 := dx*dx + dy*dy
	if r2 > cutoff*cutoff {
		return Impulse{}
	}

	const closeRange = 2 * ParticleRadius
	var a float64
	switch {
	case r2 > closeRange*closeRange:
		a = tt.Scaled(ps, qs) / r2
	case p.PreventParticleEjecting && r2 < 1:
		a = ParticleRadius / math.Sqrt(r2)
	default:
		a = -ParticleRadius / r2
	}

	return Impulse{DX: a * dx, DY: a * dy}
}

// jitterComponent draws a value in [-0.1, 0.1] \ {0}, used only on the
// zero-distance cold path. math/rand's package-level functions are safe
// for concurrent use by multiple goroutines.
func jitterComponent() float64 {
	for {
		v := (rand.Float64()*2 - 1) * 0.1
		if v != 0 {
			return v
		}
	}
}
