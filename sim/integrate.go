package sim

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particlelife/forces"
	"github.com/pthm-cable/particlelife/grid"
)

// bounceEpsilon is the clamp inset used by the Bouncing edge policy, per
// SPEC_FULL.md §4.4.
const bounceEpsilon = 1e-5

// Step advances the simulation by one tick: force evaluation, integration,
// and re-bucketing, in that order, and updates Meta's timing fields.
// Grounded on the teacher's Game.Update phase pipeline (behavior ->
// physics -> cleanup), generalised to the spec's three-phase tick.
func (s *Simulation) Step() error {
	start := time.Now()

	s.EvaluateForces()
	s.Integrate()
	s.Rebucket()

	s.Meta.TickTime = time.Since(start)
	s.Meta.TotalTime += s.Meta.TickTime
	return nil
}

// EvaluateForces fills the impulse scratch from the current grid state,
// type table and parameters (SPEC_FULL.md §4.2). Exposed as its own
// phase so a caller driving the tick itself (package protocol) can time
// it separately from Integrate and Rebucket.
func (s *Simulation) EvaluateForces() {
	maps := forces.Maps{Pos: s.posMap, Species: s.specMap}
	forces.Evaluate(s.grid, s.types, s.Params, maps, s.scratch)
}

// Integrate applies SPEC_FULL.md §4.3 to every particle in place: velocity
// accumulates the step's impulse, position advances by half the updated
// velocity, then velocity is damped.
func (s *Simulation) Integrate() {
	s.grid.Cells(func(c grid.Cell) {
		entities := s.grid.Entities(c)
		impulses := s.scratch.At(c.X, c.Y)
		for i, e := range entities {
			vel := s.velMap.Get(e)
			pos := s.posMap.Get(e)

			vel.X += impulses[i].DX
			vel.Y += impulses[i].DY

			pos.X += vel.X / 2
			pos.Y += vel.Y / 2

			vel.X *= 0.9
			vel.Y *= 0.9
		}
	})
}

// Rebucket implements SPEC_FULL.md §4.4: every cell's out-of-cell
// particles are extracted in parallel, chunked by cell the same way
// forces.Evaluate chunks its cell scan, then rejoined serially so that
// re-insertion into a shared destination cell is never raced. Each
// worker only ever mutates the cells in its own chunk, so the extraction
// pass itself needs no locking.
func (s *Simulation) Rebucket() {
	type displaced struct {
		entity ecs.Entity
		from   grid.Cell
	}

	cells := make([]grid.Cell, 0, s.grid.Width()*s.grid.Height())
	s.grid.Cells(func(c grid.Cell) { cells = append(cells, c) })

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(cells) {
		numWorkers = len(cells)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	chunkSize := (len(cells) + numWorkers - 1) / numWorkers

	strayChunks := make([][]displaced, numWorkers)
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
		go func(idx int, chunk []grid.Cell) {
			defer wg.Done()
			var strays []displaced
			for _, c := range chunk {
				ptr := s.grid.CellPtr(c)
				kept := (*ptr)[:0]
				for _, e := range *ptr {
					pos := *s.posMap.Get(e)
					if cell, ok := s.grid.CellOf(pos.X, pos.Y); ok && cell == c {
						kept = append(kept, e)
						continue
					}
					strays = append(strays, displaced{entity: e, from: c})
				}
				*ptr = kept
			}
			strayChunks[idx] = strays
		}(w, cells[start:end])
	}
	wg.Wait()

	for _, strays := range strayChunks {
		for _, d := range strays {
			s.rejoin(d.entity)
		}
	}
}

// rejoin resolves e's new cell under the active edge policy and re-inserts
// it, applying the Wrapping/Bouncing/Deleting logic of SPEC_FULL.md §4.4.
func (s *Simulation) rejoin(e ecs.Entity) {
	pos := s.posMap.Get(e)
	if cell, ok := s.grid.CellOf(pos.X, pos.Y); ok {
		s.grid.InsertAt(cell, e)
		return
	}

	switch s.Params.EdgeType {
	case forces.EdgeWrapping:
		w, h := s.grid.WorldSize()
		pos.X = euclideanMod(pos.X, w)
		pos.Y = euclideanMod(pos.Y, h)
		cell, _ := s.grid.CellOf(pos.X, pos.Y)
		s.grid.InsertAt(cell, e)

	case forces.EdgeBouncing:
		vel := s.velMap.Get(e)
		w, h := s.grid.WorldSize()
		bounceAxis(&pos.X, &vel.X, w, s.Params.Bounce)
		bounceAxis(&pos.Y, &vel.Y, h, s.Params.Bounce)
		cell, _ := s.grid.CellOf(pos.X, pos.Y)
		s.grid.InsertAt(cell, e)

	case forces.EdgeDeleting:
		s.mapper.Remove(e)
		s.Meta.NumParticles--
	}
}

// bounceAxis clamps one coordinate into [0, extent-epsilon] and replaces
// its velocity component with sign*(|v|*multiplier + pushback), per
// SPEC_FULL.md §4.4's Bouncing policy.
func bounceAxis(coord, vel *float64, extent float64, params forces.BounceParams) {
	upper := extent - bounceEpsilon
	switch {
	case *coord < 0:
		*coord = 0
		*vel = math.Abs(*vel)*params.Multiplier + params.Pushback
	case *coord > upper:
		*coord = upper
		*vel = -(math.Abs(*vel)*params.Multiplier + params.Pushback)
	}
}

// euclideanMod returns x mod m with a non-negative result, for any sign
// of x, unlike Go's math.Mod (which preserves the dividend's sign).
func euclideanMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
