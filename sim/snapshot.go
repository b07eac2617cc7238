package sim

import (
	"github.com/pthm-cable/particlelife/forces"
	"github.com/pthm-cable/particlelife/grid"
	"github.com/pthm-cable/particlelife/typetable"
)

// Snapshot is the value-type view of a Simulation exchanged across the
// edit protocol's two FIFO queues (SPEC_FULL.md §4.6/§5). It owns its own
// copy of every field that a Simulation could later mutate in place, so
// handing a Snapshot to another goroutine transfers it by deep copy, not
// by aliasing.
type Snapshot struct {
	Meta   Metadata
	Params forces.Params
	Types  *typetable.TypeTable

	Particles []Particle

	GridWidth  int
	GridHeight int
	CellSize   float64
}

// Export captures the Simulation's entire externally observable state as
// an independent Snapshot.
func (s *Simulation) Export() Snapshot {
	particles := make([]Particle, 0, s.Meta.NumParticles)
	query := s.filter.Query()
	for query.Next() {
		pos, vel, spec := query.Get()
		particles = append(particles, Particle{
			Position: *pos,
			Velocity: *vel,
			Species:  spec.Index,
		})
	}

	return Snapshot{
		Meta:       s.Meta.Clone(),
		Params:     s.Params,
		Types:      s.types.Clone(),
		Particles:  particles,
		GridWidth:  s.grid.Width(),
		GridHeight: s.grid.Height(),
		CellSize:   s.grid.CellSize(),
	}
}

// Import replaces the Simulation's entire particle population, type
// table and parameters with snap's, honoring the monotone update_id
// acceptance rule of SPEC_FULL.md §4.6: snap is applied only if
// snap.Meta.UpdateID >= the current local update_id, and is otherwise
// silently dropped. Import never changes grid dimensions or cell size;
// snap's GridWidth/GridHeight/CellSize are informational only and must
// match the live Simulation's (callers that need a resized world
// construct a new Simulation instead).
func (s *Simulation) Import(snap Snapshot) {
	if snap.Meta.UpdateID < s.Meta.UpdateID {
		return
	}

	s.ClearParticles()
	s.types = snap.Types.Clone()
	s.Params = snap.Params
	s.Meta = snap.Meta.Clone()
	s.Meta.NumParticles = 0

	for _, p := range snap.Particles {
		// Particles in a previously-valid snapshot are always in-world
		// and in-range by construction; a failed re-insert here would
		// indicate a corrupted snapshot, which Import has no recovery
		// path for, so it is silently skipped rather than aborting the
		// whole import.
		_ = s.Insert(p)
	}
}

// SnapshotForRender returns the lightweight view an external renderer
// needs: per-particle position, species and resolved colour, plus grid
// dimensions and, if s.DebugRects is set, one DebugRect per occupied
// cell (SPEC_FULL.md §6).
func (s *Simulation) SnapshotForRender() RenderSnapshot {
	particles := make([]RenderParticle, 0, s.Meta.NumParticles)
	query := s.filter.Query()
	for query.Next() {
		pos, _, spec := query.Get()
		particles = append(particles, RenderParticle{
			Position: *pos,
			Species:  spec.Index,
			Color:    s.types.Color(spec.Index),
		})
	}

	out := RenderSnapshot{
		Particles:  particles,
		GridWidth:  s.grid.Width(),
		GridHeight: s.grid.Height(),
		CellSize:   s.grid.CellSize(),
	}

	if s.DebugRects {
		s.grid.Cells(func(c grid.Cell) {
			count := len(s.grid.Entities(c))
			out.DebugRects = append(out.DebugRects, DebugRect{
				CellX: c.X,
				CellY: c.Y,
				X:     float64(c.X) * s.grid.CellSize(),
				Y:     float64(c.Y) * s.grid.CellSize(),
				Size:  s.grid.CellSize(),
				Count: count,
			})
		})
	}

	return out
}
