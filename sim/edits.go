package sim

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particlelife/components"
	"github.com/pthm-cable/particlelife/simerr"
	"github.com/pthm-cable/particlelife/typetable"
)

// ClearParticles removes every particle, preserving grid dimensions and
// the type table.
func (s *Simulation) ClearParticles() {
	query := s.filter.Query()
	doomed := make([]ecs.Entity, 0, s.Meta.NumParticles)
	for query.Next() {
		doomed = append(doomed, query.Entity())
	}
	for _, e := range doomed {
		s.mapper.Remove(e)
	}
	s.grid.Clear()
	s.Meta.NumParticles = 0
}

// AddRandom inserts n particles at uniformly random in-world positions
// with zero velocity and a uniformly random species, per SPEC_FULL.md
// §3's randomised-seeding lifecycle note.
func (s *Simulation) AddRandom(n int) {
	w, h := s.Size()
	for i := 0; i < n; i++ {
		x := s.rng.Float64() * w
		y := s.rng.Float64() * h
		species := s.rng.Intn(s.types.NumTypes())
		// Construction guarantees at least a 3x3 grid, so an in-world
		// (x, y) always has a home cell; the error is unreachable here.
		_ = s.Insert(Particle{
			Position: components.Position{X: x, Y: y},
			Velocity: components.Velocity{},
			Species:  species,
		})
	}
}

// Insert creates one particle. It validates the position and species
// before creating the entity, so a rejected insert never leaves an
// orphan entity in the world (SPEC_FULL.md §7's "out-of-world insertion
// returns a failure indication").
func (s *Simulation) Insert(p Particle) error {
	cell, ok := s.grid.CellOf(p.Position.X, p.Position.Y)
	if !ok {
		return fmt.Errorf("sim: Insert(%+v): %w", p.Position, simerr.ErrOutOfWorld)
	}
	if err := s.validateSpecies(p.Species); err != nil {
		return err
	}

	e := s.mapper.NewEntity(
		&components.Position{X: p.Position.X, Y: p.Position.Y},
		&components.Velocity{X: p.Velocity.X, Y: p.Velocity.Y},
		&components.Species{Index: p.Species},
	)
	s.grid.InsertAt(cell, e)
	s.Meta.NumParticles++
	return nil
}

// Resize changes the type table's species count to n, keeping the
// attraction sub-block that still applies, then rewrites the species of
// any particle whose index is no longer valid to a uniform random value
// in [0, n), per SPEC_FULL.md §4.5.
func (s *Simulation) Resize(n int) error {
	if err := s.types.Resize(n, s.rng); err != nil {
		return err
	}
	s.RandomizeParticlesAboveType(n)
	return nil
}

// RandomizeParticlesAboveType rewrites the species of every particle
// whose index is >= n to a uniform random value in [0, n). Exposed
// directly (not just via Resize) because the edit protocol names it as
// its own operation (SPEC_FULL.md §6).
func (s *Simulation) RandomizeParticlesAboveType(n int) {
	query := s.filter.Query()
	for query.Next() {
		_, _, spec := query.Get()
		if spec.Index >= n {
			spec.Index = s.rng.Intn(n)
		}
	}
}

// Rescale sets the type table's attraction_scale and recomputes
// scaled_attractions.
func (s *Simulation) Rescale(scale float64) {
	s.types.Rescale(scale)
}

// SetAttraction writes base_attractions[i,j] = v and recomputes the
// corresponding scaled entry.
func (s *Simulation) SetAttraction(i, j int, v float64) error {
	return s.types.Set(i, j, v)
}

// NewRandomTypeTable replaces the type table with a freshly sampled one
// of n species and the given attraction scale, then randomises the species
// of every particle whose index is no longer in [0, n).
func (s *Simulation) NewRandomTypeTable(n int, scale float64) error {
	tt, err := typetable.NewRandom(n, scale, s.rng)
	if err != nil {
		return err
	}
	s.types = tt
	s.RandomizeParticlesAboveType(n)
	return nil
}

// NewTypeTableFromFunc replaces the type table using fn(i, j) to build
// base_attractions, then randomises the species of every particle whose
// index is no longer in [0, n). This is the generalisation used by preset
// generators.
func (s *Simulation) NewTypeTableFromFunc(n int, scale float64, fn func(i, j int) float64) error {
	tt, err := typetable.NewFromFunc(n, scale, fn)
	if err != nil {
		return err
	}
	s.types = tt
	s.RandomizeParticlesAboveType(n)
	return nil
}
