// Package sim implements the public API façade: construction, particle
// and type-table edit operations, the one-step entry point, and the
// snapshot views consumed by the edit protocol (package protocol) and by
// an external renderer.
//
// Grounded on the teacher's game.Game, generalised from a fixed
// predator/prey ECS world to a generic N-species particle world: the
// entity storage (github.com/mlange-42/ark), the spatial grid rebuild,
// and the per-tick phase pipeline all follow the teacher's
// simulationStep structure.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particlelife/components"
	"github.com/pthm-cable/particlelife/forces"
	"github.com/pthm-cable/particlelife/grid"
	"github.com/pthm-cable/particlelife/matrix"
	"github.com/pthm-cable/particlelife/simerr"
	"github.com/pthm-cable/particlelife/typetable"
)

// DefaultTPSLimit is the spec's normative default tick rate.
const DefaultTPSLimit = 30

// Simulation is the engine: it owns the particle world, the spatial
// grid, the type table, and the run parameters/metadata, and is the
// only side of the edit protocol that ever calls Step.
type Simulation struct {
	ID string

	world   *ecs.World
	mapper  *ecs.Map3[components.Position, components.Velocity, components.Species]
	posMap  *ecs.Map1[components.Position]
	velMap  *ecs.Map1[components.Velocity]
	specMap *ecs.Map1[components.Species]
	filter  *ecs.Filter3[components.Position, components.Velocity, components.Species]

	grid  *grid.Grid
	types *typetable.TypeTable

	Params forces.Params
	Meta   Metadata

	// DebugRects, when true, makes SnapshotForRender populate per-cell
	// occupancy rectangles.
	DebugRects bool

	scratch *matrix.Matrix[[]forces.Impulse]
	rng     *rand.Rand
}

// New constructs a Simulation covering a gridWidth x gridHeight grid of
// cellSize-edge cells, with a freshly randomised type table of numTypes
// species and the given attraction scale. Default parameters are
// Wrapping edges, ejection prevention off, and DefaultTPSLimit.
func New(gridWidth, gridHeight int, cellSize float64, numTypes int, scale float64) (*Simulation, error) {
	g, err := grid.New(gridWidth, gridHeight, cellSize)
	if err != nil {
		return nil, err
	}
	tt, err := typetable.NewRandom(numTypes, scale, nil)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	mapper := ecs.NewMap3[components.Position, components.Velocity, components.Species](world)
	filter := ecs.NewFilter3[components.Position, components.Velocity, components.Species](world)

	tps := DefaultTPSLimit

	return &Simulation{
		ID:      uuid.NewString(),
		world:   world,
		mapper:  mapper,
		posMap:  ecs.NewMap1[components.Position](world),
		velMap:  ecs.NewMap1[components.Velocity](world),
		specMap: ecs.NewMap1[components.Species](world),
		filter:  filter,
		grid:    g,
		types:   tt,
		Params:  forces.Params{EdgeType: forces.EdgeWrapping},
		Meta:    Metadata{TPSLimit: &tps},
		scratch: matrix.New[[]forces.Impulse](gridWidth, gridHeight),
		rng:     rand.New(rand.NewSource(1)),
	}, nil
}

// Size returns the world's extent, (Width*CellSize, Height*CellSize).
func (s *Simulation) Size() (float64, float64) {
	return s.grid.WorldSize()
}

// TypeTable returns a read-only view of the current type table. Callers
// must not mutate the returned value directly; use the Simulation's
// type-table edit methods instead, which keep scaled_attractions and
// colors consistent.
func (s *Simulation) TypeTable() *typetable.TypeTable {
	return s.types
}

// validateSpecies returns simerr.ErrSpeciesRange wrapped with context if
// species is not a valid row/column of the current type table.
func (s *Simulation) validateSpecies(species int) error {
	if !s.types.InRange(species) {
		return fmt.Errorf("sim: species=%d: %w", species, simerr.ErrSpeciesRange)
	}
	return nil
}
