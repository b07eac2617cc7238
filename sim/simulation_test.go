package sim

import (
	"math"
	"testing"

	"github.com/pthm-cable/particlelife/components"
	"github.com/pthm-cable/particlelife/forces"
	"github.com/pthm-cable/particlelife/grid"
)

func newTestSim(t *testing.T, edge forces.EdgeType) *Simulation {
	t.Helper()
	s, err := New(3, 3, 100, 1, 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Params.EdgeType = edge
	return s
}

// TestWrappingCrossing covers SPEC_FULL.md §8 scenario 3, adapted to the
// minimum-valid 3x3 grid (see SPEC_FULL.md §9's decision against grids
// smaller than 3x3): a particle near the world's right edge with
// rightward velocity wraps to x in [0, cell_size).
func TestWrappingCrossing(t *testing.T) {
	s := newTestSim(t, forces.EdgeWrapping)
	if err := s.Insert(Particle{
		Position: components.Position{X: 299.9, Y: 150},
		Velocity: components.Velocity{X: 2, Y: 0},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	snap := s.Export()
	if len(snap.Particles) != 1 {
		t.Fatalf("num particles = %d, want 1", len(snap.Particles))
	}
	x := snap.Particles[0].Position.X
	if x < 0 || x >= 300 {
		t.Fatalf("x = %v, want in [0, 300)", x)
	}
	cell, ok := s.grid.CellOf(x, snap.Particles[0].Position.Y)
	if !ok || cell.X != 0 {
		t.Fatalf("cell = %v, ok=%v; want cell.X == 0", cell, ok)
	}
}

// TestBouncingPushback covers SPEC_FULL.md §8 scenario 4: a particle
// bouncing off the lower x edge ends exactly at x=0 with x-velocity
// exactly the configured pushback (multiplier 0).
func TestBouncingPushback(t *testing.T) {
	s := newTestSim(t, forces.EdgeBouncing)
	s.Params.Bounce = forces.BounceParams{Multiplier: 0, Pushback: 2.5}

	if err := s.Insert(Particle{
		Position: components.Position{X: 0, Y: 150},
		Velocity: components.Velocity{X: -3, Y: 0},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// A single particle experiences no pairwise force, so EvaluateForces
	// leaves its impulse at zero regardless of the type table's random
	// attraction value.
	s.EvaluateForces()
	s.Integrate()
	s.Rebucket()

	snap := s.Export()
	p := snap.Particles[0]
	if p.Position.X != 0 {
		t.Errorf("x position = %v, want 0", p.Position.X)
	}
	if p.Velocity.X != 2.5 {
		t.Errorf("x velocity = %v, want 2.5", p.Velocity.X)
	}
}

// TestDeleteOnExit covers SPEC_FULL.md §8 scenario 5: a particle leaving
// the world under the Deleting policy decrements num_particles by
// exactly one.
func TestDeleteOnExit(t *testing.T) {
	s := newTestSim(t, forces.EdgeDeleting)

	if err := s.Insert(Particle{
		Position: components.Position{X: 0.1, Y: 150},
		Velocity: components.Velocity{X: -10, Y: 0},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	before := s.Meta.NumParticles
	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if s.Meta.NumParticles != before-1 {
		t.Fatalf("NumParticles = %d, want %d", s.Meta.NumParticles, before-1)
	}
	if len(s.Export().Particles) != 0 {
		t.Fatalf("expected no particles left")
	}
}

// TestBucketInvariant covers SPEC_FULL.md §8's bucket invariant: after
// Step, every particle's cell matches floor(position/cell_size).
func TestBucketInvariant(t *testing.T) {
	s := newTestSim(t, forces.EdgeWrapping)
	if err := s.Resize(3); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	s.AddRandom(50)

	for i := 0; i < 5; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	violations := 0
	s.grid.Cells(func(c grid.Cell) {
		for _, e := range s.grid.Entities(c) {
			pos := *s.posMap.Get(e)
			want, ok := s.grid.CellOf(pos.X, pos.Y)
			if !ok || want != c {
				violations++
			}
		}
	})
	if violations != 0 {
		t.Fatalf("%d particles violate the bucket invariant", violations)
	}
}

// TestDampingFixedPoint covers SPEC_FULL.md §8's damping fixed-point: with
// zero attraction (no impulses), |v| decreases geometrically with ratio
// 0.9 per step.
func TestDampingFixedPoint(t *testing.T) {
	s := newTestSim(t, forces.EdgeWrapping)
	s.SetAttraction(0, 0, 0)

	if err := s.Insert(Particle{
		Position: components.Position{X: 150, Y: 150},
		Velocity: components.Velocity{X: 10, Y: 0},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	speed := 10.0
	for i := 0; i < 3; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		speed *= 0.9
		got := s.Export().Particles[0].Velocity.X
		if math.Abs(got-speed) > 1e-9 {
			t.Fatalf("step %d: velocity.X = %v, want %v", i, got, speed)
		}
	}
}

