package forces

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particlelife/components"
	"github.com/pthm-cable/particlelife/grid"
	"github.com/pthm-cable/particlelife/matrix"
	"github.com/pthm-cable/particlelife/typetable"
)

func newTestWorld() (*ecs.World, *ecs.Map2[components.Position, components.Species], Maps) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap2[components.Position, components.Species](w)
	maps := Maps{
		Pos:     ecs.NewMap1[components.Position](w),
		Species: ecs.NewMap1[components.Species](w),
	}
	return w, mapper, maps
}

// TestSinglePairAttraction covers SPEC_FULL.md §8 scenario 1.
func TestSinglePairAttraction(t *testing.T) {
	_, mapper, maps := newTestWorld()
	g, err := newSmallGrid(t)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}

	tt, err := typetable.NewFromFunc(1, 1.0, func(i, j int) float64 { return 1.0 })
	if err != nil {
		t.Fatalf("typetable: %v", err)
	}

	a := mapper.NewEntity(&components.Position{X: 50, Y: 50}, &components.Species{Index: 0})
	b := mapper.NewEntity(&components.Position{X: 60, Y: 50}, &components.Species{Index: 0})
	g.Insert(a, 50, 50)
	g.Insert(b, 60, 50)

	scratch := matrix.New[[]Impulse](g.Width(), g.Height())
	Evaluate(g, tt, Params{EdgeType: EdgeWrapping}, maps, scratch)

	ia := findImpulse(g, scratch, a)
	ib := findImpulse(g, scratch, b)

	if ia.DX == 0 || ib.DX == 0 {
		t.Fatalf("expected non-zero x impulses, got a=%v b=%v", ia, ib)
	}
	if (ia.DX > 0) == (ib.DX > 0) {
		t.Fatalf("expected opposite-sign x impulses, got a=%v b=%v", ia, ib)
	}
	// Attraction: a's impulse points toward b (positive x, since b is to
	// the right), b's impulse points toward a (negative x).
	if ia.DX <= 0 {
		t.Errorf("a's impulse should point toward b (+x), got %v", ia.DX)
	}
	if ib.DX >= 0 {
		t.Errorf("b's impulse should point toward a (-x), got %v", ib.DX)
	}
}

// TestAsymmetricPair covers SPEC_FULL.md §8 scenario 2.
func TestAsymmetricPair(t *testing.T) {
	_, mapper, maps := newTestWorld()
	g, err := newSmallGrid(t)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}

	tt, err := typetable.NewFromFunc(2, 1.0, func(i, j int) float64 {
		m := [][]float64{{0, 1}, {-1, 0}}
		return m[i][j]
	})
	if err != nil {
		t.Fatalf("typetable: %v", err)
	}

	a := mapper.NewEntity(&components.Position{X: 50, Y: 50}, &components.Species{Index: 0})
	b := mapper.NewEntity(&components.Position{X: 70, Y: 50}, &components.Species{Index: 1})
	g.Insert(a, 50, 50)
	g.Insert(b, 70, 50)

	scratch := matrix.New[[]Impulse](g.Width(), g.Height())
	Evaluate(g, tt, Params{EdgeType: EdgeWrapping}, maps, scratch)

	ia := findImpulse(g, scratch, a)
	ib := findImpulse(g, scratch, b)

	if ia.DX <= 0 {
		t.Errorf("A's impulse should have positive x (toward B), got %v", ia.DX)
	}
	if ib.DX >= 0 {
		t.Errorf("B's impulse should have negative x (toward A), got %v", ib.DX)
	}
}

func TestRepulsionBound(t *testing.T) {
	_, mapper, maps := newTestWorld()
	g, err := newSmallGrid(t)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	tt, _ := typetable.NewFromFunc(1, 1.0, func(i, j int) float64 { return 1.0 })

	a := mapper.NewEntity(&components.Position{X: 50, Y: 50}, &components.Species{Index: 0})
	b := mapper.NewEntity(&components.Position{X: 50.5, Y: 50}, &components.Species{Index: 0})
	g.Insert(a, 50, 50)
	g.Insert(b, 50.5, 50)

	scratch := matrix.New[[]Impulse](g.Width(), g.Height())
	Evaluate(g, tt, Params{EdgeType: EdgeWrapping, PreventParticleEjecting: true}, maps, scratch)

	ia := findImpulse(g, scratch, a)
	mag := math.Hypot(ia.DX, ia.DY)
	r := 0.5
	bound := ParticleRadius / r
	if mag > bound+1e-9 {
		t.Errorf("impulse magnitude %v exceeds bound %v", mag, bound)
	}
}

func findImpulse(g *grid.Grid, scratch *matrix.Matrix[[]Impulse], target ecs.Entity) Impulse {
	var found Impulse
	g.Cells(func(c grid.Cell) {
		ents := g.Entities(c)
		imp := scratch.At(c.X, c.Y)
		for i, e := range ents {
			if e == target {
				found = imp[i]
			}
		}
	})
	return found
}

func newSmallGrid(t *testing.T) (*grid.Grid, error) {
	t.Helper()
	return grid.New(3, 3, 100)
}
