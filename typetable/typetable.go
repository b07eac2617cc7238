// Package typetable holds the per-species attraction matrices and colors
// shared by every particle of a simulation.
package typetable

import (
	"fmt"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/particlelife/simerr"
)

// MinTypes and MaxTypes bound num_types per the spec's contract.
const (
	MinTypes = 1
	MaxTypes = 250
)

// Color is an 8-bit-per-channel RGB color.
type Color struct {
	R, G, B uint8
}

// TypeTable carries the species count, the base and scaled attraction
// matrices, and the per-species display color.
//
// Invariant: scaled = base * scale after every mutating method returns.
// Invariant: len(colors) == numTypes, and base/scaled are numTypes x numTypes.
type TypeTable struct {
	numTypes int
	scale    float64
	base     *mat.Dense
	scaled   *mat.Dense
	colors   []Color
}

// NewRandom builds a TypeTable with n species, a uniform[-1,1] base
// attraction matrix, attraction_scale = scale, and colors from an even hue
// sweep. rng may be nil, in which case the package-level source is used.
func NewRandom(n int, scale float64, rng *rand.Rand) (*TypeTable, error) {
	return NewFromFunc(n, scale, uniformSampler(rng))
}

// NewFromFunc builds a TypeTable with n species whose base attraction
// matrix entry [i,j] is fn(i, j); fn is called exactly once per cell,
// row-major. This generalises NewRandom to arbitrary presets (symmetric
// rings, clustered attraction blocks, hand-authored matrices, ...).
func NewFromFunc(n int, scale float64, fn func(i, j int) float64) (*TypeTable, error) {
	if n < MinTypes || n > MaxTypes {
		return nil, fmt.Errorf("typetable: n=%d: %w", n, simerr.ErrTypeRange)
	}

	base := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			base.Set(i, j, fn(i, j))
		}
	}

	tt := &TypeTable{numTypes: n, base: base}
	tt.rescale(scale)
	tt.colors = hueSweepColors(n)
	return tt, nil
}

// uniformSampler returns a sampler drawing from Uniform[-1,1] via gonum's
// stat/distuv, matching the reference's "sample uniformly from [-1,+1]"
// wording in the type-table operations.
func uniformSampler(rng *rand.Rand) func(i, j int) float64 {
	src := distuv.Uniform{Min: -1, Max: 1}
	if rng != nil {
		src.Src = rng
	}
	return func(i, j int) float64 { return src.Rand() }
}

// NumTypes returns the species count.
func (t *TypeTable) NumTypes() int { return t.numTypes }

// Scale returns the current attraction_scale.
func (t *TypeTable) Scale() float64 { return t.scale }

// Base returns the base attraction of species i toward species j.
func (t *TypeTable) Base(i, j int) float64 { return t.base.At(i, j) }

// Scaled returns the scaled attraction of species i toward species j, the
// value the force evaluator's hot loop reads.
func (t *TypeTable) Scaled(i, j int) float64 { return t.scaled.At(i, j) }

// Color returns the display color of species i.
func (t *TypeTable) Color(i int) Color { return t.colors[i] }

// InRange reports whether species index s is a valid row/column.
func (t *TypeTable) InRange(s int) bool { return s >= 0 && s < t.numTypes }

// Clone returns an independent deep copy, so that snapshots passed across
// the edit protocol never alias a mutable TypeTable that a later Set,
// Rescale, or Resize call could change out from under a receiver.
func (t *TypeTable) Clone() *TypeTable {
	base := mat.NewDense(t.numTypes, t.numTypes, nil)
	base.Copy(t.base)
	scaled := mat.NewDense(t.numTypes, t.numTypes, nil)
	scaled.Copy(t.scaled)
	colors := make([]Color, len(t.colors))
	copy(colors, t.colors)
	return &TypeTable{
		numTypes: t.numTypes,
		scale:    t.scale,
		base:     base,
		scaled:   scaled,
		colors:   colors,
	}
}

// Set writes base[i,j] = v and recomputes scaled[i,j].
func (t *TypeTable) Set(i, j int, v float64) error {
	if !t.InRange(i) || !t.InRange(j) {
		return fmt.Errorf("typetable: Set(%d,%d): %w", i, j, simerr.ErrSpeciesRange)
	}
	t.base.Set(i, j, v)
	t.scaled.Set(i, j, v*t.scale)
	return nil
}

// Rescale sets attraction_scale and recomputes the entire scaled matrix.
func (t *TypeTable) Rescale(scale float64) {
	t.rescale(scale)
}

func (t *TypeTable) rescale(scale float64) {
	t.scale = scale
	scaled := mat.NewDense(t.numTypes, t.numTypes, nil)
	scaled.Scale(scale, t.base)
	t.scaled = scaled
}

// Resize extends or truncates the table to n' species, keeping entries
// [i,j] with i,j < min(n, n'), filling any new cells by sampling
// Uniform[-1,1] with rng (nil uses the package-level source), and
// recomputing scaled and colors. It does not touch any particle's
// species; the caller is responsible for invoking
// RandomizeAboveType-equivalent logic on the owning simulation (see
// sim.Simulation.Resize, which does so atomically).
func (t *TypeTable) Resize(n int, rng *rand.Rand) error {
	if n < MinTypes || n > MaxTypes {
		return fmt.Errorf("typetable: Resize(%d): %w", n, simerr.ErrTypeRange)
	}

	sample := uniformSampler(rng)
	newBase := mat.NewDense(n, n, nil)
	overlap := min(n, t.numTypes)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i < overlap && j < overlap {
				newBase.Set(i, j, t.base.At(i, j))
			} else {
				newBase.Set(i, j, sample(i, j))
			}
		}
	}

	t.numTypes = n
	t.base = newBase
	t.rescale(t.scale)
	t.colors = hueSweepColors(n)
	return nil
}

// hueSweepColors returns n colors with saturation 1, lightness 0.5, and
// hue evenly swept across the full circle, via go-colorful's HSV-family
// conversion (HSV with V=1, S=1 coincides with HSL S=1,L=0.5 for pure
// hues).
func hueSweepColors(n int) []Color {
	colors := make([]Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n) * 360.0
		c := colorful.Hsv(hue, 1.0, 1.0)
		r, g, b := c.RGB255()
		colors[i] = Color{R: r, G: g, B: b}
	}
	return colors
}
