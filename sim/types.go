package sim

import (
	"time"

	"github.com/pthm-cable/particlelife/components"
	"github.com/pthm-cable/particlelife/typetable"
)

// Particle is a value-type view of one particle: position, velocity, and
// a species index into the owning simulation's TypeTable.
type Particle struct {
	Position components.Position
	Velocity components.Velocity
	Species  int
}

// Metadata is the simulation's timing and run-control state. update_id is
// monotone across both worker- and UI-side edits and is the sole
// reconciliation key for the snapshot/edit protocol (package protocol).
type Metadata struct {
	IsActive     bool
	PendingSteps int
	// TPSLimit is optional; nil means unlimited.
	TPSLimit     *int
	UpdateID     uint64
	TotalTime    time.Duration
	TickTime     time.Duration
	SendTime     time.Duration
	NumParticles int
}

// Clone returns a deep copy of m; the only field needing one is the
// pointer TPSLimit.
func (m Metadata) Clone() Metadata {
	if m.TPSLimit != nil {
		v := *m.TPSLimit
		m.TPSLimit = &v
	}
	return m
}

// DebugRect is one cell's occupancy, for the snapshot's optional debug
// overlay (SPEC_FULL.md §6's "optional per-cell debug rectangles").
type DebugRect struct {
	CellX, CellY int
	X, Y         float64 // world-space top-left corner
	Size         float64 // cell edge length
	Count        int     // particles currently bucketed here
}

// RenderParticle is the per-particle payload an external renderer needs:
// position, species, and resolved display color.
type RenderParticle struct {
	Position components.Position
	Species  int
	Color    typetable.Color
}

// RenderSnapshot is the payload returned by Simulation.SnapshotForRender:
// everything an external renderer needs and nothing it doesn't (no
// velocities, no ECS handles).
type RenderSnapshot struct {
	Particles          []RenderParticle
	GridWidth          int
	GridHeight          int
	CellSize            float64
	DebugRects          []DebugRect // nil unless debug rectangles were requested
}
