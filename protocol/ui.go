package protocol

import "github.com/pthm-cable/particlelife/sim"

// UI is the render-side endpoint of the edit protocol: it holds the
// latest accepted Snapshot and lets a caller queue edits back to the
// worker, bumping update_id so the worker applies the monotone
// acceptance rule in turn.
type UI struct {
	link *Link

	current  sim.Snapshot
	hasState bool
}

// NewUI creates a UI endpoint bound to link, with no snapshot yet
// received.
func NewUI(link *Link) *UI {
	return &UI{link: link}
}

// Receive drains every pending snapshot from the worker non-blockingly
// and keeps the one with the highest update_id, applying the same
// monotone acceptance rule as Simulation.Import (SPEC_FULL.md §8
// scenario 6). Reports whether current holds a snapshot at all (it may
// already have from a previous call).
func (u *UI) Receive() bool {
	for _, snap := range u.link.Snapshots.DrainAll() {
		if !u.hasState || snap.Meta.UpdateID >= u.current.Meta.UpdateID {
			u.current = snap
			u.hasState = true
		}
	}
	return u.hasState
}

// Current returns the latest snapshot accepted by Receive. Callers must
// call Receive first; Current before any snapshot arrives returns the
// zero Snapshot.
func (u *UI) Current() sim.Snapshot {
	return u.current
}

// Edit bumps the local update_id and sends the given snapshot to the
// worker. Callers obtain the snapshot to mutate by copying Current(),
// applying their change, and passing it here; UpdateID is assigned by
// Edit so callers never race each other over id allocation.
func (u *UI) Edit(snap sim.Snapshot) {
	u.current.Meta.UpdateID++
	snap.Meta.UpdateID = u.current.Meta.UpdateID
	u.current = snap
	u.link.Edits.Send(snap)
}
