package protocol

import "github.com/pthm-cable/particlelife/sim"

// Link bundles the two one-way FIFO queues that connect a worker and a
// UI endpoint: snapshots flow worker -> UI, edits flow UI -> worker.
// SPEC_FULL.md §5 requires no shared mutable state between the two
// threads besides these queues.
type Link struct {
	Snapshots *Queue[sim.Snapshot]
	Edits     *Queue[sim.Snapshot]
}

// NewLink allocates a pair of empty, open queues.
func NewLink() *Link {
	return &Link{
		Snapshots: NewQueue[sim.Snapshot](),
		Edits:     NewQueue[sim.Snapshot](),
	}
}
