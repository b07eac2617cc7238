package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/particlelife/sim"
	"github.com/pthm-cable/particlelife/simerr"
	"github.com/pthm-cable/particlelife/telemetry"
)

// Worker drives a Simulation: it is the sole goroutine that ever advances
// it, running Step's three phases itself (so each can be timed), per
// SPEC_FULL.md §5's "no shared mutable state other
// than the two FIFO queues" rule.
//
// Grounded on the teacher's runHeadless loop (main.go), generalised from
// a fixed-speed free-running loop to one honoring is_active/pending_steps
// and an optional tps_limit, and from direct stdout logging to
// structured slog plus the telemetry collectors.
type Worker struct {
	Sim  *sim.Simulation
	Link *Link

	Perf      *telemetry.PerfCollector
	Stats     *telemetry.Collector
	Output    *telemetry.OutputManager
	tickIndex int64
}

// NewWorker builds a Worker around an existing Simulation and Link.
func NewWorker(s *sim.Simulation, link *Link, perf *telemetry.PerfCollector, stats *telemetry.Collector, output *telemetry.OutputManager) *Worker {
	return &Worker{Sim: s, Link: link, Perf: perf, Stats: stats, Output: output}
}

// Run drives the worker loop until ctx is cancelled or the edit queue
// disconnects, per SPEC_FULL.md §5's scheduling model: receive pending
// edits, block only when paused with no pending steps, otherwise step,
// publish, and pace to tps_limit.
func (w *Worker) Run(ctx context.Context) error {
	// Edits.Receive below blocks on a condition variable, not on ctx, so
	// a cancellation arriving while paused needs to close the queue to
	// wake it up.
	go func() {
		<-ctx.Done()
		w.Link.Edits.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		w.receiveEdits()

		if !w.Sim.Meta.IsActive && w.Sim.Meta.PendingSteps == 0 {
			// The sole intentional block (SPEC_FULL.md §5): wait for the
			// next edit rather than spin while paused.
			snap, ok := w.Link.Edits.Receive()
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("worker: edit queue: %w", simerr.ErrQueueClosed)
			}
			w.applyEdit(snap)
			continue
		}

		deadline := w.frameDeadline()
		w.tick()
		w.publish()

		if w.Sim.Meta.PendingSteps > 0 {
			w.Sim.Meta.PendingSteps--
		}

		if sleep := time.Until(deadline); sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

// frameDeadline computes the time by which the current tick should
// finish, given Meta.TPSLimit; a nil or non-positive limit means
// unlimited, so the deadline is already past and no sleep occurs.
func (w *Worker) frameDeadline() time.Time {
	now := time.Now()
	if w.Sim.Meta.TPSLimit == nil || *w.Sim.Meta.TPSLimit <= 0 {
		return now
	}
	interval := time.Second / time.Duration(*w.Sim.Meta.TPSLimit)
	return now.Add(interval)
}

// receiveEdits drains every pending edit non-blockingly and applies them
// in arrival order; Simulation.Import enforces the monotone update_id
// acceptance rule per edit.
func (w *Worker) receiveEdits() {
	for _, snap := range w.Link.Edits.DrainAll() {
		w.applyEdit(snap)
	}
}

func (w *Worker) applyEdit(snap sim.Snapshot) {
	w.Sim.Import(snap)
}

// tick runs one simulation step, recording phase and population timing.
func (w *Worker) tick() {
	w.tickIndex++
	before := w.Sim.Meta.NumParticles
	start := time.Now()

	if w.Perf != nil {
		w.Perf.StartTick()
		w.Perf.StartPhase(telemetry.PhaseForce)
	}
	w.Sim.EvaluateForces()

	if w.Perf != nil {
		w.Perf.StartPhase(telemetry.PhaseIntegrate)
	}
	w.Sim.Integrate()

	if w.Perf != nil {
		w.Perf.StartPhase(telemetry.PhaseRebucket)
	}
	w.Sim.Rebucket()

	if w.Perf != nil {
		w.Perf.EndTick()
	}

	w.Sim.Meta.TickTime = time.Since(start)
	w.Sim.Meta.TotalTime += w.Sim.Meta.TickTime

	removed := before - w.Sim.Meta.NumParticles
	if w.Stats != nil {
		w.Stats.RecordTick(w.Sim.Meta.TickTime)
		if removed > 0 {
			for i := 0; i < removed; i++ {
				w.Stats.RecordParticleRemoved()
			}
		}
		if w.Stats.ShouldFlush(w.tickIndex) {
			wstats := w.Stats.Flush(w.tickIndex, w.Sim.Meta.NumParticles)
			wstats.LogStats()
			if w.Output != nil {
				if err := w.Output.WriteTelemetry(wstats); err != nil {
					slog.Warn("telemetry write failed", "error", err)
				}
			}
		}
	}
	if w.Perf != nil && w.Perf.ShouldFlush(w.tickIndex) {
		pstats := w.Perf.Flush(w.tickIndex)
		if w.Output != nil {
			if err := w.Output.WritePerf(pstats, w.tickIndex); err != nil {
				slog.Warn("perf write failed", "error", err)
			}
		}
	}
}

// publish exports the simulation's current state and sends it to the UI,
// bumping update_id so the UI can apply the monotone acceptance rule.
func (w *Worker) publish() {
	w.Sim.Meta.UpdateID++
	snap := w.Sim.Export()
	start := time.Now()
	w.Link.Snapshots.Send(snap)
	w.Sim.Meta.SendTime = time.Since(start)
}
