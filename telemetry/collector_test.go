package telemetry

import (
	"testing"
	"time"
)

func TestShouldFlushAfterWindowTicks(t *testing.T) {
	c := NewCollector(5)

	for tick := int64(1); tick < 5; tick++ {
		if c.ShouldFlush(tick) {
			t.Fatalf("ShouldFlush(%d) = true, want false before window elapses", tick)
		}
	}
	if !c.ShouldFlush(5) {
		t.Fatalf("ShouldFlush(5) = false, want true at window boundary")
	}
}

func TestFlushComputesAveragesAndResets(t *testing.T) {
	c := NewCollector(3)
	c.RecordTick(10 * time.Millisecond)
	c.RecordTick(20 * time.Millisecond)
	c.RecordParticleRemoved()
	c.RecordParticleRemoved()

	stats := c.Flush(3, 42)

	if stats.NumParticles != 42 {
		t.Fatalf("NumParticles = %d, want 42", stats.NumParticles)
	}
	if stats.ParticlesRemoved != 2 {
		t.Fatalf("ParticlesRemoved = %d, want 2", stats.ParticlesRemoved)
	}
	wantAvgUS := float64((15 * time.Millisecond).Microseconds())
	if stats.AvgTickUS != wantAvgUS {
		t.Fatalf("AvgTickUS = %v, want %v", stats.AvgTickUS, wantAvgUS)
	}
	if stats.TicksPerSec <= 0 {
		t.Fatalf("TicksPerSec = %v, want > 0", stats.TicksPerSec)
	}

	// Counters reset after Flush.
	next := c.Flush(6, 42)
	if next.ParticlesRemoved != 0 || next.AvgTickUS != 0 {
		t.Fatalf("Flush did not reset counters: %+v", next)
	}
}

func TestFlushWithNoTicksRecordedIsZero(t *testing.T) {
	c := NewCollector(10)
	stats := c.Flush(10, 0)
	if stats.AvgTickUS != 0 || stats.TicksPerSec != 0 {
		t.Fatalf("stats = %+v, want zero timing with no RecordTick calls", stats)
	}
}
