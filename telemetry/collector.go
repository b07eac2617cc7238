// Package telemetry tracks rolling step-timing and population statistics
// and optionally exports them as CSV, an ambient concern per
// SPEC_FULL.md §10.4.
//
// Grounded on the teacher's telemetry.Collector/PerfCollector, narrowed
// from the organism lifecycle's birth/death/hunting counters to the
// particle engine's population and tick-timing counters.
package telemetry

import "time"

// Collector accumulates per-tick timing and population-change counters
// within a window and produces a WindowStats on Flush.
type Collector struct {
	windowTicks int64

	windowStartTick int64
	tickCount       int64
	totalTickTime   time.Duration

	particlesAdded   int
	particlesRemoved int
}

// NewCollector creates a Collector that flushes every windowTicks steps.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// RecordTick adds one step's timing to the current window.
func (c *Collector) RecordTick(d time.Duration) {
	c.tickCount++
	c.totalTickTime += d
}

// RecordParticleAdded records one particle entering the population
// (insert or random seeding).
func (c *Collector) RecordParticleAdded() {
	c.particlesAdded++
}

// RecordParticleRemoved records one particle leaving the population (the
// Deleting edge policy).
func (c *Collector) RecordParticleRemoved() {
	c.particlesRemoved++
}

// ShouldFlush reports whether windowTicks steps have elapsed since the
// last flush.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats for the elapsed window and resets the
// counters for the next one.
func (c *Collector) Flush(currentTick int64, numParticles int) WindowStats {
	var avgTickUS, ticksPerSec float64
	if c.tickCount > 0 {
		avg := c.totalTickTime / time.Duration(c.tickCount)
		avgTickUS = float64(avg.Microseconds())
		if avg > 0 {
			ticksPerSec = float64(time.Second) / float64(avg)
		}
	}

	stats := WindowStats{
		WindowEndTick:    currentTick,
		NumParticles:     numParticles,
		ParticlesAdded:   c.particlesAdded,
		ParticlesRemoved: c.particlesRemoved,
		AvgTickUS:        avgTickUS,
		TicksPerSec:      ticksPerSec,
	}

	c.windowStartTick = currentTick
	c.tickCount = 0
	c.totalTickTime = 0
	c.particlesAdded = 0
	c.particlesRemoved = 0

	return stats
}
