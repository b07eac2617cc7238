package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation step (SPEC_FULL.md §4's three-phase
// tick: force evaluation, integration, re-bucketing).
const (
	PhaseForce     = "force"
	PhaseIntegrate = "integrate"
	PhaseRebucket  = "rebucket"
)

// PerfCollector accumulates tick and per-phase timing across a window of
// ticks and reports it on Flush, the same accumulate-then-reset cadence
// Collector uses for population stats. The tick has exactly three fixed
// phases, not an open-ended string-keyed set, so their running totals
// are tracked as three duration fields rather than rebuilding a map
// every tick and retaining a per-tick sample in a ring buffer to be
// re-walked on every Stats call.
type PerfCollector struct {
	windowTicks int64

	windowStartTick int64
	tickCount       int64
	hasSample       bool

	totalTick time.Duration
	minTick   time.Duration
	maxTick   time.Duration

	forceTotal     time.Duration
	integrateTotal time.Duration
	rebucketTotal  time.Duration

	tickStart  time.Time
	phaseStart time.Time
	phase      string
}

// NewPerfCollector creates a collector that aggregates windowTicks ticks
// per Flush.
func NewPerfCollector(windowTicks int) *PerfCollector {
	if windowTicks < 1 {
		windowTicks = 60
	}
	return &PerfCollector{windowTicks: int64(windowTicks)}
}

// WindowSize returns the number of ticks aggregated per Flush.
func (p *PerfCollector) WindowSize() int { return int(p.windowTicks) }

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.phase = ""
}

// StartPhase begins timing phase, closing out whichever phase was
// previously open and folding its elapsed time into that phase's
// running total.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase == "" {
		return
	}
	d := now.Sub(p.phaseStart)
	switch p.phase {
	case PhaseForce:
		p.forceTotal += d
	case PhaseIntegrate:
		p.integrateTotal += d
	case PhaseRebucket:
		p.rebucketTotal += d
	}
}

// EndTick finishes timing the current tick and folds it into the
// window's running totals.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = ""

	d := now.Sub(p.tickStart)
	p.totalTick += d
	if !p.hasSample || d < p.minTick {
		p.minTick = d
	}
	if d > p.maxTick {
		p.maxTick = d
	}
	p.hasSample = true
	p.tickCount++
}

// ShouldFlush reports whether windowTicks ticks have elapsed since the
// last flush.
func (p *PerfCollector) ShouldFlush(currentTick int64) bool {
	return currentTick-p.windowStartTick >= p.windowTicks
}

// Stats computes the current window's aggregated statistics without
// resetting the accumulation in progress.
func (p *PerfCollector) Stats() PerfStats {
	if p.tickCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	avgTick := p.totalTick / time.Duration(p.tickCount)

	phaseAvg := map[string]time.Duration{
		PhaseForce:     p.forceTotal / time.Duration(p.tickCount),
		PhaseIntegrate: p.integrateTotal / time.Duration(p.tickCount),
		PhaseRebucket:  p.rebucketTotal / time.Duration(p.tickCount),
	}
	phasePct := make(map[string]float64, len(phaseAvg))
	if avgTick > 0 {
		for phase, avg := range phaseAvg {
			phasePct[phase] = float64(avg) / float64(avgTick) * 100
		}
	}

	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: p.minTick,
		MaxTickDuration: p.maxTick,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
	}
}

// Flush computes the current window's stats and resets every accumulator
// for the next window.
func (p *PerfCollector) Flush(currentTick int64) PerfStats {
	stats := p.Stats()

	p.windowStartTick = currentTick
	p.tickCount = 0
	p.hasSample = false
	p.totalTick = 0
	p.minTick = 0
	p.maxTick = 0
	p.forceTotal = 0
	p.integrateTotal = 0
	p.rebucketTotal = 0

	return stats
}

// PerfStats holds aggregated performance statistics for one window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf",
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"force_pct", int(s.PhasePct[PhaseForce]*10)/10.0,
		"integrate_pct", int(s.PhasePct[PhaseIntegrate]*10)/10.0,
		"rebucket_pct", int(s.PhasePct[PhaseRebucket]*10)/10.0,
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("force_pct", s.PhasePct[PhaseForce]),
		slog.Float64("integrate_pct", s.PhasePct[PhaseIntegrate]),
		slog.Float64("rebucket_pct", s.PhasePct[PhaseRebucket]),
	)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	ForcePct     float64 `csv:"force_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	RebucketPct  float64 `csv:"rebucket_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		ForcePct:     s.PhasePct[PhaseForce],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		RebucketPct:  s.PhasePct[PhaseRebucket],
	}
}
