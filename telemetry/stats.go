package telemetry

import "log/slog"

// WindowStats holds aggregated population and timing statistics for one
// reporting window's worth of steps.
type WindowStats struct {
	WindowEndTick int64 `csv:"window_end"`

	NumParticles   int `csv:"num_particles"`
	ParticlesAdded int `csv:"particles_added"`
	// ParticlesRemoved counts particles the Deleting edge policy removed
	// during the window (always 0 under Wrapping/Bouncing).
	ParticlesRemoved int `csv:"particles_removed"`

	AvgTickUS float64 `csv:"avg_tick_us"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("num_particles", s.NumParticles),
		slog.Int("particles_added", s.ParticlesAdded),
		slog.Int("particles_removed", s.ParticlesRemoved),
		slog.Float64("avg_tick_us", s.AvgTickUS),
		slog.Float64("ticks_per_sec", s.TicksPerSec),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"num_particles", s.NumParticles,
		"particles_added", s.ParticlesAdded,
		"particles_removed", s.ParticlesRemoved,
		"avg_tick_us", s.AvgTickUS,
		"ticks_per_sec", s.TicksPerSec,
	)
}
