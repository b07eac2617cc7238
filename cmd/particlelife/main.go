// Command particlelife runs the simulation headlessly: no renderer, just
// a worker loop driving ticks and periodic progress/telemetry logging.
//
// Grounded on the teacher's main.go runHeadless: flag-driven startup,
// a max-ticks stop condition, and a periodic progress report, adapted
// from direct stdout logf calls to structured slog and from a fixed
// Game/stepsPerFrame loop to a protocol.Worker driving a sim.Simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/particlelife/config"
	"github.com/pthm-cable/particlelife/protocol"
	"github.com/pthm-cable/particlelife/sim"
	"github.com/pthm-cable/particlelife/telemetry"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file (overrides embedded defaults)")
	maxTicks   = flag.Int("max-ticks", 0, "Stop after N ticks (0 = run forever)")
	seedCount  = flag.Int("seed", -1, "Number of particles to seed at startup (-1 = use config's initial_count)")
)

func main() {
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	setupLogging(cfg.Logging)

	s, err := sim.New(cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.CellSize, cfg.Particles.NumTypes, cfg.Particles.Scale)
	if err != nil {
		slog.Error("failed to construct simulation", "error", err)
		os.Exit(1)
	}
	s.Params.EdgeType = cfg.Derived.EdgeType
	s.Params.Bounce = cfg.Derived.Bounce
	s.Params.PreventParticleEjecting = cfg.Params.PreventParticleEjecting
	tps := cfg.Protocol.TPSLimit
	s.Meta.TPSLimit = &tps
	s.Meta.IsActive = true

	n := cfg.Particles.InitialCount
	if *seedCount >= 0 {
		n = *seedCount
	}
	s.AddRandom(n)

	var output *telemetry.OutputManager
	if cfg.Telemetry.CSVExport {
		output, err = telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
		if err != nil {
			slog.Error("failed to open telemetry output", "error", err)
			os.Exit(1)
		}
		defer output.Close()
		if err := output.WriteConfig(cfg); err != nil {
			slog.Warn("failed to write config sidecar", "error", err)
		}
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.StatsWindow)
	stats := telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	link := protocol.NewLink()
	worker := protocol.NewWorker(s, link, perf, stats, output)

	// The worker publishes a snapshot every tick (protocol/worker.go); a
	// UI endpoint must drain link.Snapshots or the queue grows without
	// bound for the life of the process. This binary has no renderer, so
	// monitorProgress plays the UI's part: it drains on its own schedule
	// and reports off the drained snapshot rather than reaching into the
	// worker's live Simulation.
	ui := protocol.NewUI(link)

	slog.Info("starting headless simulation",
		"grid_width", cfg.Grid.Width, "grid_height", cfg.Grid.Height,
		"num_types", cfg.Particles.NumTypes, "initial_count", n,
		"tps_limit", cfg.Protocol.TPSLimit, "edge_type", cfg.Params.EdgeType)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("received shutdown signal")
		cancel()
	}()

	startTime := time.Now()
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitorProgress(ctx, ui, startTime, uint64(*maxTicks), cancel)
	}()

	if err := worker.Run(ctx); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}

	// monitorProgress is the only other goroutine touching ui; wait for
	// it to observe ctx.Done() and return before reading Current() here.
	<-monitorDone
	ui.Receive()
	final := ui.Current()
	elapsed := time.Since(startTime)
	slog.Info("simulation complete",
		"total_ticks", final.Meta.UpdateID,
		"elapsed", elapsed.Round(time.Millisecond),
		"ticks_per_sec", float64(final.Meta.UpdateID)/elapsed.Seconds())
}

// monitorProgress is this binary's UI: it is the sole reader of
// link.Snapshots, draining it every tick so the queue never grows
// unbounded, logging a progress line every 10 seconds, and cancelling
// once maxTicks has been reached (maxTicks == 0 means run forever).
func monitorProgress(ctx context.Context, ui *protocol.UI, startTime time.Time, maxTicks uint64, cancel context.CancelFunc) {
	const drainInterval = 50 * time.Millisecond
	const logInterval = 10 * time.Second

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	lastLog := startTime

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !ui.Receive() {
				continue
			}
			snap := ui.Current()

			if maxTicks > 0 && snap.Meta.UpdateID >= maxTicks {
				slog.Info("reached max ticks, stopping", "max_ticks", maxTicks)
				cancel()
				return
			}

			if now.Sub(lastLog) >= logInterval {
				elapsed := now.Sub(startTime)
				slog.Info("progress",
					"tick", snap.Meta.UpdateID,
					"num_particles", snap.Meta.NumParticles,
					"ticks_per_sec", float64(snap.Meta.UpdateID)/elapsed.Seconds(),
					"elapsed", elapsed.Round(time.Second))
				lastLog = now
			}
		}
	}
}

// setupLogging installs a slog handler per the logging config's level
// and format (SPEC_FULL.md §10.2); the teacher never configures a
// handler explicitly and relies on slog's default, so this is an
// original addition needed to make the level/format fields in config
// do anything.
func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
