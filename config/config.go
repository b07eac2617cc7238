// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/particlelife/forces"
	"github.com/pthm-cable/particlelife/simerr"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Particles ParticlesConfig `yaml:"particles"`
	Params    ParamsConfig    `yaml:"params"`
	Protocol  ProtocolConfig  `yaml:"protocol"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig sizes the spatial-hash grid the simulation is built on.
type GridConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	CellSize float64 `yaml:"cell_size"`
}

// ParticlesConfig seeds the type table and initial population.
type ParticlesConfig struct {
	NumTypes     int     `yaml:"num_types"`
	Scale        float64 `yaml:"scale"`
	InitialCount int     `yaml:"initial_count"`
}

// ParamsConfig configures the edge policy applied by the integrator's
// re-bucketer (SPEC_FULL.md §4.4).
type ParamsConfig struct {
	// EdgeType is one of "wrapping", "deleting", "bouncing".
	EdgeType                string  `yaml:"edge_type"`
	BounceMultiplier        float64 `yaml:"bounce_multiplier"`
	BouncePushback          float64 `yaml:"bounce_pushback"`
	PreventParticleEjecting bool    `yaml:"prevent_particle_ejecting"`
}

// ProtocolConfig configures the worker side of the snapshot/edit
// protocol (SPEC_FULL.md §5).
type ProtocolConfig struct {
	// TPSLimit is the worker's ticks-per-second cap; 0 means unlimited.
	TPSLimit int `yaml:"tps_limit"`
}

// TelemetryConfig configures the rolling step-timing stats and optional
// CSV session export (SPEC_FULL.md §10.4).
type TelemetryConfig struct {
	StatsWindow int    `yaml:"stats_window"`
	CSVExport   bool   `yaml:"csv_export"`
	OutputDir   string `yaml:"output_dir"`
}

// LoggingConfig configures the structured logger (SPEC_FULL.md §10.2).
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DerivedConfig holds values computed from the loaded config that other
// packages consume directly, so they never re-derive them.
type DerivedConfig struct {
	WorldWidth  float64
	WorldHeight float64
	EdgeType    forces.EdgeType
	Bounce      forces.BounceParams
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", simerr.ErrConfigParse, err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", simerr.ErrConfigRead, err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", simerr.ErrConfigParse, err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.WorldWidth = float64(c.Grid.Width) * c.Grid.CellSize
	c.Derived.WorldHeight = float64(c.Grid.Height) * c.Grid.CellSize

	switch c.Params.EdgeType {
	case "", "wrapping":
		c.Derived.EdgeType = forces.EdgeWrapping
	case "deleting":
		c.Derived.EdgeType = forces.EdgeDeleting
	case "bouncing":
		c.Derived.EdgeType = forces.EdgeBouncing
	default:
		return fmt.Errorf("config: edge_type=%q: %w", c.Params.EdgeType, simerr.ErrConfigParse)
	}
	c.Derived.Bounce = forces.BounceParams{
		Multiplier: c.Params.BounceMultiplier,
		Pushback:   c.Params.BouncePushback,
	}
	return nil
}

// WriteYAML saves the configuration to path, for session-export sidecars
// that record the exact parameters a run used (SPEC_FULL.md §10.4).
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
