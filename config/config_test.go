package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/particlelife/forces"
	"github.com/pthm-cable/particlelife/simerr"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Grid.Width <= 0 || cfg.Grid.Height <= 0 || cfg.Grid.CellSize <= 0 {
		t.Fatalf("Grid = %+v, want positive dimensions", cfg.Grid)
	}
	if cfg.Particles.NumTypes <= 0 {
		t.Fatalf("Particles.NumTypes = %d, want > 0", cfg.Particles.NumTypes)
	}
	if cfg.Derived.WorldWidth != float64(cfg.Grid.Width)*cfg.Grid.CellSize {
		t.Fatalf("Derived.WorldWidth = %v, want %v", cfg.Derived.WorldWidth, float64(cfg.Grid.Width)*cfg.Grid.CellSize)
	}
	if cfg.Derived.EdgeType != forces.EdgeWrapping {
		t.Fatalf("Derived.EdgeType = %v, want EdgeWrapping for the default edge_type", cfg.Derived.EdgeType)
	}
}

func TestLoadOverridesEmbeddedDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("particles:\n  num_types: 9\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.NumTypes != 9 {
		t.Fatalf("Particles.NumTypes = %d, want 9", cfg.Particles.NumTypes)
	}
	if cfg.Grid.Width <= 0 {
		t.Fatalf("Grid.Width = %d, want the embedded default to survive an unrelated override", cfg.Grid.Width)
	}
}

func TestLoadMissingFileReturnsErrConfigRead(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if !errors.Is(err, simerr.ErrConfigRead) {
		t.Fatalf("err = %v, want ErrConfigRead", err)
	}
}

func TestLoadRejectsUnknownEdgeType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad-edge.yaml")
	if err := os.WriteFile(path, []byte("params:\n  edge_type: orbiting\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, simerr.ErrConfigParse) {
		t.Fatalf("err = %v, want ErrConfigParse", err)
	}
}

func TestMustInitAndCfg(t *testing.T) {
	MustInit("")
	if Cfg().Grid.Width <= 0 {
		t.Fatalf("Cfg().Grid.Width <= 0 after MustInit")
	}
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Particles.NumTypes = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written file): %v", err)
	}
	if reloaded.Particles.NumTypes != 7 {
		t.Fatalf("reloaded Particles.NumTypes = %d, want 7", reloaded.Particles.NumTypes)
	}
}
