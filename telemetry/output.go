package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/particlelife/config"
)

// csvStream lazily writes a CSV header on its first row, then appends
// rows without repeating it. One stream type and one generic writeCSVRow
// serve every record type this package exports, instead of a
// write-method and header-written flag duplicated per record type.
type csvStream struct {
	file          *os.File
	headerWritten bool
}

func newCSVStream(path string) (*csvStream, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &csvStream{file: f}, nil
}

func writeCSVRow[T any](cs *csvStream, row T) error {
	records := []T{row}
	if !cs.headerWritten {
		if err := gocsv.Marshal(records, cs.file); err != nil {
			return err
		}
		cs.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, cs.file)
}

func (cs *csvStream) Close() error {
	return cs.file.Close()
}

// OutputManager handles structured session output with CSV logging, an
// optional sidecar to the core engine per SPEC_FULL.md §10.4.
type OutputManager struct {
	dir       string
	telemetry *csvStream
	perf      *csvStream
}

// NewOutputManager creates a new output manager and initializes the
// output directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	telemetryStream, err := newCSVStream(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}

	perfStream, err := newCSVStream(filepath.Join(dir, "perf.csv"))
	if err != nil {
		telemetryStream.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}

	return &OutputManager{dir: dir, telemetry: telemetryStream, perf: perfStream}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeCSVRow(om.telemetry, stats); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	if err := writeCSVRow(om.perf, stats.ToCSV(windowEnd)); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if err := om.telemetry.Close(); err != nil {
		firstErr = err
	}
	if err := om.perf.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
