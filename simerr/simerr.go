// Package simerr holds the closed set of sentinel errors the engine
// returns from its exported operations, so callers can test with
// errors.Is instead of string matching.
package simerr

import "errors"

var (
	// ErrOutOfWorld is returned by insert operations given a position
	// outside the world rectangle.
	ErrOutOfWorld = errors.New("position outside world bounds")

	// ErrTypeRange is returned when a requested num_types falls outside
	// [MinTypes, MaxTypes].
	ErrTypeRange = errors.New("num_types outside valid range")

	// ErrSpeciesRange is returned when a particle's species index is not a
	// valid row/column of the current type table.
	ErrSpeciesRange = errors.New("species index outside type table range")

	// ErrInvalidCellSize is returned by grid construction given a
	// non-positive cell size.
	ErrInvalidCellSize = errors.New("cell size must be positive")

	// ErrInvalidGridSize is returned by grid construction given dimensions
	// too small to admit the 8-neighbour traversal without self-wrap.
	ErrInvalidGridSize = errors.New("grid dimensions must be at least 3x3")

	// ErrQueueClosed is returned when a snapshot/edit queue has been
	// disconnected; per the spec this is fatal and the caller should
	// abort rather than retry.
	ErrQueueClosed = errors.New("snapshot queue disconnected")

	// ErrConfigRead is returned when a user config file cannot be read.
	ErrConfigRead = errors.New("reading config file")

	// ErrConfigParse is returned when config YAML fails to parse.
	ErrConfigParse = errors.New("parsing config")
)
