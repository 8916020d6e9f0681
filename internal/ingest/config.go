package ingest

import (
	"fmt"
)

// CommitMode decides what a failure does to chunks that were already written
type CommitMode string

const (
	// CommitChunked commits every full chunk in its own write transaction.
	// A later failure leaves earlier chunks in place.
	CommitChunked CommitMode = "chunked"
	// CommitAtomic writes all chunks inside one write transaction, so the
	// file is either stored completely or not at all.
	CommitAtomic CommitMode = "atomic"
)

// ReadFailurePolicy decides how an I/O error on the input stream is reported
type ReadFailurePolicy string

const (
	// ReadFailureFail aborts ingestion with a stream_read_failure error
	ReadFailureFail ReadFailurePolicy = "fail"
	// ReadFailurePartial logs the error and returns the rows committed so
	// far as a successful, degraded result
	ReadFailurePartial ReadFailurePolicy = "partial"
)

// Config holds the tunables of the ingestion engine
type Config struct {
	ChunkSize    int               `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`
	CommitMode   CommitMode        `json:"commit_mode" yaml:"commit_mode" mapstructure:"commit_mode"`
	ReadFailure  ReadFailurePolicy `json:"read_failure" yaml:"read_failure" mapstructure:"read_failure"`
	MaxLineBytes int               `json:"max_line_bytes" yaml:"max_line_bytes" mapstructure:"max_line_bytes"`
}

// DefaultConfig commits every row on its own and fails on read errors
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:    1,
		CommitMode:   CommitChunked,
		ReadFailure:  ReadFailureFail,
		MaxLineBytes: 64 * 1024,
	}
}

// Validate checks if the ingestion configuration is valid
func (c *Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1, got %d", c.ChunkSize)
	}

	switch c.CommitMode {
	case CommitChunked, CommitAtomic:
	default:
		return fmt.Errorf("invalid commit mode: %s", c.CommitMode)
	}

	switch c.ReadFailure {
	case ReadFailureFail, ReadFailurePartial:
	default:
		return fmt.Errorf("invalid read failure policy: %s", c.ReadFailure)
	}

	if c.MaxLineBytes < 64 {
		return fmt.Errorf("max line bytes must be at least 64, got %d", c.MaxLineBytes)
	}

	return nil
}
