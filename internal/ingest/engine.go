// Package ingest loads bank transactions from a CSV stream into storage.
//
// The engine reads the stream line by line, parses every line and collects
// valid records into chunks of Config.ChunkSize. A full chunk is written to
// the store as one unit before reading continues. Ingestion stops at the
// first malformed line; the records of the open chunk are discarded and the
// error names the 1-based row. What happens to chunks that were already
// written depends on Config.CommitMode.
package ingest

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/parsers"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

const utf8BOM = "\ufeff"

// ChunkWriter persists one chunk of records as a single durable write
type ChunkWriter interface {
	SaveChunk(ctx context.Context, chunk []*models.BankTransaction) error
}

// Store is the storage collaborator of the engine. Atomically runs fn with a
// writer whose chunks commit together when fn returns nil and are rolled
// back otherwise.
type Store interface {
	ChunkWriter
	Atomically(ctx context.Context, fn func(w ChunkWriter) error) error
}

// Summary describes one ingestion run. It is returned on failure as well,
// with Inserted holding the rows that remain committed.
type Summary struct {
	RunID    string `json:"runId"`
	Rows     int64  `json:"rows"`
	Inserted int64  `json:"inserted"`
	Chunks   int    `json:"chunks"`
	// Duration is the wall time of the run, including the final commit
	Duration time.Duration `json:"duration"`
	// Degraded is set when a read failure was absorbed under the partial policy
	Degraded  bool  `json:"degraded"`
	ReadError error `json:"-"`
}

// Engine is the batch ingestion engine
type Engine struct {
	store  Store
	config Config
	logger logger.Logger
}

// NewEngine creates an engine writing to store. A nil config means DefaultConfig.
func NewEngine(store Store, config *Config, log logger.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("ingest", *config, err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Engine{
		store:  store,
		config: *config,
		logger: log.WithComponent("ingest"),
	}, nil
}

// ChunkSize returns the configured commit batch size
func (e *Engine) ChunkSize() int {
	return e.config.ChunkSize
}

// Ingest consumes r completely and returns the run summary. It fails with a
// malformed_row error at the first invalid line, with a storage_failure when
// a chunk cannot be written, and, under ReadFailureFail, with a
// stream_read_failure when r cannot be read or ctx is cancelled.
func (e *Engine) Ingest(ctx context.Context, r io.Reader) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	op := logger.NewOperationLogger("csv_ingest", e.logger, logger.Fields{
		"run_id":      summary.RunID,
		"chunk_size":  e.config.ChunkSize,
		"commit_mode": e.config.CommitMode,
	})

	var err error
	if e.config.CommitMode == CommitAtomic {
		err = e.store.Atomically(ctx, func(w ChunkWriter) error {
			return e.run(ctx, r, w, summary, op)
		})
		if err != nil {
			summary.Inserted = 0
			err = errors.WrapIfNeeded(err, errors.CategoryStorage, errors.CodeStorageFailure, "storage failure during atomic commit")
		}
	} else {
		err = e.run(ctx, r, e.store, summary, op)
	}

	summary.Duration = op.Elapsed()
	fields := logger.Fields{
		"rows":     summary.Rows,
		"inserted": summary.Inserted,
		"chunks":   summary.Chunks,
	}
	if err != nil {
		op.Failure(err, "CSV ingestion failed", fields)
		return summary, err
	}

	fields["degraded"] = summary.Degraded
	op.Success("CSV ingestion completed", fields)
	return summary, nil
}

func (e *Engine) run(ctx context.Context, r io.Reader, w ChunkWriter, summary *Summary, op *logger.OperationLogger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(4096, e.config.MaxLineBytes)), e.config.MaxLineBytes)

	chunk := make([]*models.BankTransaction, 0, e.config.ChunkSize)
	var row int64

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return e.readFailure(row, err, len(chunk), summary, op)
		}

		row++
		summary.Rows = row

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if row == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}

		tx, err := parsers.ParseLine(row, line)
		if err != nil {
			op.Warning(err, "Rejected malformed row")
			return err
		}

		chunk = append(chunk, tx)
		if len(chunk) >= e.config.ChunkSize {
			if err := e.flush(ctx, w, chunk, row, summary, op); err != nil {
				return err
			}
			chunk = make([]*models.BankTransaction, 0, e.config.ChunkSize)
		}
	}

	if err := scanner.Err(); err != nil {
		if stderrors.Is(err, bufio.ErrTooLong) {
			return errors.MalformedRow(row+1, parsers.ReasonLineTooLong, err).
				WithContext("max_line_bytes", e.config.MaxLineBytes)
		}
		return e.readFailure(row, err, len(chunk), summary, op)
	}

	if len(chunk) > 0 {
		return e.flush(ctx, w, chunk, row, summary, op)
	}
	return nil
}

func (e *Engine) flush(ctx context.Context, w ChunkWriter, chunk []*models.BankTransaction, row int64, summary *Summary, op *logger.OperationLogger) error {
	if err := w.SaveChunk(ctx, chunk); err != nil {
		return errors.WrapIfNeeded(err, errors.CategoryStorage, errors.CodeStorageFailure, "storage failure during save chunk").
			WithContext("last_row", row)
	}

	summary.Inserted += int64(len(chunk))
	summary.Chunks++
	op.Step("Committed chunk", logger.Fields{
		"chunk":    summary.Chunks,
		"size":     len(chunk),
		"last_row": row,
		"inserted": summary.Inserted,
	})
	return nil
}

// readFailure applies the read failure policy. The open chunk is never
// written: it may be incomplete and the stream position is unknown.
func (e *Engine) readFailure(row int64, cause error, pending int, summary *Summary, op *logger.OperationLogger) error {
	err := errors.StreamReadError(row, cause).WithContext("discarded_rows", pending)
	if e.config.CommitMode == CommitAtomic {
		err.WithSuggestion("retry the upload; nothing from this run was stored")
	} else {
		err.WithSuggestion("retry the upload; rows committed before the failure are kept")
	}

	if e.config.ReadFailure == ReadFailurePartial {
		summary.Degraded = true
		summary.ReadError = err
		op.Warning(err, "Stream read failed, returning rows committed so far")
		return nil
	}
	return err
}
