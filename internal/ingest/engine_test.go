package ingest

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/parsers"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

// memoryStore records committed chunks. Chunks written inside Atomically are
// staged and only become visible when the callback succeeds.
type memoryStore struct {
	chunks  [][]*models.BankTransaction
	failAt  int
	saveErr error
	calls   int
}

func (m *memoryStore) SaveChunk(_ context.Context, chunk []*models.BankTransaction) error {
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return m.saveErr
	}
	m.chunks = append(m.chunks, chunk)
	return nil
}

func (m *memoryStore) Atomically(ctx context.Context, fn func(w ChunkWriter) error) error {
	staged := &memoryStore{failAt: m.failAt, saveErr: m.saveErr}
	if err := fn(staged); err != nil {
		return err
	}
	m.chunks = append(m.chunks, staged.chunks...)
	return nil
}

func (m *memoryStore) rows() int {
	n := 0
	for _, c := range m.chunks {
		n += len(c)
	}
	return n
}

func (m *memoryStore) chunkSizes() []int {
	sizes := make([]int, 0, len(m.chunks))
	for _, c := range m.chunks {
		sizes = append(sizes, len(c))
	}
	return sizes
}

// errReader yields data and then fails with err instead of io.EOF
type errReader struct {
	data io.Reader
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	n, err := r.data.Read(p)
	if err == io.EOF {
		return n, r.err
	}
	return n, err
}

func csvLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		txType := "DEPOSIT"
		if i%2 == 0 {
			txType = "WITHDRAW"
		}
		fmt.Fprintf(&b, "%d,2021,1,%d,%d,011,%d,%s\n", i, i%28+1, i%3+1, i*1000, txType)
	}
	return b.String()
}

func newTestEngine(t *testing.T, store Store, mutate func(c *Config)) *Engine {
	t.Helper()
	config := DefaultConfig()
	if mutate != nil {
		mutate(config)
	}
	engine, err := NewEngine(store, config, logger.Discard())
	require.NoError(t, err)
	return engine
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	_, err := NewEngine(&memoryStore{}, &Config{ChunkSize: 0, CommitMode: CommitChunked, ReadFailure: ReadFailureFail, MaxLineBytes: 1024}, logger.Discard())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
}

func TestIngestChunking(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		chunkSize int
		sizes     []int
	}{
		{"empty stream", 0, 3, []int{}},
		{"exactly one chunk", 3, 3, []int{3}},
		{"one row past a chunk", 4, 3, []int{3, 1}},
		{"chunk size one", 3, 1, []int{1, 1, 1}},
		{"chunk larger than input", 5, 100, []int{5}},
		{"several full chunks", 10, 5, []int{5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			engine := newTestEngine(t, store, func(c *Config) { c.ChunkSize = tt.chunkSize })

			summary, err := engine.Ingest(context.Background(), strings.NewReader(csvLines(tt.rows)))
			require.NoError(t, err)

			assert.Equal(t, tt.sizes, store.chunkSizes())
			assert.Equal(t, int64(tt.rows), summary.Inserted)
			assert.Equal(t, int64(tt.rows), summary.Rows)
			assert.Equal(t, len(tt.sizes), summary.Chunks)
			assert.False(t, summary.Degraded)
			assert.NotEmpty(t, summary.RunID)
		})
	}
}

func TestIngestParsesRecords(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store, nil)

	_, err := engine.Ingest(context.Background(), strings.NewReader("\ufeff1,2021,1,1,4,004,29000,DEPOSIT\r\n2,2021,3,15,7,090,1500,withdraw\r\n"))
	require.NoError(t, err)
	require.Equal(t, 2, store.rows())

	first := store.chunks[0][0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, models.BankCodeKB, first.BankCode)
	assert.Equal(t, "2021-01-01", first.TransactionDate.String())

	second := store.chunks[1][0]
	assert.Equal(t, models.TransactionTypeWithdraw, second.TransactionType)
	assert.Equal(t, models.BankCodeKK, second.BankCode)
}

func TestIngestStopsAtMalformedRow(t *testing.T) {
	tests := []struct {
		name         string
		badLine      string
		reason       string
		commitMode   CommitMode
		wantInserted int
	}{
		{"column count keeps committed chunks", "6,2021,1,1,4,004,29000", parsers.ReasonColumnCount, CommitChunked, 4},
		{"non numeric keeps committed chunks", "6,2021,1,x,4,004,29000,DEPOSIT", parsers.ReasonNonNumeric, CommitChunked, 4},
		{"unknown bank code", "6,2021,1,1,4,999,29000,DEPOSIT", parsers.ReasonUnknownBankCode, CommitChunked, 4},
		{"atomic rolls everything back", "6,2021,1,1,4,004,29000,REFUND", parsers.ReasonUnknownType, CommitAtomic, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// rows 1-5 valid, row 6 bad, row 7 valid
			input := csvLines(5) + tt.badLine + "\n" + "7,2021,1,1,4,004,100,DEPOSIT\n"

			store := &memoryStore{}
			engine := newTestEngine(t, store, func(c *Config) {
				c.ChunkSize = 2
				c.CommitMode = tt.commitMode
			})

			summary, err := engine.Ingest(context.Background(), strings.NewReader(input))
			require.Error(t, err)

			serviceErr, ok := errors.AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, errors.CodeMalformedRow, serviceErr.Code)
			row, ok := serviceErr.RowNumber()
			require.True(t, ok)
			assert.Equal(t, int64(6), row)
			assert.Equal(t, tt.reason, serviceErr.Reason())

			// row 5 sat in the open chunk and was never written
			assert.Equal(t, tt.wantInserted, store.rows())
			assert.Equal(t, int64(tt.wantInserted), summary.Inserted)
		})
	}
}

func TestIngestLineTooLong(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store, func(c *Config) { c.MaxLineBytes = 64 })

	input := csvLines(1) + strings.Repeat("9", 200) + "\n"
	_, err := engine.Ingest(context.Background(), strings.NewReader(input))
	require.Error(t, err)

	serviceErr, ok := errors.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, parsers.ReasonLineTooLong, serviceErr.Reason())
	row, _ := serviceErr.RowNumber()
	assert.Equal(t, int64(2), row)
	assert.Equal(t, 1, store.rows())
}

func TestIngestStorageFailure(t *testing.T) {
	boom := stderrors.New("unique constraint violated")
	store := &memoryStore{failAt: 2, saveErr: boom}
	engine := newTestEngine(t, store, func(c *Config) { c.ChunkSize = 2 })

	summary, err := engine.Ingest(context.Background(), strings.NewReader(csvLines(6)))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeStorageFailure))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), summary.Inserted)
	assert.Equal(t, []int{2}, store.chunkSizes())
}

func TestIngestReadFailure(t *testing.T) {
	readErr := stderrors.New("connection reset by peer")

	t.Run("fail policy reports the error", func(t *testing.T) {
		store := &memoryStore{}
		engine := newTestEngine(t, store, func(c *Config) { c.ChunkSize = 2 })

		summary, err := engine.Ingest(context.Background(), &errReader{data: strings.NewReader(csvLines(5)), err: readErr})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeStreamReadFailure))
		assert.ErrorIs(t, err, readErr)
		assert.Equal(t, int64(4), summary.Inserted)

		serviceErr, _ := errors.AsServiceError(err)
		assert.Contains(t, serviceErr.Suggestion, "rows committed before the failure are kept")
	})

	t.Run("fail policy in atomic mode stores nothing", func(t *testing.T) {
		store := &memoryStore{}
		engine := newTestEngine(t, store, func(c *Config) {
			c.ChunkSize = 2
			c.CommitMode = CommitAtomic
		})

		summary, err := engine.Ingest(context.Background(), &errReader{data: strings.NewReader(csvLines(5)), err: readErr})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeStreamReadFailure))
		assert.Equal(t, int64(0), summary.Inserted)
		assert.Equal(t, 0, store.rows())

		serviceErr, _ := errors.AsServiceError(err)
		assert.Contains(t, serviceErr.Suggestion, "nothing from this run was stored")
		assert.NotContains(t, serviceErr.Suggestion, "kept")
	})

	t.Run("partial policy returns committed rows", func(t *testing.T) {
		store := &memoryStore{}
		engine := newTestEngine(t, store, func(c *Config) {
			c.ChunkSize = 2
			c.ReadFailure = ReadFailurePartial
		})

		summary, err := engine.Ingest(context.Background(), &errReader{data: strings.NewReader(csvLines(5)), err: readErr})
		require.NoError(t, err)
		assert.True(t, summary.Degraded)
		assert.ErrorIs(t, summary.ReadError, readErr)
		// the open chunk holding row 5 is dropped
		assert.Equal(t, int64(4), summary.Inserted)
		assert.Equal(t, 4, store.rows())
	})
}

func TestIngestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &memoryStore{}
	engine := newTestEngine(t, store, nil)

	_, err := engine.Ingest(ctx, strings.NewReader(csvLines(3)))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeStreamReadFailure))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.rows())
}

func TestIngestAtomicCommitsOnSuccess(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store, func(c *Config) {
		c.ChunkSize = 4
		c.CommitMode = CommitAtomic
	})

	summary, err := engine.Ingest(context.Background(), strings.NewReader(csvLines(10)))
	require.NoError(t, err)
	assert.Equal(t, int64(10), summary.Inserted)
	assert.Equal(t, []int{4, 4, 2}, store.chunkSizes())
}
