package generator

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/parsers"
	"golang-bank-transaction-service/pkg/errors"
)

func testOptions(count int) Options {
	opts := DefaultOptions()
	opts.Count = count
	opts.Seed = 42
	return opts
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"negative count", func(o *Options) { o.Count = -1 }},
		{"zero first id", func(o *Options) { o.FirstID = 0 }},
		{"reversed dates", func(o *Options) { o.StartDate, o.EndDate = o.EndDate, o.StartDate }},
		{"no users", func(o *Options) { o.Users = 0 }},
		{"amount range", func(o *Options) { o.MinAmount, o.MaxAmount = 10, 5 }},
		{"deposit ratio", func(o *Options) { o.DepositRatio = 1.5 }},
		{"pattern", func(o *Options) { o.Pattern = "weekly" }},
		{"malformed every", func(o *Options) { o.MalformedEvery = -3 }},
	}

	require.NoError(t, testOptions(10).Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(10)
			tt.modify(&opts)
			_, err := NewTransactionGenerator(opts)
			assert.Error(t, err)
		})
	}
}

func TestWriteProducesParseableRows(t *testing.T) {
	for _, pattern := range []Pattern{PatternRandom, PatternMonthEnd} {
		t.Run(string(pattern), func(t *testing.T) {
			opts := testOptions(500)
			opts.Pattern = pattern

			g, err := NewTransactionGenerator(opts)
			require.NoError(t, err)

			var buf bytes.Buffer
			valid, err := g.Write(&buf)
			require.NoError(t, err)
			assert.Equal(t, 500, valid)

			scanner := bufio.NewScanner(&buf)
			var row int64
			for scanner.Scan() {
				row++
				tx, err := parsers.ParseLine(row, scanner.Text())
				require.NoError(t, err, "row %d", row)

				assert.Equal(t, row, tx.ID)
				assert.False(t, tx.TransactionDate.Before(opts.StartDate))
				assert.False(t, opts.EndDate.Before(tx.TransactionDate))
				assert.GreaterOrEqual(t, tx.TransactionAmount, opts.MinAmount)
				assert.LessOrEqual(t, tx.TransactionAmount, opts.MaxAmount)
				assert.LessOrEqual(t, tx.UserID, opts.Users)
			}
			require.NoError(t, scanner.Err())
			assert.Equal(t, int64(500), row)
		})
	}
}

func TestWriteIsReproducible(t *testing.T) {
	write := func() string {
		g, err := NewTransactionGenerator(testOptions(50))
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = g.Write(&buf)
		require.NoError(t, err)
		return buf.String()
	}

	assert.Equal(t, write(), write())
}

func TestWriteMalformedEvery(t *testing.T) {
	opts := testOptions(10)
	opts.MalformedEvery = 4

	g, err := NewTransactionGenerator(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	valid, err := g.Write(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, valid)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)

	_, err = parsers.ParseLine(4, lines[3])
	serviceErr, ok := errors.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeMalformedRow, serviceErr.Code)
	assert.Equal(t, parsers.ReasonColumnCount, serviceErr.Reason())
}

func TestFirstID(t *testing.T) {
	opts := testOptions(3)
	opts.FirstID = 100
	opts.StartDate, _ = models.NewDate(2022, 3, 1)
	opts.EndDate = opts.StartDate

	g, err := NewTransactionGenerator(opts)
	require.NoError(t, err)

	tx := g.Next(2)
	assert.Equal(t, int64(102), tx.ID)
	assert.Equal(t, "2022-03-01", tx.TransactionDate.String())
}
