// Package generator writes synthetic bank transaction CSV files in the
// ingestion wire format. It is used to seed demo databases and to build
// large inputs for ingestion tests.
package generator

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"time"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/parsers"
)

// Pattern selects how transaction dates are distributed
type Pattern string

const (
	// PatternRandom spreads rows evenly over the date range
	PatternRandom Pattern = "random"
	// PatternMonthEnd puts most rows in the last five days of each month
	PatternMonthEnd Pattern = "month-end"
)

// truncatedFields is the field count of an injected malformed row
const truncatedFields = 4

// Options configures a TransactionGenerator
type Options struct {
	Count     int
	FirstID   int64
	StartDate models.Date
	EndDate   models.Date
	Users     int64
	MinAmount int64
	MaxAmount int64

	// DepositRatio is the share of rows typed DEPOSIT, between 0 and 1
	DepositRatio float64
	Pattern      Pattern
	Seed         int64

	// MalformedEvery replaces every n-th row with a truncated line.
	// Zero writes only valid rows.
	MalformedEvery int
}

// DefaultOptions returns options for 1000 rows over the year 2021
func DefaultOptions() Options {
	start, _ := models.NewDate(2021, 1, 1)
	end, _ := models.NewDate(2021, 12, 31)
	return Options{
		Count:        1000,
		FirstID:      1,
		StartDate:    start,
		EndDate:      end,
		Users:        100,
		MinAmount:    1000,
		MaxAmount:    1000000,
		DepositRatio: 0.6,
		Pattern:      PatternRandom,
		Seed:         time.Now().UnixNano(),
	}
}

// Validate checks the options for consistency
func (o Options) Validate() error {
	if o.Count < 0 {
		return fmt.Errorf("count cannot be negative: %d", o.Count)
	}
	if o.FirstID <= 0 {
		return fmt.Errorf("first id must be positive: %d", o.FirstID)
	}
	if o.StartDate.IsZero() || o.EndDate.IsZero() || o.EndDate.Before(o.StartDate) {
		return fmt.Errorf("invalid date range %s to %s", o.StartDate, o.EndDate)
	}
	if o.Users <= 0 {
		return fmt.Errorf("users must be positive: %d", o.Users)
	}
	if o.MinAmount < 0 || o.MaxAmount < o.MinAmount {
		return fmt.Errorf("invalid amount range %d to %d", o.MinAmount, o.MaxAmount)
	}
	if o.DepositRatio < 0 || o.DepositRatio > 1 {
		return fmt.Errorf("deposit ratio must be between 0 and 1: %v", o.DepositRatio)
	}
	switch o.Pattern {
	case PatternRandom, PatternMonthEnd:
	default:
		return fmt.Errorf("unknown pattern: %s", o.Pattern)
	}
	if o.MalformedEvery < 0 {
		return fmt.Errorf("malformed-every cannot be negative: %d", o.MalformedEvery)
	}
	return nil
}

// TransactionGenerator produces reproducible transaction rows for a seed
type TransactionGenerator struct {
	opts  Options
	rng   *rand.Rand
	start time.Time
	days  int
}

// NewTransactionGenerator creates a generator from validated options
func NewTransactionGenerator(opts Options) (*TransactionGenerator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := opts.StartDate.Time()
	return &TransactionGenerator{
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		start: start,
		days:  int(opts.EndDate.Time().Sub(start).Hours()/24) + 1,
	}, nil
}

// Next returns the transaction for the i-th row, counting from zero
func (g *TransactionGenerator) Next(i int) *models.BankTransaction {
	date := g.nextDate()

	banks := models.AllBankCodes()
	bank := banks[g.rng.Intn(len(banks))]

	txType := models.TransactionTypeWithdraw
	if g.rng.Float64() < g.opts.DepositRatio {
		txType = models.TransactionTypeDeposit
	}

	amount := g.opts.MinAmount
	if spread := g.opts.MaxAmount - g.opts.MinAmount; spread > 0 {
		amount += g.rng.Int63n(spread + 1)
	}

	d := models.DateOf(date)
	tx, _ := models.NewBankTransaction(
		g.opts.FirstID+int64(i),
		d.Year, int(d.Month), d.Day,
		1+g.rng.Int63n(g.opts.Users),
		bank, amount, txType,
	)
	return tx
}

func (g *TransactionGenerator) nextDate() time.Time {
	if g.opts.Pattern == PatternMonthEnd && g.rng.Float64() < 0.8 {
		day := g.start.AddDate(0, 0, g.rng.Intn(g.days))
		lastOfMonth := time.Date(day.Year(), day.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		candidate := lastOfMonth.AddDate(0, 0, -g.rng.Intn(5))
		end := g.opts.EndDate.Time()
		if !candidate.Before(g.start) && !candidate.After(end) {
			return candidate
		}
		return day
	}
	return g.start.AddDate(0, 0, g.rng.Intn(g.days))
}

// Write streams Count rows to w and returns the number of valid rows written
func (g *TransactionGenerator) Write(w io.Writer) (int, error) {
	writer := csv.NewWriter(w)

	valid := 0
	for i := 0; i < g.opts.Count; i++ {
		tx := g.Next(i)
		record := parsers.FormatRecord(tx)

		if g.opts.MalformedEvery > 0 && (i+1)%g.opts.MalformedEvery == 0 {
			record = record[:truncatedFields]
		} else {
			valid++
		}

		if err := writer.Write(record); err != nil {
			return valid, err
		}
	}

	writer.Flush()
	return valid, writer.Error()
}
