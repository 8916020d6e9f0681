package query

import (
	"context"
	stderrors "errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

type memoryReader struct {
	rows  []*models.BankTransaction
	err   error
	calls int
}

func (m *memoryReader) FindPage(_ context.Context, pred *Predicate, order Order, page models.PageRequest) ([]*models.BankTransaction, int64, error) {
	m.calls++
	if m.err != nil {
		return nil, 0, m.err
	}

	var matched []*models.BankTransaction
	for _, tx := range m.rows {
		if pred.matches(tx) {
			matched = append(matched, tx)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return order.less(matched[i], matched[j]) })

	total := int64(len(matched))
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + int64(page.Size)
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// twelveRows spreads two dates and two banks with two deposits and one
// withdrawal per bank per date
func twelveRows(t *testing.T) []*models.BankTransaction {
	t.Helper()
	var rows []*models.BankTransaction
	id := int64(1)
	for _, day := range []int{2, 1} {
		for _, code := range []models.BankCode{models.BankCodeSH, models.BankCodeKB} {
			for _, txType := range []models.TransactionType{models.TransactionTypeDeposit, models.TransactionTypeWithdraw, models.TransactionTypeDeposit} {
				tx, err := models.NewBankTransaction(id, 2021, 1, day, 13-id, code, id*100, txType)
				require.NoError(t, err)
				rows = append(rows, tx)
				id++
			}
		}
	}
	return rows
}

func TestFindByBank_DepositsOrderedByDateThenBank(t *testing.T) {
	engine := NewEngine(&memoryReader{rows: twelveRows(t)}, logger.Discard())
	deposit := models.TransactionTypeDeposit

	page, err := engine.FindByBank(context.Background(), BankFilter{TransactionType: &deposit}, models.PageRequest{Number: 0, Size: 20})
	require.NoError(t, err)

	require.Len(t, page.Contents, 8)
	assert.Equal(t, int64(8), page.TotalElements)
	assert.Equal(t, int64(1), page.TotalPages)

	for i := 1; i < len(page.Contents); i++ {
		prev, cur := page.Contents[i-1], page.Contents[i]
		assert.False(t, OrderByBank.less(cur, prev), "row %d out of order", i)
	}
	assert.Equal(t, "2021-01-01", page.Contents[0].TransactionDate.String())
	assert.Equal(t, "004", page.Contents[0].BankCode.Code())
	assert.Equal(t, "088", page.Contents[2].BankCode.Code())
	assert.Equal(t, "2021-01-02", page.Contents[4].TransactionDate.String())
	for _, tx := range page.Contents {
		assert.True(t, tx.IsDeposit())
	}
}

func TestFindByBank_SingleRow(t *testing.T) {
	tx, err := models.NewBankTransaction(1, 2022, 1, 1, 3, models.BankCodeNH, 29000, models.TransactionTypeDeposit)
	require.NoError(t, err)

	engine := NewEngine(&memoryReader{rows: []*models.BankTransaction{tx}}, logger.Discard())
	date, _ := models.ParseDate("2022-01-01")
	code := models.BankCodeNH

	page, err := engine.FindByBank(context.Background(), BankFilter{TransactionDate: &date, BankCode: &code}, models.PageRequest{Number: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Contents, 1)
	assert.Equal(t, "011", page.Contents[0].BankCode.Code())
}

func TestFindByUser_Paging(t *testing.T) {
	engine := NewEngine(&memoryReader{rows: twelveRows(t)}, logger.Discard())

	tests := []struct {
		name         string
		page         models.PageRequest
		wantContents int
		wantOffset   int64
	}{
		{"first page", models.PageRequest{Number: 0, Size: 5}, 5, 0},
		{"last partial page", models.PageRequest{Number: 2, Size: 5}, 2, 10},
		{"past the end", models.PageRequest{Number: 7, Size: 5}, 0, 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := engine.FindByUser(context.Background(), UserFilter{}, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContents, page.ContentsSize)
			assert.Len(t, page.Contents, tt.wantContents)
			assert.Equal(t, tt.wantOffset, page.Offset)
			assert.Equal(t, int64(12), page.TotalElements)
			assert.Equal(t, int64(3), page.TotalPages)
		})
	}
}

func TestFindByUser_OrderedByDateThenUser(t *testing.T) {
	engine := NewEngine(&memoryReader{rows: twelveRows(t)}, logger.Discard())

	page, err := engine.FindByUser(context.Background(), UserFilter{}, models.PageRequest{Number: 0, Size: 12})
	require.NoError(t, err)
	require.Len(t, page.Contents, 12)

	for i := 1; i < len(page.Contents); i++ {
		prev, cur := page.Contents[i-1], page.Contents[i]
		if prev.TransactionDate == cur.TransactionDate {
			assert.LessOrEqual(t, prev.UserID, cur.UserID)
		} else {
			assert.True(t, prev.TransactionDate.Before(cur.TransactionDate))
		}
	}
}

func TestFind_NoMatches(t *testing.T) {
	engine := NewEngine(&memoryReader{rows: twelveRows(t)}, logger.Discard())
	date, _ := models.ParseDate("1999-12-31")

	page, err := engine.FindByUser(context.Background(), UserFilter{TransactionDate: &date}, models.PageRequest{Number: 3, Size: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Contents)
	assert.Empty(t, page.Contents)
	assert.Equal(t, int64(0), page.TotalPages)
	assert.Equal(t, int64(30), page.Offset)
}

func TestFind_InvalidPageNeverReachesReader(t *testing.T) {
	reader := &memoryReader{}
	engine := NewEngine(reader, logger.Discard())

	for _, page := range []models.PageRequest{{Number: 0, Size: 0}, {Number: 0, Size: -1}, {Number: -1, Size: 10}} {
		_, err := engine.FindByBank(context.Background(), BankFilter{}, page)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeInvalidPageRequest))
	}
	assert.Equal(t, 0, reader.calls)
}

func TestFind_ReaderFailure(t *testing.T) {
	boom := stderrors.New("connection refused")
	engine := NewEngine(&memoryReader{err: boom}, logger.Discard())

	_, err := engine.FindByUser(context.Background(), UserFilter{}, models.PageRequest{Number: 0, Size: 10})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeStorageFailure))
	assert.ErrorIs(t, err, boom)
}
