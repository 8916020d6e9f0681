// Package query answers filtered, paginated lookups over stored bank
// transactions.
//
// Every lookup builds a predicate from the filters that are present and
// runs a content query and a count query under it. Both must see the same
// snapshot, which the Reader guarantees by running them in one read
// transaction.
package query

import (
	"context"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

// Reader fetches one ordered page of rows matching pred together with the
// total number of matching rows
type Reader interface {
	FindPage(ctx context.Context, pred *Predicate, order Order, page models.PageRequest) ([]*models.BankTransaction, int64, error)
}

// UserFilter holds the optional filters of a by-user lookup
type UserFilter struct {
	TransactionDate *models.Date
	TransactionType *models.TransactionType
}

// BankFilter holds the optional filters of a by-bank lookup
type BankFilter struct {
	TransactionDate *models.Date
	TransactionType *models.TransactionType
	BankCode        *models.BankCode
}

// Engine is the filtered query engine
type Engine struct {
	reader Reader
	logger logger.Logger
}

// NewEngine creates a query engine over reader
func NewEngine(reader Reader, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Engine{
		reader: reader,
		logger: log.WithComponent("query"),
	}
}

// FindByUser returns one page of transactions ordered by date then user
func (e *Engine) FindByUser(ctx context.Context, filter UserFilter, page models.PageRequest) (*models.PageResult[*models.BankTransaction], error) {
	pred := NewPredicate().
		WithDate(filter.TransactionDate).
		WithType(filter.TransactionType)

	return e.find(ctx, "find_by_user", pred, OrderByUser, page)
}

// FindByBank returns one page of transactions ordered by date then bank code
func (e *Engine) FindByBank(ctx context.Context, filter BankFilter, page models.PageRequest) (*models.PageResult[*models.BankTransaction], error) {
	pred := NewPredicate().
		WithDate(filter.TransactionDate).
		WithType(filter.TransactionType).
		WithBankCode(filter.BankCode)

	return e.find(ctx, "find_by_bank", pred, OrderByBank, page)
}

func (e *Engine) find(ctx context.Context, operation string, pred *Predicate, order Order, page models.PageRequest) (*models.PageResult[*models.BankTransaction], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	log := e.logger.WithFields(logger.Fields{
		"operation": operation,
		"predicate": pred.String(),
		"page":      page.Number,
		"size":      page.Size,
	})

	contents, total, err := e.reader.FindPage(ctx, pred, order, page)
	if err != nil {
		log.WithError(err).Error("Query failed")
		return nil, errors.WrapIfNeeded(err, errors.CategoryStorage, errors.CodeStorageFailure, "storage failure during "+operation)
	}

	result, err := models.AssemblePage(contents, page, total)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"contents": result.ContentsSize,
		"total":    result.TotalElements,
	}).Debug("Query completed")

	return result, nil
}
