package query

import (
	"strings"

	"golang-bank-transaction-service/internal/models"
)

// In-memory evaluation of predicates and orders, used by the memoryReader
// fake to mirror what the SQL store does.

// matches evaluates the condition against a single record
func (c Condition) matches(tx *models.BankTransaction) bool {
	switch c.Field {
	case FieldID:
		return c.Value == tx.ID
	case FieldTransactionDate:
		return c.Value == tx.TransactionDate
	case FieldTransactionType:
		return c.Value == tx.TransactionType
	case FieldBankCode:
		return c.Value == tx.BankCode
	case FieldUserID:
		return c.Value == tx.UserID
	default:
		return false
	}
}

// matches reports whether tx satisfies every condition
func (p *Predicate) matches(tx *models.BankTransaction) bool {
	if p == nil {
		return true
	}
	for _, c := range p.conditions {
		if !c.matches(tx) {
			return false
		}
	}
	return true
}

// less reports whether a sorts before b
func (o Order) less(a, b *models.BankTransaction) bool {
	for _, f := range o {
		if c := compareField(f, a, b); c != 0 {
			return c < 0
		}
	}
	return false
}

func compareField(f Field, a, b *models.BankTransaction) int {
	switch f {
	case FieldID:
		return compareInt(a.ID, b.ID)
	case FieldTransactionDate:
		switch {
		case a.TransactionDate.Before(b.TransactionDate):
			return -1
		case b.TransactionDate.Before(a.TransactionDate):
			return 1
		}
		return 0
	case FieldTransactionType:
		return strings.Compare(string(a.TransactionType), string(b.TransactionType))
	case FieldBankCode:
		// stored as the 3-digit code, so compare codes rather than enum positions
		return strings.Compare(a.BankCode.Code(), b.BankCode.Code())
	case FieldUserID:
		return compareInt(a.UserID, b.UserID)
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
