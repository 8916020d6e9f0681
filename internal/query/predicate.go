package query

import (
	"strings"

	"gorm.io/gorm/clause"

	"golang-bank-transaction-service/internal/models"
)

// Field names a filterable or sortable column of the bank_transaction table
type Field string

const (
	FieldID              Field = "bank_transaction_id"
	FieldTransactionDate Field = "transaction_date"
	FieldTransactionType Field = "transaction_type"
	FieldBankCode        Field = "bank_code"
	FieldUserID          Field = "user_id"
)

// Condition is one equality constraint. Value holds the typed model value
// and is bound as a query parameter, never spliced into SQL text.
type Condition struct {
	Field Field
	Value interface{}
}

// Clause renders the condition as a gorm equality expression
func (c Condition) Clause() clause.Expression {
	return clause.Eq{Column: clause.Column{Name: string(c.Field)}, Value: c.Value}
}

// Predicate is a conjunction of conditions. The zero value matches every row.
type Predicate struct {
	conditions []Condition
}

// NewPredicate returns an empty predicate
func NewPredicate() *Predicate {
	return &Predicate{}
}

// WithDate constrains transaction_date when date is present
func (p *Predicate) WithDate(date *models.Date) *Predicate {
	if date != nil {
		p.conditions = append(p.conditions, Condition{Field: FieldTransactionDate, Value: *date})
	}
	return p
}

// WithType constrains transaction_type when txType is present
func (p *Predicate) WithType(txType *models.TransactionType) *Predicate {
	if txType != nil {
		p.conditions = append(p.conditions, Condition{Field: FieldTransactionType, Value: *txType})
	}
	return p
}

// WithBankCode constrains bank_code when code is present
func (p *Predicate) WithBankCode(code *models.BankCode) *Predicate {
	if code != nil {
		p.conditions = append(p.conditions, Condition{Field: FieldBankCode, Value: *code})
	}
	return p
}

// Conditions returns a copy of the accumulated conditions
func (p *Predicate) Conditions() []Condition {
	if p == nil {
		return nil
	}
	out := make([]Condition, len(p.conditions))
	copy(out, p.conditions)
	return out
}

// IsEmpty reports whether the predicate is unconditionally true
func (p *Predicate) IsEmpty() bool {
	return p == nil || len(p.conditions) == 0
}

// Expressions renders every condition as a gorm expression, in insertion order
func (p *Predicate) Expressions() []clause.Expression {
	if p == nil {
		return nil
	}
	exprs := make([]clause.Expression, 0, len(p.conditions))
	for _, c := range p.conditions {
		exprs = append(exprs, c.Clause())
	}
	return exprs
}

func (p *Predicate) String() string {
	if p.IsEmpty() {
		return "TRUE"
	}
	parts := make([]string, 0, len(p.conditions))
	for _, c := range p.conditions {
		parts = append(parts, string(c.Field)+" = ?")
	}
	return strings.Join(parts, " AND ")
}

// Order is an ascending multi-column sort
type Order []Field

var (
	// OrderByUser sorts by-user results on (transaction_date, user_id)
	OrderByUser = Order{FieldTransactionDate, FieldUserID, FieldID}
	// OrderByBank sorts by-bank results on (transaction_date, bank_code)
	OrderByBank = Order{FieldTransactionDate, FieldBankCode, FieldID}
)

// Columns renders the order as gorm order-by columns
func (o Order) Columns() []clause.OrderByColumn {
	columns := make([]clause.OrderByColumn, 0, len(o))
	for _, f := range o {
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: string(f)}})
	}
	return columns
}
