package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	// TransactionTypeWithdraw represents money leaving the account
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	// TransactionTypeDeposit represents money entering the account
	TransactionTypeDeposit TransactionType = "DEPOSIT"
)

// ParseTransactionType resolves a transaction type case-insensitively and
// returns its canonical upper-case form
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(s))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown transaction type: '%s'", s)
	}
	return t, nil
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeWithdraw || t == TransactionTypeDeposit
}

// Value implements driver.Valuer
func (t TransactionType) Value() (driver.Value, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid transaction type: %s", string(t))
	}
	return string(t), nil
}

// Scan implements sql.Scanner
func (t *TransactionType) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TransactionType", src)
	}

	parsed, err := ParseTransactionType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// BankTransaction is one deposit or withdrawal event. Records are created by
// CSV ingestion only and are immutable once stored.
//
// Year, Month and Day duplicate TransactionDate for legacy queries; NewBankTransaction
// keeps the two representations consistent.
type BankTransaction struct {
	ID                int64           `json:"id" gorm:"column:bank_transaction_id;primaryKey;autoIncrement:false"`
	Year              int             `json:"year" gorm:"column:year;not null"`
	Month             int             `json:"month" gorm:"column:month;not null"`
	Day               int             `json:"day" gorm:"column:day;not null"`
	TransactionDate   Date            `json:"transactionDate" gorm:"column:transaction_date;type:date;not null;index:idx_bank_transaction,priority:1"`
	UserID            int64           `json:"userId" gorm:"column:user_id;not null"`
	BankCode          BankCode        `json:"bankCode" gorm:"column:bank_code;type:varchar(3);not null"`
	TransactionAmount int64           `json:"transactionAmount" gorm:"column:transaction_amount;not null"`
	TransactionType   TransactionType `json:"transactionType" gorm:"column:transaction_type;type:varchar(16);not null;index:idx_bank_transaction,priority:2"`
}

// TableName pins the table name used by the relational store
func (BankTransaction) TableName() string {
	return "bank_transaction"
}

// NewBankTransaction creates a BankTransaction whose date is derived from
// year, month and day. It fails when they do not form a calendar date.
func NewBankTransaction(id int64, year, month, day int, userID int64, bankCode BankCode, amount int64, txType TransactionType) (*BankTransaction, error) {
	date, err := NewDate(year, month, day)
	if err != nil {
		return nil, err
	}

	return &BankTransaction{
		ID:                id,
		Year:              year,
		Month:             month,
		Day:               day,
		TransactionDate:   date,
		UserID:            userID,
		BankCode:          bankCode,
		TransactionAmount: amount,
		TransactionType:   txType,
	}, nil
}

// Validate performs basic validation on the BankTransaction
func (t *BankTransaction) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("transaction id must be positive: %d", t.ID)
	}

	if t.UserID <= 0 {
		return fmt.Errorf("user id must be positive: %d", t.UserID)
	}

	if t.TransactionAmount < 0 {
		return fmt.Errorf("transaction amount cannot be negative: %d", t.TransactionAmount)
	}

	if !t.BankCode.IsValid() {
		return fmt.Errorf("invalid bank code: %s", t.BankCode)
	}

	if !t.TransactionType.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", t.TransactionType)
	}

	if t.TransactionDate.Year != t.Year || int(t.TransactionDate.Month) != t.Month || t.TransactionDate.Day != t.Day {
		return fmt.Errorf("transaction date %s does not match %04d-%02d-%02d", t.TransactionDate, t.Year, t.Month, t.Day)
	}

	return nil
}

// String returns a string representation of the BankTransaction
func (t *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{ID: %d, Date: %s, User: %d, Bank: %s, Amount: %d, Type: %s}",
		t.ID, t.TransactionDate, t.UserID, t.BankCode, t.TransactionAmount, t.TransactionType)
}

// IsDeposit returns true if the transaction is a deposit
func (t *BankTransaction) IsDeposit() bool {
	return t.TransactionType == TransactionTypeDeposit
}

// IsWithdraw returns true if the transaction is a withdrawal
func (t *BankTransaction) IsWithdraw() bool {
	return t.TransactionType == TransactionTypeWithdraw
}

// TransactionView is the response shape of a stored transaction
type TransactionView struct {
	BankTransactionID int64  `json:"bankTransactionId"`
	UserID            int64  `json:"userId"`
	BankCode          string `json:"bankCode"`
	TransactionType   string `json:"transactionType"`
	TransactionDate   string `json:"transactionDate"`
	TransactionAmount int64  `json:"transactionAmount"`
}

// View maps the transaction to its response shape
func (t *BankTransaction) View() TransactionView {
	return TransactionView{
		BankTransactionID: t.ID,
		UserID:            t.UserID,
		BankCode:          t.BankCode.Code(),
		TransactionType:   t.TransactionType.String(),
		TransactionDate:   t.TransactionDate.String(),
		TransactionAmount: t.TransactionAmount,
	}
}
