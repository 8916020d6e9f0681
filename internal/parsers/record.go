// Package parsers turns raw CSV lines into bank transactions.
//
// The wire format is eight comma-separated fields with no quoting or
// escaping:
//
//	id,year,month,day,userId,bankCode,amount,TYPE
//	1,2021,1,1,4,004,29000,DEPOSIT
//
// Lines are split on a bare comma, so amounts or codes containing commas
// cannot be expressed. Parsing is all-or-nothing per row: either a complete,
// validated BankTransaction is returned or a malformed_row error naming the
// row number and the failing rule.
package parsers

import (
	"strconv"
	"strings"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/pkg/errors"
)

// ColumnCount is the number of fields every CSV line must carry
const ColumnCount = 8

// Column positions within a line
const (
	ColumnID = iota
	ColumnYear
	ColumnMonth
	ColumnDay
	ColumnUserID
	ColumnBankCode
	ColumnAmount
	ColumnType
)

// Row failure reasons reported in malformed_row errors
const (
	ReasonColumnCount     = "column count mismatch"
	ReasonNonNumeric      = "non-numeric field"
	ReasonUnknownBankCode = "unknown bank code"
	ReasonUnknownType     = "unknown transaction type"
	ReasonInvalidDate     = "invalid calendar date"
	ReasonOutOfRange      = "field out of range"
	ReasonLineTooLong     = "line too long"
)

var columnNames = [ColumnCount]string{
	ColumnID:       "id",
	ColumnYear:     "year",
	ColumnMonth:    "month",
	ColumnDay:      "day",
	ColumnUserID:   "userId",
	ColumnBankCode: "bankCode",
	ColumnAmount:   "amount",
	ColumnType:     "type",
}

// SplitLine splits a raw line on every comma
func SplitLine(line string) []string {
	return strings.Split(line, ",")
}

// ParseLine splits and parses one raw line
func ParseLine(row int64, line string) (*models.BankTransaction, error) {
	return ParseRecord(row, SplitLine(line))
}

// ParseRecord converts the columns of one line into a BankTransaction.
// Checks run in a fixed order: column count, the integer columns id..userId,
// bank code, amount, transaction type, calendar date, value ranges. The
// first failing check decides the reported reason.
func ParseRecord(row int64, columns []string) (*models.BankTransaction, error) {
	if len(columns) != ColumnCount {
		return nil, errors.MalformedRow(row, ReasonColumnCount, nil).
			WithContext("columns", len(columns))
	}

	var ints [ColumnUserID + 1]int64
	for col := ColumnID; col <= ColumnUserID; col++ {
		v, err := parseInt(row, col, columns[col])
		if err != nil {
			return nil, err
		}
		ints[col] = v
	}

	bankCode, err := models.ResolveBankCode(columns[ColumnBankCode])
	if err != nil {
		return nil, errors.MalformedRow(row, ReasonUnknownBankCode, err).
			WithContext("column", columnNames[ColumnBankCode])
	}

	amount, err := parseInt(row, ColumnAmount, columns[ColumnAmount])
	if err != nil {
		return nil, err
	}

	txType, err := models.ParseTransactionType(columns[ColumnType])
	if err != nil {
		return nil, errors.MalformedRow(row, ReasonUnknownType, nil).
			WithContext("column", columnNames[ColumnType]).
			WithContext("value", columns[ColumnType])
	}

	year, month, day := int(ints[ColumnYear]), int(ints[ColumnMonth]), int(ints[ColumnDay])
	if int64(year) != ints[ColumnYear] || int64(month) != ints[ColumnMonth] || int64(day) != ints[ColumnDay] {
		return nil, errors.MalformedRow(row, ReasonInvalidDate, nil)
	}

	tx, err := models.NewBankTransaction(ints[ColumnID], year, month, day, ints[ColumnUserID], bankCode, amount, txType)
	if err != nil {
		return nil, errors.MalformedRow(row, ReasonInvalidDate, err)
	}

	if err := tx.Validate(); err != nil {
		return nil, errors.MalformedRow(row, ReasonOutOfRange, err)
	}

	return tx, nil
}

func parseInt(row int64, col int, value string) (int64, error) {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.MalformedRow(row, ReasonNonNumeric, err).
			WithContext("column", columnNames[col]).
			WithContext("value", value)
	}
	return v, nil
}

// ColumnNames returns the field names in wire order
func ColumnNames() []string {
	names := make([]string, ColumnCount)
	copy(names, columnNames[:])
	return names
}

// FormatRecord is the inverse of ParseRecord: it renders tx as the eight
// wire fields
func FormatRecord(tx *models.BankTransaction) []string {
	record := make([]string, ColumnCount)
	record[ColumnID] = strconv.FormatInt(tx.ID, 10)
	record[ColumnYear] = strconv.Itoa(tx.Year)
	record[ColumnMonth] = strconv.Itoa(tx.Month)
	record[ColumnDay] = strconv.Itoa(tx.Day)
	record[ColumnUserID] = strconv.FormatInt(tx.UserID, 10)
	record[ColumnBankCode] = tx.BankCode.Code()
	record[ColumnAmount] = strconv.FormatInt(tx.TransactionAmount, 10)
	record[ColumnType] = tx.TransactionType.String()
	return record
}
