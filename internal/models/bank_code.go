package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"golang-bank-transaction-service/pkg/errors"
)

// BankCode identifies one of the banks whose transactions the service stores.
// The set is closed; values outside it are rejected on parse and never stored.
type BankCode uint8

const (
	// bankCodeUnknown is the zero value and never resolves
	bankCodeUnknown BankCode = iota
	BankCodeKB
	BankCodeNH
	BankCodeWB
	BankCodeSH
	BankCodeKK
)

type bankInfo struct {
	code  string
	short string
	name  string
}

var bankRegistry = [...]bankInfo{
	BankCodeKB: {code: "004", short: "KB", name: "국민은행"},
	BankCodeNH: {code: "011", short: "NH", name: "농협은행"},
	BankCodeWB: {code: "020", short: "WB", name: "우리은행"},
	BankCodeSH: {code: "088", short: "SH", name: "신한은행"},
	BankCodeKK: {code: "090", short: "KK", name: "카카오뱅크"},
}

var bankCodesByCode = func() map[string]BankCode {
	lookup := make(map[string]BankCode, len(bankRegistry))
	for bc, info := range bankRegistry {
		if info.code != "" {
			lookup[info.code] = BankCode(bc)
		}
	}
	return lookup
}()

// AllBankCodes returns the registered bank codes in ascending code order
func AllBankCodes() []BankCode {
	return []BankCode{BankCodeKB, BankCodeNH, BankCodeWB, BankCodeSH, BankCodeKK}
}

// ResolveBankCode decodes a 3-digit bank code. Blank or unregistered codes
// fail with an unknown_bank_code error.
func ResolveBankCode(code string) (BankCode, error) {
	if strings.TrimSpace(code) == "" {
		return bankCodeUnknown, errors.UnknownBankCode(code)
	}
	bc, ok := bankCodesByCode[code]
	if !ok {
		return bankCodeUnknown, errors.UnknownBankCode(code)
	}
	return bc, nil
}

// IsValid checks if the bank code is a registered member of the set
func (b BankCode) IsValid() bool {
	return b > bankCodeUnknown && int(b) < len(bankRegistry)
}

// Code returns the stored 3-digit representation, e.g. "004"
func (b BankCode) Code() string {
	if !b.IsValid() {
		return ""
	}
	return bankRegistry[b].code
}

// ShortName returns the short bank identifier, e.g. "KB"
func (b BankCode) ShortName() string {
	if !b.IsValid() {
		return ""
	}
	return bankRegistry[b].short
}

// Name returns the bank's display name
func (b BankCode) Name() string {
	if !b.IsValid() {
		return ""
	}
	return bankRegistry[b].name
}

// String returns the 3-digit code
func (b BankCode) String() string {
	if !b.IsValid() {
		return fmt.Sprintf("BankCode(%d)", uint8(b))
	}
	return b.Code()
}

// Value implements driver.Valuer; the column stores the 3-digit code
func (b BankCode) Value() (driver.Value, error) {
	if !b.IsValid() {
		return nil, errors.UnknownBankCode(b.String())
	}
	return b.Code(), nil
}

// Scan implements sql.Scanner
func (b *BankCode) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into BankCode", src)
	}

	bc, err := ResolveBankCode(raw)
	if err != nil {
		return err
	}
	*b = bc
	return nil
}

// MarshalJSON renders the bank code as its 3-digit string
func (b BankCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Code())
}

// UnmarshalJSON parses a 3-digit string
func (b *BankCode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return b.Scan(raw)
}
