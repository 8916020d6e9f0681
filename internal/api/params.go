package api

import (
	"net/url"
	"strconv"
	"strings"

	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/pkg/errors"
)

// Query parameter names
const (
	ParamTransactionDate = "transaction_date"
	ParamTransactionType = "transaction_type"
	ParamBankCode        = "bank_code"
	ParamPage            = "page"
	ParamSize            = "size"
)

// An empty parameter counts as absent in every parser below.

func parseDateParam(values url.Values) (*models.Date, error) {
	raw := strings.TrimSpace(values.Get(ParamTransactionDate))
	if raw == "" {
		return nil, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return nil, errors.InvalidParameter(ParamTransactionDate, raw, err).
			WithSuggestion("use the yyyy-MM-dd format")
	}
	return &date, nil
}

func parseTypeParam(values url.Values) (*models.TransactionType, error) {
	raw := strings.TrimSpace(values.Get(ParamTransactionType))
	if raw == "" {
		return nil, nil
	}
	txType, err := models.ParseTransactionType(raw)
	if err != nil {
		return nil, errors.InvalidParameter(ParamTransactionType, raw, err).
			WithSuggestion("use WITHDRAW or DEPOSIT")
	}
	return &txType, nil
}

func parseBankCodeParam(values url.Values) (*models.BankCode, error) {
	raw := strings.TrimSpace(values.Get(ParamBankCode))
	if raw == "" {
		return nil, nil
	}
	code, err := models.ResolveBankCode(raw)
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// parsePageParams binds page and size. A missing size takes defaultSize and
// a size above maxSize is clamped; range checks are left to the page request.
func parsePageParams(values url.Values, defaultSize, maxSize int) (models.PageRequest, error) {
	page := models.PageRequest{Number: 0, Size: defaultSize}

	if raw := strings.TrimSpace(values.Get(ParamPage)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, errors.InvalidParameter(ParamPage, raw, err)
		}
		page.Number = n
	}

	if raw := strings.TrimSpace(values.Get(ParamSize)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, errors.InvalidParameter(ParamSize, raw, err)
		}
		page.Size = n
	}

	if page.Size > maxSize {
		page.Size = maxSize
	}
	return page, nil
}
