package errors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStorage       ErrorCategory = "storage"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound        ErrorCode = "file_not_found"
	CodeUnsupportedFileType ErrorCode = "unsupported_file_type"

	// Parse errors
	CodeMalformedRow ErrorCode = "malformed_row"

	// Validation errors
	CodeUnknownBankCode    ErrorCode = "unknown_bank_code"
	CodeInvalidPageRequest ErrorCode = "invalid_page_request"
	CodeInvalidParameter   ErrorCode = "invalid_parameter"
	CodeDuplicateID        ErrorCode = "duplicate_id"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"

	// Storage errors
	CodeStorageFailure    ErrorCode = "storage_failure"
	CodeStreamReadFailure ErrorCode = "stream_read_failure"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ServiceError is the base error type for all application errors
type ServiceError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ServiceError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryStorage, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// HTTPStatus returns the response status the REST layer uses for the error.
// Input problems are client errors, everything else is a server error.
func (e *ServiceError) HTTPStatus() int {
	switch e.Category {
	case CategoryFile, CategoryParse, CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether the error was caused by the caller's input
func (e *ServiceError) IsClientError() bool {
	return e.HTTPStatus() < http.StatusInternalServerError
}

// WithContext adds context information to the error
func (e *ServiceError) WithContext(key string, value interface{}) *ServiceError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ServiceError) WithSuggestion(suggestion string) *ServiceError {
	e.Suggestion = suggestion
	return e
}

// RowNumber returns the 1-based CSV row a malformed_row error points at
func (e *ServiceError) RowNumber() (int64, bool) {
	row, ok := e.Context["row_number"].(int64)
	return row, ok
}

// Reason returns the row failure reason of a malformed_row error
func (e *ServiceError) Reason() string {
	reason, _ := e.Context["reason"].(string)
	return reason
}

// New creates a new ServiceError
func New(category ErrorCategory, code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ServiceError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ServiceError {
	if err == nil {
		return nil
	}

	return &ServiceError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newOrWrap(err error, category ErrorCategory, code ErrorCode, message string) *ServiceError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// Specific error constructors

// UnknownBankCode reports a bank code string that matches no registered bank
func UnknownBankCode(code string) *ServiceError {
	return New(CategoryValidation, CodeUnknownBankCode, fmt.Sprintf("unknown bank code: '%s'", code)).
		WithSuggestion("use one of the registered 3-digit codes: 004, 011, 020, 088, 090").
		WithContext("bank_code", code)
}

// MalformedRow reports a CSV line that could not be turned into a transaction.
// row is the 1-based line number within the uploaded stream.
func MalformedRow(row int64, reason string, cause error) *ServiceError {
	message := fmt.Sprintf("row %d is malformed: %s", row, reason)
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}

	return newOrWrap(cause, CategoryParse, CodeMalformedRow, message).
		WithSuggestion("fix the line so it reads id,year,month,day,userId,bankCode,amount,TYPE").
		WithContext("row_number", row).
		WithContext("reason", reason)
}

// UnsupportedFileType reports an upload whose content type is not text/csv
func UnsupportedFileType(contentType string) *ServiceError {
	return New(CategoryFile, CodeUnsupportedFileType, fmt.Sprintf("file is not a csv file: content type '%s'", contentType)).
		WithSuggestion("upload the file with content type text/csv").
		WithContext("content_type", contentType)
}

// InvalidPageRequest reports a page number or size that cannot address a page
func InvalidPageRequest(page, size int) *ServiceError {
	return New(CategoryValidation, CodeInvalidPageRequest, fmt.Sprintf("invalid page request: page=%d, size=%d", page, size)).
		WithSuggestion("page must be zero or greater and size must be greater than zero").
		WithContext("page", page).
		WithContext("size", size)
}

// InvalidParameter reports a request parameter that could not be bound
func InvalidParameter(name, value string, err error) *ServiceError {
	return newOrWrap(err, CategoryValidation, CodeInvalidParameter, fmt.Sprintf("invalid value for parameter '%s': '%s'", name, value)).
		WithContext("parameter", name).
		WithContext("value", value)
}

// StorageError reports a failed read or write against the relational store
func StorageError(operation string, err error) *ServiceError {
	return newOrWrap(err, CategoryStorage, CodeStorageFailure, fmt.Sprintf("storage failure during %s", operation)).
		WithSuggestion("check database connectivity and constraints, then retry").
		WithContext("operation", operation)
}

// DuplicateID reports a chunk holding a transaction id that is already
// stored, or that appears twice in the upload
func DuplicateID(firstID, lastID int64, err error) *ServiceError {
	return newOrWrap(err, CategoryValidation, CodeDuplicateID, fmt.Sprintf("transaction id already exists in chunk with ids %d..%d", firstID, lastID)).
		WithSuggestion("transaction ids must be unique; remove rows that were already uploaded").
		WithContext("first_id", firstID).
		WithContext("last_id", lastID)
}

// StreamReadError reports an I/O failure while reading an uploaded stream
func StreamReadError(row int64, err error) *ServiceError {
	return newOrWrap(err, CategoryStorage, CodeStreamReadFailure, fmt.Sprintf("failed to read input stream after row %d", row)).
		WithSuggestion("retry the upload").
		WithContext("row_number", row)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ServiceError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return newOrWrap(err, CategoryFile, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(setting string, value interface{}, err error) *ServiceError {
	return newOrWrap(err, CategoryConfiguration, CodeInvalidConfig, fmt.Sprintf("invalid configuration for '%s': %v", setting, value)).
		WithSuggestion("check the configuration documentation for valid values").
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *ServiceError {
	return newOrWrap(err, CategoryInternal, CodeUnexpectedError, fmt.Sprintf("unexpected error during %s", operation)).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Utility functions

// AsServiceError extracts a ServiceError from an error chain
func AsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a ServiceError with the given code
func HasCode(err error, code ErrorCode) bool {
	serviceErr, ok := AsServiceError(err)
	return ok && serviceErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already a ServiceError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ServiceError {
	if err == nil {
		return nil
	}

	if serviceErr, ok := AsServiceError(err); ok {
		return serviceErr
	}

	return Wrap(err, category, code, message)
}
