package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang-bank-transaction-service/pkg/errors"
)

// TimestampLayout formats ApiError timestamps
const TimestampLayout = "2006-01-02 15:04:05"

// ApiError is the body of every failed request
type ApiError struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Message      string `json:"message"`
	DebugMessage string `json:"debugMessage"`
}

// statusName renders an HTTP status as an upper snake case name, e.g. BAD_REQUEST
func statusName(code int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
}

// newApiError maps err to its response status and body. Errors that are
// not ServiceErrors are internal and their text is not exposed.
func newApiError(err error, now time.Time) (int, ApiError) {
	serviceErr, ok := errors.AsServiceError(err)
	if !ok {
		serviceErr = errors.InternalError("request", err)
	}

	status := serviceErr.HTTPStatus()
	body := ApiError{
		Status:    statusName(status),
		Timestamp: now.Format(TimestampLayout),
		Message:   serviceErr.Message,
	}

	switch {
	case !ok:
		body.DebugMessage = "unexpected error"
	case serviceErr.Cause != nil && serviceErr.IsClientError():
		body.DebugMessage = serviceErr.Cause.Error()
	default:
		body.DebugMessage = serviceErr.Suggestion
	}

	return status, body
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
