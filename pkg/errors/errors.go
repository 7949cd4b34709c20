package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the failure classes of the crawl-and-extract pipeline
type ErrorType string

const (
	ErrorTypeFetch     ErrorType = "fetch_failure"
	ErrorTypeMalformed ErrorType = "malformed_document"
	ErrorTypeStorage   ErrorType = "storage"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// ErrAlreadyRecorded is returned by the registry when a source URL has been
// recorded before. It signals idempotence, not failure.
var ErrAlreadyRecorded = errors.New("already recorded")

// ErrBodyTooLarge is returned when a response exceeds the fetch size cap
var ErrBodyTooLarge = errors.New("response body too large")

// Error carries the failure class together with the operation and URL involved
type Error struct {
	Type       ErrorType
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Op)
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewFetchFailure wraps a network, timeout or navigation failure for url
func NewFetchFailure(op, url string, err error) *Error {
	return &Error{Type: ErrorTypeFetch, Op: op, URL: url, Err: err}
}

// NewStatusFailure reports a non-success HTTP status as a fetch failure
func NewStatusFailure(op, url string, statusCode int) *Error {
	return &Error{Type: ErrorTypeFetch, Op: op, URL: url, StatusCode: statusCode}
}

// NewMalformed reports a document that cannot be parsed as a case document at all
func NewMalformed(url, reason string) *Error {
	return &Error{Type: ErrorTypeMalformed, Op: "extract", URL: url, Err: errors.New(reason)}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsFetchFailure reports whether err is a fetch failure
func IsFetchFailure(err error) bool {
	return TypeOf(err) == ErrorTypeFetch
}

// IsMalformed reports whether err is a malformed document failure
func IsMalformed(err error) bool {
	return TypeOf(err) == ErrorTypeMalformed
}

// IsRetryableStatusCode reports whether an HTTP status is worth fetching again on a later run
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0, 408, 429:
		return true
	case 401, 403, 404, 410:
		return false
	default:
		return statusCode >= 500
	}
}

// Retryable reports whether a failed fetch may succeed when the link is
// tried again on a later run
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Type != ErrorTypeFetch {
		return false
	}
	if errors.Is(err, ErrBodyTooLarge) {
		return false
	}
	return IsRetryableStatusCode(e.StatusCode)
}
