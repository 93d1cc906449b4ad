package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeBadRequest  ErrorType = "bad_request"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error
func New(errorType ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// FromStatus maps a non-200 HTTP status code to a typed error
func FromStatus(statusCode int) *Error {
	var errorType ErrorType
	switch {
	case statusCode == http.StatusBadRequest:
		errorType = ErrorTypeBadRequest
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errorType = ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		errorType = ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		errorType = ErrorTypeRateLimit
	case statusCode >= 500:
		errorType = ErrorTypeServerError
	default:
		errorType = ErrorTypeUnknown
	}
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf("unexpected status code: %d", statusCode),
		Code:    statusCode,
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeBadRequest:
		return false
	default:
		return false
	}
}

// IsTransientStatus reports whether the feed endpoint's status code should be
// retried with the same cursor. Only 200 and 400 end an attempt for good.
func IsTransientStatus(statusCode int) bool {
	return statusCode != http.StatusOK && statusCode != http.StatusBadRequest
}

// IsTransient reports whether err should be retried by the feed fetcher.
// Network failures and every status except 200 and 400 qualify.
func IsTransient(err error) bool {
	var apiErr *Error
	if !stderrors.As(err, &apiErr) {
		return false
	}
	if apiErr.Type == ErrorTypeNetwork {
		return true
	}
	return apiErr.Code != 0 && IsTransientStatus(apiErr.Code)
}

// StatusCode extracts the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
