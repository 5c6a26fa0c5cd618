package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the failure categories surfaced to clients
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeInternal   ErrorType = "internal"
)

// MaxRawResponseLen caps the model text echoed back on parse failures.
const MaxRawResponseLen = 1000

// AppError represents a structured application error
type AppError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	StatusCode  int       `json:"status_code"`
	RawResponse string    `json:"raw_response,omitempty"`
	Cause       error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ClientMessage is the text placed in the "error" field of a failure payload.
func (e *AppError) ClientMessage() string {
	if e.Type == ErrorTypeUpstream && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewUpstreamError wraps a failure of the hosted model or the network path to it
func NewUpstreamError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewParseError records model output that could not be read as JSON.
// raw is truncated to MaxRawResponseLen characters.
func NewParseError(message string, raw string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeParse,
		Message:     message,
		StatusCode:  http.StatusInternalServerError,
		RawResponse: Truncate(raw, MaxRawResponseLen),
		Cause:       cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// AsAppError returns err as an *AppError, wrapping anything unknown as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err.Error(), err)
}
