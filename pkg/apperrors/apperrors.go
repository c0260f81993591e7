package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for HTTP mapping
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeNotFound       Code = "NOT_FOUND"
	CodeAuthentication Code = "AUTHENTICATION_ERROR"
	CodePermission     Code = "PERMISSION_ERROR"
	CodeRateLimit      Code = "RATE_LIMIT_ERROR"
	CodeConflict       Code = "CONFLICT_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeValidation:     http.StatusBadRequest,
	CodeNotFound:       http.StatusNotFound,
	CodeAuthentication: http.StatusUnauthorized,
	CodePermission:     http.StatusForbidden,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeConflict:       http.StatusBadRequest,
	CodeInternal:       http.StatusInternalServerError,
}

// Error is a classified application error. Details carries structured
// payload safe to return to the client (e.g. field errors, retry hints);
// the wrapped cause is for logs only and never leaves the server.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus returns the HTTP status for the error's code
func (e *Error) HTTPStatus() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WithDetail attaches a structured detail entry and returns the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Validation builds a 400 validation error
func Validation(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a 404 error. The same message is used for missing and
// not-owned resources so existence is not leaked.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Authentication builds a 401 error
func Authentication(format string, args ...interface{}) *Error {
	return &Error{Code: CodeAuthentication, Message: fmt.Sprintf(format, args...)}
}

// Permission builds a 403 error
func Permission(format string, args ...interface{}) *Error {
	return &Error{Code: CodePermission, Message: fmt.Sprintf(format, args...)}
}

// RateLimit builds a 429 error carrying the retry-after hint in seconds
func RateLimit(availableIn int) *Error {
	e := &Error{Code: CodeRateLimit, Message: "too many attempts, please try again later"}
	return e.WithDetail("available_in", availableIn)
}

// Conflict builds a 400 uniqueness-conflict error
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The cause is logged server-side;
// clients only see the generic message.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "internal server error", cause: cause}
}

// As extracts an *Error from err's chain, or wraps err as Internal
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err carries the given code
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
