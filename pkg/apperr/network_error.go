// Package apperr is the error taxonomy shared by services, handlers and the
// event worker. Each code has one HTTP status; the worker uses the same codes
// to decide whether a failed event is worth retrying.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// Auth
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"

	// Validation
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingField     = "MISSING_FIELD"
	CodeSelfAction       = "SELF_ACTION"

	// Resources
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"

	// Infrastructure
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeInvalidToken:     http.StatusUnauthorized,
	CodeTokenExpired:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeRateLimited:      http.StatusTooManyRequests,
	CodeValidationFailed: http.StatusBadRequest,
	CodeBadRequest:       http.StatusBadRequest,
	CodeInvalidInput:     http.StatusBadRequest,
	CodeMissingField:     http.StatusBadRequest,
	CodeSelfAction:       http.StatusBadRequest,
	CodeNotFound:         http.StatusNotFound,
	CodeConflict:         http.StatusBadRequest,
	CodeDatabaseError:    http.StatusInternalServerError,
	CodeInternalError:    http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for code, 500 for unknown codes.
func StatusFor(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinel comparisons survive wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: StatusFor(code)}
}

func withField(code, message, field string) *AppError {
	return newError(code, message).WithDetail("field", field)
}

// Auth

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(CodeUnauthorized, message)
}

func InvalidToken(message string) *AppError {
	return newError(CodeInvalidToken, message)
}

func TokenExpired() *AppError {
	return newError(CodeTokenExpired, "token expired")
}

// Forbidden is returned when a user acts on a connection or post they are
// not a party to.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(CodeForbidden, message)
}

func RateLimited(retryAfterSeconds int) *AppError {
	return newError(CodeRateLimited, "rate limit exceeded").WithDetail("retry_after", retryAfterSeconds)
}

// Validation

func BadRequest(message string) *AppError {
	return newError(CodeBadRequest, message)
}

func ValidationFailed(message string) *AppError {
	return newError(CodeValidationFailed, message)
}

func InvalidInput(field, reason string) *AppError {
	return withField(CodeInvalidInput, fmt.Sprintf("invalid input for '%s': %s", field, reason), field)
}

func MissingField(field string) *AppError {
	return withField(CodeMissingField, fmt.Sprintf("missing required field: %s", field), field)
}

// SelfAction rejects an action a user attempts on their own account or
// content: connecting, following, endorsing, voting.
func SelfAction(action string) *AppError {
	return newError(CodeSelfAction, fmt.Sprintf("cannot %s yourself", action)).WithDetail("action", action)
}

// Resources

func NotFound(resource string) *AppError {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// Duplicate reports a second attempt at a one-shot relation (connection,
// follow, like, vote). Clients receive it as a 400.
func Duplicate(message string) *AppError {
	return newError(CodeConflict, message)
}

// Infrastructure

func DatabaseError(operation string, err error) *AppError {
	e := newError(CodeDatabaseError, fmt.Sprintf("database error: %s", operation))
	e.Err = err
	return e
}

func InternalWithError(err error) *AppError {
	e := newError(CodeInternalError, "internal server error")
	e.Err = err
	return e
}

var (
	ErrNotFound   = NotFound("resource")
	ErrConflict   = Duplicate("resource conflict")
	ErrSelfAction = SelfAction("act on")
)

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError returns the AppError in err's chain or wraps err as an
// internal error with a generic message.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}

func GetHTTPStatus(err error) int {
	return AsAppError(err).Status
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Permanent reports whether retrying the operation that produced err can
// never succeed. Client-side codes are permanent; infrastructure codes and
// plain errors are not.
func Permanent(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeDatabaseError, CodeInternalError:
		return false
	}
	return appErr.Status < http.StatusInternalServerError
}
