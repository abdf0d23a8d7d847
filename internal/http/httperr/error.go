package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"prosektor-api/internal/observability/logger"

	"go.uber.org/zap"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	OK    bool         `json:"ok"`
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
	ErrorID string              `json:"error_id,omitempty"`
}

// Error codes for 401 Unauthorized (authentication failures)
const (
	// CodeUnauthorized covers missing/invalid credentials and "no accessible
	// tenant". The same code and message are deliberately reused so a caller
	// cannot probe whether an account or tenant exists.
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeCustomJWTExpired = "CUSTOM_JWT_EXPIRED"
	CodeCustomJWTInvalid = "CUSTOM_JWT_INVALID"
)

// Error codes for 403 Forbidden (credential valid, access denied)
const (
	CodeForbidden = "FORBIDDEN"
	// CodeNoTenant is a system-state problem (nothing to resolve to), not a
	// permission problem, so it gets its own code.
	CodeNoTenant = "NO_TENANT"
)

// Error codes for 400 Bad Request
const (
	CodeValidationError = "VALIDATION_ERROR"
)

// Other error codes
const (
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimited   = "RATE_LIMITED"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// statusTable drives the fixed code -> HTTP status mapping
var statusTable = map[string]int{
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeCustomJWTExpired: http.StatusUnauthorized,
	CodeCustomJWTInvalid: http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeNoTenant:         http.StatusForbidden,
	CodeValidationError:  http.StatusBadRequest,
	CodeNotFound:         http.StatusNotFound,
	CodeRateLimited:      http.StatusTooManyRequests,
	CodeDatabaseError:    http.StatusInternalServerError,
	CodeInternalError:    http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error code
func StatusFor(code string) int {
	if status, ok := statusTable[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a typed failure raised by the auth subsystem. It carries the
// wire-level code, a user-safe message, optional field details, optional
// response headers (rate limiting), and the internal cause which is logged
// but never exposed.
type Error struct {
	Code    string
	Message string
	Details map[string][]string
	Headers map[string]string
	cause   error
}

// New creates a typed Error for a known code
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status for this error
func (e *Error) Status() int {
	return StatusFor(e.Code)
}

// WithDetails attaches field-level details
func (e *Error) WithDetails(details map[string][]string) *Error {
	e.Details = details
	return e
}

// WithHeader attaches a response header to emit alongside the error
func (e *Error) WithHeader(key, value string) *Error {
	if e.Headers == nil {
		e.Headers = make(map[string]string)
	}
	e.Headers[key] = value
	return e
}

// WithCause attaches the internal cause for logging
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// AsError checks if err is a typed Error and returns it
func AsError(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// Write maps any error to a response. The HTTP boundary is the only place
// allowed to perform this mapping; untyped errors become a generic 500 and
// the cause is only logged.
func Write(w http.ResponseWriter, ctx context.Context, err error) {
	typed, ok := AsError(err)
	if !ok {
		typed = New(CodeInternalError, "internal server error").WithCause(err)
	}

	log := logger.GetLogger(ctx)
	reqID := logger.GetRequestIDFromContext(ctx)

	fields := []zap.Field{
		zap.Int("status_code", typed.Status()),
		zap.String("error_code", typed.Code),
		zap.String("request_id", reqID),
	}
	if typed.cause != nil {
		fields = append(fields, zap.Error(typed.cause))
	}
	log.Error(ctx, "request failed", fields...)

	for k, v := range typed.Headers {
		w.Header().Set(k, v)
	}

	response := ErrorResponse{
		OK: false,
		Error: &ErrorDetail{
			Code:    typed.Code,
			Message: typed.Message,
			Details: typed.Details,
		},
	}

	// Surface the request id for correlation in non-production environments
	if typed.Code == CodeInternalError && os.Getenv("APP_ENV") == "dev" {
		response.Error.ErrorID = reqID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(typed.Status())
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError writes a standardized error response for a known code
func WriteError(w http.ResponseWriter, ctx context.Context, code, message string) {
	Write(w, ctx, New(code, message))
}

// WriteValidationError writes a 400 with field-level details
func WriteValidationError(w http.ResponseWriter, ctx context.Context, message string, details map[string][]string) {
	Write(w, ctx, New(CodeValidationError, message).WithDetails(details))
}
