package auth

import (
	"errors"

	"prosektor-api/internal/http/httperr"
)

// AuthFailureReason categorizes authentication failures
type AuthFailureReason string

const (
	AuthFailureMissingAuthorization AuthFailureReason = "missing_authorization"
	AuthFailureInvalidScheme        AuthFailureReason = "invalid_scheme"
	AuthFailureTokenExpired         AuthFailureReason = "token_expired"
	AuthFailureTokenInvalid         AuthFailureReason = "token_invalid"
	AuthFailureSessionInvalid       AuthFailureReason = "session_invalid"
	AuthFailureUnknown              AuthFailureReason = "unknown"
)

// AuthError represents a categorized authentication error
type AuthError struct {
	Reason  AuthFailureReason
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError
func NewAuthError(reason AuthFailureReason, message string, err error) *AuthError {
	return &AuthError{
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}

// IsAuthError checks if an error is an AuthError and returns it
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// MapError translates any auth-layer failure into the typed boundary error.
// Only the custom codec distinguishes expired from invalid; everything else
// collapses into the generic unauthorized code.
func MapError(err error) *httperr.Error {
	if typed, ok := httperr.AsError(err); ok {
		return typed
	}
	authErr, ok := IsAuthError(err)
	if !ok {
		return httperr.New(httperr.CodeUnauthorized, "authentication required").WithCause(err)
	}
	switch authErr.Reason {
	case AuthFailureTokenExpired:
		return httperr.New(httperr.CodeCustomJWTExpired, "token expired").WithCause(err)
	case AuthFailureTokenInvalid:
		return httperr.New(httperr.CodeCustomJWTInvalid, "invalid token").WithCause(err)
	default:
		return httperr.New(httperr.CodeUnauthorized, "authentication required").WithCause(err)
	}
}

// maskToken masks a bearer token for safe logging.
// Shows only the first 12 characters followed by "..."
func maskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:12] + "..."
}
