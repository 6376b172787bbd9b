package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authentication and authorization taxonomy. The API
// layer maps each to a distinct HTTP status and user-facing message.
var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenSignature       = errors.New("invalid token signature")
	ErrTokenMalformed       = errors.New("malformed token")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrInsufficientRole     = errors.New("insufficient role")
	ErrInvalidRoleOperation = errors.New("administrators cannot change their own role")
	ErrUnknownRole          = errors.New("unknown role")
)

// AuthenticationFailedError wraps an unexpected failure during login. The
// cause is retained for server-side diagnostics and never shown to the caller.
type AuthenticationFailedError struct {
	Cause error
}

func (e *AuthenticationFailedError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Cause)
}

func (e *AuthenticationFailedError) Unwrap() error { return e.Cause }

// AlreadyExistsError reports a violated uniqueness constraint at
// registration. Field names the offending attribute (username, email, phone
// number).
type AlreadyExistsError struct {
	Field string
}

func (e *AlreadyExistsError) Error() string {
	return e.Field + " already exists"
}

// NotFoundError reports a missing resource looked up by a specific field.
type NotFoundError struct {
	Resource string
	Field    string
	Value    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %q", e.Resource, e.Field, e.Value)
}

// ValidationError carries per-field validation messages for the error
// envelope.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
