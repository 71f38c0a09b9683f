package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration and session errors.
var (
	ErrMissingBaseURL   = errors.New("API base URL not configured")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMalformedSession = errors.New("malformed persisted session")
	ErrInvalidRole      = errors.New("invalid role")
)

// FieldError is one field-level validation message reported by the server or the local validator.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NetworkError means no HTTP response was received (offline, DNS, refused, timeout).
type NetworkError struct {
	Method  string
	Path    string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("servidor indisponível: %s %s timed out", e.Method, e.Path)
	}
	return fmt.Sprintf("servidor indisponível: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError covers 401 responses and rejected credentials or reset tokens.
type AuthError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
	// Forced is true when the error triggered a session invalidation.
	Forced bool
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "authentication failed"
}

// ValidationError is a 4xx response carrying a structured body.
type ValidationError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return joinFields(e.Fields)
	}
	return fmt.Sprintf("request rejected with status %d", e.StatusCode)
}

// FieldMessage returns the first message reported for field, if any.
func (e *ValidationError) FieldMessage(field string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

// ServerError is a 5xx response or any failure without a usable body.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error (status %d)", e.StatusCode)
}

// AsAuthFailure converts a 4xx rejection from an auth flow (login, reset, update password)
// into an AuthError, keeping message and fields intact. Other errors are returned unchanged.
func AsAuthFailure(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &AuthError{StatusCode: ve.StatusCode, Message: ve.Message, Fields: ve.Fields}
	}
	var se *ServerError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		return &AuthError{StatusCode: se.StatusCode, Message: se.Message}
	}
	return err
}

// IsRetryable reports whether a user-initiated retry makes sense for err.
func IsRetryable(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var se *ServerError
	return errors.As(err, &se) && se.StatusCode >= 500
}

func joinFields(fields []FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, ", ")
}
