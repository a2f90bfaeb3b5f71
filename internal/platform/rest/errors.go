package rest

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend-reported conditions. Callers match with
// errors.Is after any gateway call.
var (
	// ErrNotFound: the backend does not know the appointment, prescription,
	// medication, or regimen id.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: the backend refused a create because the resource
	// already exists (e.g. a second prescription for the same appointment).
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized: missing/expired bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)

// TransportError is a failure below the API envelope: network unreachable,
// timeout, or a non-2xx response whose body is not a parseable envelope.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DomainError is an envelope-level failure: the backend answered, possibly
// with HTTP 200, but set error=true. Message is the backend's human-readable
// text and is what the user sees.
type DomainError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap maps well-known status codes onto the sentinels so callers can use
// errors.Is(err, rest.ErrNotFound) without inspecting codes themselves.
func (e *DomainError) Unwrap() error {
	switch e.StatusCode {
	case 404:
		return ErrNotFound
	case 409:
		return ErrAlreadyExists
	case 401, 403:
		return ErrUnauthorized
	}
	return nil
}

// UserMessage extracts the backend message for user-facing notifications,
// falling back to the given default when the failure carried none.
func UserMessage(err error, fallback string) string {
	var de *DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
