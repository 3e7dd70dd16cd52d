package types

import (
	"errors"
	"fmt"
)

// Domain specific errors shared across the client packages.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrValidation      = errors.New("invalid input")
	ErrNoRefreshToken  = errors.New("no refresh token stored")
)

// APIError carries the HTTP status and the human-readable message the
// backend returned in its {"error":{...}} envelope. When the body does not
// follow that shape the message falls back to "HTTP <status>".
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Unwrap maps well-known statuses onto the shared sentinels so callers can
// use errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case 401:
		return ErrUnauthenticated
	case 404:
		return ErrNotFound
	default:
		return nil
	}
}
