package domain

import "errors"

// Sentinel errors for the domain layer. Storage and engine code wraps these
// with %w; the HTTP layer maps them to status codes with errors.Is.
var (
	ErrNotFound          = errors.New("domain: not found")
	ErrConflict          = errors.New("domain: conflict")
	ErrVersionMismatch   = errors.New("domain: version mismatch")
	ErrInvalidState      = errors.New("domain: task is in a terminal state")
	ErrInvalidTransition = errors.New("domain: invalid state transition")
	ErrForbidden         = errors.New("domain: forbidden")
)
