package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks a backing dependency that is not configured or not reachable.
	ErrUnavailable = errors.New("unavailable")

	// ErrAssistantUnavailable is returned by assistants that are not configured.
	// Callers fall back to local heuristics.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
