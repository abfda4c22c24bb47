package domain

import "errors"

var (
	// ErrUnknownUser is returned by every store-facing operation whose owner
	// identity does not exist. No partition-less query is ever executed.
	ErrUnknownUser = errors.New("unknown user")

	// ErrSessionNotFound is returned when a session id does not exist for
	// the given owner.
	ErrSessionNotFound = errors.New("session not found")

	// ErrContextOverflow is returned when the token estimate is still at or
	// above the ceiling after one compression pass, e.g. a single oversized
	// message. It is surfaced instead of truncating mid-message.
	ErrContextOverflow = errors.New("context window exceeds token ceiling after compression")
)
