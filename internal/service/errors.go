package service

import "errors"

// Sentinel errors returned by the reminder engine. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	// ErrNotFound covers both a missing record and a record owned by a
	// different user, so existence never leaks across owners.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned for no-op or disallowed status
	// changes on reminders and habits.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidSchedule is returned when a frequency specification or its
	// time slots fail validation.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
