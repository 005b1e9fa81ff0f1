package schedule

import "errors"

var (
	// ErrEventNotFound is returned when an event ID does not exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrEmptyRecurrence is returned when a weekly event has no weekdays.
	// Such an event never occurs; the condition is surfaced to the caller
	// instead of being silently resolved to "never" or "every day".
	ErrEmptyRecurrence = errors.New("recurring event has no weekdays")

	// ErrInvalidClock is returned when a time-of-day string is malformed.
	ErrInvalidClock = errors.New("invalid clock time")

	// ErrInvalidWeekday is returned when a weekday token is not recognised.
	ErrInvalidWeekday = errors.New("invalid weekday")

	// ErrInvalidEvent is returned when an event fails validation before
	// persistence.
	ErrInvalidEvent = errors.New("invalid event")
)
