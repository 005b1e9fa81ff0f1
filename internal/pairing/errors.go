package pairing

import "errors"

var (
	// ErrCodeNotFound is returned when a pairing code matches no device.
	ErrCodeNotFound = errors.New("pairing code not found")

	// ErrTokenNotFound is returned when a pairing token is unknown.
	ErrTokenNotFound = errors.New("pairing token not found")

	// ErrTokenAlreadyUsed is returned when a pairing token was already
	// redeemed. Distinct from ErrTokenExpired to aid support diagnostics.
	ErrTokenAlreadyUsed = errors.New("pairing token already used")

	// ErrTokenExpired is returned when a pairing token is past its TTL.
	ErrTokenExpired = errors.New("pairing token expired")
)
