package device

import "errors"

var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrCodeNotFound is returned when a pairing code matches no device.
	ErrCodeNotFound = errors.New("pairing code not found")
)
