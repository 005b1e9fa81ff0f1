package tenancy

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant ID does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInvalidName is returned when a tenant or room name fails validation.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidTimezone is returned when a timezone name is not a valid IANA zone.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidCapacity is returned when a room capacity is negative.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrInvalidDisplayConfig is returned when display config exceeds size limits.
	ErrInvalidDisplayConfig = errors.New("invalid display config")
)
