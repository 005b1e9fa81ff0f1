package auth

import (
	"errors"
	"time"
)

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleAdmin manages tenants, rooms, events, and device pairing.
	RoleAdmin Role = "admin"

	// RoleDevice is a paired display identity. Scoped to its tenant
	// and room bindings. No login required.
	RoleDevice Role = "device"
)

// Session describes an authenticated admin session as returned by login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTicketInvalid      = errors.New("invalid or already used ticket")
	ErrForbidden          = errors.New("insufficient permissions")
)
