// Package device maintains the registry of paired kiosk displays.
//
// A device row is created by the pairing flows (code claim or token
// redemption) and destroyed by explicit unpairing. The registry wraps the
// repository with an in-memory cache for fast lookups and tracks two
// pieces of transient state that are never persisted: whether a device
// currently holds a streaming connection, and its liveness classification
// derived from the last heartbeat.
//
// Heartbeats are fire-and-forget: recording one for an unknown device is
// a silent no-op so that a device racing its own unpairing does not see
// errors.
package device
