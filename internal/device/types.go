package device

import "time"

// ConnectionState describes whether a device currently holds a streaming
// connection. It is transient and never persisted.
type ConnectionState string

const (
	// StateDisconnected means no streaming connection is open.
	StateDisconnected ConnectionState = "disconnected"
	// StateStreaming means the device has a live stream connection.
	StateStreaming ConnectionState = "streaming"
)

// Liveness classifies a device by elapsed time since its last heartbeat.
// It is computed on read, never stored.
type Liveness string

const (
	// LivenessLive means a heartbeat arrived within the staleness threshold.
	LivenessLive Liveness = "live"
	// LivenessStale means the last heartbeat is older than the threshold.
	LivenessStale Liveness = "stale"
	// LivenessNeverSeen means no heartbeat has ever been recorded.
	LivenessNeverSeen Liveness = "never_seen"
)

// Device represents a paired kiosk display.
//
// RoomID is nil until the device is claimed. PairingCode is set on
// pre-provisioned devices awaiting claim; in the legacy flow it survives
// the claim. TokenHash is the SHA-256 of the device's access token; the
// raw token is never stored.
type Device struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	RoomID      *string    `json:"room_id,omitempty"`
	Name        string     `json:"name"`
	PairingCode *string    `json:"pairing_code,omitempty"`
	TokenHash   *string    `json:"-"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// ConnectionState is transient, populated by the registry from hub
	// attachment tracking. Not persisted.
	ConnectionState ConnectionState `json:"connection_state,omitempty"`
}

// DeepCopy returns a copy of the device with no shared pointers,
// so cached devices can be handed out safely.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cp := *d
	if d.RoomID != nil {
		roomID := *d.RoomID
		cp.RoomID = &roomID
	}
	if d.PairingCode != nil {
		code := *d.PairingCode
		cp.PairingCode = &code
	}
	if d.TokenHash != nil {
		hash := *d.TokenHash
		cp.TokenHash = &hash
	}
	if d.LastSeenAt != nil {
		seen := *d.LastSeenAt
		cp.LastSeenAt = &seen
	}
	return &cp
}

// LivenessAt classifies the device against a staleness threshold at the
// given instant.
func (d *Device) LivenessAt(now time.Time, staleAfter time.Duration) Liveness {
	if d.LastSeenAt == nil {
		return LivenessNeverSeen
	}
	if now.Sub(*d.LastSeenAt) > staleAfter {
		return LivenessStale
	}
	return LivenessLive
}
