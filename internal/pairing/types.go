package pairing

import "time"

// Pairing is the result of a successful claim or redemption: the device
// identity and its bindings, plus the raw access token the device uses to
// authenticate from then on. The raw token appears only here; storage
// keeps its hash.
type Pairing struct {
	DeviceID    string `json:"device_id"`
	TenantID    string `json:"tenant_id"`
	RoomID      string `json:"room_id"`
	DeviceToken string `json:"device_token"`
}

// PairingToken is a single-use expiring credential for device
// self-registration. Only the SHA-256 hash of the opaque token is stored.
type PairingToken struct {
	TokenHash string    `json:"-"`
	TenantID  string    `json:"tenant_id"`
	RoomID    string    `json:"room_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
