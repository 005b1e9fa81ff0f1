// Package pairing manages the two flows that bind a kiosk device to a room.
//
// The code flow is admin-driven: issuing a code pre-provisions a device row
// bound to a room, and the kiosk later claims it by typing the 6-character
// code. Codes do not expire and, by default, are not invalidated on claim;
// that lifecycle is deliberately weaker than tokens and can be tightened
// with the pairing.consume_codes config flag.
//
// The token flow is device-driven: an opaque single-use token with a TTL is
// handed to the kiosk (typically via a deep link), and redemption atomically
// marks the token used and creates the device row. Two concurrent
// redemptions of the same token can never both succeed; the used flag flips
// through a conditional update, not a read-then-write.
//
// Both flows end with the device holding an access token whose SHA-256 hash
// is stored on its row. Raw tokens are returned once and never persisted.
package pairing
