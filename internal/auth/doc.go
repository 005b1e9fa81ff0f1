// Package auth provides authentication primitives for roomsign-core.
//
// It covers the two identities the system knows about:
//   - Admin sessions: Argon2id password verification (OWASP 2025
//     recommendation) against the configured credentials, then a
//     short-lived HS256 JWT.
//   - Stream tickets: single-use random tokens minted for browser
//     WebSocket upgrades, where an Authorization header is unavailable.
//
// Display devices authenticate with their pairing-issued access token;
// that flow lives in internal/pairing.
package auth
