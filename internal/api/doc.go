// Package api provides the HTTP REST API and WebSocket server for roomsign-core.
//
// It exposes the device-facing synchronization surface (pairing, heartbeat,
// live schedule stream) and the admin console endpoints (tenants, rooms,
// events, device management).
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
