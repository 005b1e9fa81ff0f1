// Package influxdb provides InfluxDB connectivity for roomsign-core.
//
// It wraps the official influxdb-client-go v2 library with roomsign-specific
// patterns for connection management, telemetry writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Display heartbeat telemetry (per-room and per-tenant uptime)
//   - Stream attach/detach events
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "roomsign",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a display heartbeat
//	client.WriteHeartbeat("dev-lobby", "tnt-acme", "rm-boardroom")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This keeps the heartbeat ingest path off the request hot path.
package influxdb
