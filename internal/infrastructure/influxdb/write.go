package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteHeartbeat records a display heartbeat as a time-series point.
//
// This is the primary telemetry write: one point per heartbeat, tagged
// for per-room and per-tenant uptime queries. The write is non-blocking;
// data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: The display's identifier (e.g., "dev-lobby")
//   - tenantID: Owning tenant
//   - roomID: Bound room, empty for unassigned displays
func (c *Client) WriteHeartbeat(deviceID, tenantID, roomID string) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"device_id": deviceID,
		"tenant_id": tenantID,
	}
	if roomID != "" {
		tags["room_id"] = roomID
	}

	point := write.NewPoint(
		"heartbeat",
		tags,
		map[string]interface{}{
			"seen": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectionEvent records a stream attach or detach for a display.
//
// Parameters:
//   - deviceID: The display's identifier
//   - state: "streaming" or "disconnected"
func (c *Client) WriteConnectionEvent(deviceID, state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connection_state",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("hub_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"clients": 12, "dropped": 0})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
