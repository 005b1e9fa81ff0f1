package mqtt

import "fmt"

// Topic prefixes for the roomsign MQTT relay.
//
// Device-facing topics use the flat scheme: roomsign/{category}/{ids...}
// so a display can subscribe with a single wildcard filter.
const (
	// TopicPrefix is the base for all roomsign topics.
	TopicPrefix = "roomsign"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "roomsign/system"
)

// Topics provides builders for roomsign MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	hb := topics.DeviceHeartbeat("dev-lobby")
//	// Returns: "roomsign/heartbeat/dev-lobby"
type Topics struct{}

// DeviceHeartbeat returns the topic a display publishes heartbeats on.
//
// Example: roomsign/heartbeat/dev-lobby
func (Topics) DeviceHeartbeat(deviceID string) string {
	return fmt.Sprintf("%s/heartbeat/%s", TopicPrefix, deviceID)
}

// DeviceStatus returns the topic for liveness transitions of a display.
//
// Example: roomsign/device/dev-lobby/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/status", TopicPrefix, deviceID)
}

// ScheduleChanged returns the topic for schedule-change notifications
// scoped to one room.
//
// Example: roomsign/schedule/tnt-acme/rm-boardroom
func (Topics) ScheduleChanged(tenantID, roomID string) string {
	return fmt.Sprintf("%s/schedule/%s/%s", TopicPrefix, tenantID, roomID)
}

// TenantScheduleChanged returns the topic for tenant-wide schedule
// notifications (no room binding).
//
// Example: roomsign/schedule/tnt-acme
func (Topics) TenantScheduleChanged(tenantID string) string {
	return fmt.Sprintf("%s/schedule/%s", TopicPrefix, tenantID)
}

// SystemStatus returns the backend status topic, also used for the LWT.
//
// Example: roomsign/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllHeartbeats returns a pattern matching heartbeats from every display.
//
// Pattern: roomsign/heartbeat/+
func (Topics) AllHeartbeats() string {
	return fmt.Sprintf("%s/heartbeat/+", TopicPrefix)
}

// AllDeviceStatus returns a pattern matching every display's status topic.
//
// Pattern: roomsign/device/+/status
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/device/+/status", TopicPrefix)
}

// TenantSchedules returns a pattern matching every room's schedule topic
// within a tenant.
//
// Pattern: roomsign/schedule/tnt-acme/+
func (Topics) TenantSchedules(tenantID string) string {
	return fmt.Sprintf("%s/schedule/%s/+", TopicPrefix, tenantID)
}

// AllSchedules returns a pattern matching all schedule-change topics.
//
// Pattern: roomsign/schedule/+/+
func (Topics) AllSchedules() string {
	return fmt.Sprintf("%s/schedule/+/+", TopicPrefix)
}

// AllTopics returns a pattern matching all roomsign topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: roomsign/#
func (Topics) AllTopics() string {
	return "roomsign/#"
}
