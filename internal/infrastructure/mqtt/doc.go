// Package mqtt provides MQTT client connectivity for roomsign-core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is an optional delivery path alongside the WebSocket hub. Displays
// on constrained networks subscribe to their room's schedule topic and
// publish heartbeats; the backend relays schedule-change notifications
// and consumes heartbeats through the broker.
//
//	Displays ↔ MQTT Broker ↔ roomsign-core
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Consume heartbeats from every display
//	err = client.Subscribe(mqtt.Topics{}.AllHeartbeats(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Notify a room's displays that the schedule changed
//	topic := mqtt.Topics{}.ScheduleChanged("tnt-acme", "rm-boardroom")
//	client.Publish(topic, []byte(`{"type":"schedule.changed"}`), 1, false)
package mqtt
