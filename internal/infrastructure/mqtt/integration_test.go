//go:build integration

package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// Integration tests for live broker behaviour.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...
//
// Note: Some tests may be flaky in CI due to timing dependencies.
// Consider running with: go test -tags=integration -count=1 -v ...

func TestIntegration_Connect(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "roomsign-int-connect"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}

func TestIntegration_ConnectInvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() expected error for invalid broker")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_HeartbeatRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "roomsign-int-pub"
	pub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	cfg.Broker.ClientID = "roomsign-int-sub"
	sub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	received := make(chan []byte, 1)
	if err := sub.Subscribe(Topics{}.AllHeartbeats(), 1, func(_ string, payload []byte) error {
		received <- payload
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []byte(`{"device_id":"dev-lobby"}`)
	if err := pub.Publish(Topics{}.DeviceHeartbeat("dev-lobby"), want, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(want) {
			t.Errorf("payload = %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for heartbeat message")
	}
}

func TestIntegration_ScheduleWildcard(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "roomsign-int-wild-pub"
	pub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	cfg.Broker.ClientID = "roomsign-int-wild-sub"
	sub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	var mu sync.Mutex
	seen := make(map[string]bool)
	if err := sub.Subscribe(Topics{}.TenantSchedules("tnt-acme"), 1, func(topic string, _ []byte) error {
		mu.Lock()
		seen[topic] = true
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	rooms := []string{"rm-boardroom", "rm-huddle", "rm-main"}
	for _, room := range rooms {
		topic := Topics{}.ScheduleChanged("tnt-acme", room)
		if err := pub.Publish(topic, []byte(`{"type":"schedule.changed"}`), 1, false); err != nil {
			t.Fatalf("Publish(%q) error = %v", topic, err)
		}
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == len(rooms) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("received %d of %d room topics", n, len(rooms))
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestIntegration_ConnectCallbacks(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "roomsign-int-callbacks"

	connected := make(chan struct{}, 1)

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.SetOnConnect(func() {
		select {
		case connected <- struct{}{}:
		default:
		}
	})
	client.SetOnDisconnect(func(error) {})

	// The callback fires on reconnect; the initial connection has already
	// happened, so just verify registration does not race Close.
	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
}
