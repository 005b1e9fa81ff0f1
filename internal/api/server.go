package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomsign/roomsign-core/internal/device"
	"github.com/roomsign/roomsign-core/internal/infrastructure/config"
	"github.com/roomsign/roomsign-core/internal/infrastructure/influxdb"
	"github.com/roomsign/roomsign-core/internal/infrastructure/logging"
	"github.com/roomsign/roomsign-core/internal/infrastructure/mqtt"
	"github.com/roomsign/roomsign-core/internal/pairing"
	"github.com/roomsign/roomsign-core/internal/schedule"
	"github.com/roomsign/roomsign-core/internal/tenancy"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Security    config.SecurityConfig
	Logger      *logging.Logger
	Registry    *device.Registry
	Pairing     *pairing.Manager
	Tenancy     tenancy.Repository
	Events      schedule.Repository
	MQTT        *mqtt.Client      // optional: broker relay for schedule changes and heartbeats
	Telemetry   *influxdb.Client  // optional: heartbeat telemetry sink
	ExternalHub *Hub              // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for roomsign-core.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	registry    *device.Registry
	pairing     *pairing.Manager
	tenancy     tenancy.Repository
	events      schedule.Repository
	mqtt        *mqtt.Client
	telemetry   *influxdb.Client
	version     string
	instanceID  string // identifies this process in relayed broker messages
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	tickets     *ticketStore       // single-use WebSocket auth tickets
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Pairing == nil {
		return nil, fmt.Errorf("pairing manager is required")
	}
	if deps.Tenancy == nil {
		return nil, fmt.Errorf("tenancy repository is required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	// MQTT and Telemetry are optional; HTTP heartbeats and the WebSocket
	// stream work without either.

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		registry:   deps.Registry,
		pairing:    deps.Pairing,
		tenancy:    deps.Tenancy,
		events:     deps.Events,
		mqtt:       deps.MQTT,
		telemetry:  deps.Telemetry,
		version:    deps.Version,
		instanceID: uuid.NewString(),
		tickets:    newTicketStore(),
	}

	// Use externally-provided hub if available (needed when another
	// component also broadcasts through it).
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, subscribes to the MQTT
// heartbeat topic when a broker is configured, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	// Create WebSocket hub (unless one was injected externally)
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	// Start periodic ticket cleanup to prevent memory leaks
	go s.tickets.cleanLoop(srvCtx)

	// Consume device heartbeats from the broker
	if err := s.subscribeHeartbeats(); err != nil {
		s.logger.Warn("failed to subscribe to heartbeat topic", "error", err)
	}

	// Relay schedule changes published by other instances to local displays
	if err := s.subscribeScheduleRelay(); err != nil {
		s.logger.Warn("failed to subscribe to schedule topic", "error", err)
	}

	// Build router
	router := s.buildRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// subscribeHeartbeats consumes display heartbeats published via the broker.
// Heartbeats are fire-and-forget: parse failures and unknown devices are
// logged at debug level and never error the subscription.
func (s *Server) subscribeHeartbeats() error {
	if s.mqtt == nil {
		return nil // broker not configured; HTTP heartbeats only
	}
	topic := mqtt.Topics{}.AllHeartbeats()
	s.logger.Info("subscribing to device heartbeats", "topic", topic)
	return s.mqtt.Subscribe(topic, 1, func(t string, _ []byte) error {
		deviceID := deviceIDFromHeartbeatTopic(t)
		if deviceID == "" {
			return nil
		}
		s.ingestHeartbeat(context.Background(), deviceID)
		return nil
	})
}

// deviceIDFromHeartbeatTopic extracts the trailing device ID segment from
// roomsign/heartbeat/{device_id}.
func deviceIDFromHeartbeatTopic(topic string) string {
	prefix := mqtt.TopicPrefix + "/heartbeat/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	return topic[len(prefix):]
}

// subscribeScheduleRelay forwards schedule-change messages from the broker
// into the local hub. Messages this instance published itself carry its
// origin ID and are skipped, so local clients are not notified twice.
func (s *Server) subscribeScheduleRelay() error {
	if s.mqtt == nil {
		return nil
	}
	topic := mqtt.Topics{}.AllSchedules()
	s.logger.Info("subscribing to schedule changes", "topic", topic)
	return s.mqtt.Subscribe(topic, 1, func(t string, payload []byte) error {
		tenantID, roomID := scopeFromScheduleTopic(t)
		if tenantID == "" {
			return nil
		}

		var msg map[string]string
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Debug("ignoring malformed schedule message", "topic", t, "error", err)
			return nil
		}
		if msg["origin"] == s.instanceID {
			return nil
		}

		s.hub.Broadcast(Scope{TenantID: tenantID, RoomID: roomID}, "schedule.changed", msg)
		return nil
	})
}

// scopeFromScheduleTopic extracts tenant and room IDs from
// roomsign/schedule/{tenant_id}/{room_id}.
func scopeFromScheduleTopic(topic string) (tenantID, roomID string) {
	prefix := mqtt.TopicPrefix + "/schedule/"
	if !strings.HasPrefix(topic, prefix) {
		return "", ""
	}
	parts := strings.SplitN(topic[len(prefix):], "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, ticket cleanup)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
