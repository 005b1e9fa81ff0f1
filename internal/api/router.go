package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Display-facing endpoints. The credential is in the payload
		// (pairing code or token) or the query string (stream token).
		r.Post("/pairing/claim", s.handleClaimCode)
		r.Post("/pairing/redeem", s.handleRedeemToken)
		r.Post("/heartbeat", s.handleHeartbeat)
		r.Get("/stream", s.handleStream)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Stream ticket requires authentication
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Pairing provisioning
			r.Post("/pairing/codes", s.handleIssueCode)
			r.Post("/pairing/tokens", s.handleIssueToken)

			// Tenant endpoints
			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", s.handleListTenants)
				r.Post("/", s.handleCreateTenant)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetTenant)
					r.Patch("/", s.handleUpdateTenant)
					r.Delete("/", s.handleDeleteTenant)
					r.Get("/rooms", s.handleListRooms)
					r.Post("/rooms", s.handleCreateRoom)
				})
			})

			// Room endpoints
			r.Route("/rooms/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRoom)
				r.Patch("/", s.handleUpdateRoom)
				r.Delete("/", s.handleDeleteRoom)
				r.Get("/events", s.handleListEvents)
				r.Post("/events", s.handleCreateEvent)
				r.Get("/schedule", s.handleRoomSchedule)
				r.Delete("/devices", s.handleUnpairRoom)
			})

			// Event endpoints
			r.Route("/events/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEvent)
				r.Put("/", s.handleUpdateEvent)
				r.Delete("/", s.handleDeleteEvent)
			})

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Get("/stats", s.handleDeviceStats)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Patch("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Delete("/pairing", s.handleUnpairDevice)
				})
			})
		})
	})

	return r
}

// handleHealth returns a simple health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"clients": s.hub.ClientCount(),
	})
}
