package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roomsign/roomsign-core/internal/tenancy"
)

type createTenantRequest struct {
	Name          string                `json:"name"`
	Timezone      string                `json:"timezone"`
	DisplayConfig tenancy.DisplayConfig `json:"display_config,omitempty"`
}

type updateTenantRequest struct {
	Name          *string                `json:"name,omitempty"`
	Timezone      *string                `json:"timezone,omitempty"`
	DisplayConfig *tenancy.DisplayConfig `json:"display_config,omitempty"`
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type updateRoomRequest struct {
	Name     *string `json:"name,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
}

// handleListTenants returns all tenants.
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.tenancy.ListTenants(r.Context())
	if err != nil {
		s.logger.Error("failed to list tenants", "error", err)
		writeInternalError(w, "failed to list tenants")
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// handleCreateTenant creates a tenant. The timezone must be a loadable
// IANA zone name; it drives all schedule resolution for the tenant.
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	t := &tenancy.Tenant{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Timezone:      req.Timezone,
		DisplayConfig: req.DisplayConfig,
	}
	if err := s.tenancy.CreateTenant(r.Context(), t); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// handleGetTenant returns a single tenant.
func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := s.tenancy.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUpdateTenant applies a partial update to a tenant.
func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req updateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	t, err := s.tenancy.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Timezone != nil {
		t.Timezone = *req.Timezone
	}
	if req.DisplayConfig != nil {
		t.DisplayConfig = *req.DisplayConfig
	}

	if err := s.tenancy.UpdateTenant(r.Context(), t); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleDeleteTenant removes a tenant. Rooms, devices and events cascade
// at the database level.
func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.tenancy.DeleteTenant(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRooms returns all rooms for a tenant.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "id")
	if _, err := s.tenancy.GetTenant(r.Context(), tenantID); err != nil {
		writeDomainError(w, err)
		return
	}

	rooms, err := s.tenancy.ListRoomsByTenant(r.Context(), tenantID)
	if err != nil {
		s.logger.Error("failed to list rooms", "tenant_id", tenantID, "error", err)
		writeInternalError(w, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// handleCreateRoom creates a room under a tenant.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "id")
	if _, err := s.tenancy.GetTenant(r.Context(), tenantID); err != nil {
		writeDomainError(w, err)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	room := &tenancy.Room{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Name:     req.Name,
		Capacity: req.Capacity,
	}
	if err := s.tenancy.CreateRoom(r.Context(), room); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// handleGetRoom returns a single room.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.tenancy.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleUpdateRoom applies a partial update to a room.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req updateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	room, err := s.tenancy.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}

	if err := s.tenancy.UpdateRoom(r.Context(), room); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleDeleteRoom removes a room and everything bound to it.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	if err := s.tenancy.DeleteRoom(r.Context(), roomID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
