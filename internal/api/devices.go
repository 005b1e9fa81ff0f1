package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomsign/roomsign-core/internal/device"
)

// deviceView is the admin-facing representation of a device with
// computed liveness.
type deviceView struct {
	device.Device
	Liveness device.Liveness `json:"liveness"`
}

type updateDeviceRequest struct {
	Name   *string `json:"name,omitempty"`
	RoomID *string `json:"room_id,omitempty"`
}

func (s *Server) viewDevice(d *device.Device) deviceView {
	return deviceView{Device: *d, Liveness: s.registry.Liveness(d)}
}

// handleListDevices returns all registered devices with their liveness
// classification.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		s.logger.Error("failed to list devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	views := make([]deviceView, 0, len(devices))
	for i := range devices {
		views = append(views, s.viewDevice(&devices[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleGetDevice returns a single device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewDevice(d))
}

// handleUpdateDevice renames or re-rooms a device. Fields absent from the
// body are left unchanged.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.RoomID != nil {
		if *req.RoomID == "" {
			d.RoomID = nil
		} else {
			if _, err := s.tenancy.GetRoom(r.Context(), *req.RoomID); err != nil {
				writeDomainError(w, err)
				return
			}
			d.RoomID = req.RoomID
		}
	}

	if err := s.registry.UpdateDevice(r.Context(), d); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewDevice(d))
}

// handleDeleteDevice removes a device registration.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.RemoveDevice(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceStats returns aggregate registry counts for the admin
// dashboard.
func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.GetStats())
}
