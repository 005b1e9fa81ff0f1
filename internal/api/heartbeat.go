package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// heartbeatRequest is the body of POST /api/v1/heartbeat. Displays send
// only their identifier; everything else is implied by registration.
type heartbeatRequest struct {
	DeviceID string `json:"device_id"`
}

// handleHeartbeat records a display liveness ping.
//
// The response is 202 for any syntactically valid body, whether or not the
// device is known. A display racing its own unpairing must not be told
// anything actionable, and a probe must not be able to enumerate device
// IDs by status code. An empty device_id is dropped on the same terms.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.DeviceID != "" {
		s.ingestHeartbeat(r.Context(), req.DeviceID)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ingestHeartbeat is the shared sink for HTTP and broker heartbeats.
func (s *Server) ingestHeartbeat(ctx context.Context, deviceID string) {
	if err := s.registry.RecordHeartbeat(ctx, deviceID); err != nil {
		s.logger.Error("failed to record heartbeat", "device_id", deviceID, "error", err)
		return
	}

	if s.telemetry != nil {
		d, err := s.registry.GetDevice(ctx, deviceID)
		if err != nil {
			return
		}
		roomID := ""
		if d.RoomID != nil {
			roomID = *d.RoomID
		}
		s.telemetry.WriteHeartbeat(deviceID, d.TenantID, roomID)
	}
}
