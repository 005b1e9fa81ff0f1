package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type issueCodeRequest struct {
	TenantID string `json:"tenant_id"`
	RoomID   string `json:"room_id"`
}

type issueCodeResponse struct {
	Code     string `json:"code"`
	DeviceID string `json:"device_id"`
}

type issueTokenRequest struct {
	TenantID string `json:"tenant_id"`
	RoomID   string `json:"room_id"`
}

type issueTokenResponse struct {
	Token     string `json:"token"`
	TenantID  string `json:"tenant_id"`
	RoomID    string `json:"room_id"`
	ExpiresAt string `json:"expires_at"`
}

type claimRequest struct {
	Code string `json:"code"`
}

type redeemRequest struct {
	Token string `json:"token"`
}

// handleIssueCode pre-provisions a device for a room and returns the
// short code an installer types into the display. Admin only.
func (s *Server) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	var req issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.TenantID == "" || req.RoomID == "" {
		writeBadRequest(w, "tenant_id and room_id are required")
		return
	}
	if _, err := s.tenancy.GetRoom(r.Context(), req.RoomID); err != nil {
		writeDomainError(w, err)
		return
	}

	code, deviceID, err := s.pairing.IssueCode(r.Context(), req.TenantID, req.RoomID)
	if err != nil {
		s.logger.Error("failed to issue pairing code", "error", err)
		writeInternalError(w, "failed to issue pairing code")
		return
	}

	writeJSON(w, http.StatusCreated, issueCodeResponse{Code: code, DeviceID: deviceID})
}

// handleClaimCode exchanges a pairing code for device bindings. Unauthenticated:
// the code itself is the credential.
func (s *Server) handleClaimCode(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	p, err := s.pairing.ClaimCode(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// handleIssueToken mints a single-use expiring pairing token. Admin only.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.TenantID == "" || req.RoomID == "" {
		writeBadRequest(w, "tenant_id and room_id are required")
		return
	}
	if _, err := s.tenancy.GetRoom(r.Context(), req.RoomID); err != nil {
		writeDomainError(w, err)
		return
	}

	raw, tok, err := s.pairing.IssueToken(r.Context(), req.TenantID, req.RoomID)
	if err != nil {
		s.logger.Error("failed to issue pairing token", "error", err)
		writeInternalError(w, "failed to issue pairing token")
		return
	}

	writeJSON(w, http.StatusCreated, issueTokenResponse{
		Token:     raw,
		TenantID:  tok.TenantID,
		RoomID:    tok.RoomID,
		ExpiresAt: tok.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// handleRedeemToken exchanges a pairing token for a registered device.
// Unauthenticated; redemption is atomic, so a token presented twice fails
// the second time no matter how tight the race.
func (s *Server) handleRedeemToken(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Token == "" {
		writeBadRequest(w, "token is required")
		return
	}

	p, err := s.pairing.RedeemToken(r.Context(), req.Token)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// handleUnpairDevice removes one device registration. Idempotent.
func (s *Server) handleUnpairDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	if err := s.pairing.UnpairDevice(r.Context(), deviceID); err != nil {
		s.logger.Error("failed to unpair device", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to unpair device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleUnpairRoom removes every device registered to a room.
func (s *Server) handleUnpairRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	n, err := s.pairing.UnpairRoom(r.Context(), roomID)
	if err != nil {
		s.logger.Error("failed to unpair room", "room_id", roomID, "error", err)
		writeInternalError(w, "failed to unpair room")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}
