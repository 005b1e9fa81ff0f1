package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roomsign/roomsign-core/internal/device"
	"github.com/roomsign/roomsign-core/internal/pairing"
	"github.com/roomsign/roomsign-core/internal/schedule"
	"github.com/roomsign/roomsign-core/internal/tenancy"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeAlreadyUsed    = "already_used"
	ErrCodeExpired        = "token_expired"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusConflict, code, message)
}

// writeGone writes a 410 error response.
func writeGone(w http.ResponseWriter, code, message string) {
	writeError(w, http.StatusGone, code, message)
}

// writeValidationError writes a 422 error response.
func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps domain sentinel errors onto the response taxonomy.
// Messages distinguish not-found, already-used, and expired without echoing
// token values back to the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pairing.ErrCodeNotFound):
		writeNotFound(w, "pairing code not found")
	case errors.Is(err, pairing.ErrTokenNotFound):
		writeNotFound(w, "pairing token not found")
	case errors.Is(err, pairing.ErrTokenAlreadyUsed):
		writeConflict(w, ErrCodeAlreadyUsed, "pairing token has already been redeemed")
	case errors.Is(err, pairing.ErrTokenExpired):
		writeGone(w, ErrCodeExpired, "pairing token has expired")
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, tenancy.ErrTenantNotFound):
		writeNotFound(w, "tenant not found")
	case errors.Is(err, tenancy.ErrRoomNotFound):
		writeNotFound(w, "room not found")
	case errors.Is(err, schedule.ErrEventNotFound):
		writeNotFound(w, "event not found")
	case errors.Is(err, tenancy.ErrInvalidName),
		errors.Is(err, tenancy.ErrInvalidTimezone),
		errors.Is(err, tenancy.ErrInvalidCapacity),
		errors.Is(err, tenancy.ErrInvalidDisplayConfig),
		errors.Is(err, schedule.ErrInvalidEvent),
		errors.Is(err, schedule.ErrEmptyRecurrence):
		writeValidationError(w, err.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}
