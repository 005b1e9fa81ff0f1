package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomsign/roomsign-core/internal/schedule"
)

// scheduleResponse is the resolved day view a display renders.
type scheduleResponse struct {
	Date        string                `json:"date"`
	RoomID      string                `json:"room_id"`
	Timezone    string                `json:"timezone"`
	Occurrences []schedule.Occurrence `json:"occurrences"`
	Warnings    []string              `json:"warnings,omitempty"`
}

// handleRoomSchedule resolves a room's events against one calendar date
// in the tenant's timezone.
//
// Integrity problems in stored events (legacy weekly rows with empty
// weekday sets) surface as warnings, not failures: the display still
// renders every event that resolves cleanly.
func (s *Server) handleRoomSchedule(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	room, err := s.tenancy.GetRoom(r.Context(), roomID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	tenant, err := s.tenancy.GetTenant(r.Context(), room.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	loc := tenant.Location()

	targetDate := time.Now().In(loc)
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		targetDate, err = time.ParseInLocation("2006-01-02", dateStr, loc)
		if err != nil {
			writeBadRequest(w, "date must be YYYY-MM-DD")
			return
		}
	}

	events, err := s.events.ListEventsByRoom(r.Context(), roomID)
	if err != nil {
		s.logger.Error("failed to list events", "room_id", roomID, "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	occurrences, resolveErr := schedule.ResolveDay(events, targetDate, loc)

	resp := scheduleResponse{
		Date:        targetDate.Format("2006-01-02"),
		RoomID:      roomID,
		Timezone:    tenant.Timezone,
		Occurrences: occurrences,
	}
	if occurrences == nil {
		resp.Occurrences = []schedule.Occurrence{}
	}
	if resolveErr != nil {
		resp.Warnings = strings.Split(resolveErr.Error(), "\n")
		s.logger.Warn("schedule resolved with integrity warnings",
			"room_id", roomID,
			"date", resp.Date,
			"warnings", len(resp.Warnings),
		)
	}

	writeJSON(w, http.StatusOK, resp)
}
