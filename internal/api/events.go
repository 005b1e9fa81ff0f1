package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roomsign/roomsign-core/internal/infrastructure/mqtt"
	"github.com/roomsign/roomsign-core/internal/schedule"
)

// eventView flattens an event and its schedule variant into one wire
// shape, discriminated by kind. OneOff events carry start_at/end_at;
// weekly events carry weekdays and the clock pair.
type eventView struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	RoomID     string         `json:"room_id"`
	Title      string         `json:"title"`
	Kind       schedule.Kind  `json:"kind"`
	StartAt    *time.Time     `json:"start_at,omitempty"`
	EndAt      *time.Time     `json:"end_at,omitempty"`
	Weekdays   []time.Weekday `json:"weekdays,omitempty"`
	StartClock string         `json:"start_clock,omitempty"`
	EndClock   string         `json:"end_clock,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type eventRequest struct {
	Title      string         `json:"title"`
	Kind       schedule.Kind  `json:"kind"`
	StartAt    *time.Time     `json:"start_at,omitempty"`
	EndAt      *time.Time     `json:"end_at,omitempty"`
	Weekdays   []time.Weekday `json:"weekdays,omitempty"`
	StartClock string         `json:"start_clock,omitempty"`
	EndClock   string         `json:"end_clock,omitempty"`
}

func viewEvent(ev *schedule.Event) eventView {
	v := eventView{
		ID:        ev.ID,
		TenantID:  ev.TenantID,
		RoomID:    ev.RoomID,
		Title:     ev.Title,
		Kind:      ev.Schedule.Kind(),
		CreatedAt: ev.CreatedAt,
		UpdatedAt: ev.UpdatedAt,
	}
	switch sc := ev.Schedule.(type) {
	case schedule.OneOff:
		v.StartAt = &sc.Start
		v.EndAt = &sc.End
	case schedule.Weekly:
		v.Weekdays = sc.Weekdays
		v.StartClock = sc.StartClock.String()
		v.EndClock = sc.EndClock.String()
	}
	return v
}

// scheduleFromRequest builds the schedule variant from the request's
// discriminated fields.
func scheduleFromRequest(req *eventRequest) (schedule.Schedule, error) {
	switch req.Kind {
	case schedule.KindOneOff:
		if req.StartAt == nil || req.EndAt == nil {
			return nil, fmt.Errorf("one_off events require start_at and end_at")
		}
		return schedule.OneOff{Start: *req.StartAt, End: *req.EndAt}, nil
	case schedule.KindWeekly:
		start, err := schedule.ParseClock(req.StartClock)
		if err != nil {
			return nil, fmt.Errorf("invalid start_clock: %w", err)
		}
		end, err := schedule.ParseClock(req.EndClock)
		if err != nil {
			return nil, fmt.Errorf("invalid end_clock: %w", err)
		}
		return schedule.Weekly{Weekdays: req.Weekdays, StartClock: start, EndClock: end}, nil
	default:
		return nil, fmt.Errorf("unknown event kind: %q", req.Kind)
	}
}

// handleListEvents returns all events for a room.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if _, err := s.tenancy.GetRoom(r.Context(), roomID); err != nil {
		writeDomainError(w, err)
		return
	}

	events, err := s.events.ListEventsByRoom(r.Context(), roomID)
	if err != nil {
		s.logger.Error("failed to list events", "room_id", roomID, "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	views := make([]eventView, 0, len(events))
	for i := range events {
		views = append(views, viewEvent(&events[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleCreateEvent creates an event for a room and notifies connected
// displays in scope.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	room, err := s.tenancy.GetRoom(r.Context(), roomID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sched, err := scheduleFromRequest(&req)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	ev := &schedule.Event{
		ID:       uuid.NewString(),
		TenantID: room.TenantID,
		RoomID:   roomID,
		Title:    req.Title,
		Schedule: sched,
	}
	if err := schedule.Validate(ev); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.events.CreateEvent(r.Context(), ev); err != nil {
		writeDomainError(w, err)
		return
	}

	s.notifyScheduleChanged(ev.TenantID, ev.RoomID, "created", ev.ID)
	writeJSON(w, http.StatusCreated, viewEvent(ev))
}

// handleGetEvent returns a single event.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewEvent(ev))
}

// handleUpdateEvent replaces an event's title and schedule.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sched, err := scheduleFromRequest(&req)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	ev.Title = req.Title
	ev.Schedule = sched
	if err := schedule.Validate(ev); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.events.UpdateEvent(r.Context(), ev); err != nil {
		writeDomainError(w, err)
		return
	}

	s.notifyScheduleChanged(ev.TenantID, ev.RoomID, "updated", ev.ID)
	writeJSON(w, http.StatusOK, viewEvent(ev))
}

// handleDeleteEvent removes an event and notifies displays in scope.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ev, err := s.events.GetEvent(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.events.DeleteEvent(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.notifyScheduleChanged(ev.TenantID, ev.RoomID, "deleted", ev.ID)
	w.WriteHeader(http.StatusNoContent)
}

// notifyScheduleChanged pushes a schedule change to both delivery paths:
// the in-process stream hub and, when a broker is configured, MQTT.
// Displays re-fetch their resolved day on receipt; the notification
// carries only the change identity, not the new schedule.
func (s *Server) notifyScheduleChanged(tenantID, roomID, change, eventID string) {
	payload := map[string]string{
		"tenant_id": tenantID,
		"room_id":   roomID,
		"change":    change,
		"event_id":  eventID,
		"origin":    s.instanceID,
	}

	s.hub.Broadcast(Scope{TenantID: tenantID, RoomID: roomID}, "schedule.changed", payload)

	if s.mqtt != nil && s.mqtt.IsConnected() {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		topic := mqtt.Topics{}.ScheduleChanged(tenantID, roomID)
		if err := s.mqtt.Publish(topic, data, 1, false); err != nil {
			s.logger.Warn("failed to publish schedule change", "topic", topic, "error", err)
		}
	}
}
