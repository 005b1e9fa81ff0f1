package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ResolveOccurrence computes whether an event occurs on the calendar date
// of targetDate in the given timezone, and if so its concrete start and
// end instants.
//
// One-off events occur on every date their absolute interval touches, with
// the boundary dates inclusive; the returned instants are the stored
// absolute start and end. Weekly events occur on dates whose local weekday
// is in the template's weekday set; the returned instants combine the
// target date with the template clocks. A template whose end clock is at
// or before its start clock crosses midnight: the occurrence still belongs
// to the start day and ends on the following day.
//
// Returns (nil, nil) when the event simply does not occur on the date.
// Returns ErrEmptyRecurrence for a weekly event with no weekdays; the
// caller decides how to surface the integrity problem.
//
// The function is pure: no clock reads, no I/O.
func ResolveOccurrence(ev Event, targetDate time.Time, loc *time.Location) (*Occurrence, error) {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := targetDate.In(loc).Date()

	switch s := ev.Schedule.(type) {
	case OneOff:
		return resolveOneOff(ev, s, year, month, day, loc), nil
	case Weekly:
		return resolveWeekly(ev, s, year, month, day, loc)
	default:
		return nil, fmt.Errorf("%w: event %s has no schedule", ErrInvalidEvent, ev.ID)
	}
}

// resolveOneOff matches the target date against the event's absolute
// interval. Comparison is by calendar date in loc, boundaries inclusive.
func resolveOneOff(ev Event, s OneOff, year int, month time.Month, day int, loc *time.Location) *Occurrence {
	target := time.Date(year, month, day, 0, 0, 0, 0, loc)

	sy, sm, sd := s.Start.In(loc).Date()
	startDay := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)

	ey, em, ed := s.End.In(loc).Date()
	endDay := time.Date(ey, em, ed, 0, 0, 0, 0, loc)

	if target.Before(startDay) || target.After(endDay) {
		return nil
	}
	return &Occurrence{
		EventID: ev.ID,
		RoomID:  ev.RoomID,
		Title:   ev.Title,
		Start:   s.Start.In(loc),
		End:     s.End.In(loc),
	}
}

// resolveWeekly matches the target date's local weekday against the
// template's weekday set and materialises the clocks onto the date.
func resolveWeekly(ev Event, s Weekly, year int, month time.Month, day int, loc *time.Location) (*Occurrence, error) {
	if len(s.Weekdays) == 0 {
		return nil, fmt.Errorf("%w: event %s", ErrEmptyRecurrence, ev.ID)
	}

	target := time.Date(year, month, day, 0, 0, 0, 0, loc)
	weekdaySet := make(map[time.Weekday]struct{}, len(s.Weekdays))
	for _, d := range s.Weekdays {
		weekdaySet[d] = struct{}{}
	}
	if _, ok := weekdaySet[target.Weekday()]; !ok {
		return nil, nil
	}

	start := time.Date(year, month, day, s.StartClock.Hour, s.StartClock.Minute, 0, 0, loc)
	end := time.Date(year, month, day, s.EndClock.Hour, s.EndClock.Minute, 0, 0, loc)
	if !end.After(start) {
		// Crosses midnight; the occurrence belongs to the start day.
		end = end.AddDate(0, 0, 1)
	}
	return &Occurrence{
		EventID: ev.ID,
		RoomID:  ev.RoomID,
		Title:   ev.Title,
		Start:   start,
		End:     end,
	}, nil
}

// ResolveDay resolves a set of events against one calendar date and
// returns the occurrences sorted by start instant.
//
// Events with integrity problems (empty weekday sets) do not abort
// resolution of the rest; their errors are joined and returned alongside
// the valid occurrences.
func ResolveDay(events []Event, targetDate time.Time, loc *time.Location) ([]Occurrence, error) {
	var occurrences []Occurrence
	var integrityErrs []error

	for _, ev := range events {
		occ, err := ResolveOccurrence(ev, targetDate, loc)
		if err != nil {
			integrityErrs = append(integrityErrs, err)
			continue
		}
		if occ != nil {
			occurrences = append(occurrences, *occ)
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return occurrences, errors.Join(integrityErrs...)
}

// Validate checks an event before persistence. Unlike resolution, which
// tolerates legacy rows with empty weekday sets, validation rejects them
// so no new such rows are written.
func Validate(ev *Event) error {
	if ev.Title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidEvent)
	}
	if ev.RoomID == "" {
		return fmt.Errorf("%w: room_id cannot be empty", ErrInvalidEvent)
	}
	switch s := ev.Schedule.(type) {
	case OneOff:
		if !s.End.After(s.Start) {
			return fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
		}
	case Weekly:
		if len(s.Weekdays) == 0 {
			return fmt.Errorf("%w: weekly event needs at least one weekday", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: event has no schedule", ErrInvalidEvent)
	}
	return nil
}
