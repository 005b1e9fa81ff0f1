package schedule

import (
	"fmt"
	"time"
)

// Event represents a booking shown on room displays. The Schedule field
// carries exactly one of the two occurrence interpretations.
type Event struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	RoomID    string    `json:"room_id"`
	Title     string    `json:"title"`
	Schedule  Schedule  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Schedule is the occurrence interpretation of an event. Implementations
// are OneOff and Weekly; the interface is sealed by the unexported method.
type Schedule interface {
	// Kind returns the discriminator stored in the database.
	Kind() Kind

	schedule()
}

// Kind discriminates the two event shapes.
type Kind string

const (
	// KindOneOff marks an event with absolute start and end instants.
	KindOneOff Kind = "one_off"
	// KindWeekly marks a weekly recurring template.
	KindWeekly Kind = "weekly"
)

// OneOff is an event occupying a fixed absolute interval.
type OneOff struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Kind returns KindOneOff.
func (OneOff) Kind() Kind { return KindOneOff }

func (OneOff) schedule() {}

// Weekly is a recurring template: the event occurs on each listed weekday
// between StartClock and EndClock in the tenant's timezone. An EndClock at
// or before StartClock means the occurrence crosses midnight and ends on
// the following day.
type Weekly struct {
	Weekdays   []time.Weekday `json:"weekdays"`
	StartClock Clock          `json:"start_clock"`
	EndClock   Clock          `json:"end_clock"`
}

// Kind returns KindWeekly.
func (Weekly) Kind() Kind { return KindWeekly }

func (Weekly) schedule() {}

// Occurrence is a concrete resolved start/end for an event on a specific
// calendar date.
type Occurrence struct {
	EventID string    `json:"event_id"`
	RoomID  string    `json:"room_id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Clock is a time of day without a date, stored as "HH:MM".
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a "HH:MM" string into a Clock.
func ParseClock(s string) (Clock, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: %q out of range", ErrInvalidClock, s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// String formats the clock as zero-padded "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalJSON encodes the clock as a "HH:MM" string.
func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON decodes a "HH:MM" string into the clock.
func (c *Clock) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidClock, data)
	}
	parsed, err := ParseClock(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// weekdayTokens maps the short tokens used on the wire and in storage
// to time.Weekday values.
var weekdayTokens = map[string]time.Weekday{
	"Sun": time.Sunday,
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
}

// ParseWeekday converts a short token ("Mon", "Tue", ...) to a time.Weekday.
func ParseWeekday(token string) (time.Weekday, error) {
	day, ok := weekdayTokens[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, token)
	}
	return day, nil
}

// WeekdayToken converts a time.Weekday back to its short token.
func WeekdayToken(day time.Weekday) string {
	return day.String()[:3]
}
