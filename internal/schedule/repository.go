package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for event persistence.
type Repository interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEventsByRoom(ctx context.Context, roomID string) ([]Event, error)
	ListEventsByTenant(ctx context.Context, tenantID string) ([]Event, error)
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// eventColumns is the shared select list for event queries.
const eventColumns = `id, tenant_id, room_id, title, kind,
	start_at, end_at, weekdays, start_clock, end_clock,
	created_at, updated_at`

// CreateEvent inserts a new event. The ID is generated if empty.
func (r *SQLiteRepository) CreateEvent(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = "evt-" + uuid.NewString()[:16]
	}
	cols, err := scheduleColumns(event.Schedule)
	if err != nil {
		return err
	}
	const query = `INSERT INTO events (id, tenant_id, room_id, title, kind,
		start_at, end_at, weekdays, start_clock, end_clock)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.TenantID, event.RoomID, event.Title, string(event.Schedule.Kind()),
		cols.startAt, cols.endAt, cols.weekdays, cols.startClock, cols.endClock)
	if err != nil {
		return fmt.Errorf("inserting event %s: %w", event.ID, err)
	}
	return nil
}

// GetEvent returns a single event by ID.
func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	event, err := scanEvent(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	return event, nil
}

// ListEventsByRoom returns all events scheduled in a room.
func (r *SQLiteRepository) ListEventsByRoom(ctx context.Context, roomID string) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE room_id = ? ORDER BY created_at`
	return r.queryEvents(ctx, query, roomID)
}

// ListEventsByTenant returns all events belonging to a tenant.
func (r *SQLiteRepository) ListEventsByTenant(ctx context.Context, tenantID string) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tenant_id = ? ORDER BY created_at`
	return r.queryEvents(ctx, query, tenantID)
}

// UpdateEvent updates an existing event record, including switching its
// schedule shape. The tenant and room bindings are immutable.
func (r *SQLiteRepository) UpdateEvent(ctx context.Context, event *Event) error {
	cols, err := scheduleColumns(event.Schedule)
	if err != nil {
		return err
	}
	const query = `UPDATE events SET title = ?, kind = ?,
		start_at = ?, end_at = ?, weekdays = ?, start_clock = ?, end_clock = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		event.Title, string(event.Schedule.Kind()),
		cols.startAt, cols.endAt, cols.weekdays, cols.startClock, cols.endClock,
		event.ID)
	if err != nil {
		return fmt.Errorf("updating event %s: %w", event.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes a single event by ID.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// queryEvents executes a query and returns a slice of Event.
func (r *SQLiteRepository) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}
	return events, nil
}

// variantColumns holds the nullable column values for one schedule shape.
// One-off events populate startAt/endAt; weekly events populate the rest.
type variantColumns struct {
	startAt    sql.NullString
	endAt      sql.NullString
	weekdays   sql.NullString
	startClock sql.NullString
	endClock   sql.NullString
}

// scheduleColumns maps a Schedule to its storage columns.
func scheduleColumns(s Schedule) (variantColumns, error) {
	var cols variantColumns
	switch v := s.(type) {
	case OneOff:
		cols.startAt = sql.NullString{String: v.Start.UTC().Format(time.RFC3339), Valid: true}
		cols.endAt = sql.NullString{String: v.End.UTC().Format(time.RFC3339), Valid: true}
	case Weekly:
		tokens := make([]string, len(v.Weekdays))
		for i, d := range v.Weekdays {
			tokens[i] = WeekdayToken(d)
		}
		b, err := json.Marshal(tokens)
		if err != nil {
			return cols, fmt.Errorf("encoding weekdays: %w", err)
		}
		cols.weekdays = sql.NullString{String: string(b), Valid: true}
		cols.startClock = sql.NullString{String: v.StartClock.String(), Valid: true}
		cols.endClock = sql.NullString{String: v.EndClock.String(), Valid: true}
	default:
		return cols, fmt.Errorf("%w: event has no schedule", ErrInvalidEvent)
	}
	return cols, nil
}

// scanEvent scans one event row using the provided scan function, then
// reconstructs the schedule variant from the kind discriminator.
func scanEvent(scan func(...any) error) (*Event, error) {
	var ev Event
	var kind string
	var cols variantColumns
	var createdAt, updatedAt string

	err := scan(&ev.ID, &ev.TenantID, &ev.RoomID, &ev.Title, &kind,
		&cols.startAt, &cols.endAt, &cols.weekdays, &cols.startClock, &cols.endClock,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	ev.Schedule, err = scheduleFromColumns(Kind(kind), cols)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	ev.CreatedAt = parseTime(createdAt)
	ev.UpdatedAt = parseTime(updatedAt)
	return &ev, nil
}

// scheduleFromColumns rebuilds the schedule variant from storage columns.
func scheduleFromColumns(kind Kind, cols variantColumns) (Schedule, error) {
	switch kind {
	case KindOneOff:
		start, err := time.Parse(time.RFC3339, cols.startAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing start_at: %w", err)
		}
		end, err := time.Parse(time.RFC3339, cols.endAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing end_at: %w", err)
		}
		return OneOff{Start: start, End: end}, nil
	case KindWeekly:
		var tokens []string
		if err := json.Unmarshal([]byte(cols.weekdays.String), &tokens); err != nil {
			return nil, fmt.Errorf("decoding weekdays: %w", err)
		}
		weekdays := make([]time.Weekday, 0, len(tokens))
		for _, tok := range tokens {
			day, err := ParseWeekday(tok)
			if err != nil {
				return nil, err
			}
			weekdays = append(weekdays, day)
		}
		startClock, err := ParseClock(cols.startClock.String)
		if err != nil {
			return nil, err
		}
		endClock, err := ParseClock(cols.endClock.String)
		if err != nil {
			return nil, err
		}
		return Weekly{Weekdays: weekdays, StartClock: startClock, EndClock: endClock}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, kind)
	}
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05Z", s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}
