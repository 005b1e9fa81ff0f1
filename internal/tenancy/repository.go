package tenancy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for tenant and room persistence.
type Repository interface {
	CreateTenant(ctx context.Context, tenant *Tenant) error
	ListTenants(ctx context.Context) ([]Tenant, error)
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	UpdateTenant(ctx context.Context, tenant *Tenant) error
	DeleteTenant(ctx context.Context, id string) error

	CreateRoom(ctx context.Context, room *Room) error
	ListRoomsByTenant(ctx context.Context, tenantID string) ([]Room, error)
	GetRoom(ctx context.Context, id string) (*Room, error)
	UpdateRoom(ctx context.Context, room *Room) error
	DeleteRoom(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed tenancy repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateTenant inserts a new tenant. The ID is generated if empty.
func (r *SQLiteRepository) CreateTenant(ctx context.Context, tenant *Tenant) error {
	if tenant.ID == "" {
		tenant.ID = "tnt-" + uuid.NewString()[:16]
	}
	config := "{}"
	if tenant.DisplayConfig != nil {
		if b, err := json.Marshal(tenant.DisplayConfig); err == nil {
			config = string(b)
		}
	}
	const query = `INSERT INTO tenants (id, name, timezone, display_config)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		tenant.ID, tenant.Name, tenant.Timezone, config)
	if err != nil {
		return fmt.Errorf("inserting tenant %s: %w", tenant.ID, err)
	}
	return nil
}

// ListTenants returns all tenants ordered by name.
func (r *SQLiteRepository) ListTenants(ctx context.Context) ([]Tenant, error) {
	const query = `SELECT id, name, timezone, display_config, created_at
		FROM tenants ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenantRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenant rows: %w", err)
	}
	return tenants, nil
}

// GetTenant returns a single tenant by ID.
func (r *SQLiteRepository) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	const query = `SELECT id, name, timezone, display_config, created_at
		FROM tenants WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var t Tenant
	var configJSON, createdAt string
	err := row.Scan(&t.ID, &t.Name, &t.Timezone, &configJSON, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}
	t.DisplayConfig = parseDisplayConfig(configJSON)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// UpdateTenant updates an existing tenant record.
func (r *SQLiteRepository) UpdateTenant(ctx context.Context, tenant *Tenant) error {
	config := "{}"
	if tenant.DisplayConfig != nil {
		if b, err := json.Marshal(tenant.DisplayConfig); err == nil {
			config = string(b)
		}
	}
	const query = `UPDATE tenants SET name = ?, timezone = ?, display_config = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		tenant.Name, tenant.Timezone, config, tenant.ID)
	if err != nil {
		return fmt.Errorf("updating tenant %s: %w", tenant.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// DeleteTenant removes a tenant by ID. Rooms, devices, and events
// belonging to the tenant are removed by FK cascade.
func (r *SQLiteRepository) DeleteTenant(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tenant %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// CreateRoom inserts a new room. The ID is generated if empty.
func (r *SQLiteRepository) CreateRoom(ctx context.Context, room *Room) error {
	if room.ID == "" {
		room.ID = "rm-" + uuid.NewString()[:16]
	}
	const query = `INSERT INTO rooms (id, tenant_id, name, capacity)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		room.ID, room.TenantID, room.Name, room.Capacity)
	if err != nil {
		return fmt.Errorf("inserting room %s: %w", room.ID, err)
	}
	return nil
}

// ListRoomsByTenant returns rooms for a specific tenant ordered by name.
func (r *SQLiteRepository) ListRoomsByTenant(ctx context.Context, tenantID string) ([]Room, error) {
	const query = `SELECT id, tenant_id, name, capacity, created_at
		FROM rooms WHERE tenant_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		rm, err := scanRoomRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// GetRoom returns a single room by ID.
func (r *SQLiteRepository) GetRoom(ctx context.Context, id string) (*Room, error) {
	const query = `SELECT id, tenant_id, name, capacity, created_at
		FROM rooms WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var rm Room
	var createdAt string
	err := row.Scan(&rm.ID, &rm.TenantID, &rm.Name, &rm.Capacity, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("scanning room: %w", err)
	}
	rm.CreatedAt = parseTime(createdAt)
	return &rm, nil
}

// UpdateRoom updates an existing room record. The tenant binding is
// immutable; only name and capacity change.
func (r *SQLiteRepository) UpdateRoom(ctx context.Context, room *Room) error {
	const query = `UPDATE rooms SET name = ?, capacity = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, room.Name, room.Capacity, room.ID)
	if err != nil {
		return fmt.Errorf("updating room %s: %w", room.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes a single room by ID. Devices paired to the room
// and events scheduled in it are removed by FK cascade.
func (r *SQLiteRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// scanTenantRow scans a tenant from a Rows cursor.
func scanTenantRow(rows *sql.Rows) (*Tenant, error) {
	var t Tenant
	var configJSON, createdAt string
	err := rows.Scan(&t.ID, &t.Name, &t.Timezone, &configJSON, &createdAt)
	if err != nil {
		return nil, err
	}
	t.DisplayConfig = parseDisplayConfig(configJSON)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// scanRoomRow scans a room from a Rows cursor.
func scanRoomRow(rows *sql.Rows) (*Room, error) {
	var rm Room
	var createdAt string
	err := rows.Scan(&rm.ID, &rm.TenantID, &rm.Name, &rm.Capacity, &createdAt)
	if err != nil {
		return nil, err
	}
	rm.CreatedAt = parseTime(createdAt)
	return &rm, nil
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

// parseDisplayConfig deserializes a JSON string into a DisplayConfig map.
func parseDisplayConfig(s string) DisplayConfig {
	if s == "" || s == "{}" {
		return DisplayConfig{}
	}
	var m DisplayConfig
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return DisplayConfig{}
	}
	return m
}
