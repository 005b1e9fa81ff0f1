package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for device persistence.
type Repository interface {
	Create(ctx context.Context, device *Device) error
	GetByID(ctx context.Context, id string) (*Device, error)
	GetByPairingCode(ctx context.Context, code string) (*Device, error)
	GetByTokenHash(ctx context.Context, hash string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Device, error)
	ListByRoom(ctx context.Context, roomID string) ([]Device, error)
	Update(ctx context.Context, device *Device) error

	// UpdateLastSeen stamps the heartbeat timestamp. Returns false with a
	// nil error when the device does not exist; heartbeat recording treats
	// that as a no-op rather than a failure.
	UpdateLastSeen(ctx context.Context, id string, seenAt time.Time) (bool, error)

	// ClearPairingCode removes the code from a claimed device. Used only
	// when code consumption is enabled.
	ClearPairingCode(ctx context.Context, id string) error

	// SetTokenHash stores the SHA-256 hash of a device's access token.
	SetTokenHash(ctx context.Context, id, hash string) error

	// Delete removes a device. Returns false when no row matched.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteByRoom removes every device paired to a room and returns the
	// number of rows deleted.
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// deviceColumns is the shared select list for device queries.
const deviceColumns = `id, tenant_id, room_id, name, pairing_code, token_hash, last_seen_at, created_at`

// Create inserts a new device. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	if device.ID == "" {
		device.ID = "dev-" + uuid.NewString()[:16]
	}
	const query = `INSERT INTO devices (id, tenant_id, room_id, name, pairing_code, token_hash)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		device.ID, device.TenantID, nullStr(device.RoomID), device.Name,
		nullStr(device.PairingCode), nullStr(device.TokenHash))
	if err != nil {
		return fmt.Errorf("inserting device %s: %w", device.ID, err)
	}
	return nil
}

// GetByID returns a single device by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`
	return r.getOne(ctx, query, id, ErrDeviceNotFound)
}

// GetByPairingCode returns the device holding a pairing code.
// Returns ErrCodeNotFound when no device carries the code.
func (r *SQLiteRepository) GetByPairingCode(ctx context.Context, code string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE pairing_code = ?`
	return r.getOne(ctx, query, code, ErrCodeNotFound)
}

// GetByTokenHash returns the device whose access token hashes to hash.
func (r *SQLiteRepository) GetByTokenHash(ctx context.Context, hash string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE token_hash = ?`
	return r.getOne(ctx, query, hash, ErrDeviceNotFound)
}

// getOne runs a single-row device query, mapping ErrNoRows to notFound.
func (r *SQLiteRepository) getOne(ctx context.Context, query, arg string, notFound error) (*Device, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	device, err := scanDevice(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}
	return device, nil
}

// List returns all devices ordered by creation time.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY created_at`
	return r.queryDevices(ctx, query)
}

// ListByTenant returns devices belonging to a tenant.
func (r *SQLiteRepository) ListByTenant(ctx context.Context, tenantID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE tenant_id = ? ORDER BY created_at`
	return r.queryDevices(ctx, query, tenantID)
}

// ListByRoom returns devices paired to a room.
func (r *SQLiteRepository) ListByRoom(ctx context.Context, roomID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE room_id = ? ORDER BY created_at`
	return r.queryDevices(ctx, query, roomID)
}

// Update persists name and room changes for an existing device.
func (r *SQLiteRepository) Update(ctx context.Context, device *Device) error {
	const query = `UPDATE devices SET name = ?, room_id = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, device.Name, nullStr(device.RoomID), device.ID)
	if err != nil {
		return fmt.Errorf("updating device %s: %w", device.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// UpdateLastSeen stamps last_seen_at for a device.
func (r *SQLiteRepository) UpdateLastSeen(ctx context.Context, id string, seenAt time.Time) (bool, error) {
	const query = `UPDATE devices SET last_seen_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, seenAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return false, fmt.Errorf("updating last_seen for device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	return n > 0, nil
}

// ClearPairingCode nulls the pairing code on a device.
func (r *SQLiteRepository) ClearPairingCode(ctx context.Context, id string) error {
	const query = `UPDATE devices SET pairing_code = NULL WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clearing pairing code for device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// SetTokenHash stores the access token hash on a device.
func (r *SQLiteRepository) SetTokenHash(ctx context.Context, id, hash string) error {
	const query = `UPDATE devices SET token_hash = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("setting token hash for device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device row.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	return n > 0, nil
}

// DeleteByRoom removes all devices paired to a room.
func (r *SQLiteRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE room_id = ?", roomID)
	if err != nil {
		return 0, fmt.Errorf("deleting devices for room %s: %w", roomID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	return n, nil
}

// queryDevices executes a query and returns a slice of Device.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// scanDevice scans one device row using the provided scan function.
func scanDevice(scan func(...any) error) (*Device, error) {
	var d Device
	var roomID, pairingCode, tokenHash, lastSeenAt sql.NullString
	var createdAt string

	err := scan(&d.ID, &d.TenantID, &roomID, &d.Name, &pairingCode, &tokenHash, &lastSeenAt, &createdAt)
	if err != nil {
		return nil, err
	}

	if roomID.Valid {
		d.RoomID = &roomID.String
	}
	if pairingCode.Valid {
		d.PairingCode = &pairingCode.String
	}
	if tokenHash.Valid {
		d.TokenHash = &tokenHash.String
	}
	if lastSeenAt.Valid {
		seen := parseTime(lastSeenAt.String)
		d.LastSeenAt = &seen
	}
	d.CreatedAt = parseTime(createdAt)
	d.ConnectionState = StateDisconnected
	return &d, nil
}

// nullStr converts a *string to a sql.NullString for nullable columns.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
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
