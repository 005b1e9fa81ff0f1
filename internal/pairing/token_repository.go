package pairing

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RedeemedDevice carries the device row a successful redemption creates.
// The tenant and room bindings come from the token itself.
type RedeemedDevice struct {
	ID        string
	Name      string
	TokenHash string
}

// TokenRepository defines the interface for pairing token persistence.
type TokenRepository interface {
	Create(ctx context.Context, token *PairingToken) error
	GetByHash(ctx context.Context, hash string) (*PairingToken, error)

	// Redeem atomically marks the token used and creates the device row.
	// Exactly one of two concurrent redemptions can succeed: the used
	// flag flips through a conditional update inside the transaction.
	// Returns the token's bindings on success.
	Redeem(ctx context.Context, hash string, now time.Time, dev RedeemedDevice) (*PairingToken, error)

	// DeleteExpired removes tokens past their TTL, freeing storage.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewSQLiteTokenRepository creates a new SQLite-backed token repository.
func NewSQLiteTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// Create inserts a new pairing token.
func (r *SQLiteTokenRepository) Create(ctx context.Context, token *PairingToken) error {
	const query = `INSERT INTO pairing_tokens (token_hash, tenant_id, room_id, expires_at, used)
		VALUES (?, ?, ?, ?, 0)`
	_, err := r.db.ExecContext(ctx, query,
		token.TokenHash, token.TenantID, token.RoomID,
		token.ExpiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting pairing token: %w", err)
	}
	return nil
}

// GetByHash retrieves a pairing token by its SHA-256 hash.
func (r *SQLiteTokenRepository) GetByHash(ctx context.Context, hash string) (*PairingToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT token_hash, tenant_id, room_id, expires_at, used, created_at
		 FROM pairing_tokens WHERE token_hash = ?`, hash)
	return scanToken(row.Scan)
}

// Redeem validates the token, flips used 0 to 1 with a conditional
// update, and inserts the device row in the same transaction. A crash
// between the two steps rolls both back; a concurrent redemption loses
// the conditional update and gets ErrTokenAlreadyUsed.
func (r *SQLiteTokenRepository) Redeem(ctx context.Context, hash string, now time.Time, dev RedeemedDevice) (*PairingToken, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning redemption transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	row := tx.QueryRowContext(ctx,
		`SELECT token_hash, tenant_id, room_id, expires_at, used, created_at
		 FROM pairing_tokens WHERE token_hash = ?`, hash)
	token, err := scanToken(row.Scan)
	if err != nil {
		return nil, err
	}
	if token.Used {
		return nil, ErrTokenAlreadyUsed
	}
	if now.After(token.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	// The guard on the current used value is the actual race arbiter;
	// the select above only classifies the failure for the caller.
	result, err := tx.ExecContext(ctx,
		"UPDATE pairing_tokens SET used = 1 WHERE token_hash = ? AND used = 0", hash)
	if err != nil {
		return nil, fmt.Errorf("marking token used: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return nil, ErrTokenAlreadyUsed
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO devices (id, tenant_id, room_id, name, token_hash)
		 VALUES (?, ?, ?, ?, ?)`,
		dev.ID, token.TenantID, token.RoomID, dev.Name, dev.TokenHash); err != nil {
		return nil, fmt.Errorf("creating device for redeemed token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing redemption: %w", err)
	}
	return token, nil
}

// DeleteExpired removes tokens whose TTL has passed.
func (r *SQLiteTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM pairing_tokens WHERE expires_at <= ?",
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	return n, nil
}

// scanToken scans one pairing token row.
func scanToken(scan func(...any) error) (*PairingToken, error) {
	var t PairingToken
	var used int
	var expiresAt, createdAt string

	err := scan(&t.TokenHash, &t.TenantID, &t.RoomID, &expiresAt, &used, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("scanning pairing token: %w", err)
	}

	t.Used = used != 0
	t.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt) //nolint:errcheck // format is controlled
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &t, nil
}
