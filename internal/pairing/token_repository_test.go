package pairing

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a file-backed SQLite database so concurrent
// redemption tests exercise real writer contention.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pairing_test.db")
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			room_id TEXT,
			name TEXT NOT NULL DEFAULT '',
			pairing_code TEXT,
			token_hash TEXT,
			last_seen_at TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE pairing_tokens (
			token_hash TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			room_id TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			used INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func seedToken(t *testing.T, repo *SQLiteTokenRepository, hash string, expiresAt time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), &PairingToken{
		TokenHash: hash,
		TenantID:  "tnt-acme",
		RoomID:    "rm-boardroom",
		ExpiresAt: expiresAt,
	})
	if err != nil {
		t.Fatalf("seeding token: %v", err)
	}
}

func TestCreateAndGetToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)

	expires := time.Now().UTC().Add(15 * time.Minute).Truncate(time.Second)
	seedToken(t, repo, "hash-1", expires)

	token, err := repo.GetByHash(context.Background(), "hash-1")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if token.TenantID != "tnt-acme" || token.RoomID != "rm-boardroom" {
		t.Errorf("bindings: got %s/%s", token.TenantID, token.RoomID)
	}
	if token.Used {
		t.Error("new token must be unused")
	}
	if !token.ExpiresAt.Equal(expires) {
		t.Errorf("expires_at: got %v, want %v", token.ExpiresAt, expires)
	}
}

func TestGetTokenNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)

	_, err := repo.GetByHash(context.Background(), "hash-missing")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestRedeemToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedToken(t, repo, "hash-1", now.Add(15*time.Minute))

	token, err := repo.Redeem(ctx, "hash-1", now, RedeemedDevice{
		ID:        "dev-new",
		Name:      "New display",
		TokenHash: "devhash",
	})
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if token.TenantID != "tnt-acme" || token.RoomID != "rm-boardroom" {
		t.Errorf("bindings: got %s/%s", token.TenantID, token.RoomID)
	}

	// The token is terminally used.
	stored, err := repo.GetByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if !stored.Used {
		t.Error("token must be marked used after redemption")
	}

	// The device row exists with the token's bindings.
	var tenantID, roomID string
	err = db.QueryRow("SELECT tenant_id, room_id FROM devices WHERE id = 'dev-new'").Scan(&tenantID, &roomID)
	if err != nil {
		t.Fatalf("device row missing: %v", err)
	}
	if tenantID != "tnt-acme" || roomID != "rm-boardroom" {
		t.Errorf("device bindings: got %s/%s", tenantID, roomID)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)

	_, err := repo.Redeem(context.Background(), "hash-missing", time.Now().UTC(), RedeemedDevice{ID: "dev-x"})
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestRedeemTokenTwice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedToken(t, repo, "hash-1", now.Add(15*time.Minute))

	if _, err := repo.Redeem(ctx, "hash-1", now, RedeemedDevice{ID: "dev-a", TokenHash: "ha"}); err != nil {
		t.Fatalf("first Redeem: %v", err)
	}
	_, err := repo.Redeem(ctx, "hash-1", now, RedeemedDevice{ID: "dev-b", TokenHash: "hb"})
	if !errors.Is(err, ErrTokenAlreadyUsed) {
		t.Errorf("expected ErrTokenAlreadyUsed, got %v", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)
	now := time.Now().UTC()

	seedToken(t, repo, "hash-old", now.Add(-time.Minute))

	_, err := repo.Redeem(context.Background(), "hash-old", now, RedeemedDevice{ID: "dev-x"})
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	// Expiry wins even though the token was never used.
	token, err := repo.GetByHash(context.Background(), "hash-old")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if token.Used {
		t.Error("failed redemption must not consume the token")
	}
}

func TestConcurrentRedemption(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)
	now := time.Now().UTC()

	seedToken(t, repo, "hash-race", now.Add(15*time.Minute))

	const racers = 8
	results := make([]error, racers)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			_, err := repo.Redeem(context.Background(), "hash-race", now, RedeemedDevice{
				ID:        "dev-racer-" + string(rune('a'+i)),
				TokenHash: "hash-racer-" + string(rune('a'+i)),
			})
			results[i] = err
		}(i)
	}
	start.Done()
	wg.Wait()

	var successes, alreadyUsed int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrTokenAlreadyUsed):
			alreadyUsed++
		default:
			t.Errorf("unexpected redemption error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("exactly one redemption must succeed, got %d", successes)
	}
	if alreadyUsed != racers-1 {
		t.Errorf("expected %d AlreadyUsed, got %d", racers-1, alreadyUsed)
	}

	// Exactly one device row was created.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM devices").Scan(&count); err != nil {
		t.Fatalf("counting devices: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 device row, got %d", count)
	}
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedToken(t, repo, "hash-live", now.Add(15*time.Minute))
	seedToken(t, repo, "hash-dead", now.Add(-time.Minute))

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 token purged, got %d", n)
	}

	if _, err := repo.GetByHash(ctx, "hash-live"); err != nil {
		t.Errorf("live token should survive purge: %v", err)
	}
	if _, err := repo.GetByHash(ctx, "hash-dead"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expired token should be gone, got %v", err)
	}
}
