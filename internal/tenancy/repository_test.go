package tenancy

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the tenants and rooms tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE tenants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			display_config TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE rooms (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id) ON DELETE CASCADE
		) STRICT;

		INSERT INTO tenants (id, name, timezone) VALUES
			('tnt-acme', 'Acme Corp', 'Europe/London'),
			('tnt-beta', 'Beta Industries', 'America/New_York');

		INSERT INTO rooms (id, tenant_id, name, capacity) VALUES
			('rm-boardroom', 'tnt-acme', 'Boardroom', 12),
			('rm-huddle', 'tnt-acme', 'Huddle Space', 4),
			('rm-main', 'tnt-beta', 'Main Conference', 20);
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

func TestListTenants(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	tenants, err := repo.ListTenants(context.Background())
	if err != nil {
		t.Fatalf("ListTenants: %v", err)
	}

	if len(tenants) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(tenants))
	}

	// Should be sorted by name
	if tenants[0].Name != "Acme Corp" {
		t.Errorf("first tenant: got %q, want %q", tenants[0].Name, "Acme Corp")
	}
	if tenants[1].Name != "Beta Industries" {
		t.Errorf("second tenant: got %q, want %q", tenants[1].Name, "Beta Industries")
	}
}

func TestGetTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	tenant, err := repo.GetTenant(context.Background(), "tnt-acme")
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	if tenant.Name != "Acme Corp" {
		t.Errorf("name: got %q, want %q", tenant.Name, "Acme Corp")
	}
	if tenant.Timezone != "Europe/London" {
		t.Errorf("timezone: got %q, want %q", tenant.Timezone, "Europe/London")
	}
	if tenant.CreatedAt.IsZero() {
		t.Error("created_at should be populated")
	}
}

func TestGetTenantNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetTenant(context.Background(), "tnt-missing")
	if !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestCreateTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	tenant := &Tenant{
		Name:     "Gamma Ltd",
		Timezone: "UTC",
		DisplayConfig: DisplayConfig{
			"accent_color": "#1a73e8",
		},
	}
	if err := repo.CreateTenant(ctx, tenant); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if tenant.ID == "" {
		t.Fatal("expected generated tenant ID")
	}

	got, err := repo.GetTenant(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("GetTenant after create: %v", err)
	}
	if got.DisplayConfig["accent_color"] != "#1a73e8" {
		t.Errorf("display config round-trip: got %v", got.DisplayConfig)
	}
}

func TestUpdateTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	tenant, err := repo.GetTenant(ctx, "tnt-acme")
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	tenant.Name = "Acme Corporation"
	tenant.Timezone = "Europe/Paris"

	if err := repo.UpdateTenant(ctx, tenant); err != nil {
		t.Fatalf("UpdateTenant: %v", err)
	}

	got, err := repo.GetTenant(ctx, "tnt-acme")
	if err != nil {
		t.Fatalf("GetTenant after update: %v", err)
	}
	if got.Name != "Acme Corporation" {
		t.Errorf("name: got %q, want %q", got.Name, "Acme Corporation")
	}
	if got.Timezone != "Europe/Paris" {
		t.Errorf("timezone: got %q, want %q", got.Timezone, "Europe/Paris")
	}
}

func TestUpdateTenantNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.UpdateTenant(context.Background(), &Tenant{ID: "tnt-missing", Name: "X", Timezone: "UTC"})
	if !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestDeleteTenantCascadesRooms(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.DeleteTenant(ctx, "tnt-acme"); err != nil {
		t.Fatalf("DeleteTenant: %v", err)
	}

	rooms, err := repo.ListRoomsByTenant(ctx, "tnt-acme")
	if err != nil {
		t.Fatalf("ListRoomsByTenant: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("expected rooms removed by cascade, got %d", len(rooms))
	}
}

func TestListRoomsByTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	rooms, err := repo.ListRoomsByTenant(context.Background(), "tnt-acme")
	if err != nil {
		t.Fatalf("ListRoomsByTenant: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms for tnt-acme, got %d", len(rooms))
	}

	// Should be sorted by name
	if rooms[0].Name != "Boardroom" {
		t.Errorf("first room: got %q, want %q", rooms[0].Name, "Boardroom")
	}
}

func TestGetRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	room, err := repo.GetRoom(context.Background(), "rm-boardroom")
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if room.TenantID != "tnt-acme" {
		t.Errorf("tenant_id: got %q, want %q", room.TenantID, "tnt-acme")
	}
	if room.Capacity != 12 {
		t.Errorf("capacity: got %d, want 12", room.Capacity)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetRoom(context.Background(), "rm-missing")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestCreateRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	room := &Room{TenantID: "tnt-beta", Name: "Quiet Room", Capacity: 2}
	if err := repo.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.ID == "" {
		t.Fatal("expected generated room ID")
	}

	got, err := repo.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom after create: %v", err)
	}
	if got.Name != "Quiet Room" {
		t.Errorf("name: got %q, want %q", got.Name, "Quiet Room")
	}
}

func TestUpdateRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	room, err := repo.GetRoom(ctx, "rm-huddle")
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	room.Name = "Huddle Room"
	room.Capacity = 6

	if err := repo.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("UpdateRoom: %v", err)
	}

	got, err := repo.GetRoom(ctx, "rm-huddle")
	if err != nil {
		t.Fatalf("GetRoom after update: %v", err)
	}
	if got.Capacity != 6 {
		t.Errorf("capacity: got %d, want 6", got.Capacity)
	}
}

func TestDeleteRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.DeleteRoom(ctx, "rm-main"); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}

	_, err := repo.GetRoom(ctx, "rm-main")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound after delete, got %v", err)
	}
}

func TestDeleteRoomNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.DeleteRoom(context.Background(), "rm-missing")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}
