package pairing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomsign/roomsign-core/internal/device"
)

// newTestManager wires a manager against a real SQLite-backed device
// repository and token repository.
func newTestManager(t *testing.T, opts Options) (*Manager, *device.Registry) {
	t.Helper()

	db := setupTestDB(t)
	devices := device.NewSQLiteRepository(db)
	registry := device.NewRegistry(devices, 90*time.Second)
	tokens := NewSQLiteTokenRepository(db)

	return NewManager(tokens, devices, registry, opts), registry
}

func TestIssueAndClaimCode(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute})
	ctx := context.Background()

	code, deviceID, err := m.IssueCode(ctx, "tnt-1", "rm-7")
	if err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code length: got %d, want 6", len(code))
	}

	pairing, err := m.ClaimCode(ctx, code)
	if err != nil {
		t.Fatalf("ClaimCode: %v", err)
	}
	if pairing.DeviceID != deviceID {
		t.Errorf("device_id: got %q, want %q", pairing.DeviceID, deviceID)
	}
	if pairing.RoomID != "rm-7" {
		t.Errorf("room_id: got %q, want rm-7", pairing.RoomID)
	}
	if pairing.TenantID != "tnt-1" {
		t.Errorf("tenant_id: got %q, want tnt-1", pairing.TenantID)
	}
	if pairing.DeviceToken == "" {
		t.Error("expected a device access token")
	}
}

func TestClaimUnknownCode(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute})

	_, err := m.ClaimCode(context.Background(), "ZZZZZZ")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestClaimCodeIsRepeatableInLegacyFlow(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute})
	ctx := context.Background()

	code, _, err := m.IssueCode(ctx, "tnt-1", "rm-7")
	if err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	first, err := m.ClaimCode(ctx, code)
	if err != nil {
		t.Fatalf("first ClaimCode: %v", err)
	}
	// The legacy flow does not invalidate the code.
	second, err := m.ClaimCode(ctx, code)
	if err != nil {
		t.Fatalf("second ClaimCode: %v", err)
	}
	if first.DeviceID != second.DeviceID {
		t.Errorf("both claims should resolve the same device")
	}
}

func TestClaimCodeConsumesWhenEnabled(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute, ConsumeCodes: true})
	ctx := context.Background()

	code, _, err := m.IssueCode(ctx, "tnt-1", "rm-7")
	if err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	if _, err := m.ClaimCode(ctx, code); err != nil {
		t.Fatalf("first ClaimCode: %v", err)
	}
	if _, err := m.ClaimCode(ctx, code); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("consumed code must not be claimable again, got %v", err)
	}
}

func TestIssueAndRedeemToken(t *testing.T) {
	m, registry := newTestManager(t, Options{TokenTTL: 15 * time.Minute})
	ctx := context.Background()

	raw, token, err := m.IssueToken(ctx, "tnt-1", "rm-7")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if raw == "" {
		t.Fatal("expected a raw token")
	}
	if token.Used {
		t.Error("issued token must be unused")
	}

	pairing, err := m.RedeemToken(ctx, raw)
	if err != nil {
		t.Fatalf("RedeemToken: %v", err)
	}
	if pairing.TenantID != "tnt-1" || pairing.RoomID != "rm-7" {
		t.Errorf("bindings: got %s/%s", pairing.TenantID, pairing.RoomID)
	}
	if pairing.DeviceToken == "" {
		t.Error("expected a device access token")
	}

	// The created device is visible through the registry.
	d, err := registry.GetDevice(ctx, pairing.DeviceID)
	if err != nil {
		t.Fatalf("GetDevice after redemption: %v", err)
	}
	if d.RoomID == nil || *d.RoomID != "rm-7" {
		t.Errorf("device room: got %v", d.RoomID)
	}
	if d.TokenHash == nil || *d.TokenHash != HashToken(pairing.DeviceToken) {
		t.Error("device must store the hash of the issued access token")
	}
}

func TestRedeemTokenTwiceSequential(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute})
	ctx := context.Background()

	raw, _, err := m.IssueToken(ctx, "tnt-1", "rm-7")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := m.RedeemToken(ctx, raw); err != nil {
		t.Fatalf("first RedeemToken: %v", err)
	}
	if _, err := m.RedeemToken(ctx, raw); !errors.Is(err, ErrTokenAlreadyUsed) {
		t.Errorf("expected ErrTokenAlreadyUsed, got %v", err)
	}
}

func TestRedeemExpiredTokenViaManager(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute})
	ctx := context.Background()

	raw, _, err := m.IssueToken(ctx, "tnt-1", "rm-7")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	// Advance the manager's clock past the TTL.
	m.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	if _, err := m.RedeemToken(ctx, raw); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRedeemUnknownTokenViaManager(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute})

	if _, err := m.RedeemToken(context.Background(), "not-a-token"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestUnpairDevice(t *testing.T) {
	m, registry := newTestManager(t, Options{TokenTTL: 15 * time.Minute})
	ctx := context.Background()

	_, deviceID, err := m.IssueCode(ctx, "tnt-1", "rm-7")
	if err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	if err := m.UnpairDevice(ctx, deviceID); err != nil {
		t.Fatalf("UnpairDevice: %v", err)
	}
	if _, err := registry.GetDevice(ctx, deviceID); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("expected device gone, got %v", err)
	}

	// Idempotent: unpairing again is not an error.
	if err := m.UnpairDevice(ctx, deviceID); err != nil {
		t.Fatalf("second UnpairDevice: %v", err)
	}
}

func TestUnpairRoomCascades(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: 15 * time.Minute})
	ctx := context.Background()

	if _, _, err := m.IssueCode(ctx, "tnt-1", "rm-7"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	if _, _, err := m.IssueCode(ctx, "tnt-1", "rm-7"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}
	if _, _, err := m.IssueCode(ctx, "tnt-1", "rm-8"); err != nil {
		t.Fatalf("IssueCode: %v", err)
	}

	n, err := m.UnpairRoom(ctx, "rm-7")
	if err != nil {
		t.Fatalf("UnpairRoom: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 devices unpaired, got %d", n)
	}

	// Idempotent on an already-empty room.
	n, err = m.UnpairRoom(ctx, "rm-7")
	if err != nil {
		t.Fatalf("second UnpairRoom: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 devices on second unpair, got %d", n)
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	m, _ := newTestManager(t, Options{TokenTTL: time.Minute})
	ctx := context.Background()

	if _, _, err := m.IssueToken(ctx, "tnt-1", "rm-7"); err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	n, err := m.PurgeExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 token purged, got %d", n)
	}
}
