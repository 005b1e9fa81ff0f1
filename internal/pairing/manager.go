package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roomsign/roomsign-core/internal/device"
)

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures pairing behaviour.
type Options struct {
	// TokenTTL is the lifetime of issued pairing tokens.
	TokenTTL time.Duration

	// ConsumeCodes invalidates a pairing code on claim, mirroring the
	// token flow. Off by default: the legacy code lifecycle keeps the
	// code claimable indefinitely and by multiple callers.
	ConsumeCodes bool
}

// Manager drives the pairing flows on top of the token repository and
// the device registry.
type Manager struct {
	tokens   TokenRepository
	devices  device.Repository
	registry *device.Registry
	opts     Options
	logger   Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewManager creates a pairing manager.
func NewManager(tokens TokenRepository, devices device.Repository, registry *device.Registry, opts Options) *Manager {
	return &Manager{
		tokens:   tokens,
		devices:  devices,
		registry: registry,
		opts:     opts,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// IssueCode generates a 6-character pairing code and pre-provisions a
// device row bound to the room, awaiting claim. Codes have no expiry.
func (m *Manager) IssueCode(ctx context.Context, tenantID, roomID string) (code, deviceID string, err error) {
	code, err = GenerateCode()
	if err != nil {
		return "", "", err
	}

	d := &device.Device{
		TenantID:    tenantID,
		RoomID:      &roomID,
		Name:        "Display " + code,
		PairingCode: &code,
	}
	if err := m.registry.CreateDevice(ctx, d); err != nil {
		return "", "", fmt.Errorf("provisioning device for code: %w", err)
	}

	m.logger.Info("pairing code issued", "device_id", d.ID, "room_id", roomID)
	return code, d.ID, nil
}

// ClaimCode resolves a pairing code to its device and issues the device's
// access token. In the legacy flow the code is not invalidated, so the
// lookup is idempotent and repeatable; with ConsumeCodes on, the code is
// cleared and a second claim gets ErrCodeNotFound.
func (m *Manager) ClaimCode(ctx context.Context, code string) (*Pairing, error) {
	d, err := m.devices.GetByPairingCode(ctx, code)
	if err != nil {
		if errors.Is(err, device.ErrCodeNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	deviceToken, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	if err := m.devices.SetTokenHash(ctx, d.ID, HashToken(deviceToken)); err != nil {
		return nil, fmt.Errorf("storing device token: %w", err)
	}

	if m.opts.ConsumeCodes {
		if err := m.devices.ClearPairingCode(ctx, d.ID); err != nil {
			return nil, fmt.Errorf("consuming pairing code: %w", err)
		}
	}

	var roomID string
	if d.RoomID != nil {
		roomID = *d.RoomID
	}
	m.logger.Info("pairing code claimed", "device_id", d.ID, "room_id", roomID)
	return &Pairing{
		DeviceID:    d.ID,
		TenantID:    d.TenantID,
		RoomID:      roomID,
		DeviceToken: deviceToken,
	}, nil
}

// IssueToken creates a single-use pairing token bound to a room, expiring
// after the configured TTL. The raw token is returned once; only its hash
// is stored.
func (m *Manager) IssueToken(ctx context.Context, tenantID, roomID string) (string, *PairingToken, error) {
	raw, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}

	token := &PairingToken{
		TokenHash: HashToken(raw),
		TenantID:  tenantID,
		RoomID:    roomID,
		ExpiresAt: m.now().UTC().Add(m.opts.TokenTTL),
	}
	if err := m.tokens.Create(ctx, token); err != nil {
		return "", nil, err
	}

	m.logger.Info("pairing token issued", "room_id", roomID, "expires_at", token.ExpiresAt)
	return raw, token, nil
}

// RedeemToken consumes a pairing token and creates the device it
// provisions. Fails with ErrTokenNotFound, ErrTokenAlreadyUsed, or
// ErrTokenExpired; under concurrent redemption of the same token exactly
// one caller succeeds.
func (m *Manager) RedeemToken(ctx context.Context, raw string) (*Pairing, error) {
	deviceToken, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	deviceID := "dev-" + uuid.NewString()[:16]
	token, err := m.tokens.Redeem(ctx, HashToken(raw), m.now().UTC(), RedeemedDevice{
		ID:        deviceID,
		Name:      "Display " + deviceID[4:10],
		TokenHash: HashToken(deviceToken),
	})
	if err != nil {
		return nil, err
	}

	// Warm the registry cache with the row the transaction created.
	if _, err := m.registry.GetDevice(ctx, deviceID); err != nil {
		m.logger.Warn("caching redeemed device failed", "device_id", deviceID, "error", err)
	}

	m.logger.Info("pairing token redeemed", "device_id", deviceID, "room_id", token.RoomID)
	return &Pairing{
		DeviceID:    deviceID,
		TenantID:    token.TenantID,
		RoomID:      token.RoomID,
		DeviceToken: deviceToken,
	}, nil
}

// UnpairDevice removes a device. Idempotent: unknown IDs are not an error.
func (m *Manager) UnpairDevice(ctx context.Context, deviceID string) error {
	return m.registry.RemoveDevice(ctx, deviceID)
}

// UnpairRoom removes every device paired to a room and returns the count.
func (m *Manager) UnpairRoom(ctx context.Context, roomID string) (int64, error) {
	return m.registry.RemoveDevicesByRoom(ctx, roomID)
}

// PurgeExpiredTokens deletes tokens past their TTL.
func (m *Manager) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return m.tokens.DeleteExpired(ctx, m.now().UTC())
}
