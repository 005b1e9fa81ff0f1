package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups,
// plus transient tracking of which devices hold streaming connections.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo       Repository
	staleAfter time.Duration

	cacheMu sync.RWMutex
	cache   map[string]*Device // Cached devices by ID

	streamMu  sync.RWMutex
	streaming map[string]struct{} // Device IDs with a live stream connection

	logger Logger
}

// NewRegistry creates a new device registry. staleAfter is the heartbeat
// age beyond which a device is classified stale.
func NewRegistry(repo Repository, staleAfter time.Duration) *Registry {
	return &Registry{
		repo:       repo,
		staleAfter: staleAfter,
		cache:      make(map[string]*Device),
		streaming:  make(map[string]struct{}),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	// Clear and rebuild cache with deep copies
	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.DeepCopy()
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID with transient state populated.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return r.withTransientState(cached.DeepCopy()), nil
	}

	// Fall back to repository (might be a new device not yet cached)
	device, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = device.DeepCopy()
	r.cacheMu.Unlock()

	return r.withTransientState(device), nil
}

// GetDeviceByTokenHash retrieves the device whose access token hashes to
// hash. Token lookups always hit the repository; the cache is keyed by ID.
func (r *Registry) GetDeviceByTokenHash(ctx context.Context, hash string) (*Device, error) {
	device, err := r.repo.GetByTokenHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return r.withTransientState(device), nil
}

// ListDevices retrieves all devices with transient state populated.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, *r.withTransientState(d.DeepCopy()))
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	devices, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		r.withTransientState(&devices[i])
	}
	return devices, nil
}

// GetDevicesByRoom retrieves all devices paired to a specific room.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) GetDevicesByRoom(ctx context.Context, roomID string) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		var devices []Device
		for _, d := range r.cache {
			if d.RoomID != nil && *d.RoomID == roomID {
				devices = append(devices, *r.withTransientState(d.DeepCopy()))
			}
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	devices, err := r.repo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		r.withTransientState(&devices[i])
	}
	return devices, nil
}

// CreateDevice persists a new device and caches it.
func (r *Registry) CreateDevice(ctx context.Context, device *Device) error {
	if err := r.repo.Create(ctx, device); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device created", "id", device.ID, "tenant_id", device.TenantID)
	return nil
}

// UpdateDevice persists name and room changes and refreshes the cache.
func (r *Registry) UpdateDevice(ctx context.Context, device *Device) error {
	if err := r.repo.Update(ctx, device); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device updated", "id", device.ID)
	return nil
}

// RemoveDevice deletes a device. Idempotent: deleting a device that does
// not exist is not an error.
func (r *Registry) RemoveDevice(ctx context.Context, id string) error {
	deleted, err := r.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	if deleted {
		r.logger.Info("device removed", "id", id)
	}
	return nil
}

// RemoveDevicesByRoom deletes every device paired to a room and returns
// how many were removed. Idempotent for rooms with no devices.
func (r *Registry) RemoveDevicesByRoom(ctx context.Context, roomID string) (int64, error) {
	n, err := r.repo.DeleteByRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}

	r.cacheMu.Lock()
	for id, d := range r.cache {
		if d.RoomID != nil && *d.RoomID == roomID {
			delete(r.cache, id)
		}
	}
	r.cacheMu.Unlock()

	if n > 0 {
		r.logger.Info("devices removed for room", "room_id", roomID, "count", n)
	}
	return n, nil
}

// RecordHeartbeat stamps last_seen_at for a device. Unknown device IDs
// are a silent no-op, not an error: a device may heartbeat concurrently
// with its own unpairing.
func (r *Registry) RecordHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC()
	updated, err := r.repo.UpdateLastSeen(ctx, id, now)
	if err != nil {
		return err
	}
	if !updated {
		r.logger.Debug("heartbeat for unknown device ignored", "id", id)
		return nil
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		refreshed := cached.DeepCopy()
		refreshed.LastSeenAt = &now
		r.cache[id] = refreshed
	}
	r.cacheMu.Unlock()

	return nil
}

// Liveness classifies a device against the registry's staleness threshold.
func (r *Registry) Liveness(d *Device) Liveness {
	return d.LivenessAt(time.Now().UTC(), r.staleAfter)
}

// MarkStreaming records that a device opened a streaming connection.
func (r *Registry) MarkStreaming(id string) {
	r.streamMu.Lock()
	r.streaming[id] = struct{}{}
	r.streamMu.Unlock()
}

// MarkDisconnected records that a device's streaming connection closed.
func (r *Registry) MarkDisconnected(id string) {
	r.streamMu.Lock()
	delete(r.streaming, id)
	r.streamMu.Unlock()
}

// withTransientState fills the connection state on a device copy.
func (r *Registry) withTransientState(d *Device) *Device {
	r.streamMu.RLock()
	_, streaming := r.streaming[d.ID]
	r.streamMu.RUnlock()

	if streaming {
		d.ConnectionState = StateStreaming
	} else {
		d.ConnectionState = StateDisconnected
	}
	return d
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	TotalDevices int
	Streaming    int
	ByLiveness   map[Liveness]int
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	now := time.Now().UTC()

	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	r.streamMu.RLock()
	defer r.streamMu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.cache),
		Streaming:    len(r.streaming),
		ByLiveness:   make(map[Liveness]int),
	}
	for _, d := range r.cache {
		stats.ByLiveness[d.LivenessAt(now, r.staleAfter)]++
	}
	return stats
}
