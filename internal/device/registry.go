package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/property"
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

// Registry provides device configuration access with caching and thread
// safety. It wraps a Repository and adds an in-memory cache for the one
// connector this process supervises.
//
// The cache is populated via RefreshCache() at startup and again at the
// top of each supervisor sweep, giving the sweep snapshot semantics.
//
// All public methods are thread-safe.
type Registry struct {
	repo        Repository
	connectorID uuid.UUID

	cache      map[uuid.UUID]*Device            // Cached devices by ID
	properties map[uuid.UUID]*property.Property // Property index across all cached devices
	cacheMu    sync.RWMutex                     // Protects cache and properties

	logger Logger
}

// NewRegistry creates a device registry for one connector.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository, connectorID uuid.UUID) *Registry {
	return &Registry{
		repo:        repo,
		connectorID: connectorID,
		cache:       make(map[uuid.UUID]*Device),
		properties:  make(map[uuid.UUID]*property.Property),
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// ConnectorID returns the connector this registry serves.
func (r *Registry) ConnectorID() uuid.UUID {
	return r.connectorID
}

// RefreshCache reloads the connector's devices from the repository.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.GetByConnector(ctx, r.connectorID)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[uuid.UUID]*Device, len(devices))
	r.properties = make(map[uuid.UUID]*property.Property)
	for i := range devices {
		d := devices[i].DeepCopy()
		r.cache[d.ID] = d
		for pi := range d.Properties {
			p := &d.Properties[pi]
			r.properties[p.ID] = p
		}
		for ci := range d.Channels {
			for pi := range d.Channels[ci].Properties {
				p := &d.Channels[ci].Properties[pi]
				r.properties[p.ID] = p
			}
		}
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(id uuid.UUID) (*Device, error) {
	r.cacheMu.RLock()
	d, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return d.DeepCopy(), nil
}

// ListDevices returns deep copies of every cached device.
func (r *Registry) ListDevices() []Device {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	devices := make([]Device, 0, len(r.cache))
	for _, d := range r.cache {
		devices = append(devices, *d.DeepCopy())
	}
	return devices
}

// GetProperty retrieves any cached property by ID, searching across all
// devices of the connector. Falls back to the repository for properties
// outside the cache (mapped parents owned by other connectors).
func (r *Registry) GetProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	r.cacheMu.RLock()
	p, ok := r.properties[propertyID]
	r.cacheMu.RUnlock()

	if ok {
		return p.DeepCopy(), nil
	}
	return r.repo.GetProperty(ctx, propertyID)
}

// FindProperty locates a property by device, channel identifier and
// property identifier.
func (r *Registry) FindProperty(deviceID uuid.UUID, channelIdentifier, propertyIdentifier string) (*property.Property, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	d, ok := r.cache[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	ch := d.Channel(channelIdentifier)
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	p := ch.Property(propertyIdentifier)
	if p == nil {
		return nil, ErrPropertyNotFound
	}
	return p.DeepCopy(), nil
}

// FindOwner resolves the device and channel owning a cached property.
// The channel ID is uuid.Nil for device-level properties.
func (r *Registry) FindOwner(propertyID uuid.UUID) (deviceID, channelID uuid.UUID, err error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	p, ok := r.properties[propertyID]
	if !ok {
		return uuid.Nil, uuid.Nil, ErrPropertyNotFound
	}
	if p.DeviceID != uuid.Nil {
		return p.DeviceID, uuid.Nil, nil
	}
	for _, d := range r.cache {
		for ci := range d.Channels {
			if d.Channels[ci].ID == p.ChannelID {
				return d.ID, p.ChannelID, nil
			}
		}
	}
	return uuid.Nil, uuid.Nil, ErrPropertyNotFound
}

// UpdatePropertyValue persists a variable property's configured value and
// keeps the cache in sync.
func (r *Registry) UpdatePropertyValue(ctx context.Context, propertyID uuid.UUID, value any) error {
	if err := r.repo.UpdatePropertyValue(ctx, propertyID, value); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if p, ok := r.properties[propertyID]; ok {
		p.Value = value
	}
	r.cacheMu.Unlock()
	return nil
}
