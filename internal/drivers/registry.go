package drivers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
)

// Driver is one device's operational state machine.
type Driver interface {
	// Connect validates the device's configuration and hydrates the
	// driver's in-memory state. It must fail fast on a device that can
	// never be operable as configured.
	Connect(ctx context.Context) error

	// Disconnect forces actuators to a safe state and discards the
	// in-memory state. Safe to call on an already disconnected driver.
	Disconnect(ctx context.Context) error

	// IsConnected reports whether Connect succeeded and Disconnect has
	// not been called since.
	IsConnected() bool

	// Process runs one control tick over the driver's cached state and
	// enqueues the state updates the tick implies.
	Process(ctx context.Context) error

	// WriteState applies a commanded value to a device-native property.
	WriteState(ctx context.Context, propertyID uuid.UUID, value any) error

	// NotifyState informs the driver of an observed value on a mapped
	// actuator or sensor property.
	NotifyState(ctx context.Context, propertyID uuid.UUID, value any) error
}

// Factory builds a driver for one device.
type Factory func(d *device.Device) Driver

// Logger defines the logging interface used by this package.
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

// Registry creates and memoizes one driver instance per device ID.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	drivers   map[uuid.UUID]Driver
	logger    Logger
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		drivers:   make(map[uuid.UUID]Driver),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register binds a factory to a device type tag. Later registrations
// for the same type replace earlier ones.
func (r *Registry) Register(deviceType string, factory Factory) {
	r.mu.Lock()
	r.factories[deviceType] = factory
	r.mu.Unlock()
}

// GetDriver returns the driver for the device, creating it on first
// use. Returns ErrNoDriver when the device's type has no factory.
func (r *Registry) GetDriver(_ context.Context, d *device.Device) (Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if driver, ok := r.drivers[d.ID]; ok {
		return driver, nil
	}

	factory, ok := r.factories[d.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoDriver, d.Type)
	}

	driver := factory(d)
	r.drivers[d.ID] = driver
	return driver, nil
}

// Forget drops the memoized driver for a device without disconnecting
// it. Used when a device is removed from the active set.
func (r *Registry) Forget(deviceID uuid.UUID) {
	r.mu.Lock()
	delete(r.drivers, deviceID)
	r.mu.Unlock()
}

// Close disconnects every memoized driver, logging and ignoring
// individual failures, and clears the registry.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	drivers := make(map[uuid.UUID]Driver, len(r.drivers))
	for id, d := range r.drivers {
		drivers[id] = d
	}
	r.drivers = make(map[uuid.UUID]Driver)
	r.mu.Unlock()

	for id, driver := range drivers {
		if err := driver.Disconnect(ctx); err != nil {
			r.logger.Warn("driver disconnect failed during shutdown",
				"device_id", id, "error", err)
		}
	}
}
