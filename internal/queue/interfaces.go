package queue

import (
	"context"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// DeviceRegistry is the device configuration access the consumers need.
// Satisfied by device.Registry.
type DeviceRegistry interface {
	GetDevice(id uuid.UUID) (*device.Device, error)
	GetProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error)
	UpdatePropertyValue(ctx context.Context, propertyID uuid.UUID, value any) error
}

// ConnectionTracker tracks device connection states. Satisfied by
// device.Tracker.
type ConnectionTracker interface {
	GetState(ctx context.Context, deviceID uuid.UUID) device.ConnectionState
	SetState(ctx context.Context, deviceID uuid.UUID, state device.ConnectionState) bool
}

// StateStore is the property state access the consumers need. Satisfied
// by property.Store.
type StateStore interface {
	ReadValue(propertyID uuid.UUID) (property.State, bool)
	SetValue(propertyID uuid.UUID, opts ...property.UpdateOption) property.State
	Invalidate(propertyID uuid.UUID)
}

// Driver is the inbound command surface of a device driver.
type Driver interface {
	// WriteState applies a commanded value to a device-native property.
	WriteState(ctx context.Context, propertyID uuid.UUID, value any) error

	// NotifyState informs the driver of an observed value on a mapped
	// actuator or sensor property.
	NotifyState(ctx context.Context, propertyID uuid.UUID, value any) error
}

// DriverProvider resolves the driver instance for a device.
type DriverProvider interface {
	GetDriver(ctx context.Context, d *device.Device) (Driver, error)
}

// ActionPublisher publishes outbound actuation requests for mapped
// properties when the connector runs in exchange mode. The publisher
// must not wait for a reply; replies arrive later as ordinary store
// messages.
type ActionPublisher interface {
	PublishSetAction(ctx context.Context, deviceID, channelID, propertyID uuid.UUID, expected any) error
}
