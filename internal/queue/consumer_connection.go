package queue

import (
	"context"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// ConnectionStateConsumer applies StoreDeviceConnectionState messages to
// the connection tracker.
//
// Transitions into disconnected, alert or unknown additionally mark
// every dynamic property of the device and its channels as invalid:
// their actual values are stale and must not feed control decisions.
type ConnectionStateConsumer struct {
	registry DeviceRegistry
	tracker  ConnectionTracker
	store    StateStore
	logger   Logger
}

// NewConnectionStateConsumer creates the connection state consumer.
func NewConnectionStateConsumer(registry DeviceRegistry, tracker ConnectionTracker, store StateStore) *ConnectionStateConsumer {
	return &ConnectionStateConsumer{
		registry: registry,
		tracker:  tracker,
		store:    store,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the consumer.
func (c *ConnectionStateConsumer) SetLogger(logger Logger) {
	c.logger = logger
}

// Consume handles StoreDeviceConnectionState messages.
func (c *ConnectionStateConsumer) Consume(ctx context.Context, msg Message) bool {
	m, ok := msg.(StoreDeviceConnectionState)
	if !ok {
		return false
	}

	d, err := c.registry.GetDevice(m.DeviceID)
	if err != nil {
		c.logger.Warn("connection state for unknown device dropped",
			"device_id", m.DeviceID, "state", m.State, "error", err)
		return true
	}

	if !c.tracker.SetState(ctx, d.ID, m.State) {
		return true // Unchanged.
	}

	c.logger.Info("device connection state changed",
		"device", d.Identifier, "state", m.State, "source", m.Source)

	switch m.State {
	case device.Disconnected, device.Alert, device.Unknown:
		c.invalidateDynamic(d)
	}
	return true
}

// invalidateDynamic marks every dynamic property of the device and its
// channels invalid.
func (c *ConnectionStateConsumer) invalidateDynamic(d *device.Device) {
	for i := range d.Properties {
		if d.Properties[i].Kind == property.KindDynamic {
			c.store.Invalidate(d.Properties[i].ID)
		}
	}
	for ci := range d.Channels {
		for pi := range d.Channels[ci].Properties {
			p := &d.Channels[ci].Properties[pi]
			if p.Kind == property.KindDynamic {
				c.store.Invalidate(p.ID)
			}
		}
	}
}
