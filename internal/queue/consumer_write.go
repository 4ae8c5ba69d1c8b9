package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// WritePropertyConsumer applies WriteDevicePropertyState and
// WriteChannelPropertyState messages by calling back into the driver.
//
// The expected value comes from the state store, not the message: by the
// time the message drains, a newer command may have replaced the one
// that triggered it, and the newest expected value always wins.
//
// Write failures are never retried automatically. They clear the
// expected value and surface as an alert connection state, which the
// supervisor's reconnect logic picks up on its own schedule.
type WritePropertyConsumer struct {
	registry DeviceRegistry
	store    StateStore
	drivers  DriverProvider
	queue    *Queue
	logger   Logger
}

// NewWritePropertyConsumer creates the write consumer.
func NewWritePropertyConsumer(registry DeviceRegistry, store StateStore, drivers DriverProvider, q *Queue) *WritePropertyConsumer {
	return &WritePropertyConsumer{
		registry: registry,
		store:    store,
		drivers:  drivers,
		queue:    q,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the consumer.
func (c *WritePropertyConsumer) SetLogger(logger Logger) {
	c.logger = logger
}

// Consume handles the two write property message kinds.
func (c *WritePropertyConsumer) Consume(ctx context.Context, msg Message) bool {
	switch m := msg.(type) {
	case WriteDevicePropertyState:
		c.apply(ctx, m.ConnectorID, m.DeviceID, uuid.Nil, m.PropertyID)
		return true
	case WriteChannelPropertyState:
		c.apply(ctx, m.ConnectorID, m.DeviceID, m.ChannelID, m.PropertyID)
		return true
	default:
		return false
	}
}

func (c *WritePropertyConsumer) apply(ctx context.Context, connectorID, deviceID, channelID, propertyID uuid.UUID) {
	d, err := c.registry.GetDevice(deviceID)
	if err != nil {
		c.logger.Warn("write for unknown device dropped",
			"device_id", deviceID, "property_id", propertyID, "error", err)
		return
	}

	p, ch := d.PropertyByID(propertyID)
	if p == nil {
		c.logger.Warn("write for unknown property dropped",
			"device", d.Identifier, "property_id", propertyID)
		return
	}
	if channelID != uuid.Nil && (ch == nil || ch.ID != channelID) {
		c.logger.Warn("write with mismatched channel dropped",
			"device", d.Identifier, "property_id", propertyID, "channel_id", channelID)
		return
	}

	if !p.Settable {
		c.logger.Warn("write to non-settable property dropped",
			"device", d.Identifier, "property", p.Identifier)
		return
	}

	state, ok := c.store.ReadValue(p.ID)
	if p.Kind != property.KindMapped && (!ok || state.Expected == nil) {
		c.logger.Debug("write with no expected value dropped",
			"device", d.Identifier, "property", p.Identifier)
		return
	}

	driver, err := c.drivers.GetDriver(ctx, d)
	if err != nil {
		c.writeFailed(connectorID, d, p, err)
		return
	}

	switch p.Kind {
	case property.KindMapped:
		// The driver's observed snapshot speaks the mapped side's
		// type; the parent-native form belongs to the outbound set
		// action, not here. Without a command in flight the last
		// valid reading refreshes the snapshot, and nil clears it.
		value := state.Expected
		if value == nil && state.Valid {
			value = state.Actual
		}
		if err := driver.NotifyState(ctx, p.ID, value); err != nil {
			c.writeFailed(connectorID, d, p, err)
			return
		}

	default:
		if err := driver.WriteState(ctx, p.ID, state.Expected); err != nil {
			c.writeFailed(connectorID, d, p, err)
			return
		}
	}

	// Stamp pending while the expected value awaits confirmation from
	// the driver's next state report.
	if state, ok := c.store.ReadValue(p.ID); ok && state.Expected != nil {
		now := time.Now()
		c.store.SetValue(p.ID, property.WithPending(&now))
	}
}

// writeFailed clears the command and raises an alert for the device.
func (c *WritePropertyConsumer) writeFailed(connectorID uuid.UUID, d *device.Device, p *property.Property, err error) {
	c.logger.Error("applying property write failed",
		"device", d.Identifier, "property", p.Identifier, "error", err)

	c.store.SetValue(p.ID, property.WithExpected(nil), property.WithPending(nil))

	c.queue.Append(StoreDeviceConnectionState{
		ConnectorID: connectorID,
		DeviceID:    d.ID,
		State:       device.Alert,
		Source:      SourceDriver,
	})
}
