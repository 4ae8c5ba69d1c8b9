package queue

import (
	"context"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// StorePropertyConsumer applies StoreDevicePropertyState and
// StoreChannelPropertyState messages.
//
// The incoming value is normalised against the property's declared data
// type and format, then routed by kind:
//
//	variable  persisted as configuration
//	dynamic   written to the state store as the actual value, marked valid
//	mapped    forwarded toward the parent device: published as an action
//	          request in the parent's data type in exchange mode, or
//	          written as the expected value in event mode for the write
//	          consumer to pick up
//
// Load and normalisation failures log and drop the message. State
// messages are never retried; the next control tick recomputes.
type StorePropertyConsumer struct {
	registry  DeviceRegistry
	store     StateStore
	publisher ActionPublisher // nil in event mode
	logger    Logger
}

// NewStorePropertyConsumer creates the store consumer. A nil publisher
// selects event mode: mapped properties write expected values directly
// to the state store.
func NewStorePropertyConsumer(registry DeviceRegistry, store StateStore, publisher ActionPublisher) *StorePropertyConsumer {
	return &StorePropertyConsumer{
		registry:  registry,
		store:     store,
		publisher: publisher,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the consumer.
func (c *StorePropertyConsumer) SetLogger(logger Logger) {
	c.logger = logger
}

// Consume handles the two store property message kinds.
func (c *StorePropertyConsumer) Consume(ctx context.Context, msg Message) bool {
	switch m := msg.(type) {
	case StoreDevicePropertyState:
		c.apply(ctx, m.DeviceID, uuid.Nil, m.PropertyID, m.Value, m.Source)
		return true
	case StoreChannelPropertyState:
		c.apply(ctx, m.DeviceID, m.ChannelID, m.PropertyID, m.Value, m.Source)
		return true
	default:
		return false
	}
}

func (c *StorePropertyConsumer) apply(ctx context.Context, deviceID, channelID, propertyID uuid.UUID, value any, source string) {
	d, err := c.registry.GetDevice(deviceID)
	if err != nil {
		c.logger.Warn("property state for unknown device dropped",
			"device_id", deviceID, "property_id", propertyID, "error", err)
		return
	}

	p, ch := d.PropertyByID(propertyID)
	if p == nil {
		c.logger.Warn("state for unknown property dropped",
			"device", d.Identifier, "property_id", propertyID)
		return
	}
	if channelID != uuid.Nil && (ch == nil || ch.ID != channelID) {
		c.logger.Warn("property state with mismatched channel dropped",
			"device", d.Identifier, "property_id", propertyID, "channel_id", channelID)
		return
	}

	normalized, err := property.NormalizeValue(p, value)
	if err != nil {
		c.logger.Warn("property state failed normalisation",
			"device", d.Identifier, "property", p.Identifier, "value", value, "error", err)
		return
	}

	switch p.Kind {
	case property.KindVariable:
		if err := c.registry.UpdatePropertyValue(ctx, p.ID, normalized); err != nil {
			c.logger.Warn("persisting variable property failed",
				"device", d.Identifier, "property", p.Identifier, "error", err)
		}

	case property.KindDynamic:
		c.store.SetValue(p.ID, property.WithActual(normalized), property.WithValid(true))
		c.logger.Debug("property state stored",
			"device", d.Identifier, "property", p.Identifier, "value", normalized, "source", source)

	case property.KindMapped:
		if c.publisher != nil {
			// The set action travels to the parent device and must
			// carry the parent's native data type.
			parent, err := c.registry.GetProperty(ctx, *p.ParentID)
			if err != nil {
				c.logger.Warn("parent of mapped property could not be resolved",
					"device", d.Identifier, "property", p.Identifier, "error", err)
				return
			}
			toParent, err := property.TransformToParent(normalized, p.DataType, parent.DataType)
			if err != nil {
				c.logger.Warn("property state could not be transformed for the parent",
					"device", d.Identifier, "property", p.Identifier, "value", normalized, "error", err)
				return
			}
			if err := c.publisher.PublishSetAction(ctx, d.ID, channelID, p.ID, toParent); err != nil {
				c.logger.Warn("publishing action request failed",
					"device", d.Identifier, "property", p.Identifier, "error", err)
			}
			return
		}
		c.store.SetValue(p.ID, property.WithExpected(normalized), property.WithPending(nil))
	}
}
