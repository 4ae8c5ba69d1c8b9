package writers

import (
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/property"
	"github.com/nerrad567/gray-logic-virtual/internal/queue"
)

// StateSource is the state store subscription the event writer needs.
// Satisfied by property.Store.
type StateSource interface {
	Subscribe(fn property.Subscriber) (unsubscribe func())
}

// OwnerResolver resolves who owns a property. Satisfied by
// device.Registry.
type OwnerResolver interface {
	FindOwner(propertyID uuid.UUID) (deviceID, channelID uuid.UUID, err error)
}

// Event watches the state store and turns fresh expected values into
// write messages for the queue's write consumer. The consumer stamps
// pending on success, which stops the same command from being written
// twice.
type Event struct {
	connectorID uuid.UUID
	registry    OwnerResolver
	store       StateSource
	queue       *queue.Queue
	logger      Logger

	unsubscribe func()
}

// NewEvent creates the event writer.
func NewEvent(connectorID uuid.UUID, registry OwnerResolver, store StateSource, q *queue.Queue) *Event {
	return &Event{
		connectorID: connectorID,
		registry:    registry,
		store:       store,
		queue:       q,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the writer.
func (e *Event) SetLogger(logger Logger) {
	e.logger = logger
}

// Start subscribes to state store updates.
func (e *Event) Start() error {
	e.unsubscribe = e.store.Subscribe(e.handle)
	return nil
}

// Stop drops the state store subscription.
func (e *Event) Stop() error {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	return nil
}

// handle inspects one state change. Only an unwritten command (expected
// set, pending clear) produces a write message.
func (e *Event) handle(propertyID uuid.UUID, state property.State) {
	if state.Expected == nil || state.Pending != nil {
		return
	}

	deviceID, channelID, err := e.registry.FindOwner(propertyID)
	if err != nil {
		e.logger.Warn("expected value for unknown property ignored",
			"property_id", propertyID, "error", err)
		return
	}

	if channelID == uuid.Nil {
		e.queue.Append(queue.WriteDevicePropertyState{
			ConnectorID: e.connectorID,
			DeviceID:    deviceID,
			PropertyID:  propertyID,
			Source:      queue.SourceEvent,
		})
		return
	}
	e.queue.Append(queue.WriteChannelPropertyState{
		ConnectorID: e.connectorID,
		DeviceID:    deviceID,
		ChannelID:   channelID,
		PropertyID:  propertyID,
		Source:      queue.SourceEvent,
	})
}
