package queue

import (
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
)

// Provenance tags carried by messages.
const (
	SourceDriver     = "driver"
	SourceSupervisor = "supervisor"
	SourceExchange   = "exchange"
	SourceEvent      = "event"
)

// Message is an immutable typed record consumed exactly once. Messages
// are created by drivers and the supervisor and never mutated after
// creation.
type Message interface {
	isMessage()
}

// StoreDeviceConnectionState records a device's connection state
// transition.
type StoreDeviceConnectionState struct {
	ConnectorID uuid.UUID
	DeviceID    uuid.UUID
	State       device.ConnectionState
	Source      string
}

// StoreDevicePropertyState records an observed value of a device-level
// property.
type StoreDevicePropertyState struct {
	ConnectorID uuid.UUID
	DeviceID    uuid.UUID
	PropertyID  uuid.UUID
	Value       any
	Source      string
}

// StoreChannelPropertyState records an observed value of a channel
// property.
type StoreChannelPropertyState struct {
	ConnectorID uuid.UUID
	DeviceID    uuid.UUID
	ChannelID   uuid.UUID
	PropertyID  uuid.UUID
	Value       any
	Source      string
}

// WriteDevicePropertyState commands the driver to apply a device-level
// property's expected value.
type WriteDevicePropertyState struct {
	ConnectorID uuid.UUID
	DeviceID    uuid.UUID
	PropertyID  uuid.UUID
	Source      string
}

// WriteChannelPropertyState commands the driver to apply a channel
// property's expected value.
type WriteChannelPropertyState struct {
	ConnectorID uuid.UUID
	DeviceID    uuid.UUID
	ChannelID   uuid.UUID
	PropertyID  uuid.UUID
	Source      string
}

func (StoreDeviceConnectionState) isMessage() {}
func (StoreDevicePropertyState) isMessage()   {}
func (StoreChannelPropertyState) isMessage()  {}
func (WriteDevicePropertyState) isMessage()   {}
func (WriteChannelPropertyState) isMessage()  {}
