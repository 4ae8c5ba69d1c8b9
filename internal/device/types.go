package device

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// TypeThermostat is the device type tag handled by the thermostat driver.
const TypeThermostat = "virtual-thermostat"

// Well-known channel identifiers of a virtual thermostat.
const (
	ChannelThermostat = "thermostat"
	ChannelActors     = "actors"
	ChannelSensors    = "sensors"
	ChannelOpenings   = "openings"

	// Preset channels are named preset_<mode> for each enabled preset.
	ChannelPresetPrefix = "preset_"
)

// Well-known property identifiers.
const (
	PropHeaterPrefix      = "heater"
	PropCoolerPrefix      = "cooler"
	PropTargetSensor      = "target_sensor"
	PropFloorSensor       = "floor_sensor"
	PropOpeningPrefix     = "sensor"
	PropTargetTemperature = "target_temperature"
	PropActualTemperature = "actual_temperature"
	PropActualFloorTemp   = "actual_floor_temperature"
	PropMaxFloorTemp      = "max_floor_temperature"
	PropCoolingThreshold  = "cooling_threshold_temperature"
	PropHeatingThreshold  = "heating_threshold_temperature"
	PropLowTargetTol      = "low_target_temperature_tolerance"
	PropHighTargetTol     = "high_target_temperature_tolerance"
	PropPresetMode        = "preset_mode"
	PropHvacMode          = "hvac_mode"
	PropHvacState         = "hvac_state"

	// PropStateProcessingDelay overrides the connector-wide minimum time
	// between control ticks for one device. Seconds.
	PropStateProcessingDelay = "state_processing_delay"
)

// ConnectionState is a device's platform connection state.
type ConnectionState string

// Connection states.
const (
	Connected    ConnectionState = "connected"
	Disconnected ConnectionState = "disconnected"
	Stopped      ConnectionState = "stopped"
	Alert        ConnectionState = "alert"
	Unknown      ConnectionState = "unknown"
)

// AllConnectionStates returns every valid connection state.
func AllConnectionStates() []ConnectionState {
	return []ConnectionState{Connected, Disconnected, Stopped, Alert, Unknown}
}

// IsValid reports whether s is a known connection state.
func (s ConnectionState) IsValid() bool {
	switch s {
	case Connected, Disconnected, Stopped, Alert, Unknown:
		return true
	}
	return false
}

// Device is one configured virtual device.
type Device struct {
	ID          uuid.UUID `json:"id"`
	ConnectorID uuid.UUID `json:"connector_id"`
	Identifier  string    `json:"identifier"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Enabled     bool      `json:"enabled"`

	// StateProcessingDelay is the configured per-device minimum time
	// between control ticks. Zero means "use the connector default".
	StateProcessingDelay time.Duration `json:"state_processing_delay"`

	// Properties are device-level properties (state_processing_delay
	// override and the like). Channel-level state lives on Channels.
	Properties []property.Property `json:"properties,omitempty"`

	Channels []Channel `json:"channels"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Channel is a named functional grouping of properties on a device.
type Channel struct {
	ID         uuid.UUID `json:"id"`
	DeviceID   uuid.UUID `json:"device_id"`
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`

	Properties []property.Property `json:"properties"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Property returns the device-level property with the given identifier,
// or nil.
func (d *Device) Property(identifier string) *property.Property {
	for i := range d.Properties {
		if d.Properties[i].Identifier == identifier {
			return &d.Properties[i]
		}
	}
	return nil
}

// PropertyByID returns the property with the given ID together with its
// owning channel. The channel is nil for device-level properties; both
// returns are nil when the ID is unknown.
func (d *Device) PropertyByID(id uuid.UUID) (*property.Property, *Channel) {
	for i := range d.Properties {
		if d.Properties[i].ID == id {
			return &d.Properties[i], nil
		}
	}
	for ci := range d.Channels {
		ch := &d.Channels[ci]
		for pi := range ch.Properties {
			if ch.Properties[pi].ID == id {
				return &ch.Properties[pi], ch
			}
		}
	}
	return nil, nil
}

// Channel returns the channel with the given identifier, or nil.
func (d *Device) Channel(identifier string) *Channel {
	for i := range d.Channels {
		if d.Channels[i].Identifier == identifier {
			return &d.Channels[i]
		}
	}
	return nil
}

// Property returns the property with the given identifier, or nil.
func (c *Channel) Property(identifier string) *property.Property {
	for i := range c.Properties {
		if c.Properties[i].Identifier == identifier {
			return &c.Properties[i]
		}
	}
	return nil
}

// DeepCopy creates a complete independent copy of the Device.
// All slice fields are cloned so modifications to the copy do not affect
// the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.Properties != nil {
		cpy.Properties = make([]property.Property, len(d.Properties))
		for i := range d.Properties {
			cpy.Properties[i] = *d.Properties[i].DeepCopy()
		}
	}

	if d.Channels != nil {
		cpy.Channels = make([]Channel, len(d.Channels))
		for i := range d.Channels {
			cpy.Channels[i] = *d.Channels[i].DeepCopy()
		}
	}

	return &cpy
}

// DeepCopy creates an independent copy of the Channel.
func (c *Channel) DeepCopy() *Channel {
	if c == nil {
		return nil
	}

	cpy := *c

	if c.Properties != nil {
		cpy.Properties = make([]property.Property, len(c.Properties))
		for i := range c.Properties {
			cpy.Properties[i] = *c.Properties[i].DeepCopy()
		}
	}

	return &cpy
}
