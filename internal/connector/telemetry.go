package connector

import (
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/drivers/thermostat"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// TelemetryWriter records thermostat control samples and connection
// transitions. Satisfied by influxdb.Client.
type TelemetryWriter interface {
	WriteThermostatState(connectorID, deviceID string, sample influxdb.ThermostatSample)
	WriteConnectionState(connectorID, deviceID, state string)
}

// telemetryRecorder samples a thermostat whenever its hvac_state
// property is published, and records connection state transitions. The
// hvac_state write is the last message of a control tick, so the
// thermostat channel's temperature readings are settled by the time it
// lands in the store.
type telemetryRecorder struct {
	connectorID uuid.UUID
	registry    *device.Registry
	tracker     *device.Tracker
	store       *property.Store
	writer      TelemetryWriter
	logger      Logger

	unsubscribe func()
}

func newTelemetryRecorder(connectorID uuid.UUID, registry *device.Registry, tracker *device.Tracker, store *property.Store, writer TelemetryWriter) *telemetryRecorder {
	return &telemetryRecorder{
		connectorID: connectorID,
		registry:    registry,
		tracker:     tracker,
		store:       store,
		writer:      writer,
		logger:      noopLogger{},
	}
}

func (r *telemetryRecorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Start subscribes to the property state store and the tracker's
// transition callback.
func (r *telemetryRecorder) Start() {
	r.unsubscribe = r.store.Subscribe(r.handle)
	r.tracker.OnTransition(func(deviceID uuid.UUID, state device.ConnectionState) {
		r.writer.WriteConnectionState(r.connectorID.String(), deviceID.String(), string(state))
	})
}

// Stop drops the store subscription and the transition callback.
func (r *telemetryRecorder) Stop() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	r.tracker.OnTransition(nil)
}

func (r *telemetryRecorder) handle(propertyID uuid.UUID, st property.State) {
	deviceID, channelID, err := r.registry.FindOwner(propertyID)
	if err != nil || channelID == uuid.Nil {
		return
	}

	d, err := r.registry.GetDevice(deviceID)
	if err != nil || d.Type != device.TypeThermostat {
		return
	}

	ch := d.Channel(device.ChannelThermostat)
	if ch == nil || ch.ID != channelID {
		return
	}
	p := ch.Property(device.PropHvacState)
	if p == nil || p.ID != propertyID {
		return
	}

	hvacState, ok := st.Actual.(string)
	if !ok {
		return
	}

	sample := influxdb.ThermostatSample{
		Heating:   hvacState == string(thermostat.StateHeating),
		Cooling:   hvacState == string(thermostat.StateCooling),
		HvacState: hvacState,
	}
	sample.ActualTemperature = r.channelFloat(ch, device.PropActualTemperature)
	sample.ActualFloorTemperature = r.channelFloat(ch, device.PropActualFloorTemp)
	sample.TargetTemperature = r.channelFloat(ch, device.PropTargetTemperature)

	r.writer.WriteThermostatState(r.connectorID.String(), deviceID.String(), sample)
}

// channelFloat reads a channel property's stored actual value as a
// float, or nil when absent or invalid.
func (r *telemetryRecorder) channelFloat(ch *device.Channel, identifier string) *float64 {
	p := ch.Property(identifier)
	if p == nil {
		return nil
	}

	st, ok := r.store.ReadValue(p.ID)
	if !ok || !st.Valid || st.Actual == nil {
		return nil
	}

	v, err := property.ToFloat(st.Actual)
	if err != nil {
		return nil
	}
	return &v
}
