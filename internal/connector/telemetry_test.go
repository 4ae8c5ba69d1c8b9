package connector

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// deviceRepo is an in-memory device.Repository serving a fixed set of
// devices.
type deviceRepo struct {
	devices []device.Device
}

func (r *deviceRepo) GetByConnector(context.Context, uuid.UUID) ([]device.Device, error) {
	return r.devices, nil
}

func (r *deviceRepo) GetByID(_ context.Context, id uuid.UUID) (*device.Device, error) {
	for i := range r.devices {
		if r.devices[i].ID == id {
			return &r.devices[i], nil
		}
	}
	return nil, device.ErrNotFound
}

func (r *deviceRepo) GetProperty(context.Context, uuid.UUID) (*property.Property, error) {
	return nil, property.ErrNotFound
}

func (r *deviceRepo) UpdatePropertyValue(context.Context, uuid.UUID, any) error { return nil }

func (r *deviceRepo) GetConnectionState(context.Context, uuid.UUID) (device.ConnectionState, error) {
	return device.Unknown, nil
}

func (r *deviceRepo) SetConnectionState(context.Context, uuid.UUID, device.ConnectionState) error {
	return nil
}

type recordedSample struct {
	deviceID string
	sample   influxdb.ThermostatSample
}

type recordedTransition struct {
	deviceID string
	state    string
}

// fakeTelemetry captures telemetry writes.
type fakeTelemetry struct {
	mu          sync.Mutex
	samples     []recordedSample
	transitions []recordedTransition
}

func (f *fakeTelemetry) WriteThermostatState(_, deviceID string, sample influxdb.ThermostatSample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, recordedSample{deviceID: deviceID, sample: sample})
}

func (f *fakeTelemetry) WriteConnectionState(_, deviceID, state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, recordedTransition{deviceID: deviceID, state: state})
}

func (f *fakeTelemetry) recorded() ([]recordedSample, []recordedTransition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedSample(nil), f.samples...), append([]recordedTransition(nil), f.transitions...)
}

// telemetryFixture builds a recorder over one thermostat device and
// returns the ids of hvac_state, actual_temperature and
// target_temperature on its thermostat channel.
func telemetryFixture(t *testing.T) (*telemetryRecorder, *fakeTelemetry, *property.Store, *device.Tracker, uuid.UUID, [3]uuid.UUID) {
	t.Helper()

	connectorID := uuid.New()
	deviceID := uuid.New()
	channelID := uuid.New()
	hvacStateID := uuid.New()
	actualID := uuid.New()
	targetID := uuid.New()

	dev := device.Device{
		ID:          deviceID,
		ConnectorID: connectorID,
		Identifier:  "thermo-lab",
		Type:        device.TypeThermostat,
		Enabled:     true,
		Channels: []device.Channel{
			{
				ID:         channelID,
				DeviceID:   deviceID,
				Identifier: device.ChannelThermostat,
				Properties: []property.Property{
					{
						ID:         hvacStateID,
						ChannelID:  channelID,
						Identifier: device.PropHvacState,
						Kind:       property.KindDynamic,
						DataType:   property.DataTypeEnum,
					},
					{
						ID:         actualID,
						ChannelID:  channelID,
						Identifier: device.PropActualTemperature,
						Kind:       property.KindDynamic,
						DataType:   property.DataTypeFloat,
					},
					{
						ID:         targetID,
						ChannelID:  channelID,
						Identifier: device.PropTargetTemperature,
						Kind:       property.KindDynamic,
						DataType:   property.DataTypeFloat,
					},
				},
			},
		},
	}

	repo := &deviceRepo{devices: []device.Device{dev}}
	registry := device.NewRegistry(repo, connectorID)
	if err := registry.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	tracker := device.NewTracker(repo)
	store := property.NewStore()
	sink := &fakeTelemetry{}
	rec := newTelemetryRecorder(connectorID, registry, tracker, store, sink)

	return rec, sink, store, tracker, deviceID, [3]uuid.UUID{hvacStateID, actualID, targetID}
}

func TestTelemetryRecorder_SamplesOnHvacState(t *testing.T) {
	rec, sink, store, _, deviceID, ids := telemetryFixture(t)
	hvacStateID, actualID, targetID := ids[0], ids[1], ids[2]

	rec.Start()
	defer rec.Stop()

	store.SetValue(actualID, property.WithActual(21.4), property.WithValid(true))
	store.SetValue(targetID, property.WithActual(22.0), property.WithValid(true))

	if samples, _ := sink.recorded(); len(samples) != 0 {
		t.Fatalf("temperature updates produced %d samples, want 0", len(samples))
	}

	store.SetValue(hvacStateID, property.WithActual("heating"), property.WithValid(true))

	samples, _ := sink.recorded()
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	got := samples[0]
	if got.deviceID != deviceID.String() {
		t.Errorf("deviceID = %q, want %q", got.deviceID, deviceID)
	}
	if !got.sample.Heating || got.sample.Cooling {
		t.Errorf("Heating/Cooling = %v/%v, want true/false", got.sample.Heating, got.sample.Cooling)
	}
	if got.sample.HvacState != "heating" {
		t.Errorf("HvacState = %q, want heating", got.sample.HvacState)
	}
	if got.sample.ActualTemperature == nil || *got.sample.ActualTemperature != 21.4 {
		t.Errorf("ActualTemperature = %v, want 21.4", got.sample.ActualTemperature)
	}
	if got.sample.TargetTemperature == nil || *got.sample.TargetTemperature != 22.0 {
		t.Errorf("TargetTemperature = %v, want 22.0", got.sample.TargetTemperature)
	}
	if got.sample.ActualFloorTemperature != nil {
		t.Errorf("ActualFloorTemperature = %v, want nil", got.sample.ActualFloorTemperature)
	}
}

func TestTelemetryRecorder_IgnoresUnknownProperties(t *testing.T) {
	rec, sink, store, _, _, _ := telemetryFixture(t)

	rec.Start()
	defer rec.Stop()

	store.SetValue(uuid.New(), property.WithActual("heating"), property.WithValid(true))

	if samples, _ := sink.recorded(); len(samples) != 0 {
		t.Fatalf("unknown property produced %d samples, want 0", len(samples))
	}
}

func TestTelemetryRecorder_RecordsConnectionTransitions(t *testing.T) {
	rec, sink, _, tracker, deviceID, _ := telemetryFixture(t)
	ctx := context.Background()

	rec.Start()

	tracker.SetState(ctx, deviceID, device.Connected)
	tracker.SetState(ctx, deviceID, device.Connected)

	_, transitions := sink.recorded()
	if len(transitions) != 1 {
		t.Fatalf("got %d transitions, want 1 (repeat states are not transitions)", len(transitions))
	}
	if transitions[0].deviceID != deviceID.String() || transitions[0].state != string(device.Connected) {
		t.Errorf("transition = %+v, want %s connected", transitions[0], deviceID)
	}

	rec.Stop()
	tracker.SetState(ctx, deviceID, device.Disconnected)

	if _, transitions := sink.recorded(); len(transitions) != 1 {
		t.Fatalf("transition recorded after Stop()")
	}
}
