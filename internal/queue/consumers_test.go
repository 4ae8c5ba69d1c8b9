package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

type mockRegistry struct {
	devices    map[uuid.UUID]*device.Device
	properties map[uuid.UUID]*property.Property
	updated    map[uuid.UUID]any
	updateErr  error
}

func newMockRegistry(devices ...*device.Device) *mockRegistry {
	r := &mockRegistry{
		devices:    make(map[uuid.UUID]*device.Device),
		properties: make(map[uuid.UUID]*property.Property),
		updated:    make(map[uuid.UUID]any),
	}
	for _, d := range devices {
		r.devices[d.ID] = d
		for i := range d.Properties {
			r.properties[d.Properties[i].ID] = &d.Properties[i]
		}
		for ci := range d.Channels {
			for pi := range d.Channels[ci].Properties {
				p := &d.Channels[ci].Properties[pi]
				r.properties[p.ID] = p
			}
		}
	}
	return r
}

func (r *mockRegistry) GetDevice(id uuid.UUID) (*device.Device, error) {
	d, ok := r.devices[id]
	if !ok {
		return nil, device.ErrNotFound
	}
	return d, nil
}

func (r *mockRegistry) GetProperty(_ context.Context, propertyID uuid.UUID) (*property.Property, error) {
	p, ok := r.properties[propertyID]
	if !ok {
		return nil, property.ErrNotFound
	}
	return p, nil
}

func (r *mockRegistry) UpdatePropertyValue(_ context.Context, propertyID uuid.UUID, value any) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated[propertyID] = value
	return nil
}

type mockTracker struct {
	states map[uuid.UUID]device.ConnectionState
}

func newMockTracker() *mockTracker {
	return &mockTracker{states: make(map[uuid.UUID]device.ConnectionState)}
}

func (t *mockTracker) GetState(_ context.Context, deviceID uuid.UUID) device.ConnectionState {
	if s, ok := t.states[deviceID]; ok {
		return s
	}
	return device.Unknown
}

func (t *mockTracker) SetState(_ context.Context, deviceID uuid.UUID, state device.ConnectionState) bool {
	if t.states[deviceID] == state {
		return false
	}
	t.states[deviceID] = state
	return true
}

type mockDriver struct {
	writes   map[uuid.UUID]any
	notifies map[uuid.UUID]any
	err      error
}

func newMockDriver() *mockDriver {
	return &mockDriver{writes: make(map[uuid.UUID]any), notifies: make(map[uuid.UUID]any)}
}

func (d *mockDriver) WriteState(_ context.Context, propertyID uuid.UUID, value any) error {
	if d.err != nil {
		return d.err
	}
	d.writes[propertyID] = value
	return nil
}

func (d *mockDriver) NotifyState(_ context.Context, propertyID uuid.UUID, value any) error {
	if d.err != nil {
		return d.err
	}
	d.notifies[propertyID] = value
	return nil
}

type mockProvider struct {
	driver *mockDriver
	err    error
}

func (p *mockProvider) GetDriver(_ context.Context, _ *device.Device) (Driver, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.driver, nil
}

type mockPublisher struct {
	actions []publishedAction
	err     error
}

type publishedAction struct {
	deviceID   uuid.UUID
	channelID  uuid.UUID
	propertyID uuid.UUID
	expected   any
}

func (p *mockPublisher) PublishSetAction(_ context.Context, deviceID, channelID, propertyID uuid.UUID, expected any) error {
	if p.err != nil {
		return p.err
	}
	p.actions = append(p.actions, publishedAction{deviceID, channelID, propertyID, expected})
	return nil
}

// consumerTestDevice builds a thermostat with one dynamic, one variable
// and one mapped channel property plus a device-level variable.
func consumerTestDevice() *device.Device {
	deviceID := uuid.New()
	channelID := uuid.New()
	parentID := uuid.New()

	dynamic := property.Property{
		ID:         uuid.New(),
		ChannelID:  channelID,
		Identifier: device.PropActualTemperature,
		Kind:       property.KindDynamic,
		DataType:   property.DataTypeFloat,
		Queryable:  true,
	}
	variable := property.Property{
		ID:         uuid.New(),
		ChannelID:  channelID,
		Identifier: device.PropLowTargetTol,
		Kind:       property.KindVariable,
		DataType:   property.DataTypeFloat,
		Value:      0.3,
	}
	mapped := property.Property{
		ID:         uuid.New(),
		ChannelID:  channelID,
		Identifier: device.PropHeaterPrefix + "1",
		Kind:       property.KindMapped,
		DataType:   property.DataTypeSwitch,
		Format: []string{
			property.SwitchPayloadOn,
			property.SwitchPayloadOff,
			property.SwitchPayloadToggle,
		},
		Settable: true,
		ParentID: &parentID,
	}
	target := property.Property{
		ID:         uuid.New(),
		ChannelID:  channelID,
		Identifier: device.PropTargetTemperature,
		Kind:       property.KindDynamic,
		DataType:   property.DataTypeFloat,
		Format:     []string{"7.0", "35.0"},
		Settable:   true,
	}
	deviceLevel := property.Property{
		ID:         uuid.New(),
		DeviceID:   deviceID,
		Identifier: device.PropStateProcessingDelay,
		Kind:       property.KindVariable,
		DataType:   property.DataTypeUint,
		Value:      120,
	}

	return &device.Device{
		ID:         deviceID,
		Identifier: "thermostat-office",
		Type:       device.TypeThermostat,
		Enabled:    true,
		Properties: []property.Property{deviceLevel},
		Channels: []device.Channel{{
			ID:         channelID,
			DeviceID:   deviceID,
			Identifier: device.ChannelThermostat,
			Properties: []property.Property{dynamic, variable, mapped, target},
		}},
	}
}

func TestConnectionStateConsumer(t *testing.T) {
	d := consumerTestDevice()
	dynamic := d.Channels[0].Properties[0]

	t.Run("wrong message type unclaimed", func(t *testing.T) {
		c := NewConnectionStateConsumer(newMockRegistry(d), newMockTracker(), property.NewStore())
		if c.Consume(context.Background(), StoreChannelPropertyState{}) {
			t.Error("Consume() claimed a property state message")
		}
	})

	t.Run("unknown device claimed and dropped", func(t *testing.T) {
		tracker := newMockTracker()
		c := NewConnectionStateConsumer(newMockRegistry(d), tracker, property.NewStore())
		claimed := c.Consume(context.Background(), StoreDeviceConnectionState{
			DeviceID: uuid.New(), State: device.Connected,
		})
		if !claimed {
			t.Error("Consume() = false for unknown device")
		}
		if len(tracker.states) != 0 {
			t.Error("tracker updated for unknown device")
		}
	})

	t.Run("connect keeps dynamic state valid", func(t *testing.T) {
		store := property.NewStore()
		store.SetValue(dynamic.ID, property.WithActual(21.5), property.WithValid(true))
		c := NewConnectionStateConsumer(newMockRegistry(d), newMockTracker(), store)

		c.Consume(context.Background(), StoreDeviceConnectionState{DeviceID: d.ID, State: device.Connected})

		state, _ := store.ReadValue(dynamic.ID)
		if !state.Valid {
			t.Error("dynamic property invalidated on connect")
		}
	})

	t.Run("alert invalidates dynamic state", func(t *testing.T) {
		store := property.NewStore()
		store.SetValue(dynamic.ID, property.WithActual(21.5), property.WithValid(true))
		tracker := newMockTracker()
		tracker.SetState(context.Background(), d.ID, device.Connected)
		c := NewConnectionStateConsumer(newMockRegistry(d), tracker, store)

		c.Consume(context.Background(), StoreDeviceConnectionState{DeviceID: d.ID, State: device.Alert})

		if got := tracker.GetState(context.Background(), d.ID); got != device.Alert {
			t.Errorf("GetState() = %v, want %v", got, device.Alert)
		}
		state, _ := store.ReadValue(dynamic.ID)
		if state.Valid {
			t.Error("dynamic property still valid after alert")
		}
	})

	t.Run("unchanged state does not invalidate", func(t *testing.T) {
		store := property.NewStore()
		store.SetValue(dynamic.ID, property.WithActual(21.5), property.WithValid(true))
		tracker := newMockTracker()
		tracker.SetState(context.Background(), d.ID, device.Disconnected)
		c := NewConnectionStateConsumer(newMockRegistry(d), tracker, store)

		c.Consume(context.Background(), StoreDeviceConnectionState{DeviceID: d.ID, State: device.Disconnected})

		state, _ := store.ReadValue(dynamic.ID)
		if !state.Valid {
			t.Error("repeat of identical state invalidated the property")
		}
	})
}

func TestStorePropertyConsumer(t *testing.T) {
	ctx := context.Background()

	t.Run("dynamic stored as actual", func(t *testing.T) {
		d := consumerTestDevice()
		dynamic := d.Channels[0].Properties[0]
		store := property.NewStore()
		c := NewStorePropertyConsumer(newMockRegistry(d), store, nil)

		claimed := c.Consume(ctx, StoreChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: dynamic.ID,
			Value:      "21.4",
			Source:     SourceDriver,
		})
		if !claimed {
			t.Fatal("Consume() = false")
		}

		state, ok := store.ReadValue(dynamic.ID)
		if !ok || !state.Valid {
			t.Fatalf("ReadValue() = %+v, %v", state, ok)
		}
		if state.Actual != 21.4 {
			t.Errorf("Actual = %v, want 21.4", state.Actual)
		}
	})

	t.Run("variable persisted", func(t *testing.T) {
		d := consumerTestDevice()
		variable := d.Channels[0].Properties[1]
		registry := newMockRegistry(d)
		c := NewStorePropertyConsumer(registry, property.NewStore(), nil)

		c.Consume(ctx, StoreChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: variable.ID,
			Value:      0.5,
		})

		if got, ok := registry.updated[variable.ID]; !ok || got != 0.5 {
			t.Errorf("UpdatePropertyValue recorded %v, %v; want 0.5, true", got, ok)
		}
	})

	t.Run("device level property", func(t *testing.T) {
		d := consumerTestDevice()
		deviceLevel := d.Properties[0]
		registry := newMockRegistry(d)
		c := NewStorePropertyConsumer(registry, property.NewStore(), nil)

		c.Consume(ctx, StoreDevicePropertyState{
			DeviceID:   d.ID,
			PropertyID: deviceLevel.ID,
			Value:      60,
		})

		if _, ok := registry.updated[deviceLevel.ID]; !ok {
			t.Error("device-level variable was not persisted")
		}
	})

	t.Run("mapped in event mode sets expected", func(t *testing.T) {
		d := consumerTestDevice()
		mapped := d.Channels[0].Properties[2]
		store := property.NewStore()
		c := NewStorePropertyConsumer(newMockRegistry(d), store, nil)

		c.Consume(ctx, StoreChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: mapped.ID,
			Value:      property.SwitchPayloadOn,
		})

		state, ok := store.ReadValue(mapped.ID)
		if !ok {
			t.Fatal("ReadValue() ok = false")
		}
		if state.Expected != property.SwitchPayloadOn {
			t.Errorf("Expected = %v, want %q", state.Expected, property.SwitchPayloadOn)
		}
		if state.Pending != nil {
			t.Error("Pending set before the write consumer ran")
		}
	})

	t.Run("mapped in exchange mode publishes parent native value", func(t *testing.T) {
		d := consumerTestDevice()
		mapped := d.Channels[0].Properties[2]
		registry := newMockRegistry(d)
		registry.properties[*mapped.ParentID] = &property.Property{
			ID:       *mapped.ParentID,
			Kind:     property.KindDynamic,
			DataType: property.DataTypeBool,
		}
		store := property.NewStore()
		publisher := &mockPublisher{}
		c := NewStorePropertyConsumer(registry, store, publisher)

		c.Consume(ctx, StoreChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: mapped.ID,
			Value:      property.SwitchPayloadOn,
		})

		if len(publisher.actions) != 1 {
			t.Fatalf("published %d actions, want 1", len(publisher.actions))
		}
		action := publisher.actions[0]
		if action.propertyID != mapped.ID || action.expected != true {
			t.Errorf("PublishSetAction(%v, %v), want (%v, true)",
				action.propertyID, action.expected, mapped.ID)
		}
		if _, ok := store.ReadValue(mapped.ID); ok {
			t.Error("exchange mode wrote expected value locally")
		}
	})

	t.Run("mapped in exchange mode without parent dropped", func(t *testing.T) {
		d := consumerTestDevice()
		mapped := d.Channels[0].Properties[2]
		publisher := &mockPublisher{}
		c := NewStorePropertyConsumer(newMockRegistry(d), property.NewStore(), publisher)

		c.Consume(ctx, StoreChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: mapped.ID,
			Value:      property.SwitchPayloadOn,
		})

		if len(publisher.actions) != 0 {
			t.Error("action published for an unresolvable parent")
		}
	})

	t.Run("out of range value dropped", func(t *testing.T) {
		d := consumerTestDevice()
		target := d.Channels[0].Properties[3]
		store := property.NewStore()
		c := NewStorePropertyConsumer(newMockRegistry(d), store, nil)

		c.Consume(ctx, StoreChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: target.ID,
			Value:      99.0,
		})

		if _, ok := store.ReadValue(target.ID); ok {
			t.Error("out-of-range value reached the state store")
		}
	})

	t.Run("mismatched channel dropped", func(t *testing.T) {
		d := consumerTestDevice()
		dynamic := d.Channels[0].Properties[0]
		store := property.NewStore()
		c := NewStorePropertyConsumer(newMockRegistry(d), store, nil)

		c.Consume(ctx, StoreChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  uuid.New(),
			PropertyID: dynamic.ID,
			Value:      21.4,
		})

		if _, ok := store.ReadValue(dynamic.ID); ok {
			t.Error("value with wrong channel reached the state store")
		}
	})
}

func TestWritePropertyConsumer(t *testing.T) {
	ctx := context.Background()

	setup := func(d *device.Device) (*WritePropertyConsumer, *property.Store, *mockDriver, *Queue, *mockRegistry) {
		registry := newMockRegistry(d)
		store := property.NewStore()
		driver := newMockDriver()
		q := New()
		c := NewWritePropertyConsumer(registry, store, &mockProvider{driver: driver}, q)
		return c, store, driver, q, registry
	}

	t.Run("dynamic write reaches driver and stamps pending", func(t *testing.T) {
		d := consumerTestDevice()
		target := d.Channels[0].Properties[3]
		c, store, driver, _, _ := setup(d)
		store.SetValue(target.ID, property.WithExpected(22.5))

		claimed := c.Consume(ctx, WriteChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: target.ID,
		})
		if !claimed {
			t.Fatal("Consume() = false")
		}

		if got, ok := driver.writes[target.ID]; !ok || got != 22.5 {
			t.Errorf("WriteState recorded %v, %v; want 22.5, true", got, ok)
		}
		state, _ := store.ReadValue(target.ID)
		if state.Pending == nil {
			t.Error("Pending not stamped after a successful write")
		}
		if state.Expected != 22.5 {
			t.Errorf("Expected = %v, want 22.5", state.Expected)
		}
	})

	t.Run("mapped write hands the driver the mapped value", func(t *testing.T) {
		d := consumerTestDevice()
		mapped := d.Channels[0].Properties[2]
		c, store, driver, q, _ := setup(d)
		store.SetValue(mapped.ID, property.WithExpected(property.SwitchPayloadOn))

		c.Consume(ctx, WriteChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: mapped.ID,
		})

		if got, ok := driver.notifies[mapped.ID]; !ok || got != property.SwitchPayloadOn {
			t.Errorf("NotifyState recorded %v, %v; want %q, true", got, ok, property.SwitchPayloadOn)
		}
		if len(driver.writes) != 0 {
			t.Error("mapped property went through WriteState")
		}
		if !q.IsEmpty() {
			t.Error("successful mapped write enqueued a follow-up message")
		}
	})

	t.Run("mapped write falls back to the last valid reading", func(t *testing.T) {
		d := consumerTestDevice()
		mapped := d.Channels[0].Properties[2]
		c, store, driver, _, _ := setup(d)
		store.SetValue(mapped.ID, property.WithActual(property.SwitchPayloadOff), property.WithValid(true))

		c.Consume(ctx, WriteChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: mapped.ID,
		})

		if got, ok := driver.notifies[mapped.ID]; !ok || got != property.SwitchPayloadOff {
			t.Errorf("NotifyState recorded %v, %v; want %q, true", got, ok, property.SwitchPayloadOff)
		}
	})

	t.Run("no expected value dropped", func(t *testing.T) {
		d := consumerTestDevice()
		target := d.Channels[0].Properties[3]
		c, _, driver, q, _ := setup(d)

		c.Consume(ctx, WriteChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: target.ID,
		})

		if len(driver.writes) != 0 {
			t.Error("write without an expected value reached the driver")
		}
		if !q.IsEmpty() {
			t.Error("dropped write enqueued a follow-up message")
		}
	})

	t.Run("non-settable rejected", func(t *testing.T) {
		d := consumerTestDevice()
		dynamic := d.Channels[0].Properties[0] // queryable, not settable
		c, store, driver, _, _ := setup(d)
		store.SetValue(dynamic.ID, property.WithExpected(21.0))

		c.Consume(ctx, WriteChannelPropertyState{
			DeviceID:   d.ID,
			ChannelID:  d.Channels[0].ID,
			PropertyID: dynamic.ID,
		})

		if len(driver.writes) != 0 {
			t.Error("write to a non-settable property reached the driver")
		}
	})

	t.Run("driver failure clears command and raises alert", func(t *testing.T) {
		d := consumerTestDevice()
		target := d.Channels[0].Properties[3]
		c, store, driver, q, _ := setup(d)
		driver.err = errors.New("relay unreachable")
		store.SetValue(target.ID, property.WithExpected(22.5))

		c.Consume(ctx, WriteChannelPropertyState{
			ConnectorID: d.ConnectorID,
			DeviceID:    d.ID,
			ChannelID:   d.Channels[0].ID,
			PropertyID:  target.ID,
		})

		state, _ := store.ReadValue(target.ID)
		if state.Expected != nil {
			t.Errorf("Expected = %v after a failed write, want nil", state.Expected)
		}

		msg, ok := q.Dequeue()
		if !ok {
			t.Fatal("no alert enqueued after a failed write")
		}
		alert, ok := msg.(StoreDeviceConnectionState)
		if !ok {
			t.Fatalf("enqueued %T, want StoreDeviceConnectionState", msg)
		}
		if alert.State != device.Alert || alert.DeviceID != d.ID || alert.Source != SourceDriver {
			t.Errorf("alert = %+v", alert)
		}
	})
}
