package thermostat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
	"github.com/nerrad567/gray-logic-virtual/internal/queue"
)

// StateReader reads property runtime state. Satisfied by
// property.Store.
type StateReader interface {
	ReadValue(propertyID uuid.UUID) (property.State, bool)
}

// PropertyResolver resolves properties by ID, including parents of
// mapped properties that live on other devices. Satisfied by
// device.Registry.
type PropertyResolver interface {
	GetProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error)
}

// MessageSink receives the state messages a tick produces. Satisfied
// by queue.Queue.
type MessageSink interface {
	Append(msg queue.Message)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Driver is the virtual thermostat state machine for one device.
type Driver struct {
	device   *device.Device
	resolver PropertyResolver
	store    StateReader
	sink     MessageSink
	logger   Logger

	mu     sync.Mutex
	layout *layout

	// Cached runtime state, keyed by property ID. A nil entry means
	// the value is unknown. Rebuilt on Connect, fed by NotifyState.
	heaters         map[uuid.UUID]*bool
	coolers         map[uuid.UUID]*bool
	actualTemp      map[uuid.UUID]*float64
	actualFloorTemp map[uuid.UUID]*float64
	openingsState   map[uuid.UUID]*bool

	targetTemp map[Preset]float64

	hvacMode   HvacMode // empty until configured
	presetMode Preset   // empty until configured

	lastHvacState *HvacState

	connected   bool
	connectedAt time.Time
}

// New creates a thermostat driver for the device.
func New(d *device.Device, resolver PropertyResolver, store StateReader, sink MessageSink) *Driver {
	return &Driver{
		device:   d,
		resolver: resolver,
		store:    store,
		sink:     sink,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the driver.
func (t *Driver) SetLogger(logger Logger) {
	t.logger = logger
}

// Connect validates the device wiring and hydrates the cached maps
// from the current property state.
func (t *Driver) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, err := newLayout(t.device)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if !l.hasSensors() || (!l.hasHeaters() && !l.hasCoolers()) {
		return fmt.Errorf("%w: required actors or sensors are not configured", ErrInvalidState)
	}

	t.layout = l
	t.heaters = make(map[uuid.UUID]*bool, len(l.heaters))
	t.coolers = make(map[uuid.UUID]*bool, len(l.coolers))
	t.actualTemp = make(map[uuid.UUID]*float64, len(l.targetSensors))
	t.actualFloorTemp = make(map[uuid.UUID]*float64, len(l.floorSensors))
	t.openingsState = make(map[uuid.UUID]*bool, len(l.openingSensors))
	t.targetTemp = make(map[Preset]float64)

	for _, p := range l.heaters {
		t.heaters[p.ID] = t.mappedBool(ctx, p)
	}
	for _, p := range l.coolers {
		t.coolers[p.ID] = t.mappedBool(ctx, p)
	}
	for _, p := range l.targetSensors {
		t.actualTemp[p.ID] = t.mappedFloat(ctx, p)
	}
	for _, p := range l.floorSensors {
		t.actualFloorTemp[p.ID] = t.mappedFloat(ctx, p)
	}
	for _, p := range l.openingSensors {
		t.openingsState[p.ID] = t.mappedBool(ctx, p)
	}

	presets := make([]Preset, 0, 1+len(l.presets))
	presets = append(presets, PresetManual)
	for preset := range l.presets {
		presets = append(presets, preset)
	}
	for _, preset := range presets {
		p, _ := l.targetTemperature(preset)
		if p == nil {
			continue
		}
		if f, ok := t.dynamicFloat(p); ok {
			t.targetTemp[preset] = f
		}
	}

	t.hvacMode = ""
	if l.hvacMode != nil {
		if v, ok := t.dynamicString(l.hvacMode); ok && HvacMode(v).IsValid() {
			t.hvacMode = HvacMode(v)
		}
	}
	t.presetMode = ""
	if l.presetMode != nil {
		if v, ok := t.dynamicString(l.presetMode); ok && Preset(v).IsValid() {
			t.presetMode = Preset(v)
		}
	}

	t.lastHvacState = nil
	t.connected = true
	t.connectedAt = time.Now()
	return nil
}

// Disconnect forces actuators off and discards cached readings.
func (t *Driver) Disconnect(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.layout != nil {
		t.setActorState(false, false)
	}
	t.actualTemp = nil
	t.actualFloorTemp = nil
	t.connected = false
	t.connectedAt = time.Time{}
	return nil
}

// IsConnected reports whether the driver is connected.
func (t *Driver) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected && !t.connectedAt.IsZero()
}

// WriteState applies a commanded value to one of the thermostat's own
// dynamic properties: preset mode, HVAC mode, or a target temperature
// on the thermostat or a preset channel.
func (t *Driver) WriteState(_ context.Context, propertyID uuid.UUID, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.layout == nil {
		return fmt.Errorf("%w: driver is not connected", ErrInvalidState)
	}

	p, ch := t.layout.propertyByID(propertyID)
	if p == nil {
		return fmt.Errorf("%w: property is not supported", ErrInvalidArgument)
	}

	if ch.Identifier == device.ChannelThermostat {
		switch p.Identifier {
		case device.PropPresetMode:
			v, ok := value.(string)
			if !ok || !Preset(v).IsValid() {
				return fmt.Errorf("%w: %v is not a valid preset mode", ErrInvalidArgument, value)
			}
			t.presetMode = Preset(v)
			t.storeChannelState(ch.ID, p.ID, v)
			return nil

		case device.PropHvacMode:
			v, ok := value.(string)
			if !ok || !HvacMode(v).IsValid() {
				return fmt.Errorf("%w: %v is not a valid hvac mode", ErrInvalidArgument, value)
			}
			t.hvacMode = HvacMode(v)
			t.storeChannelState(ch.ID, p.ID, v)
			return nil

		case device.PropTargetTemperature:
			f, err := t.targetTemperatureValue(value)
			if err != nil {
				return err
			}
			t.targetTemp[PresetManual] = f
			t.storeChannelState(ch.ID, p.ID, f)
			return nil
		}
		return fmt.Errorf("%w: property is not supported", ErrInvalidArgument)
	}

	preset := Preset(ch.Identifier[len(device.ChannelPresetPrefix):])
	if p.Identifier != device.PropTargetTemperature || !preset.IsValid() {
		return fmt.Errorf("%w: property is not supported", ErrInvalidArgument)
	}
	f, err := t.targetTemperatureValue(value)
	if err != nil {
		return err
	}
	t.targetTemp[preset] = f
	t.storeChannelState(ch.ID, p.ID, f)
	return nil
}

// targetTemperatureValue coerces a commanded target temperature and
// rejects values outside the settable range.
func (t *Driver) targetTemperatureValue(value any) (float64, error) {
	f, err := property.ToFloat(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v is not a valid target temperature", ErrInvalidArgument, value)
	}
	if f < MinTemperature || f > MaxTemperature {
		return 0, fmt.Errorf("%w: target temperature %.1f is outside the %.1f to %.1f range",
			ErrInvalidArgument, f, MinTemperature, MaxTemperature)
	}
	return f, nil
}

// NotifyState feeds an observed value of a mapped actuator, sensor or
// opening property into the cached snapshot.
func (t *Driver) NotifyState(_ context.Context, propertyID uuid.UUID, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.layout == nil {
		return fmt.Errorf("%w: driver is not connected", ErrInvalidState)
	}

	if _, ok := t.heaters[propertyID]; ok {
		return t.notifyBool(t.heaters, propertyID, value)
	}
	if _, ok := t.coolers[propertyID]; ok {
		return t.notifyBool(t.coolers, propertyID, value)
	}
	if _, ok := t.actualTemp[propertyID]; ok {
		return t.notifyFloat(t.actualTemp, propertyID, value)
	}
	if _, ok := t.actualFloorTemp[propertyID]; ok {
		return t.notifyFloat(t.actualFloorTemp, propertyID, value)
	}
	if _, ok := t.openingsState[propertyID]; ok {
		return t.notifyBool(t.openingsState, propertyID, value)
	}
	return fmt.Errorf("%w: property is not supported", ErrInvalidArgument)
}

func (t *Driver) notifyBool(cache map[uuid.UUID]*bool, propertyID uuid.UUID, value any) error {
	if value == nil {
		cache[propertyID] = nil
		return nil
	}
	b, err := property.ToBool(value)
	if err != nil {
		return fmt.Errorf("%w: %v is not a valid boolean state", ErrInvalidArgument, value)
	}
	cache[propertyID] = &b
	return nil
}

func (t *Driver) notifyFloat(cache map[uuid.UUID]*float64, propertyID uuid.UUID, value any) error {
	if value == nil {
		cache[propertyID] = nil
		return nil
	}
	f, err := property.ToFloat(value)
	if err != nil {
		return fmt.Errorf("%w: %v is not a valid temperature", ErrInvalidArgument, value)
	}
	cache[propertyID] = &f
	return nil
}

// mappedBool reads a mapped property's current value through its
// parent, transformed back to the mapped side's type. Non-boolean or
// unavailable values hydrate as unknown.
func (t *Driver) mappedBool(ctx context.Context, p *property.Property) *bool {
	value := t.mappedValue(ctx, p)
	if value == nil {
		return nil
	}
	b, ok := value.(bool)
	if !ok {
		return nil
	}
	return &b
}

func (t *Driver) mappedFloat(ctx context.Context, p *property.Property) *float64 {
	value := t.mappedValue(ctx, p)
	if value == nil {
		return nil
	}
	f, err := property.ToFloat(value)
	if err != nil {
		return nil
	}
	return &f
}

func (t *Driver) mappedValue(ctx context.Context, p *property.Property) any {
	if p.ParentID == nil {
		return nil
	}
	parent, err := t.resolver.GetProperty(ctx, *p.ParentID)
	if err != nil {
		t.logger.Warn("parent of mapped property could not be resolved",
			"device", t.device.Identifier, "property", p.Identifier, "error", err)
		return nil
	}
	state, ok := t.store.ReadValue(parent.ID)
	if !ok || !state.Valid || state.Actual == nil {
		return nil
	}
	value, err := property.TransformFromParent(state.Actual, parent.DataType, p.DataType)
	if err != nil {
		t.logger.Warn("mapped property value could not be transformed",
			"device", t.device.Identifier, "property", p.Identifier, "error", err)
		return nil
	}
	return value
}

// dynamicFloat reads a dynamic property's actual value from the state
// store, falling back to the configured value for first boot.
func (t *Driver) dynamicFloat(p *property.Property) (float64, bool) {
	if state, ok := t.store.ReadValue(p.ID); ok && state.Valid && state.Actual != nil {
		if f, err := property.ToFloat(state.Actual); err == nil {
			return f, true
		}
	}
	if p.Value != nil {
		if f, err := property.ToFloat(p.Value); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (t *Driver) dynamicString(p *property.Property) (string, bool) {
	if state, ok := t.store.ReadValue(p.ID); ok && state.Valid && state.Actual != nil {
		if s, ok := state.Actual.(string); ok {
			return s, true
		}
	}
	if s, ok := p.Value.(string); ok {
		return s, true
	}
	return "", false
}

// storeChannelState enqueues a channel property state message. Caller
// holds the mutex.
func (t *Driver) storeChannelState(channelID, propertyID uuid.UUID, value any) {
	t.sink.Append(queue.StoreChannelPropertyState{
		ConnectorID: t.layout.connectorID,
		DeviceID:    t.layout.deviceID,
		ChannelID:   channelID,
		PropertyID:  propertyID,
		Value:       value,
		Source:      queue.SourceDriver,
	})
}
