package thermostat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-virtual/internal/device"
	"github.com/nerrad567/gray-logic-virtual/internal/property"
)

// layout is the driver's resolved view of the device's channel and
// property wiring. Built once per Connect from a configuration
// snapshot; never mutated afterwards.
type layout struct {
	connectorID uuid.UUID
	deviceID    uuid.UUID

	thermostat *device.Channel
	actors     *device.Channel
	sensors    *device.Channel
	openings   *device.Channel
	presets    map[Preset]*device.Channel

	heaters        []*property.Property
	coolers        []*property.Property
	targetSensors  []*property.Property
	floorSensors   []*property.Property
	openingSensors []*property.Property

	hvacMode        *property.Property
	presetMode      *property.Property
	hvacState       *property.Property
	actualTemp      *property.Property
	actualFloorTemp *property.Property

	lowTolerance        float64
	highTolerance       float64
	maxFloorTemperature float64
}

func newLayout(d *device.Device) (*layout, error) {
	l := &layout{
		connectorID:         d.ConnectorID,
		deviceID:            d.ID,
		presets:             make(map[Preset]*device.Channel),
		lowTolerance:        DefaultLowTolerance,
		highTolerance:       DefaultHighTolerance,
		maxFloorTemperature: DefaultMaxFloorTemperature,
	}

	for i := range d.Channels {
		ch := &d.Channels[i]
		switch {
		case ch.Identifier == device.ChannelThermostat:
			l.thermostat = ch
		case ch.Identifier == device.ChannelActors:
			l.actors = ch
		case ch.Identifier == device.ChannelSensors:
			l.sensors = ch
		case ch.Identifier == device.ChannelOpenings:
			l.openings = ch
		case strings.HasPrefix(ch.Identifier, device.ChannelPresetPrefix):
			preset := Preset(strings.TrimPrefix(ch.Identifier, device.ChannelPresetPrefix))
			if preset.IsValid() {
				l.presets[preset] = ch
			}
		}
	}

	if l.thermostat == nil {
		return nil, fmt.Errorf("device %q has no thermostat channel", d.Identifier)
	}

	l.hvacMode = l.thermostat.Property(device.PropHvacMode)
	l.presetMode = l.thermostat.Property(device.PropPresetMode)
	l.hvacState = l.thermostat.Property(device.PropHvacState)
	l.actualTemp = l.thermostat.Property(device.PropActualTemperature)
	l.actualFloorTemp = l.thermostat.Property(device.PropActualFloorTemp)

	if l.actors != nil {
		for i := range l.actors.Properties {
			p := &l.actors.Properties[i]
			if p.Kind != property.KindMapped {
				continue
			}
			switch {
			case strings.HasPrefix(p.Identifier, device.PropHeaterPrefix):
				l.heaters = append(l.heaters, p)
			case strings.HasPrefix(p.Identifier, device.PropCoolerPrefix):
				l.coolers = append(l.coolers, p)
			}
		}
	}

	if l.sensors != nil {
		for i := range l.sensors.Properties {
			p := &l.sensors.Properties[i]
			if p.Kind != property.KindMapped {
				continue
			}
			switch {
			case strings.HasPrefix(p.Identifier, device.PropFloorSensor):
				l.floorSensors = append(l.floorSensors, p)
			case strings.HasPrefix(p.Identifier, device.PropTargetSensor):
				l.targetSensors = append(l.targetSensors, p)
			}
		}
	}

	if l.openings != nil {
		for i := range l.openings.Properties {
			p := &l.openings.Properties[i]
			if p.Kind == property.KindMapped && strings.HasPrefix(p.Identifier, device.PropOpeningPrefix) {
				l.openingSensors = append(l.openingSensors, p)
			}
		}
	}

	if f, ok := variableFloat(l.thermostat, device.PropLowTargetTol); ok {
		l.lowTolerance = f
	}
	if f, ok := variableFloat(l.thermostat, device.PropHighTargetTol); ok {
		l.highTolerance = f
	}
	if f, ok := variableFloat(l.thermostat, device.PropMaxFloorTemp); ok {
		l.maxFloorTemperature = f
	}

	return l, nil
}

func (l *layout) hasHeaters() bool      { return len(l.heaters) > 0 }
func (l *layout) hasCoolers() bool      { return len(l.coolers) > 0 }
func (l *layout) hasSensors() bool      { return len(l.targetSensors)+len(l.floorSensors) > 0 }
func (l *layout) hasFloorSensors() bool { return len(l.floorSensors) > 0 }

// targetTemperature returns the target temperature property for a
// preset and the channel it lives on. The manual preset uses the
// thermostat channel itself.
func (l *layout) targetTemperature(preset Preset) (*property.Property, *device.Channel) {
	ch := l.presetChannel(preset)
	if ch == nil {
		return nil, nil
	}
	return ch.Property(device.PropTargetTemperature), ch
}

// thresholds returns the heating and cooling threshold temperatures
// configured for a preset, nil when unconfigured.
func (l *layout) thresholds(preset Preset) (heating, cooling *float64) {
	ch := l.presetChannel(preset)
	if ch == nil {
		return nil, nil
	}
	if f, ok := variableFloat(ch, device.PropHeatingThreshold); ok {
		heating = &f
	}
	if f, ok := variableFloat(ch, device.PropCoolingThreshold); ok {
		cooling = &f
	}
	return heating, cooling
}

func (l *layout) presetChannel(preset Preset) *device.Channel {
	if preset == PresetManual {
		return l.thermostat
	}
	return l.presets[preset]
}

// propertyByID searches the thermostat channel and every preset channel
// for a dynamic property the driver accepts writes on.
func (l *layout) propertyByID(id uuid.UUID) (*property.Property, *device.Channel) {
	channels := make([]*device.Channel, 0, 1+len(l.presets))
	channels = append(channels, l.thermostat)
	for _, ch := range l.presets {
		channels = append(channels, ch)
	}
	for _, ch := range channels {
		for i := range ch.Properties {
			if ch.Properties[i].ID == id {
				return &ch.Properties[i], ch
			}
		}
	}
	return nil, nil
}

func variableFloat(ch *device.Channel, identifier string) (float64, bool) {
	p := ch.Property(identifier)
	if p == nil || p.Kind != property.KindVariable || p.Value == nil {
		return 0, false
	}
	f, err := property.ToFloat(p.Value)
	if err != nil {
		return 0, false
	}
	return f, true
}
