package thermostat

// HvacMode is the thermostat's operating mode.
type HvacMode string

// Valid HVAC modes.
const (
	HvacOff  HvacMode = "off"
	HvacHeat HvacMode = "heat"
	HvacCool HvacMode = "cool"
	HvacAuto HvacMode = "auto"
)

// AllHvacModes returns every valid HVAC mode.
func AllHvacModes() []HvacMode {
	return []HvacMode{HvacOff, HvacHeat, HvacCool, HvacAuto}
}

// IsValid checks if the HVAC mode is valid.
func (m HvacMode) IsValid() bool {
	switch m {
	case HvacOff, HvacHeat, HvacCool, HvacAuto:
		return true
	}
	return false
}

// HvacState is the thermostat's derived run state, published after
// every actuator change.
type HvacState string

// Valid HVAC states.
const (
	StateInactive HvacState = "inactive"
	StateOff      HvacState = "off"
	StateCooling  HvacState = "cooling"
	StateHeating  HvacState = "heating"
)

// AllHvacStates returns every valid HVAC state.
func AllHvacStates() []HvacState {
	return []HvacState{StateInactive, StateOff, StateCooling, StateHeating}
}

// IsValid checks if the HVAC state is valid.
func (s HvacState) IsValid() bool {
	switch s {
	case StateInactive, StateOff, StateCooling, StateHeating:
		return true
	}
	return false
}

// Preset is a named target temperature profile.
type Preset string

// Valid presets.
const (
	PresetAuto       Preset = "auto"
	PresetManual     Preset = "manual"
	PresetAway       Preset = "away"
	PresetEco        Preset = "eco"
	PresetHome       Preset = "home"
	PresetComfort    Preset = "comfort"
	PresetSleep      Preset = "sleep"
	PresetAntiFreeze Preset = "anti_freeze"
)

// AllPresets returns every valid preset.
func AllPresets() []Preset {
	return []Preset{
		PresetAuto, PresetManual, PresetAway, PresetEco,
		PresetHome, PresetComfort, PresetSleep, PresetAntiFreeze,
	}
}

// IsValid checks if the preset is valid.
func (p Preset) IsValid() bool {
	switch p {
	case PresetAuto, PresetManual, PresetAway, PresetEco,
		PresetHome, PresetComfort, PresetSleep, PresetAntiFreeze:
		return true
	}
	return false
}

// Temperature limits and control defaults.
const (
	MinTemperature = 7.0
	MaxTemperature = 35.0

	DefaultMaxFloorTemperature = 28.0
	DefaultLowTolerance        = 0.3
	DefaultHighTolerance       = 0.3

	// Precision is the granularity of published temperature readings.
	Precision = 0.1
)
