package property

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the three property variants.
type Kind string

// Property kinds.
const (
	// KindDynamic is device-native runtime state with actual/expected
	// values, a pending marker and a validity flag.
	KindDynamic Kind = "dynamic"

	// KindVariable is a static configuration value with no runtime state
	// transitions. Writes persist back to configuration.
	KindVariable Kind = "variable"

	// KindMapped is an alias onto another device's dynamic property. The
	// parent owns value storage; the alias carries its own identifier and
	// data type, with a transform applied when the types differ.
	KindMapped Kind = "mapped"
)

// AllKinds returns every valid property kind.
func AllKinds() []Kind {
	return []Kind{KindDynamic, KindVariable, KindMapped}
}

// IsValid reports whether k is a known property kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindDynamic, KindVariable, KindMapped:
		return true
	}
	return false
}

// DataType declares the value domain of a property.
type DataType string

// Property data types.
const (
	DataTypeBool    DataType = "bool"
	DataTypeChar    DataType = "char"
	DataTypeUchar   DataType = "uchar"
	DataTypeShort   DataType = "short"
	DataTypeUshort  DataType = "ushort"
	DataTypeInt     DataType = "int"
	DataTypeUint    DataType = "uint"
	DataTypeFloat   DataType = "float"
	DataTypeString  DataType = "string"
	DataTypeEnum    DataType = "enum"
	DataTypeSwitch  DataType = "switch"
	DataTypeButton  DataType = "button"
	DataTypeUnknown DataType = "unknown"
)

// IsNumeric reports whether the data type holds numbers.
func (dt DataType) IsNumeric() bool {
	switch dt {
	case DataTypeChar, DataTypeUchar, DataTypeShort, DataTypeUshort,
		DataTypeInt, DataTypeUint, DataTypeFloat:
		return true
	}
	return false
}

// IsInteger reports whether the data type holds whole numbers only.
func (dt DataType) IsInteger() bool {
	return dt.IsNumeric() && dt != DataTypeFloat
}

// Switch payloads used by mapped actuator properties whose parent speaks
// a switch data type rather than a plain boolean.
const (
	SwitchPayloadOn     = "switch_on"
	SwitchPayloadOff    = "switch_off"
	SwitchPayloadToggle = "switch_toggle"
)

// Button payloads used by mapped properties whose parent speaks a button
// data type.
const (
	ButtonPayloadPressed  = "btn_pressed"
	ButtonPayloadReleased = "btn_released"
)

// Property is one observable or controllable point of a channel.
//
// Exactly one property exists per (channel, identifier) pair. A mapped
// property's ParentID must reference a dynamic property; the repository
// enforces both invariants on load.
type Property struct {
	ID uuid.UUID `json:"id"`

	// Exactly one of ChannelID and DeviceID is set: channel properties
	// belong to a channel, device properties directly to a device.
	ChannelID uuid.UUID `json:"channel_id,omitzero"`
	DeviceID  uuid.UUID `json:"device_id,omitzero"`

	Identifier string `json:"identifier"`
	Name       string `json:"name"`

	Kind     Kind     `json:"kind"`
	DataType DataType `json:"data_type"`

	// Format constrains the value domain: enum members for enum-like
	// types, or ["min","max"] bounds for numeric types. Nil means
	// unconstrained.
	Format []string `json:"format,omitempty"`
	Unit   *string  `json:"unit,omitempty"`

	Settable  bool `json:"settable"`
	Queryable bool `json:"queryable"`

	// Value holds the configured value for variable properties.
	Value any `json:"value,omitempty"`

	// ParentID references the parent dynamic property for mapped
	// properties.
	ParentID *uuid.UUID `json:"parent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates an independent copy of the Property.
func (p *Property) DeepCopy() *Property {
	if p == nil {
		return nil
	}

	cpy := *p

	if p.Format != nil {
		cpy.Format = make([]string, len(p.Format))
		copy(cpy.Format, p.Format)
	}
	if p.Unit != nil {
		unit := *p.Unit
		cpy.Unit = &unit
	}
	if p.ParentID != nil {
		parent := *p.ParentID
		cpy.ParentID = &parent
	}

	return &cpy
}

// State is the runtime state of one dynamic property.
//
// Actual is the last observed value, Expected the last commanded value
// awaiting application. Pending is stamped when the write has been handed
// to the driver but not yet confirmed. Valid is cleared when the owning
// device loses its connection; consumers must not base control decisions
// on an invalid value.
type State struct {
	Actual   any        `json:"actual"`
	Expected any        `json:"expected"`
	Pending  *time.Time `json:"pending,omitempty"`
	Valid    bool       `json:"valid"`
}
