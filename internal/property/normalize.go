package property

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Integer bounds per data type.
var integerBounds = map[DataType][2]int64{
	DataTypeChar:   {math.MinInt8, math.MaxInt8},
	DataTypeUchar:  {0, math.MaxUint8},
	DataTypeShort:  {math.MinInt16, math.MaxInt16},
	DataTypeUshort: {0, math.MaxUint16},
	DataTypeInt:    {math.MinInt32, math.MaxInt32},
	DataTypeUint:   {0, math.MaxUint32},
}

// NormalizeValue coerces a raw value into the canonical Go representation
// for the property's data type and validates it against the property's
// format.
//
// Canonical representations:
//   - bool            → bool
//   - integer types   → int64
//   - float           → float64
//   - string          → string
//   - enum/switch/button → string, must be a format member (enum) or a
//     known payload (switch/button)
//
// A nil value normalises to nil for every data type; absence of a reading
// is a valid state.
func NormalizeValue(p *Property, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch p.DataType {
	case DataTypeBool:
		return toBool(value)

	case DataTypeFloat:
		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		if err := checkNumericFormat(p.Format, f); err != nil {
			return nil, err
		}
		return f, nil

	case DataTypeChar, DataTypeUchar, DataTypeShort, DataTypeUshort, DataTypeInt, DataTypeUint:
		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		i := int64(f)
		if float64(i) != f {
			return nil, fmt.Errorf("%w: %v is not a whole number", ErrInvalidValue, value)
		}
		bounds := integerBounds[p.DataType]
		if i < bounds[0] || i > bounds[1] {
			return nil, fmt.Errorf("%w: %d out of range for %s", ErrInvalidValue, i, p.DataType)
		}
		if err := checkNumericFormat(p.Format, f); err != nil {
			return nil, err
		}
		return i, nil

	case DataTypeString:
		return fmt.Sprintf("%v", value), nil

	case DataTypeEnum:
		s := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
		if len(p.Format) == 0 {
			return s, nil
		}
		for _, member := range p.Format {
			if strings.EqualFold(member, s) {
				return strings.ToLower(member), nil
			}
		}
		return nil, fmt.Errorf("%w: %q not in enum format %v", ErrInvalidValue, s, p.Format)

	case DataTypeSwitch:
		s := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
		switch s {
		case SwitchPayloadOn, SwitchPayloadOff, SwitchPayloadToggle:
			return s, nil
		}
		return nil, fmt.Errorf("%w: %q is not a switch payload", ErrInvalidValue, s)

	case DataTypeButton:
		s := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
		switch s {
		case ButtonPayloadPressed, ButtonPayloadReleased:
			return s, nil
		}
		return nil, fmt.Errorf("%w: %q is not a button payload", ErrInvalidValue, s)

	default:
		// Unknown data type passes through untouched. The driver is the
		// final authority on whether it can use the value.
		return value, nil
	}
}

// toBool coerces common boolean encodings.
func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t", "yes", "on", "1":
			return true, nil
		case "false", "f", "no", "off", "0":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("%w: %T is not a boolean", ErrInvalidValue, value)
	}
}

// toFloat coerces numeric encodings, including numeric strings.
func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidValue, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T is not numeric", ErrInvalidValue, value)
	}
}

// ToFloat exposes numeric coercion for callers that aggregate readings.
func ToFloat(value any) (float64, error) {
	return toFloat(value)
}

// ToBool exposes boolean coercion for callers that hydrate actuator and
// opening state.
func ToBool(value any) (bool, error) {
	return toBool(value)
}

// checkNumericFormat validates a number against a ["min","max"] format.
// Empty bound entries leave that side unconstrained.
func checkNumericFormat(format []string, f float64) error {
	if len(format) != 2 {
		return nil
	}
	if format[0] != "" {
		minBound, err := strconv.ParseFloat(format[0], 64)
		if err == nil && f < minBound {
			return fmt.Errorf("%w: %v below minimum %v", ErrInvalidValue, f, minBound)
		}
	}
	if format[1] != "" {
		maxBound, err := strconv.ParseFloat(format[1], 64)
		if err == nil && f > maxBound {
			return fmt.Errorf("%w: %v above maximum %v", ErrInvalidValue, f, maxBound)
		}
	}
	return nil
}
