package property

import "fmt"

// TransformToParent converts a mapped property's value into its parent's
// native data type before the value is written to the parent device.
//
// Supported conversions:
//   - bool → switch  (true → switch_on, false → switch_off)
//   - bool → button  (true → btn_pressed, false → btn_released)
//   - switch → bool  (switch_on → true, switch_off → false)
//   - button → bool  (btn_pressed → true, btn_released → false)
//   - identical data types pass through unchanged
func TransformToParent(value any, from, to DataType) (any, error) {
	return transform(value, from, to)
}

// TransformFromParent converts a parent property's value into the mapped
// property's data type when hydrating or observing through an alias.
//
// Supported conversions mirror TransformToParent.
func TransformFromParent(value any, from, to DataType) (any, error) {
	return transform(value, from, to)
}

// transform converts between a mapped property's data type and its
// parent's. Both directions are supported so that an alias can sit on
// either side of a bool/payload pairing. The switch_toggle payload has
// no boolean form and always errors.
func transform(value any, from, to DataType) (any, error) {
	if value == nil || from == to {
		return value, nil
	}

	if from == DataTypeBool {
		b, err := toBool(value)
		if err != nil {
			return nil, err
		}
		switch to {
		case DataTypeSwitch:
			if b {
				return SwitchPayloadOn, nil
			}
			return SwitchPayloadOff, nil
		case DataTypeButton:
			if b {
				return ButtonPayloadPressed, nil
			}
			return ButtonPayloadReleased, nil
		}
	}

	if to == DataTypeBool {
		switch from {
		case DataTypeSwitch:
			switch fmt.Sprintf("%v", value) {
			case SwitchPayloadOn:
				return true, nil
			case SwitchPayloadOff:
				return false, nil
			}
			return nil, fmt.Errorf("%w: switch payload %v has no boolean form", ErrUnsupportedTransform, value)
		case DataTypeButton:
			switch fmt.Sprintf("%v", value) {
			case ButtonPayloadPressed:
				return true, nil
			case ButtonPayloadReleased:
				return false, nil
			}
			return nil, fmt.Errorf("%w: button payload %v has no boolean form", ErrUnsupportedTransform, value)
		}
	}

	// Numeric widening between numeric types needs no translation.
	if from.IsNumeric() && to.IsNumeric() {
		return value, nil
	}

	return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedTransform, from, to)
}
