package thermostat

import "errors"

// Driver errors. Check with errors.Is:
//
//	if errors.Is(err, thermostat.ErrInvalidState) {
//	    // device is unprocessable as configured, alert it
//	}
var (
	// ErrInvalidState is returned when the device's configuration makes
	// it unprocessable. The supervisor treats it as terminal until the
	// device is reconfigured.
	ErrInvalidState = errors.New("thermostat: invalid state")

	// ErrInvalidArgument is returned for a write or notification that
	// targets an unsupported property or carries an unusable value.
	ErrInvalidArgument = errors.New("thermostat: invalid argument")
)
