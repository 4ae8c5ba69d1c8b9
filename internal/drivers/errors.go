package drivers

import "errors"

// Registry errors. Check with errors.Is:
//
//	if errors.Is(err, drivers.ErrNoDriver) {
//	    // device type is unprocessable
//	}
var (
	// ErrNoDriver is returned when no registered factory matches the
	// device's type tag.
	ErrNoDriver = errors.New("drivers: no driver for device type")
)
