package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a device ID does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrChannelNotFound is returned when a channel lookup fails.
	ErrChannelNotFound = errors.New("device: channel not found")

	// ErrPropertyNotFound is returned when a property lookup fails.
	ErrPropertyNotFound = errors.New("device: property not found")

	// ErrInvalidMapping is returned when a mapped property references a
	// parent that is missing or not dynamic.
	ErrInvalidMapping = errors.New("device: invalid property mapping")

	// ErrInvalidConnectionState is returned when a connection state value
	// is not recognised.
	ErrInvalidConnectionState = errors.New("device: invalid connection state")
)
