package property

import "errors"

// Domain-specific errors for property operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound is returned when a property does not exist.
	ErrNotFound = errors.New("property: not found")

	// ErrInvalidValue is returned when a value cannot be normalised
	// against the property's declared data type or format.
	ErrInvalidValue = errors.New("property: invalid value")

	// ErrUnsupportedTransform is returned when no value transform exists
	// between a mapped property's data type and its parent's.
	ErrUnsupportedTransform = errors.New("property: unsupported value transform")
)
