package queue

import "errors"

// Domain-specific errors for queue operations.
var (
	// ErrNotClaimed is returned by the chain when no registered consumer
	// claims a message. Diagnostic only, never fatal.
	ErrNotClaimed = errors.New("queue: message not claimed by any consumer")

	// ErrNoConsumers is returned by the chain when a message is drained
	// with no consumers registered.
	ErrNoConsumers = errors.New("queue: no consumers registered")
)
