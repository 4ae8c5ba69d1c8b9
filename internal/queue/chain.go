package queue

import (
	"context"
	"fmt"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Consumer handles one kind of message. Consume must type-check the
// message first and return false immediately on a mismatch so the chain
// can offer it to the next consumer. Returning true claims the message;
// a claimed message is never offered again.
type Consumer interface {
	Consume(ctx context.Context, msg Message) bool
}

// Chain drains the queue into an ordered set of consumers.
//
// Registration order is delivery order, and first match wins: a message
// can only ever be claimed once. New message kinds are supported by
// registering new consumers without touching existing ones.
type Chain struct {
	queue     *Queue
	consumers []Consumer
	logger    Logger
}

// NewChain creates a consumer chain draining the given queue.
func NewChain(q *Queue) *Chain {
	return &Chain{
		queue:  q,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the chain.
func (c *Chain) SetLogger(logger Logger) {
	c.logger = logger
}

// Register appends a consumer to the chain. Not safe to call after
// Consume is running; register everything during wiring.
func (c *Chain) Register(consumer Consumer) {
	c.consumers = append(c.consumers, consumer)
}

// Consume dequeues at most one message and offers it to the consumers
// in registration order. A no-op on an empty queue.
//
// An unclaimed message is a diagnostic condition, never fatal: it is
// logged and dropped.
func (c *Chain) Consume(ctx context.Context) {
	msg, ok := c.queue.Dequeue()
	if !ok {
		return
	}

	if len(c.consumers) == 0 {
		c.logger.Error("message dropped", "reason", ErrNoConsumers, "type", fmt.Sprintf("%T", msg))
		return
	}

	for _, consumer := range c.consumers {
		if consumer.Consume(ctx, msg) {
			return
		}
	}

	c.logger.Error("message dropped", "reason", ErrNotClaimed, "type", fmt.Sprintf("%T", msg))
}
