package device

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Tracker holds each device's platform connection state.
//
// The in-memory map is the runtime truth; every change is also persisted
// through the repository so a terminal alert survives a restart. Reads
// for devices with no in-memory entry fall back to the persisted state.
//
// All methods are safe for concurrent use.
type Tracker struct {
	repo Repository

	mu           sync.RWMutex
	states       map[uuid.UUID]ConnectionState
	onTransition func(deviceID uuid.UUID, state ConnectionState)

	logger Logger
}

// NewTracker creates a connection state tracker backed by the repository.
func NewTracker(repo Repository) *Tracker {
	return &Tracker{
		repo:   repo,
		states: make(map[uuid.UUID]ConnectionState),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the tracker.
func (t *Tracker) SetLogger(logger Logger) {
	t.logger = logger
}

// GetState returns a device's connection state.
func (t *Tracker) GetState(ctx context.Context, deviceID uuid.UUID) ConnectionState {
	t.mu.RLock()
	state, ok := t.states[deviceID]
	t.mu.RUnlock()

	if ok {
		return state
	}

	persisted, err := t.repo.GetConnectionState(ctx, deviceID)
	if err != nil {
		t.logger.Warn("reading persisted connection state failed", "device_id", deviceID, "error", err)
		return Unknown
	}

	t.mu.Lock()
	// Another goroutine may have raced the fallback read; keep its value.
	if cached, ok := t.states[deviceID]; ok {
		persisted = cached
	} else {
		t.states[deviceID] = persisted
	}
	t.mu.Unlock()

	return persisted
}

// OnTransition registers a callback invoked after each state change.
// The callback runs on the caller's goroutine and must not block.
// Register before the connector starts; SetState reads it without a
// lock.
func (t *Tracker) OnTransition(fn func(deviceID uuid.UUID, state ConnectionState)) {
	t.onTransition = fn
}

// SetState records a device's connection state. Returns true when the
// state actually changed.
func (t *Tracker) SetState(ctx context.Context, deviceID uuid.UUID, state ConnectionState) bool {
	t.mu.Lock()
	previous, ok := t.states[deviceID]
	if ok && previous == state {
		t.mu.Unlock()
		return false
	}
	t.states[deviceID] = state
	t.mu.Unlock()

	if err := t.repo.SetConnectionState(ctx, deviceID, state); err != nil {
		t.logger.Warn("persisting connection state failed", "device_id", deviceID, "state", state, "error", err)
	}
	if t.onTransition != nil {
		t.onTransition(deviceID, state)
	}
	return true
}
