package property

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// UpdateOption mutates one field of a property State. Only the fields an
// update names change; everything else is preserved.
type UpdateOption func(*State)

// WithActual sets the actual (observed) value.
func WithActual(value any) UpdateOption {
	return func(s *State) { s.Actual = value }
}

// WithExpected sets the expected (commanded) value. Passing nil clears it.
func WithExpected(value any) UpdateOption {
	return func(s *State) { s.Expected = value }
}

// WithPending sets or clears the pending timestamp.
func WithPending(t *time.Time) UpdateOption {
	return func(s *State) { s.Pending = t }
}

// WithValid sets the validity flag.
func WithValid(valid bool) UpdateOption {
	return func(s *State) { s.Valid = valid }
}

// Subscriber receives state changes after they are applied.
type Subscriber func(propertyID uuid.UUID, state State)

// Store holds the runtime state of every dynamic property in memory.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscribers are invoked synchronously on the updating goroutine,
//     after the store lock is released. Subscribers must not call back
//     into SetValue for the same property.
type Store struct {
	mu     sync.RWMutex
	states map[uuid.UUID]State

	subMu       sync.RWMutex
	subscribers map[int]Subscriber
	nextSubID   int
}

// NewStore creates an empty property state store.
func NewStore() *Store {
	return &Store{
		states:      make(map[uuid.UUID]State),
		subscribers: make(map[int]Subscriber),
	}
}

// ReadValue returns the state of a property. The second return value
// reports whether any state has been recorded for it.
func (s *Store) ReadValue(propertyID uuid.UUID) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[propertyID]
	return st, ok
}

// SetValue applies a partial update to a property's state and notifies
// subscribers of the resulting state.
func (s *Store) SetValue(propertyID uuid.UUID, opts ...UpdateOption) State {
	s.mu.Lock()
	st := s.states[propertyID]
	for _, opt := range opts {
		opt(&st)
	}
	s.states[propertyID] = st
	s.mu.Unlock()

	s.notify(propertyID, st)
	return st
}

// Invalidate clears the validity flag of a property without touching its
// values. No-op for properties with no recorded state.
func (s *Store) Invalidate(propertyID uuid.UUID) {
	s.mu.Lock()
	st, ok := s.states[propertyID]
	if !ok || !st.Valid {
		s.mu.Unlock()
		return
	}
	st.Valid = false
	s.states[propertyID] = st
	s.mu.Unlock()

	s.notify(propertyID, st)
}

// Forget removes all recorded state for a property.
func (s *Store) Forget(propertyID uuid.UUID) {
	s.mu.Lock()
	delete(s.states, propertyID)
	s.mu.Unlock()
}

// Len returns the number of properties with recorded state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Subscribe registers a subscriber for state changes. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(propertyID uuid.UUID, st State) {
	s.subMu.RLock()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(propertyID, st)
	}
}
