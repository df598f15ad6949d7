package services

import (
	"sync"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driving"
)

// Ensure StateStore implements the interface.
var _ driving.StateService = (*StateStore)(nil)

// StateStore holds the canonical configuration tree in memory.
//
// Mutations are applied to a copy and published atomically. Subscribers are
// notified synchronously, in subscription order, while the write lock is held,
// so each subscriber observes changes in the order they were made.
type StateStore struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	state  domain.ConfigState
	subs   map[int]func(domain.ConfigState)
	order  []int
	nextID int
}

// NewStateStore creates a store seeded with initial.
func NewStateStore(initial domain.ConfigState) *StateStore {
	return &StateStore{
		state: initial.Clone(),
		subs:  make(map[int]func(domain.ConfigState)),
	}
}

// Get returns a copy of the current state.
func (s *StateStore) Get() domain.ConfigState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies mutate to a copy of the state and publishes the result.
// If mutate returns an error the state is left unchanged.
func (s *StateStore) Update(mutate func(*domain.ConfigState) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Get()
	if err := mutate(&next); err != nil {
		return err
	}
	s.publish(next)
	return nil
}

// Replace publishes state as-is.
func (s *StateStore) Replace(state domain.ConfigState) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.publish(state.Clone())
}

// Subscribe registers fn to be called after every change.
func (s *StateStore) Subscribe(fn func(domain.ConfigState)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, sid := range s.order {
				if sid == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// publish stores next and notifies subscribers (caller must hold writeMu).
func (s *StateStore) publish(next domain.ConfigState) {
	s.mu.Lock()
	s.state = next
	fns := make([]func(domain.ConfigState), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next.Clone())
	}
}
