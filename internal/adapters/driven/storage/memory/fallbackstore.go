package memory

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
)

// Ensure FallbackStore implements the interface.
var _ driven.FallbackStore = (*FallbackStore)(nil)

// FallbackStore is an in-memory implementation of driven.FallbackStore.
// Capacity is measured as the summed length of keys and values.
type FallbackStore struct {
	mu     sync.RWMutex
	items  map[string]string
	quota  int
	failOn func(key string) error
	writes int
}

// NewFallbackStore creates a new in-memory fallback store.
// A quota of zero or less means unlimited.
func NewFallbackStore(quota int) *FallbackStore {
	return &FallbackStore{
		items: make(map[string]string),
		quota: quota,
	}
}

// FailWrites makes SetItem return the error produced by fn. Pass nil to reset.
func (s *FallbackStore) FailWrites(fn func(key string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = fn
}

// GetItem returns the value for key and whether it exists.
func (s *FallbackStore) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (s *FallbackStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failOn != nil {
		if err := s.failOn(key); err != nil {
			return err
		}
	}

	if s.quota > 0 {
		used := 0
		for k, v := range s.items {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > s.quota {
			return fmt.Errorf("writing %s (%d bytes): %w", key, len(value), domain.ErrQuotaExceeded)
		}
	}

	s.items[key] = value
	s.writes++
	return nil
}

// RemoveItem deletes key.
func (s *FallbackStore) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Writes returns the number of successful SetItem calls.
func (s *FallbackStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
