package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/schedmaker/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory driven.ConfigStore for settings tests.
// Values keep the Go type they were set with, like a freshly written TOML file.
type ConfigStore struct {
	mu       sync.RWMutex
	settings map[string]any
	failSet  error
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		settings: make(map[string]any),
	}
}

// FailSets makes every Set return err without storing. Pass nil to reset.
func (s *ConfigStore) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = err
}

// Get retrieves a setting by its dotted key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.settings[key]
	return val, ok
}

// GetString returns the setting if it is a string.
func (s *ConfigStore) GetString(key string) string {
	str, _ := getAs[string](s, key)
	return str
}

// GetInt returns the setting if it is numeric. TOML decodes integers as
// int64, so both widths are accepted.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// Set stores a setting.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.settings[key] = value
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.settings))
}

// Path reports that nothing is written to disk.
func (s *ConfigStore) Path() string {
	return ":memory:"
}

func getAs[T any](s *ConfigStore, key string) (T, bool) {
	val, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := val.(T)
	return typed, ok
}
