package memory

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings for the lifetime of the process.
// It backs tests and runs where the config file cannot be opened.
// Numbers are held as int64, the way a decoded TOML file holds them, so
// services see the same types from either store.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a config store seeded with values.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, m := range seed {
		for k, v := range m {
			s.values[k] = normalise(v)
		}
	}
	return s
}

func normalise(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case time.Duration:
		return n.Milliseconds()
	default:
		return v
	}
}

func lookup[T any](s *ConfigStore, key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key].(T)
	return v, ok
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString returns "" unless key holds a string.
func (s *ConfigStore) GetString(key string) string {
	v, _ := lookup[string](s, key)
	return v
}

// GetInt returns 0 unless key holds a number.
func (s *ConfigStore) GetInt(key string) int {
	if v, ok := lookup[int64](s, key); ok {
		return int(v)
	}
	if v, ok := lookup[float64](s, key); ok {
		return int(v)
	}
	return 0
}

// GetBool returns false unless key holds a bool.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := lookup[bool](s, key)
	return v
}

// Set stores value under key. Durations are kept as milliseconds.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = normalise(value)
	return nil
}

// Keys returns all stored keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Load is a no-op; there is nothing to read.
func (s *ConfigStore) Load() error {
	return nil
}

// Path reports that nothing is persisted.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
