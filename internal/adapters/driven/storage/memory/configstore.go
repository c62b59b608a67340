package memory

import (
	"maps"
	"sync"

	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds configuration in a map. Tests use it in place of
// the TOML-backed store; values keep whatever Go type they were set
// with, so the typed getters also coerce native ints and floats.
type ConfigStore struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{entries: make(map[string]any)}
}

// NewConfigStoreWith creates a store seeded with values, keyed by dot
// notation.
func NewConfigStoreWith(values map[string]any) *ConfigStore {
	cs := NewConfigStore()
	maps.Copy(cs.entries, values)
	return cs
}

// lookup reads a key and asserts it to T, reporting false on absence
// or a type mismatch.
func lookup[T any](cs *ConfigStore, key string) (T, bool) {
	raw, ok := cs.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := raw.(T)
	return typed, ok
}

// Get returns the raw value stored under key.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, ok := cs.entries[key]
	return entry, ok
}

// GetString returns a string value, or "" when absent.
func (cs *ConfigStore) GetString(key string) string {
	str, _ := lookup[string](cs, key)
	return str
}

// GetInt returns an integer value, or 0 when absent. Native ints,
// int64 and float64 all coerce.
func (cs *ConfigStore) GetInt(key string) int {
	raw, _ := cs.Get(key)
	switch n := raw.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// GetFloat returns a numeric value as float64, or 0 when absent.
func (cs *ConfigStore) GetFloat(key string) float64 {
	raw, _ := cs.Get(key)
	switch n := raw.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// GetBool returns a boolean value, or false when absent.
func (cs *ConfigStore) GetBool(key string) bool {
	b, _ := lookup[bool](cs, key)
	return b
}

// GetStringSlice returns a list of strings, or nil when absent.
// Mixed []any lists keep only their string items.
func (cs *ConfigStore) GetStringSlice(key string) []string {
	raw, _ := cs.Get(key)
	switch list := raw.(type) {
	case []string:
		return list
	case []any:
		strs := make([]string, 0, len(list))
		for _, item := range list {
			if str, isString := item.(string); isString {
				strs = append(strs, str)
			}
		}
		return strs
	default:
		return nil
	}
}

// Set stores a value under key.
func (cs *ConfigStore) Set(key string, value any) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.entries[key] = value
	return nil
}

// Save is a no-op; the store has no backing file.
func (cs *ConfigStore) Save() error {
	return nil
}

// Load is a no-op; the store has no backing file.
func (cs *ConfigStore) Load() error {
	return nil
}

// Path identifies the store where output prints config locations.
func (cs *ConfigStore) Path() string {
	return ":memory:"
}
