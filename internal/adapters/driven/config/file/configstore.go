package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in a TOML file. Values live in
// memory under dot-notation keys; on disk they are laid out as nested
// tables, so "embedding.provider" round-trips as provider under
// [embedding].
type ConfigStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string]any
}

// NewConfigStore opens config.toml under configDir, creating the
// directory when needed. An empty configDir means ~/.recall.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".recall")
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		path:    filepath.Join(configDir, "config.toml"),
		entries: make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the raw value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	return value, ok
}

// GetString returns a string value, or "" when absent.
func (s *ConfigStore) GetString(key string) string {
	value, _ := s.Get(key)
	return asString(value)
}

// GetInt returns an integer value, or 0 when absent.
func (s *ConfigStore) GetInt(key string) int {
	value, _ := s.Get(key)
	return asInt(value)
}

// GetFloat returns a numeric value, or 0 when absent.
func (s *ConfigStore) GetFloat(key string) float64 {
	value, _ := s.Get(key)
	return asFloat(value)
}

// GetBool returns a boolean value, or false when absent.
func (s *ConfigStore) GetBool(key string) bool {
	value, _ := s.Get(key)
	return asBool(value)
}

// GetStringSlice returns a list of strings, or nil when absent.
func (s *ConfigStore) GetStringSlice(key string) []string {
	value, _ := s.Get(key)
	return asStringSlice(value)
}

// Set stores a value and writes the file straight away.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
	return s.persist()
}

// Save writes the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// persist marshals the nested form and replaces the file through a
// rename, so a crash mid-write never leaves a truncated config.
// Caller must hold the lock.
func (s *ConfigStore) persist() error {
	data, err := toml.Marshal(expand(s.entries))
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the TOML file. A missing file leaves the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.entries = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	s.entries = flatten(nested, "")
	return nil
}

// Path reports where the configuration lives on disk.
func (s *ConfigStore) Path() string {
	return s.path
}

// flatten converts nested tables to dot-notation keys.
func flatten(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	for key, value := range nested {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			maps.Copy(flat, flatten(table, key))
			continue
		}
		flat[key] = value
	}
	return flat
}

// expand is the inverse of flatten: dotted keys become nested tables
// for the on-disk layout. Keys are walked in sorted order, so a dotted
// key whose prefix already holds a scalar is dropped rather than
// clobbering it.
func expand(flat map[string]any) map[string]any {
	nested := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		parts := strings.Split(key, ".")
		node := nested
		blocked := false
		for _, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			table, isTable := child.(map[string]any)
			if !isTable {
				blocked = true
				break
			}
			node = table
		}
		if blocked {
			continue
		}
		node[parts[len(parts)-1]] = flat[key]
	}
	return nested
}

func asString(raw any) string {
	s, _ := raw.(string)
	return s
}

// asInt accepts the int64 the TOML decoder produces as well as native
// ints written through Set.
func asInt(raw any) int {
	switch n := raw.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func asFloat(raw any) float64 {
	switch n := raw.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asBool(raw any) bool {
	b, _ := raw.(bool)
	return b
}

// asStringSlice accepts the []any the decoder produces, dropping
// non-string elements.
func asStringSlice(raw any) []string {
	switch list := raw.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, element := range list {
			if s, ok := element.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
