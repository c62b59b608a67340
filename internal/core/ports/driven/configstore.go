package driven

// ConfigStore reads and writes application configuration. Keys use dot
// notation mirroring the TOML section layout, so "embedding.provider"
// addresses provider under [embedding].
//
// Typed getters return the zero value when the key is missing or holds
// a different type. Callers that need to tell those cases apart use Get.
type ConfigStore interface {
	// Get returns the raw value and whether the key exists.
	Get(key string) (any, bool)

	// GetString returns a string value, or "" when absent.
	GetString(key string) string

	// GetInt returns an integer value, or 0 when absent.
	GetInt(key string) int

	// GetFloat returns a numeric value as float64, or 0 when absent.
	// Integer values convert.
	GetFloat(key string) float64

	// GetBool returns a boolean value, or false when absent.
	GetBool(key string) bool

	// GetStringSlice returns a list of strings, or nil when absent.
	// Non-string elements are dropped.
	GetStringSlice(key string) []string

	// Set stores a value under key and persists it immediately.
	Set(key string, value any) error

	// Save persists the full configuration.
	Save() error

	// Load re-reads configuration from the backing store, replacing
	// in-memory state.
	Load() error

	// Path returns the location of the backing store.
	Path() string
}
