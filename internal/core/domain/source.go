package domain

import "time"

// Source represents a configured content directory.
// Each source produces documents via a connector.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the connector type (e.g., "filesystem").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// Config contains connector-specific configuration. The
	// filesystem connector requires a "path" key.
	Config map[string]string

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// DisplayName returns the name for CLI display, falling back to the ID
// when no name was configured.
func (s *Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// RootPath returns the configured directory for filesystem sources.
func (s *Source) RootPath() string {
	return s.Config["path"]
}
