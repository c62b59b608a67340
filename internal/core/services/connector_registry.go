package services

import (
	"cmp"
	"maps"
	"slices"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

var _ driving.ConnectorRegistry = (*ConnectorRegistry)(nil)

// ConnectorRegistry publishes the connector types this build supports,
// keyed by ID. The set is fixed at construction.
type ConnectorRegistry struct {
	connectors map[string]domain.ConnectorType
}

// NewConnectorRegistry creates a registry pre-loaded with the built-in
// connector types.
func NewConnectorRegistry() *ConnectorRegistry {
	return &ConnectorRegistry{
		connectors: map[string]domain.ConnectorType{
			"filesystem": {
				ID:          "filesystem",
				Name:        "Local Filesystem",
				Description: "Index knowledge files from a local directory",
				ConfigKeys: []domain.ConfigKey{{
					Key:         "path",
					Label:       "Root directory",
					Description: "Directory whose files should be indexed",
					Required:    true,
				}},
			},
		},
	}
}

// List reports every connector type, sorted by ID.
func (r *ConnectorRegistry) List() []domain.ConnectorType {
	return slices.SortedFunc(maps.Values(r.connectors), func(a, b domain.ConnectorType) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// Get looks up one connector type by ID.
func (r *ConnectorRegistry) Get(id string) (*domain.ConnectorType, error) {
	c, ok := r.connectors[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// ValidateConfig checks config against the connector type's declared
// keys. Only presence is checked here; whether the configuration
// actually works is the connector's own business.
func (r *ConnectorRegistry) ValidateConfig(connectorID string, config map[string]string) error {
	connector, ok := r.connectors[connectorID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, key := range connector.ConfigKeys {
		if key.Required && config[key.Key] == "" {
			return domain.ErrInvalidInput
		}
	}
	return nil
}
