package connectors

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/recall-labs/recall-cli/internal/connectors/filesystem"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory creates connectors from source configuration. Builders for
// the built-in types are registered at construction; additional types
// can be registered before the factory is handed to the orchestrator.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]driven.ConnectorBuilder
}

// NewFactory creates a factory with the built-in connector types.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[string]driven.ConnectorBuilder)}
	f.Register("filesystem", newFilesystemConnector)
	return f
}

func newFilesystemConnector(source domain.Source) (driven.Connector, error) {
	root := source.RootPath()
	if root == "" {
		return nil, fmt.Errorf("%w: filesystem source requires a path", domain.ErrInvalidConfig)
	}
	return filesystem.New(source.ID, root), nil
}

// Create returns a Connector for the given source.
func (f *Factory) Create(_ context.Context, source domain.Source) (driven.Connector, error) {
	f.mu.RLock()
	builder, ok := f.builders[source.Type]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, source.Type)
	}
	return builder(source)
}

// Register adds a connector builder for the given type.
func (f *Factory) Register(connectorType string, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[connectorType] = builder
}

// SupportedTypes returns all registered connector types, sorted.
func (f *Factory) SupportedTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Sorted(maps.Keys(f.builders))
}
