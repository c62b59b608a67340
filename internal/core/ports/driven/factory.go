package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// ConnectorBuilder constructs a Connector bound to one source.
type ConnectorBuilder func(source domain.Source) (Connector, error)

// ConnectorFactory maps source types to connector builders.
type ConnectorFactory interface {
	// Create builds a Connector for the source, or returns
	// ErrUnsupportedType when no builder is registered for its type.
	Create(ctx context.Context, source domain.Source) (Connector, error)

	// Register installs a builder for a source type, replacing any
	// earlier one.
	Register(connectorType string, builder ConnectorBuilder)

	// SupportedTypes returns the registered source types.
	SupportedTypes() []string
}
