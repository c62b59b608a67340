package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// Connector reads documents out of one configured source. The
// filesystem connector is the only implementation today; the interface
// keeps sync ignorant of where documents come from.
type Connector interface {
	// Type names the connector kind, matching the source's Type field.
	Type() string

	// SourceID names the source this connector was built for.
	SourceID() string

	// Capabilities reports which optional operations work.
	Capabilities() ConnectorCapabilities

	// Validate checks the connector can actually sync. The filesystem
	// connector verifies its root exists and is a readable directory.
	Validate(ctx context.Context) error

	// FullSync streams every document in the source. Per-document read
	// failures arrive on the error channel as *domain.RawDocumentError
	// and do not stop the walk; any other error ends it. Both channels
	// close when the walk finishes.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch streams file changes under the source root, for connectors
	// whose capabilities include watching. The channel closes when ctx
	// is cancelled or the connector is closed.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases watches and any other held resources.
	Close() error
}

// ConnectorCapabilities reports a connector's optional operations.
type ConnectorCapabilities struct {
	// SupportsWatch marks connectors that can push change events.
	SupportsWatch bool

	// SupportsValidation marks connectors whose Validate performs a
	// real check rather than always returning nil.
	SupportsValidation bool
}
