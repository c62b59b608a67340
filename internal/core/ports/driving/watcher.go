package driving

import "context"

// Watcher re-syncs sources when their content changes on disk.
type Watcher interface {
	// Start begins watching every configured source that supports
	// change events. Blocks until the context is cancelled or Stop is
	// called.
	Start(ctx context.Context) error

	// Stop shuts down all source watchers, waiting for any running
	// re-sync to finish.
	Stop() error
}
