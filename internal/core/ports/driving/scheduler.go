package driving

import "context"

// Scheduler manages background task execution.
type Scheduler interface {
	// Start begins the scheduler loop. Blocks until the context is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler, waiting for any running
	// task to finish.
	Stop() error
}
