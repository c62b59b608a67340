package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// SyncOrchestrator coordinates document ingestion from sources.
type SyncOrchestrator interface {
	// Sync ingests one source and reports what changed. A run that
	// completes returns a report even when individual documents failed;
	// only errors that stop the run entirely are returned as errors.
	Sync(ctx context.Context, sourceID string) (*domain.IngestionReport, error)

	// SyncAll ingests every configured source. Reports are returned for
	// the sources that ran; per-source run errors are joined.
	SyncAll(ctx context.Context) ([]domain.IngestionReport, error)

	// Status returns live progress for a source.
	Status(ctx context.Context, sourceID string) (*SyncStatus, error)
}

// SyncStatus is a point-in-time snapshot of a run. Counters are
// monotonic within a run and reset when the next run starts.
type SyncStatus struct {
	// SourceID names the source the snapshot describes.
	SourceID string

	// Running reports whether a run is in flight right now.
	Running bool

	// DocumentsProcessed is the count of documents ingested so far.
	DocumentsProcessed int

	// ChunksIndexed is the count of chunks written to the vector index.
	ChunksIndexed int

	// ErrorCount is the number of per-document failures so far.
	ErrorCount int
}
