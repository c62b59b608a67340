package domain

import "time"

// IngestionReport summarises the outcome of a sync run for one source.
type IngestionReport struct {
	// SourceID identifies the synced source.
	SourceID string

	// Added counts documents ingested for the first time.
	Added int

	// Updated counts documents re-ingested because their content hash
	// changed.
	Updated int

	// Skipped counts documents left alone because their content hash
	// was unchanged.
	Skipped int

	// Removed counts documents deleted because their files are gone.
	Removed int

	// ChunksIndexed counts chunks written to the vector index.
	ChunksIndexed int

	// Failed lists documents that could not be ingested. Failures are
	// isolated per document; the run continues past them.
	Failed []DocumentFailure

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed.
	FinishedAt time.Time
}

// DocumentFailure records why a single document failed to ingest.
type DocumentFailure struct {
	// Path is the source-relative location.
	Path string

	// Reason is the failure description.
	Reason string
}

// Processed returns the number of documents the run actually ingested.
func (r *IngestionReport) Processed() int {
	return r.Added + r.Updated
}

// HasFailures reports whether any document failed.
func (r *IngestionReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// Duration returns the elapsed time of the run.
func (r *IngestionReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
