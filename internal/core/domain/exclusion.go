package domain

import "time"

// Exclusion marks a document to be skipped on every future sync. The
// document's chunks and vectors are removed when it is excluded and it
// will not be re-ingested while the exclusion exists.
type Exclusion struct {
	ID         string
	SourceID   string
	DocumentID string

	// Path is the source-relative location, used for matching on
	// re-sync after the document row itself is gone.
	Path string

	// Reason is the user's note on why the document was dropped.
	Reason string

	ExcludedAt time.Time
}
