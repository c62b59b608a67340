package domain

import "time"

// ManifestEntry records the fingerprint of an ingested document. The
// manifest is what sync runs compare against to decide whether a file
// is new, changed, unchanged, or has been removed from disk.
type ManifestEntry struct {
	// SourceID links to the Source the document came from.
	SourceID string

	// DocumentID is the deterministic document identifier.
	DocumentID string

	// Path is the source-relative location.
	Path string

	// ContentHash is the fingerprint recorded at last ingestion.
	ContentHash string

	// ChunkCount is how many chunks the document produced.
	ChunkCount int

	// EmbeddingModel and EmbeddingDims record which model produced the
	// document's indexed vectors. Both stay zero when the sync ran
	// without an embedding provider, so a later run with one configured
	// treats the document as changed and indexes it.
	EmbeddingModel string
	EmbeddingDims  int

	// SyncedAt is when the document was last ingested.
	SyncedAt time.Time
}

// EmbeddedWith reports whether the entry's vectors were produced by the
// given model at the given dimensionality. False for entries written by
// a sync that had no embedding provider.
func (e *ManifestEntry) EmbeddedWith(model string, dims int) bool {
	return e.EmbeddingModel == model && e.EmbeddingDims == dims
}
