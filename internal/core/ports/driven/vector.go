package driven

import "context"

// VectorIndex stores chunk embeddings and answers similarity queries.
// Implementations must be idempotent on Upsert: writing the same chunk
// ID twice replaces the stored vector.
type VectorIndex interface {
	// Upsert inserts or replaces vectors for the given entries.
	Upsert(ctx context.Context, entries []IndexEntry) error

	// Delete removes vectors by chunk ID. Unknown IDs are ignored.
	Delete(ctx context.Context, chunkIDs []string) error

	// DeleteByDocument removes every vector belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Query finds the k best matches for the query vector, ordered by
	// descending score. Scores are normalised so that higher is better
	// regardless of the configured distance metric. An unreachable
	// index returns domain.ErrIndexUnavailable, never an empty result.
	Query(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// IndexEntry is a vector keyed for storage.
type IndexEntry struct {
	// ChunkID identifies the embedded chunk.
	ChunkID string

	// DocumentID identifies the chunk's parent document, enabling
	// document-scoped deletion.
	DocumentID string

	// Embedding is the vector to store.
	Embedding []float32
}

// VectorHit represents a similarity query result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the normalised similarity score. Higher is better.
	Score float64
}
