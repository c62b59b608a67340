package driven

import "context"

// EmbeddingService turns text into vectors for the index. Generation
// lives here; storage and search live in VectorIndex. The service is
// optional: a nil one means sync skips indexing and retrieval is
// unavailable.
//
// Backends include OpenAI (text-embedding-3-small and friends) and
// Ollama (nomic-embed-text, all-minilm).
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds several texts in provider-sized batches,
	// preserving input order: result[i] embeds texts[i]. Transient
	// provider failures are retried; exhausted retries surface
	// domain.ErrEmbeddingUnavailable.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the model's vector width. The vector index
	// must be built with the same width.
	Dimensions() int

	// ModelName reports which model generates the vectors.
	ModelName() string

	// Ping makes a lightweight request to verify the backend is
	// reachable, typically at startup.
	Ping(ctx context.Context) error

	// Close releases provider resources.
	Close() error
}
