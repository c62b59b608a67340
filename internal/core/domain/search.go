package domain

// RerankMode controls whether results are reranked for one query.
type RerankMode string

const (
	// RerankDefault defers to the retrieval.use_reranker setting.
	RerankDefault RerankMode = ""

	// RerankOn forces reranking for this query.
	RerankOn RerankMode = "on"

	// RerankOff disables reranking for this query.
	RerankOff RerankMode = "off"
)

// SearchOptions configures a retrieval query. Zero values defer to the
// configured retrieval settings.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero or negative uses
	// retrieval.max_documents.
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// SourceIDs filters to specific sources.
	SourceIDs []string

	// Categories filters to specific categories.
	Categories []Category

	// MinScore drops results scoring below it. Negative uses
	// retrieval.similarity_threshold.
	MinScore float64

	// Rerank overrides the configured reranker toggle.
	Rerank RerankMode
}

// SearchResult represents a single retrieval hit.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Chunk is the specific chunk that matched.
	Chunk Chunk

	// Score is the normalised relevance score. Higher is better
	// regardless of the configured distance metric.
	Score float64

	// Rank is the zero-based position within the result set, assigned
	// after filtering and reranking.
	Rank int

	// Highlights contains snippets with matched terms.
	Highlights []string

	// SourceName is the display name of the source.
	SourceName string
}

// CorpusStats summarises the indexed knowledge base.
type CorpusStats struct {
	// Sources is the number of configured sources.
	Sources int

	// Documents is the number of indexed documents.
	Documents int

	// Chunks is the number of stored chunks.
	Chunks int

	// Vectors is the number of embeddings in the vector index.
	Vectors int

	// ByCategory counts documents per category.
	ByCategory map[Category]int

	// ByContentType counts documents per content_type metadata value.
	ByContentType map[string]int
}
