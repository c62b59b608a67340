package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding service provider.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid reports whether the provider is one recall can drive.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey reports whether the provider needs a credential
// before it can be used.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsLocal reports whether the provider runs on this machine.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingProviderOllama
}

func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description is the label the wizard shows for the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOllama:
		return "Ollama (runs locally)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (hosted API)"
	default:
		return unknownDescription
	}
}

// DistanceMetric defines how vector similarity is computed.
type DistanceMetric string

// Available distance metrics.
const (
	// MetricCosine scores by the cosine of the angle between vectors.
	MetricCosine DistanceMetric = "cosine"

	// MetricEuclidean scores by straight-line distance.
	MetricEuclidean DistanceMetric = "euclidean"

	// MetricDotProduct scores by the raw inner product.
	MetricDotProduct DistanceMetric = "dot"
)

// IsValid reports whether the metric names a known similarity
// function.
func (m DistanceMetric) IsValid() bool {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDotProduct:
		return true
	default:
		return false
	}
}

func (m DistanceMetric) String() string {
	return string(m)
}

// Description is the label the wizard shows for the metric.
func (m DistanceMetric) Description() string {
	switch m {
	case MetricCosine:
		return "Cosine similarity (angle between vectors)"
	case MetricEuclidean:
		return "Euclidean distance (straight-line)"
	case MetricDotProduct:
		return "Dot product (raw inner product)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings selects and configures the embedding provider.
// BaseURL only applies to Ollama; APIKey only to OpenAI.
type EmbeddingSettings struct {
	Provider   EmbeddingProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int

	// Normalize scales returned vectors to unit length.
	Normalize bool
}

// IsConfigured reports whether the provider is set up far enough to
// build an adapter for it.
func (s EmbeddingSettings) IsConfigured() bool {
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return s.Provider.IsValid()
}

// ChunkingSettings holds document splitting configuration.
type ChunkingSettings struct {
	// Size is the chunk window in characters.
	Size int

	// Overlap is how many characters consecutive chunks share.
	Overlap int
}

// Validate checks that the window arithmetic can make progress.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings holds query-time configuration.
type RetrievalSettings struct {
	// MaxDocuments is the default result limit.
	MaxDocuments int

	// SimilarityThreshold drops results scoring below it.
	SimilarityThreshold float64

	// UseReranker reorders results by query-term overlap.
	UseReranker bool
}

// IndexSettings locates the vector index and picks its similarity
// function.
type IndexSettings struct {
	Path   string
	Metric DistanceMetric
}

// UpdateSettings holds automatic re-sync configuration.
type UpdateSettings struct {
	// AutoUpdate enables the background knowledge-sync task.
	AutoUpdate bool

	// Frequency is how often sources are re-synced.
	Frequency time.Duration
}

// SyncSettings holds ingestion configuration.
type SyncSettings struct {
	// Workers is the number of documents processed concurrently.
	Workers int
}

// Settings is the whole configuration tree as the services see it.
type Settings struct {
	Embedding   EmbeddingSettings
	Chunking    ChunkingSettings
	Retrieval   RetrievalSettings
	VectorIndex IndexSettings
	Updates     UpdateSettings
	Sync        SyncSettings
}

// DefaultSettings returns the settings a fresh installation runs with.
// The embedding provider is left unconfigured; users set it up via the
// settings wizard.
func DefaultSettings() Settings {
	return Settings{
		Embedding:   EmbeddingSettings{Normalize: true},
		Chunking:    ChunkingSettings{Size: 512, Overlap: 128},
		Retrieval:   RetrievalSettings{MaxDocuments: 5, SimilarityThreshold: 0.7},
		VectorIndex: IndexSettings{Metric: MetricCosine},
		Updates:     UpdateSettings{AutoUpdate: true, Frequency: 24 * time.Hour},
		Sync:        SyncSettings{Workers: 4},
	}
}

// AllEmbeddingProviders lists the providers the wizard can offer.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
	}
}

// AllDistanceMetrics lists the metrics the wizard can offer.
func AllDistanceMetrics() []DistanceMetric {
	return []DistanceMetric{
		MetricCosine,
		MetricEuclidean,
		MetricDotProduct,
	}
}

// EmbeddingModel is one entry in the built-in model catalogue.
type EmbeddingModel struct {
	Name     string
	Provider EmbeddingProvider
	Dims     int
}

// KnownEmbeddingModels lists the models the wizard offers, with the
// native vector width of each. The first entry per provider is its
// suggested default.
func KnownEmbeddingModels() []EmbeddingModel {
	return []EmbeddingModel{
		{Name: "nomic-embed-text", Provider: EmbeddingProviderOllama, Dims: 768},
		{Name: "mxbai-embed-large", Provider: EmbeddingProviderOllama, Dims: 1024},
		{Name: "all-minilm", Provider: EmbeddingProviderOllama, Dims: 384},
		{Name: "text-embedding-3-small", Provider: EmbeddingProviderOpenAI, Dims: 1536},
		{Name: "text-embedding-3-large", Provider: EmbeddingProviderOpenAI, Dims: 3072},
		{Name: "text-embedding-ada-002", Provider: EmbeddingProviderOpenAI, Dims: 1536},
	}
}

// DefaultModelFor returns the suggested model for a provider, or ""
// when the provider has no catalogue entry.
func DefaultModelFor(provider EmbeddingProvider) string {
	for _, m := range KnownEmbeddingModels() {
		if m.Provider == provider {
			return m.Name
		}
	}
	return ""
}

// DimensionsForModel returns the native vector width of a catalogued
// model, or 0 for models recall does not know.
func DimensionsForModel(name string) int {
	for _, m := range KnownEmbeddingModels() {
		if m.Name == name {
			return m.Dims
		}
	}
	return 0
}

// PipelineSpec names the post-processors to run, in order, with a
// generic config section per stage. New processors plug in without
// touching this struct.
type PipelineSpec struct {
	Stages   []string
	Sections map[string]map[string]any
}

// Section returns one stage's config, or nil when none was set.
func (p *PipelineSpec) Section(name string) map[string]any {
	return p.Sections[name]
}

// DefaultPipelineSpec runs just the chunker, with the default window.
func DefaultPipelineSpec() PipelineSpec {
	chunking := DefaultSettings().Chunking
	return PipelineSpec{
		Stages: []string{"chunker"},
		Sections: map[string]map[string]any{
			"chunker": {"chunk_size": chunking.Size, "overlap": chunking.Overlap},
		},
	}
}
