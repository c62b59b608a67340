package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// settingsFixture builds a service over an in-memory config store
// seeded with the given entries.
func settingsFixture(stored map[string]any, validator driven.AIConfigValidator) *SettingsService {
	return NewSettingsService(memory.NewConfigStoreWith(stored), validator)
}

// flakyConfig fails Set for one configured key.
type flakyConfig struct {
	*memory.ConfigStore
	deny string
}

func (c *flakyConfig) Set(key string, value any) error {
	if key == c.deny {
		return assert.AnError
	}
	return c.ConfigStore.Set(key, value)
}

// stubValidator reports a canned reachability outcome.
type stubValidator struct {
	err error
}

func (s *stubValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return s.err
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc := settingsFixture(nil, nil)

	got, err := svc.Get(context.Background())

	require.NoError(t, err)
	require.NotNil(t, got)

	want := domain.DefaultSettings()
	assert.Equal(t, want.Embedding.Provider, got.Embedding.Provider)
	assert.Equal(t, want.Chunking.Size, got.Chunking.Size)
	assert.Equal(t, want.Chunking.Overlap, got.Chunking.Overlap)
	assert.Equal(t, want.Retrieval.MaxDocuments, got.Retrieval.MaxDocuments)
	assert.InDelta(t, want.Retrieval.SimilarityThreshold, got.Retrieval.SimilarityThreshold, 1e-9)
	assert.Equal(t, want.VectorIndex.Metric, got.VectorIndex.Metric)
	assert.Equal(t, want.Updates.AutoUpdate, got.Updates.AutoUpdate)
	assert.Equal(t, want.Updates.Frequency, got.Updates.Frequency)
	assert.Equal(t, want.Sync.Workers, got.Sync.Workers)
}

func TestSettingsService_Get_StoredValues(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"embedding.provider":      "openai",
		"embedding.model":         "text-embedding-3-large",
		"chunking.size":           1024,
		"retrieval.max_documents": 20,
		"vector_index.metric":     "dot",
		"updates.frequency":       "6h",
		"sync.workers":            8,
	}, nil)

	got, err := svc.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProviderOpenAI, got.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", got.Embedding.Model)
	assert.Equal(t, 1024, got.Chunking.Size)
	assert.Equal(t, 20, got.Retrieval.MaxDocuments)
	assert.Equal(t, domain.MetricDotProduct, got.VectorIndex.Metric)
	assert.Equal(t, 6*time.Hour, got.Updates.Frequency)
	assert.Equal(t, 8, got.Sync.Workers)
}

func TestSettingsService_Get_InvalidValuesFallBack(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"embedding.provider":  "invalid_provider",
		"vector_index.metric": "manhattan",
		"updates.frequency":   "not-a-duration",
	}, nil)

	got, err := svc.Get(context.Background())

	require.NoError(t, err)
	want := domain.DefaultSettings()
	assert.Equal(t, want.Embedding.Provider, got.Embedding.Provider)
	assert.Equal(t, want.VectorIndex.Metric, got.VectorIndex.Metric)
	assert.Equal(t, want.Updates.Frequency, got.Updates.Frequency)
}

func TestSettingsService_Get_StoredZeroValues(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"chunking.overlap":               0,
		"retrieval.similarity_threshold": 0.0,
		"retrieval.use_reranker":         false,
	}, nil)

	got, err := svc.Get(context.Background())

	require.NoError(t, err)
	// Explicitly stored zeros are not defaults in disguise
	assert.Equal(t, 0, got.Chunking.Overlap)
	assert.InDelta(t, 0.0, got.Retrieval.SimilarityThreshold, 1e-9)
	assert.False(t, got.Retrieval.UseReranker)
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	var in domain.Settings
	in.Embedding = domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderOpenAI, Model: "text-embedding-3-small",
		APIKey: "sk-test-key", Dimensions: 1536, Normalize: true,
	}
	in.Chunking = domain.ChunkingSettings{Size: 768, Overlap: 64}
	in.Retrieval = domain.RetrievalSettings{MaxDocuments: 12, SimilarityThreshold: 0.55, UseReranker: true}
	in.VectorIndex = domain.IndexSettings{Path: "/tmp/vectors.db", Metric: domain.MetricEuclidean}
	in.Updates = domain.UpdateSettings{AutoUpdate: false, Frequency: 12 * time.Hour}
	in.Sync = domain.SyncSettings{Workers: 2}

	require.NoError(t, svc.Save(ctx, &in))

	loaded, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProviderOpenAI, loaded.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", loaded.Embedding.Model)
	assert.Equal(t, "sk-test-key", loaded.Embedding.APIKey)
	assert.Equal(t, 1536, loaded.Embedding.Dimensions)
	assert.Equal(t, 768, loaded.Chunking.Size)
	assert.Equal(t, 64, loaded.Chunking.Overlap)
	assert.Equal(t, 12, loaded.Retrieval.MaxDocuments)
	assert.InDelta(t, 0.55, loaded.Retrieval.SimilarityThreshold, 1e-9)
	assert.True(t, loaded.Retrieval.UseReranker)
	assert.Equal(t, "/tmp/vectors.db", loaded.VectorIndex.Path)
	assert.Equal(t, domain.MetricEuclidean, loaded.VectorIndex.Metric)
	assert.False(t, loaded.Updates.AutoUpdate)
	assert.Equal(t, 12*time.Hour, loaded.Updates.Frequency)
	assert.Equal(t, 2, loaded.Sync.Workers)
}

func TestSettingsService_Save_PreservesStoredAPIKey(t *testing.T) {
	svc := settingsFixture(map[string]any{"embedding.api_key": "sk-existing"}, nil)
	ctx := context.Background()

	current, err := svc.Get(ctx)
	require.NoError(t, err)
	current.Embedding.APIKey = "" // Empty key must not clobber the stored one

	require.NoError(t, svc.Save(ctx, current))

	loaded, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-existing", loaded.Embedding.APIKey)
}

func TestSettingsService_SetEmbeddingProvider_Local(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	err := svc.SetEmbeddingProvider(ctx, domain.EmbeddingProviderOllama, "nomic-embed-text", "")

	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Equal(t, domain.EmbeddingProviderOllama, got.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", got.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", got.Embedding.BaseURL)
	assert.Empty(t, got.Embedding.APIKey)
	assert.Equal(t, 768, got.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_Cloud(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	err := svc.SetEmbeddingProvider(ctx, domain.EmbeddingProviderOpenAI, "text-embedding-3-small", "sk-test-key")

	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Equal(t, domain.EmbeddingProviderOpenAI, got.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", got.Embedding.Model)
	assert.Equal(t, "sk-test-key", got.Embedding.APIKey)
	assert.Equal(t, 1536, got.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_EmptyModel(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	// Empty model selects the provider's default
	err := svc.SetEmbeddingProvider(ctx, domain.EmbeddingProviderOpenAI, "", "sk-test-key")

	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Equal(t, "text-embedding-3-small", got.Embedding.Model)
}

func TestSettingsService_SetEmbeddingProvider_MissingAPIKey(t *testing.T) {
	svc := settingsFixture(nil, nil)

	err := svc.SetEmbeddingProvider(context.Background(), domain.EmbeddingProviderOpenAI, "text-embedding-3-small", "")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorContains(t, err, "API key required")
}

func TestSettingsService_SetEmbeddingProvider_UnknownProvider(t *testing.T) {
	svc := settingsFixture(nil, nil)

	err := svc.SetEmbeddingProvider(context.Background(), domain.EmbeddingProvider("invalid"), "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorContains(t, err, "invalid embedding provider")
}

func TestSettingsService_SetEmbeddingProvider_PreservesCustomBaseURL(t *testing.T) {
	svc := settingsFixture(map[string]any{"embedding.base_url": "http://ollama-box:11434"}, nil)
	ctx := context.Background()

	err := svc.SetEmbeddingProvider(ctx, domain.EmbeddingProviderOllama, "nomic-embed-text", "")
	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Equal(t, "http://ollama-box:11434", got.Embedding.BaseURL)
}

func TestSettingsService_SetEmbeddingProvider_CloudClearsBaseURL(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	_ = svc.SetEmbeddingProvider(ctx, domain.EmbeddingProviderOllama, "nomic-embed-text", "")

	err := svc.SetEmbeddingProvider(ctx, domain.EmbeddingProviderOpenAI, "text-embedding-3-small", "sk-test")
	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Empty(t, got.Embedding.BaseURL)
}

func TestSettingsService_SetChunking(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	err := svc.SetChunking(ctx, 1024, 256)

	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Equal(t, 1024, got.Chunking.Size)
	assert.Equal(t, 256, got.Chunking.Overlap)
}

func TestSettingsService_SetChunking_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -10, 0},
		{"negative overlap", 512, -1},
		{"overlap equals size", 512, 512},
		{"overlap exceeds size", 512, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := settingsFixture(nil, nil)

			err := svc.SetChunking(context.Background(), tt.size, tt.overlap)

			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestSettingsService_SetRetrieval(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	err := svc.SetRetrieval(ctx, 15, 0.6, true)

	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Equal(t, 15, got.Retrieval.MaxDocuments)
	assert.InDelta(t, 0.6, got.Retrieval.SimilarityThreshold, 1e-9)
	assert.True(t, got.Retrieval.UseReranker)
}

func TestSettingsService_SetRetrieval_Invalid(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	err := svc.SetRetrieval(ctx, 0, 0.5, false)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	err = svc.SetRetrieval(ctx, 5, 1.5, false)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	err = svc.SetRetrieval(ctx, 5, -0.1, false)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsService_SetDistanceMetric(t *testing.T) {
	svc := settingsFixture(nil, nil)
	ctx := context.Background()

	err := svc.SetDistanceMetric(ctx, domain.MetricEuclidean)

	require.NoError(t, err)

	got, _ := svc.Get(ctx)
	assert.Equal(t, domain.MetricEuclidean, got.VectorIndex.Metric)
}

func TestSettingsService_SetDistanceMetric_Invalid(t *testing.T) {
	svc := settingsFixture(nil, nil)

	err := svc.SetDistanceMetric(context.Background(), domain.DistanceMetric("manhattan"))

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsService_Validate_Defaults(t *testing.T) {
	svc := settingsFixture(nil, nil)

	assert.NoError(t, svc.Validate(context.Background()))
}

func TestSettingsService_Validate_BadChunking(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"chunking.size":    100,
		"chunking.overlap": 200,
	}, nil)

	err := svc.Validate(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsService_Validate_MissingAPIKey(t *testing.T) {
	svc := settingsFixture(map[string]any{"embedding.provider": "openai"}, nil)

	err := svc.Validate(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorContains(t, err, "API key")
}

func TestSettingsService_Validate_BadWorkers(t *testing.T) {
	svc := settingsFixture(map[string]any{"sync.workers": -1}, nil)

	err := svc.Validate(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := settingsFixture(nil, nil)

	got := svc.GetDefaults()

	require.NotNil(t, got)
	assert.Equal(t, domain.DefaultSettings(), *got)
}

func TestSettingsService_GetPipelineSpec(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"chunking.size":    2048,
		"chunking.overlap": 512,
	}, nil)

	pipeline := svc.GetPipelineSpec(context.Background())

	require.Contains(t, pipeline.Stages, "chunker")
	chunker := pipeline.Section("chunker")
	require.NotNil(t, chunker)
	assert.Equal(t, 2048, chunker["chunk_size"])
	assert.Equal(t, 512, chunker["overlap"])
}

func TestSettingsService_GetSchedulerConfig(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"updates.auto_update": false,
		"updates.frequency":   "2h",
	}, nil)

	sched := svc.GetSchedulerConfig(context.Background())

	assert.False(t, sched.AutoSync)
	assert.Equal(t, 2*time.Hour, sched.Frequency)
}

func TestSettingsService_GetSchedulerConfig_Defaults(t *testing.T) {
	svc := settingsFixture(nil, nil)

	sched := svc.GetSchedulerConfig(context.Background())

	assert.True(t, sched.AutoSync)
	assert.Equal(t, 24*time.Hour, sched.Frequency)
}

func TestSettingsService_Save_SetFailure(t *testing.T) {
	store := &flakyConfig{ConfigStore: memory.NewConfigStore(), deny: "embedding.provider"}
	svc := NewSettingsService(store, nil)

	base := domain.DefaultSettings()
	err := svc.Save(context.Background(), &base)

	assert.Error(t, err)
	assert.ErrorContains(t, err, "save embedding.provider")
}

func TestSettingsService_Save_SetFailureMidway(t *testing.T) {
	store := &flakyConfig{ConfigStore: memory.NewConfigStore(), deny: "chunking.size"}
	svc := NewSettingsService(store, nil)

	base := domain.DefaultSettings()
	err := svc.Save(context.Background(), &base)

	assert.Error(t, err)
	assert.ErrorContains(t, err, "save chunking.size")
}

func TestSettingsService_SetChunking_SaveError(t *testing.T) {
	store := &flakyConfig{ConfigStore: memory.NewConfigStore(), deny: "chunking.overlap"}
	svc := NewSettingsService(store, nil)

	err := svc.SetChunking(context.Background(), 512, 128)

	assert.Error(t, err)
}

func TestSettingsService_ValidateEmbeddingConfig_NotConfigured(t *testing.T) {
	svc := settingsFixture(nil, &stubValidator{})

	result, err := svc.ValidateEmbeddingConfig(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "not configured")
}

func TestSettingsService_ValidateEmbeddingConfig_Reachable(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"embedding.provider": "ollama",
		"embedding.model":    "nomic-embed-text",
	}, &stubValidator{})

	result, err := svc.ValidateEmbeddingConfig(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, domain.EmbeddingProviderOllama, result.Provider)
	assert.Equal(t, "nomic-embed-text", result.Model)
	assert.Equal(t, 768, result.Dimensions)
}

func TestSettingsService_ValidateEmbeddingConfig_Unreachable(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"embedding.provider": "ollama",
		"embedding.model":    "nomic-embed-text",
	}, &stubValidator{err: assert.AnError})

	result, err := svc.ValidateEmbeddingConfig(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, assert.AnError.Error(), result.Message)
}

func TestSettingsService_ValidateEmbeddingConfig_NoValidator(t *testing.T) {
	svc := settingsFixture(map[string]any{
		"embedding.provider": "ollama",
		"embedding.model":    "nomic-embed-text",
	}, nil)

	result, err := svc.ValidateEmbeddingConfig(context.Background())

	// A nil validator skips the reachability check
	require.NoError(t, err)
	assert.True(t, result.Valid)
}
