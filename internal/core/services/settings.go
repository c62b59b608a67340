package services

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// Keys under which settings live in the config store.
//
//nolint:gosec // G101: key names, not credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedNormalize = "embedding.normalize"

	keyChunkSize    = "chunking.size"
	keyChunkOverlap = "chunking.overlap"

	keyRetrievalMax    = "retrieval.max_documents"
	keyRetrievalThresh = "retrieval.similarity_threshold"
	keyRetrievalRerank = "retrieval.use_reranker"

	keyVectorPath   = "vector_index.path"
	keyVectorMetric = "vector_index.metric"

	keyUpdatesAuto = "updates.auto_update"
	keyUpdatesFreq = "updates.frequency"

	keySyncWorkers = "sync.workers"
)

// SettingsService reads and writes application settings through the
// config store, layering defaults over whatever is stored.
type SettingsService struct {
	config    driven.ConfigStore
	validator driven.AIConfigValidator
}

// NewSettingsService builds the settings service. The validator may be
// nil; reachability checks are then skipped.
func NewSettingsService(config driven.ConfigStore, validator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		config:    config,
		validator: validator,
	}
}

// Get assembles the current settings, filling unset keys from the
// defaults.
func (s *SettingsService) Get(_ context.Context) (*domain.Settings, error) {
	base := domain.DefaultSettings()

	cfg := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, base.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, base.Embedding.Model),
			BaseURL:    s.config.GetString(keyEmbedBaseURL), // no default, cloud providers leave it empty
			APIKey:     s.config.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, base.Embedding.Dimensions),
			Normalize:  s.getBool(keyEmbedNormalize, base.Embedding.Normalize),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, base.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, base.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			MaxDocuments:        s.getInt(keyRetrievalMax, base.Retrieval.MaxDocuments),
			SimilarityThreshold: s.getFloat(keyRetrievalThresh, base.Retrieval.SimilarityThreshold),
			UseReranker:         s.getBool(keyRetrievalRerank, base.Retrieval.UseReranker),
		},
		VectorIndex: domain.IndexSettings{
			Path:   s.config.GetString(keyVectorPath),
			Metric: s.getMetric(base.VectorIndex.Metric),
		},
		Updates: domain.UpdateSettings{
			AutoUpdate: s.getBool(keyUpdatesAuto, base.Updates.AutoUpdate),
			Frequency:  s.getDuration(keyUpdatesFreq, base.Updates.Frequency),
		},
		Sync: domain.SyncSettings{
			Workers: s.getInt(keySyncWorkers, base.Sync.Workers),
		},
	}

	return cfg, nil
}

// Save writes every settings field to the config store. An empty API
// key is skipped so a stored key survives a round-trip through Get.
func (s *SettingsService) Save(_ context.Context, settings *domain.Settings) error {
	writes := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedNormalize, settings.Embedding.Normalize},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalMax, settings.Retrieval.MaxDocuments},
		{keyRetrievalThresh, settings.Retrieval.SimilarityThreshold},
		{keyRetrievalRerank, settings.Retrieval.UseReranker},
		{keyVectorPath, settings.VectorIndex.Path},
		{keyVectorMetric, settings.VectorIndex.Metric.String()},
		{keyUpdatesAuto, settings.Updates.AutoUpdate},
		{keyUpdatesFreq, settings.Updates.Frequency.String()},
		{keySyncWorkers, settings.Sync.Workers},
	}
	if settings.Embedding.APIKey != "" {
		writes = append(writes, struct {
			key   string
			value any
		}{keyEmbedAPIKey, settings.Embedding.APIKey})
	}

	for _, write := range writes {
		if err := s.config.Set(write.key, write.value); err != nil {
			return fmt.Errorf("save %s: %w", write.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider switches the embedding provider and reconciles
// the model, base URL, API key and vector dimensions to match it.
func (s *SettingsService) SetEmbeddingProvider(ctx context.Context, provider domain.EmbeddingProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider %q", domain.ErrInvalidConfig, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfig, provider)
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.APIKey = apiKey

	if model == "" {
		model = domain.DefaultModelFor(provider)
	}
	if model != "" {
		settings.Embedding.Model = model
	}

	if provider.IsLocal() {
		settings.Embedding.BaseURL = cmp.Or(settings.Embedding.BaseURL, "http://localhost:11434")
	} else {
		// Cloud providers talk to their fixed public endpoint.
		settings.Embedding.BaseURL = ""
	}

	if dims := domain.DimensionsForModel(settings.Embedding.Model); dims > 0 {
		settings.Embedding.Dimensions = dims
	}

	return s.Save(ctx, settings)
}

// SetChunking updates the chunk size and overlap used during ingestion.
func (s *SettingsService) SetChunking(ctx context.Context, size, overlap int) error {
	chunking := domain.ChunkingSettings{Size: size, Overlap: overlap}
	if err := chunking.Validate(); err != nil {
		return err
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}

	settings.Chunking = chunking

	return s.Save(ctx, settings)
}

// SetRetrieval updates retrieval behaviour.
func (s *SettingsService) SetRetrieval(ctx context.Context, maxDocuments int, threshold float64, useReranker bool) error {
	if maxDocuments <= 0 {
		return fmt.Errorf("%w: max documents must be positive, got %d", domain.ErrInvalidConfig, maxDocuments)
	}
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: similarity threshold must be between 0 and 1, got %g",
			domain.ErrInvalidConfig, threshold)
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}

	settings.Retrieval = domain.RetrievalSettings{
		MaxDocuments:        maxDocuments,
		SimilarityThreshold: threshold,
		UseReranker:         useReranker,
	}

	return s.Save(ctx, settings)
}

// SetDistanceMetric updates the similarity metric used by the vector index.
// Existing vectors are not re-scored until the next sync.
func (s *SettingsService) SetDistanceMetric(ctx context.Context, metric domain.DistanceMetric) error {
	if !metric.IsValid() {
		return fmt.Errorf("%w: invalid distance metric %q", domain.ErrInvalidConfig, metric)
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}

	settings.VectorIndex.Metric = metric

	return s.Save(ctx, settings)
}

// Validate checks the current settings for consistency without contacting
// any external service.
func (s *SettingsService) Validate(ctx context.Context) error {
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}

	if err := settings.Chunking.Validate(); err != nil {
		return err
	}

	if settings.Retrieval.MaxDocuments <= 0 {
		return fmt.Errorf("%w: max documents must be positive, got %d",
			domain.ErrInvalidConfig, settings.Retrieval.MaxDocuments)
	}
	if settings.Retrieval.SimilarityThreshold < 0 || settings.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold must be between 0 and 1, got %g",
			domain.ErrInvalidConfig, settings.Retrieval.SimilarityThreshold)
	}

	if !settings.VectorIndex.Metric.IsValid() {
		return fmt.Errorf("%w: invalid distance metric %q",
			domain.ErrInvalidConfig, settings.VectorIndex.Metric)
	}

	if settings.Updates.AutoUpdate && settings.Updates.Frequency <= 0 {
		return fmt.Errorf("%w: update frequency must be positive when auto-update is on",
			domain.ErrInvalidConfig)
	}

	if settings.Sync.Workers <= 0 {
		return fmt.Errorf("%w: sync workers must be positive, got %d",
			domain.ErrInvalidConfig, settings.Sync.Workers)
	}

	// A partially configured provider is a misconfiguration; fully absent
	// is fine and means sync-only mode
	if settings.Embedding.Provider != "" && !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrInvalidConfig, settings.Embedding.Provider)
	}
	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: %s requires an API key",
			domain.ErrInvalidConfig, settings.Embedding.Provider)
	}

	return nil
}

// ValidateEmbeddingConfig verifies the configured embedding provider is
// reachable. Never returns an error for an unreachable provider - the
// outcome lands in the result so callers can render it.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) (*driving.ValidationResult, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := &driving.ValidationResult{
		Provider: settings.Embedding.Provider,
		Model:    settings.Embedding.Model,
	}

	if !settings.Embedding.IsConfigured() {
		result.Message = "embedding provider not configured, run 'recall settings wizard'"
		return result, nil
	}

	if s.validator != nil {
		if err := s.validator.ValidateEmbedding(&settings.Embedding); err != nil {
			result.Message = err.Error()
			return result, nil
		}
	}

	result.Valid = true
	result.Dimensions = settings.Embedding.Dimensions
	if result.Dimensions == 0 {
		result.Dimensions = domain.DimensionsForModel(settings.Embedding.Model)
	}
	result.Message = fmt.Sprintf("%s is reachable", settings.Embedding.Provider.Description())

	return result, nil
}

// GetDefaults returns the built-in default settings.
func (s *SettingsService) GetDefaults() *domain.Settings {
	d := domain.DefaultSettings()
	return &d
}

// GetPipelineSpec returns the post-processor pipeline derived from the
// chunking settings.
func (s *SettingsService) GetPipelineSpec(ctx context.Context) domain.PipelineSpec {
	pipeline := domain.DefaultPipelineSpec()

	settings, err := s.Get(ctx)
	if err != nil {
		return pipeline
	}

	if chunker := pipeline.Section("chunker"); chunker != nil {
		chunker["chunk_size"] = settings.Chunking.Size
		chunker["overlap"] = settings.Chunking.Overlap
	}

	return pipeline
}

// GetSchedulerConfig returns the scheduler configuration. The
// knowledge-sync task follows the update settings.
func (s *SettingsService) GetSchedulerConfig(ctx context.Context) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()

	settings, err := s.Get(ctx)
	if err != nil {
		return cfg
	}

	cfg.AutoSync = settings.Updates.AutoUpdate
	if settings.Updates.Frequency > 0 {
		cfg.Frequency = settings.Updates.Frequency
	}

	return cfg
}

// Typed reads with fallbacks. A key that was never stored falls back;
// an explicitly stored zero value is respected.

func (s *SettingsService) getString(key, fallback string) string {
	return cmp.Or(s.config.GetString(key), fallback)
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if _, ok := s.config.Get(key); !ok {
		return fallback
	}
	return s.config.GetInt(key)
}

func (s *SettingsService) getFloat(key string, fallback float64) float64 {
	if _, ok := s.config.Get(key); !ok {
		return fallback
	}
	return s.config.GetFloat(key)
}

func (s *SettingsService) getBool(key string, fallback bool) bool {
	if _, ok := s.config.Get(key); !ok {
		return fallback
	}
	return s.config.GetBool(key)
}

func (s *SettingsService) getProvider(key string, fallback domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.config.GetString(key))
	if !provider.IsValid() {
		return fallback
	}
	return provider
}

func (s *SettingsService) getMetric(fallback domain.DistanceMetric) domain.DistanceMetric {
	metric := domain.DistanceMetric(s.config.GetString(keyVectorMetric))
	if !metric.IsValid() {
		return fallback
	}
	return metric
}

func (s *SettingsService) getDuration(key string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(s.config.GetString(key))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
