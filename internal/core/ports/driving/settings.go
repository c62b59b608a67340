package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the current application settings, with defaults applied
	// for anything not explicitly configured.
	Get(ctx context.Context) (*domain.Settings, error)

	// Save persists the given settings.
	Save(ctx context.Context, settings *domain.Settings) error

	// SetEmbeddingProvider updates the embedding provider configuration.
	// An empty model selects the provider's default. The API key is only
	// required for hosted providers.
	SetEmbeddingProvider(ctx context.Context, provider domain.EmbeddingProvider, model, apiKey string) error

	// SetChunking updates the chunk size and overlap used during ingestion.
	// Returns domain.ErrInvalidConfig if size <= 0 or overlap >= size.
	SetChunking(ctx context.Context, size, overlap int) error

	// SetRetrieval updates retrieval behaviour.
	SetRetrieval(ctx context.Context, maxDocuments int, threshold float64, useReranker bool) error

	// SetDistanceMetric updates the similarity metric used by the vector
	// index. Existing vectors are not re-scored until the next sync.
	SetDistanceMetric(ctx context.Context, metric domain.DistanceMetric) error

	// Validate checks the current settings for consistency without
	// contacting any external service.
	Validate(ctx context.Context) error

	// ValidateEmbeddingConfig verifies that the configured embedding
	// provider is reachable and produces vectors of the expected
	// dimensionality.
	ValidateEmbeddingConfig(ctx context.Context) (*ValidationResult, error)

	// GetDefaults returns the built-in default settings.
	GetDefaults() *domain.Settings
}

// ValidationResult describes the outcome of an embedding configuration check.
type ValidationResult struct {
	Valid      bool
	Provider   domain.EmbeddingProvider
	Model      string
	Dimensions int
	Message    string
}
