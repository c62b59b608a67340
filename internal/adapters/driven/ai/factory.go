// Package ai wires embedding provider adapters to the ports the rest
// of the application consumes.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/recall-labs/recall-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/recall-labs/recall-cli/internal/adapters/driven/embedding/openai"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// probeTimeout bounds the connectivity probe so a dead provider cannot
// hang startup or the wizard.
const probeTimeout = 5 * time.Second

// configured reports whether settings name a usable provider.
func configured(settings *domain.EmbeddingSettings) bool {
	return settings != nil && settings.IsConfigured()
}

// InitResult is what Initialise produced: the wired services plus any
// warnings explaining a degraded mode.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if fell back to sync-only mode (no retrieval).
}

// Close releases whichever services were actually built.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
}

// Initialise builds the retrieval half of the pipeline. A missing or
// unreachable embedding provider degrades to sync-only mode with a
// warning instead of failing startup.
func Initialise(settings *domain.EmbeddingSettings, index driven.VectorIndex) *InitResult {
	result := &InitResult{VectorIndex: index}

	if !configured(settings) {
		result.FellBack = true
		result.Warnings = append(result.Warnings,
			"embedding provider not configured; search is disabled. Run 'recall settings wizard' to enable")
		return result
	}

	svc, err := connectEmbedder(settings)
	if err != nil {
		result.FellBack = true
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}

	result.EmbeddingService = svc
	return result
}

// connectEmbedder builds the provider adapter and confirms it answers
// before handing it back. Errors carry a hint at how to fix the
// configuration.
func connectEmbedder(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := newEmbedder(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'recall settings wizard' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'recall settings wizard' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// newEmbedder picks the adapter for the configured provider. A nil
// service with a nil error means no provider is configured.
func newEmbedder(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !configured(settings) {
		return nil, nil
	}

	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		return ollamaEmbedder(settings), nil

	case domain.EmbeddingProviderOpenAI:
		return openaiEmbedder(settings)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// resolveDimensions picks the vector size: an explicit setting wins,
// then the known-model lookup, else zero so the adapter's default applies.
func resolveDimensions(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.DimensionsForModel(settings.Model)
}

func ollamaEmbedder(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewClient(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: resolveDimensions(settings),
		Normalize:  settings.Normalize,
	})
}

func openaiEmbedder(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewClient(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: resolveDimensions(settings),
		Normalize:  settings.Normalize,
	})
}
