package services

import (
	"context"
	"fmt"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

var _ driving.SourceService = (*SourceService)(nil)

// SourceService owns the lifecycle of source configurations, including
// the cascade that removes a source's indexed data.
type SourceService struct {
	sources    driven.SourceStore
	documents  driven.DocumentStore
	manifests  driven.ManifestStore
	exclusions driven.ExclusionStore
	vectors    driven.VectorIndex
	connectors driving.ConnectorRegistry
}

// NewSourceService creates a new source service. The vector index is
// optional - if nil, Remove skips the vector cleanup.
func NewSourceService(sources driven.SourceStore, documents driven.DocumentStore,
	manifests driven.ManifestStore, exclusions driven.ExclusionStore,
	vectors driven.VectorIndex, connectors driving.ConnectorRegistry) *SourceService {
	return &SourceService{
		sources:    sources,
		documents:  documents,
		manifests:  manifests,
		exclusions: exclusions,
		vectors:    vectors,
		connectors: connectors,
	}
}

// Add stores a new source after checking its ID is free.
func (s *SourceService) Add(ctx context.Context, source domain.Source) error {
	if source.ID == "" {
		return fmt.Errorf("%w: source ID is required", domain.ErrInvalidInput)
	}
	if current, err := s.sources.Get(ctx, source.ID); err == nil && current != nil {
		return fmt.Errorf("%w: source %s", domain.ErrAlreadyExists, source.ID)
	}

	source.UpdatedAt = time.Now()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = source.UpdatedAt
	}

	return s.sources.Save(ctx, source)
}

// Get loads one source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	return s.sources.Get(ctx, id)
}

// List reports every configured source.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	return s.sources.List(ctx)
}

// Update rewrites a stored source, preserving its creation time.
func (s *SourceService) Update(ctx context.Context, source domain.Source) error {
	if source.ID == "" {
		return fmt.Errorf("%w: source ID is required", domain.ErrInvalidInput)
	}
	current, err := s.sources.Get(ctx, source.ID)
	if err != nil {
		return err
	}

	source.CreatedAt = current.CreatedAt
	source.UpdatedAt = time.Now()

	return s.sources.Save(ctx, source)
}

// Remove deletes a source and everything indexed from it: documents,
// chunks, vectors, manifest entries and exclusions.
func (s *SourceService) Remove(ctx context.Context, id string) error {
	if _, err := s.sources.Get(ctx, id); err != nil {
		return err
	}

	if docs, err := s.documents.ListDocuments(ctx, id); err == nil {
		for _, doc := range docs {
			if s.vectors != nil {
				//nolint:errcheck // Continue cleanup past individual failures
				_ = s.vectors.DeleteByDocument(ctx, doc.ID)
			}
			//nolint:errcheck // Continue cleanup past individual failures
			_ = s.documents.DeleteDocument(ctx, doc.ID)
		}
	}

	//nolint:errcheck // Continue cleanup past individual failures
	_ = s.manifests.DeleteBySource(ctx, id)

	if excluded, err := s.exclusions.GetBySourceID(ctx, id); err == nil {
		for _, exclusion := range excluded {
			//nolint:errcheck // Continue cleanup past individual failures
			_ = s.exclusions.Remove(ctx, exclusion.ID)
		}
	}

	return s.sources.Delete(ctx, id)
}

// ValidateConfig checks config against the connector type's declared keys.
func (s *SourceService) ValidateConfig(_ context.Context, connectorType string, config map[string]string) error {
	if s.connectors == nil {
		return fmt.Errorf("%w: no connector registry configured", domain.ErrNotImplemented)
	}
	return s.connectors.ValidateConfig(connectorType, config)
}
