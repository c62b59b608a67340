package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// SourceService manages the catalogue of configured sources.
type SourceService interface {
	// Add registers a new source. A source without an ID is rejected
	// with domain.ErrInvalidInput, a duplicate ID with
	// domain.ErrAlreadyExists.
	Add(ctx context.Context, source domain.Source) error

	// Get returns the source with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// List returns every configured source ordered by ID.
	List(ctx context.Context) ([]domain.Source, error)

	// Update replaces an existing source's configuration, keeping its
	// original CreatedAt.
	Update(ctx context.Context, source domain.Source) error

	// Remove deletes a source and everything indexed from it:
	// documents, chunks, vectors, manifest entries and exclusions.
	Remove(ctx context.Context, id string) error

	// ValidateConfig checks a config map against the named connector
	// type's required fields before any source is created from it.
	ValidateConfig(ctx context.Context, connectorType string, config map[string]string) error
}
