package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// SourceStore is the catalogue of configured sources.
type SourceStore interface {
	// Save inserts or updates a source. Implementations stamp
	// CreatedAt on first save and UpdatedAt on every save.
	Save(ctx context.Context, source domain.Source) error

	// Get returns the source with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// Delete removes a source record. Deleting a missing source is a
	// no-op.
	Delete(ctx context.Context, id string) error

	// List returns all configured sources ordered by ID.
	List(ctx context.Context) ([]domain.Source, error)
}
