package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// ExclusionStore persists document exclusions. Sync checks it before
// ingesting a discovered file, so an excluded path stays out of the
// index until its record is removed.
type ExclusionStore interface {
	// Add records an exclusion. Adding an existing ID replaces the
	// earlier record.
	Add(ctx context.Context, exclusion *domain.Exclusion) error

	// Remove deletes an exclusion by ID. Removing a missing ID is a
	// no-op.
	Remove(ctx context.Context, id string) error

	// GetBySourceID returns the source's exclusions ordered by path.
	GetBySourceID(ctx context.Context, sourceID string) ([]domain.Exclusion, error)

	// IsExcluded reports whether a source-relative path has been
	// excluded.
	IsExcluded(ctx context.Context, sourceID, path string) (bool, error)

	// List returns all exclusions ordered by source then path.
	List(ctx context.Context) ([]domain.Exclusion, error)
}
