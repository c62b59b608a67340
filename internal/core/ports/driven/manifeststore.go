package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// ManifestStore persists per-document ingestion fingerprints. The
// manifest is the record of what has been ingested; sync compares
// against it to skip unchanged files and to find removed ones.
type ManifestStore interface {
	// Get retrieves the manifest entry for a document.
	Get(ctx context.Context, sourceID, documentID string) (*domain.ManifestEntry, error)

	// List returns all manifest entries for a source.
	List(ctx context.Context, sourceID string) ([]domain.ManifestEntry, error)

	// Update stores an entry if the currently recorded content hash
	// matches expectedHash. Pass the empty string when the entry must
	// not exist yet. A mismatch returns domain.ErrConflict, which means
	// another sync touched the document first. No lock is held between
	// a Get and the corresponding Update.
	Update(ctx context.Context, entry domain.ManifestEntry, expectedHash string) error

	// Delete removes the manifest entry for a document.
	Delete(ctx context.Context, sourceID, documentID string) error

	// DeleteBySource removes every manifest entry for a source.
	DeleteBySource(ctx context.Context, sourceID string) error
}
