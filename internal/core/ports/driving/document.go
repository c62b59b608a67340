package driving

import (
	"context"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// DocumentService exposes the indexed documents of a source: browsing
// them, reading their content back out of the chunk store, and pruning
// ones that should never have been ingested.
type DocumentService interface {
	// ListBySource returns the source's documents ordered by path.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error)

	// Get returns the document with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent reassembles the document text from its stored chunks,
	// in position order.
	GetContent(ctx context.Context, documentID string) (string, error)

	// GetDetails returns the display view of a document, resolving the
	// source name and counting chunks.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Exclude records the document's path as excluded, then drops its
	// vectors, manifest entry, and stored record. The path stays out of
	// the index on later syncs.
	Exclude(ctx context.Context, documentID, reason string) error

	// Open launches the original file in the platform's default
	// application.
	Open(ctx context.Context, documentID string) error
}

// DocumentDetails is the display view of one indexed document.
type DocumentDetails struct {
	ID         string
	SourceID   string
	SourceName string

	Title string

	// Path is source-relative; URI is the absolute location on disk.
	Path string
	URI  string

	Category domain.Category

	// ContentHash fingerprints the content as of the last sync.
	ContentHash string
	ChunkCount  int

	CreatedAt time.Time
	UpdatedAt time.Time

	// Metadata carries the parsed front matter fields.
	Metadata map[string]string
}
