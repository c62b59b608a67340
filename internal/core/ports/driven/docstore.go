package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// DocumentStore persists documents together with their chunk sets.
type DocumentStore interface {
	// SaveDocument inserts or overwrites a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks replaces the owning document's chunk set with the
	// given one. Re-chunking a shrunk document leaves no stale tail
	// behind. All chunks must belong to the same document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument returns the document with the given ID, or
	// domain.ErrNotFound.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns the document's chunks ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk returns a single chunk by ID, or domain.ErrNotFound.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document along with its chunk set.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns the source's documents ordered by path.
	ListDocuments(ctx context.Context, sourceID string) ([]domain.Document, error)

	// ListAllDocuments returns every stored document ordered by path.
	ListAllDocuments(ctx context.Context) ([]domain.Document, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}
