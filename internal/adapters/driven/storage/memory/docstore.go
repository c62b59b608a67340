package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents and chunk sets in maps guarded by a
// RWMutex. Chunks are sorted by position when saved, and a chunk ID index keeps
// GetChunk from scanning every document.
type DocumentStore struct {
	mu         sync.RWMutex
	docs       map[string]domain.Document
	chunkSets  map[string][]domain.Chunk
	chunkOwner map[string]string
}

// NewDocumentStore returns an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:       make(map[string]domain.Document),
		chunkSets:  make(map[string][]domain.Chunk),
		chunkOwner: make(map[string]string),
	}
}

// SaveDocument inserts or overwrites a document record.
func (ds *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[doc.ID] = *doc
	return nil
}

// SaveChunks replaces the document's chunk set. All chunks must belong
// to the same document; re-chunking a shrunk document leaves no stale
// tail behind.
func (ds *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	owner := chunks[0].DocumentID
	ds.dropChunks(owner)

	stored := slices.Clone(chunks)
	slices.SortFunc(stored, func(a, b domain.Chunk) int { return cmp.Compare(a.Position, b.Position) })

	ds.chunkSets[owner] = stored
	for _, chunk := range stored {
		ds.chunkOwner[chunk.ID] = owner
	}
	return nil
}

// dropChunks forgets a document's chunks and their index entries.
// Caller holds the write lock.
func (ds *DocumentStore) dropChunks(owner string) {
	for _, chunk := range ds.chunkSets[owner] {
		delete(ds.chunkOwner, chunk.ID)
	}
	delete(ds.chunkSets, owner)
}

// GetDocument returns the document with the given ID.
func (ds *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	doc, ok := ds.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks retrieves the document's chunks ordered by position.
func (ds *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	chunks := slices.Clone(ds.chunkSets[documentID])
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	return chunks, nil
}

// GetChunk looks a chunk up through the chunk ID index.
func (ds *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	owner, ok := ds.chunkOwner[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, chunk := range ds.chunkSets[owner] {
		if chunk.ID == id {
			return &chunk, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument removes a document along with its chunk set.
func (ds *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, id)
	ds.dropChunks(id)
	return nil
}

// ListDocuments returns the source's documents ordered by path.
func (ds *DocumentStore) ListDocuments(_ context.Context, sourceID string) ([]domain.Document, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	listed := make([]domain.Document, 0)
	for _, d := range ds.docs {
		if d.SourceID == sourceID {
			listed = append(listed, d)
		}
	}
	orderByPath(listed)
	return listed, nil
}

// ListAllDocuments returns every stored document ordered by path.
func (ds *DocumentStore) ListAllDocuments(_ context.Context) ([]domain.Document, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	listed := make([]domain.Document, 0, len(ds.docs))
	for _, doc := range ds.docs {
		listed = append(listed, doc)
	}
	orderByPath(listed)
	return listed, nil
}

func orderByPath(docs []domain.Document) {
	slices.SortFunc(docs, func(a, b domain.Document) int { return strings.Compare(a.Path, b.Path) })
}

// CountChunks returns the total number of stored chunks.
func (ds *DocumentStore) CountChunks(_ context.Context) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	total := 0
	for _, chunks := range ds.chunkSets {
		total += len(chunks)
	}
	return total, nil
}
