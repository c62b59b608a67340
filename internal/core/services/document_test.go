package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

type documentFixture struct {
	documents  *memory.DocumentStore
	sources    *memory.SourceStore
	exclusions *memory.ExclusionStore
	manifests  *memory.ManifestStore
	svc        *DocumentService
}

// newDocumentFixture wires a DocumentService over in-memory stores. The
// vector index is passed through untouched so tests can run without one.
func newDocumentFixture(index driven.VectorIndex) *documentFixture {
	f := &documentFixture{
		documents:  memory.NewDocumentStore(),
		sources:    memory.NewSourceStore(),
		exclusions: memory.NewExclusionStore(),
		manifests:  memory.NewManifestStore(),
	}
	f.svc = NewDocumentService(f.documents, f.sources, f.exclusions, f.manifests, index)
	return f
}

func (f *documentFixture) seedDocument(t *testing.T, doc domain.Document) {
	t.Helper()
	require.NoError(t, f.documents.SaveDocument(context.Background(), &doc))
}

func TestDocumentService_ListBySource_FiltersBySource(t *testing.T) {
	f := newDocumentFixture(nil)
	ctx := context.Background()

	f.seedDocument(t, domain.Document{ID: "doc-1", SourceID: "src-1", Title: "Install Guide"})
	f.seedDocument(t, domain.Document{ID: "doc-2", SourceID: "src-1", Title: "Sync Guide"})
	f.seedDocument(t, domain.Document{ID: "doc-3", SourceID: "src-2", Title: "Changelog"})

	got, err := f.svc.ListBySource(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDocumentService_ListBySource_UnknownSource(t *testing.T) {
	f := newDocumentFixture(nil)

	// Unknown source returns an empty list, not an error
	got, err := f.svc.ListBySource(context.Background(), "no-such-src")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDocumentService_Get_Found(t *testing.T) {
	f := newDocumentFixture(nil)
	f.seedDocument(t, domain.Document{ID: "doc-1", Title: "Welcome Guide"})

	got, err := f.svc.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Welcome Guide", got.Title)
}

func TestDocumentService_Get_Unknown(t *testing.T) {
	f := newDocumentFixture(nil)

	_, err := f.svc.Get(context.Background(), "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_GetContent_JoinsChunks(t *testing.T) {
	f := newDocumentFixture(nil)
	ctx := context.Background()

	f.seedDocument(t, domain.Document{ID: "doc-1"})
	_ = f.documents.SaveChunks(ctx, []domain.Chunk{
		{ID: "c-1", DocumentID: "doc-1", Content: "Install the CLI.", Position: 0},
		{ID: "c-2", DocumentID: "doc-1", Content: "Configure a source.", Position: 1},
	})

	text, err := f.svc.GetContent(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Install the CLI.\nConfigure a source.", text)
}

func TestDocumentService_GetContent_UnsortedChunks(t *testing.T) {
	f := newDocumentFixture(nil)
	ctx := context.Background()

	// Chunks stored out of order must come back in position order
	f.seedDocument(t, domain.Document{ID: "doc-1"})
	_ = f.documents.SaveChunks(ctx, []domain.Chunk{
		{ID: "c-3", DocumentID: "doc-1", Content: "Run the first sync.", Position: 2},
		{ID: "c-1", DocumentID: "doc-1", Content: "Install the CLI.", Position: 0},
		{ID: "c-2", DocumentID: "doc-1", Content: "Configure a source.", Position: 1},
	})

	text, err := f.svc.GetContent(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Install the CLI.\nConfigure a source.\nRun the first sync.", text)
}

func TestDocumentService_GetContent_NoChunks(t *testing.T) {
	f := newDocumentFixture(nil)
	f.seedDocument(t, domain.Document{ID: "doc-1"})

	text, err := f.svc.GetContent(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDocumentService_GetContent_UnknownDocument(t *testing.T) {
	f := newDocumentFixture(nil)

	_, err := f.svc.GetContent(context.Background(), "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_GetDetails_Populated(t *testing.T) {
	f := newDocumentFixture(nil)
	ctx := context.Background()

	_ = f.sources.Save(ctx, domain.Source{ID: "src-1", Name: "My Notes", Type: "filesystem"})
	f.seedDocument(t, domain.Document{
		ID:          "doc-1",
		SourceID:    "src-1",
		Title:       "Welcome Guide",
		Path:        "guides/welcome.md",
		URI:         "/kb/guides/welcome.md",
		Category:    "guides",
		ContentHash: "abc123",
		CreatedAt:   time.Now(),
		Metadata:    map[string]string{"filename": "welcome.md"},
	})
	_ = f.documents.SaveChunks(ctx, []domain.Chunk{{ID: "c-1", DocumentID: "doc-1"}, {ID: "c-2", DocumentID: "doc-1"}})

	got, err := f.svc.GetDetails(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "src-1", got.SourceID)
	assert.Equal(t, "My Notes", got.SourceName)
	assert.Equal(t, "Welcome Guide", got.Title)
	assert.Equal(t, "guides/welcome.md", got.Path)
	assert.Equal(t, domain.Category("guides"), got.Category)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.Equal(t, 2, got.ChunkCount)
	assert.Equal(t, "welcome.md", got.Metadata["filename"])
}

func TestDocumentService_GetDetails_NoChunks(t *testing.T) {
	f := newDocumentFixture(nil)
	f.seedDocument(t, domain.Document{ID: "doc-1", SourceID: "src-1", Title: "Bare"})

	got, err := f.svc.GetDetails(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.ChunkCount)
	// Unknown source leaves the display name empty
	assert.Empty(t, got.SourceName)
}

func TestDocumentService_GetDetails_Unknown(t *testing.T) {
	f := newDocumentFixture(nil)

	_, err := f.svc.GetDetails(context.Background(), "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Exclude_RemovesEverything(t *testing.T) {
	index := memory.NewVectorIndex(domain.MetricCosine)
	f := newDocumentFixture(index)
	ctx := context.Background()

	f.seedDocument(t, domain.Document{
		ID:       "doc-1",
		SourceID: "src-1",
		Path:     "guides/welcome.md",
		URI:      "/kb/guides/welcome.md",
	})
	_ = f.documents.SaveChunks(ctx, []domain.Chunk{{ID: "c-1", DocumentID: "doc-1"}})
	_ = index.Upsert(ctx, []driven.IndexEntry{
		{ChunkID: "c-1", DocumentID: "doc-1", Embedding: []float32{1, 0}},
	})
	require.NoError(t, f.manifests.Update(ctx, domain.ManifestEntry{
		SourceID:    "src-1",
		DocumentID:  "doc-1",
		Path:        "guides/welcome.md",
		ContentHash: "abc123",
	}, ""))

	require.NoError(t, f.svc.Exclude(ctx, "doc-1", "stale guide"))

	// Document, vectors and manifest entry are all gone
	_, err := f.documents.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	indexed, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, indexed)

	_, err = f.manifests.Get(ctx, "src-1", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Exclusion keyed on the source-relative path
	blocked, err := f.exclusions.IsExcluded(ctx, "src-1", "guides/welcome.md")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestDocumentService_Exclude_RecordsReason(t *testing.T) {
	f := newDocumentFixture(nil)
	ctx := context.Background()

	f.seedDocument(t, domain.Document{ID: "doc-1", SourceID: "src-1", Path: "old.md"})

	require.NoError(t, f.svc.Exclude(ctx, "doc-1", "superseded by new.md"))

	recorded, err := f.exclusions.GetBySourceID(ctx, "src-1")
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "doc-1", recorded[0].DocumentID)
	assert.Equal(t, "old.md", recorded[0].Path)
	assert.Equal(t, "superseded by new.md", recorded[0].Reason)
	assert.False(t, recorded[0].ExcludedAt.IsZero())
}

func TestDocumentService_Exclude_Unknown(t *testing.T) {
	f := newDocumentFixture(nil)

	err := f.svc.Exclude(context.Background(), "no-such-doc", "test reason")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Exclude_EmptyReason(t *testing.T) {
	f := newDocumentFixture(nil)
	ctx := context.Background()

	f.seedDocument(t, domain.Document{ID: "doc-1", SourceID: "src-1", Path: "notes.md"})

	require.NoError(t, f.svc.Exclude(ctx, "doc-1", ""))

	_, err := f.documents.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Exclude_NoVectorIndex(t *testing.T) {
	f := newDocumentFixture(nil)
	ctx := context.Background()

	f.seedDocument(t, domain.Document{ID: "doc-1", SourceID: "src-1", Path: "notes.md"})

	// No vector index configured; the exclusion still lands
	require.NoError(t, f.svc.Exclude(ctx, "doc-1", "tidy up"))

	blocked, _ := f.exclusions.IsExcluded(ctx, "src-1", "notes.md")
	assert.True(t, blocked)
}
