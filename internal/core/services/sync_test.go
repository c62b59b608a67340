package services

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// scriptedConnector plays back a fixed document list through FullSync.
type scriptedConnector struct {
	sourceID string
	docs     []domain.RawDocument
	readErrs []error
	fatalErr error

	// When set, FullSync signals started and holds the stream open
	// until release is closed.
	started chan struct{}
	release chan struct{}

	closed bool
}

func (m *scriptedConnector) Type() string     { return "scripted" }
func (m *scriptedConnector) SourceID() string { return m.sourceID }
func (m *scriptedConnector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{SupportsValidation: false}
}

func (m *scriptedConnector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	out := make(chan domain.RawDocument)
	problems := make(chan error, len(m.readErrs)+1)

	go func() {
		defer close(out)
		defer close(problems)

		if m.started != nil {
			close(m.started)
		}
		if m.fatalErr != nil {
			problems <- m.fatalErr
			return
		}
		for _, err := range m.readErrs {
			problems <- err
		}
		for _, doc := range m.docs {
			select {
			case <-ctx.Done():
				return
			case out <- doc:
			}
		}
		if m.release != nil {
			<-m.release
		}
	}()

	return out, problems
}

func (m *scriptedConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, errors.New("watch is not scripted")
}

func (m *scriptedConnector) Validate(_ context.Context) error {
	return nil
}

func (m *scriptedConnector) Close() error {
	m.closed = true
	return nil
}

// scriptedFactory hands out scripted connectors by source ID.
type scriptedFactory struct {
	bySource map[string]*scriptedConnector
	buildErr error
}

func newScriptedFactory() *scriptedFactory {
	return &scriptedFactory{bySource: make(map[string]*scriptedConnector)}
}

func (f *scriptedFactory) Create(_ context.Context, source domain.Source) (driven.Connector, error) {
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	if conn, ok := f.bySource[source.ID]; ok {
		return conn, nil
	}
	return nil, errors.New("no scripted connector for source")
}

func (f *scriptedFactory) Register(_ string, _ driven.ConnectorBuilder) {}

func (f *scriptedFactory) SupportedTypes() []string {
	return []string{"scripted"}
}

// verbatimRegistry normalises by taking raw content verbatim, with the
// same deterministic IDs and content hashes the real normalisers use.
type verbatimRegistry struct {
	failPaths map[string]error
}

func (r *verbatimRegistry) Register(_ driven.Normaliser) {}

func (r *verbatimRegistry) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

func (r *verbatimRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if err, ok := r.failPaths[raw.Path]; ok {
		return nil, err
	}

	text := string(raw.Content)
	return &driven.NormaliseResult{Document: domain.Document{
		ID:          domain.NewDocumentID(raw.SourceID, raw.Path),
		SourceID:    raw.SourceID,
		URI:         raw.URI,
		Path:        raw.Path,
		Title:       raw.Path,
		Content:     text,
		ContentHash: domain.ComputeContentHash(text, nil),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}}, nil
}

// wholeDocPipeline emits one chunk spanning the whole document.
type wholeDocPipeline struct {
	err error
}

func (p *wholeDocPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	chunk := domain.Chunk{ID: domain.NewChunkID(doc.ID, 0), DocumentID: doc.ID, Content: doc.Content, EndChar: len(doc.Content)}
	return []domain.Chunk{chunk}, nil
}

// countingEmbedder records how many texts it was asked to embed. Model
// and dims default to "counting"/3 and can be overridden to stand in
// for a different provider.
type countingEmbedder struct {
	mu    stdsync.Mutex
	calls int
	err   error
	model string
	dims  int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls += len(texts)
	err := e.err
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (e *countingEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *countingEmbedder) setErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *countingEmbedder) Dimensions() int {
	if e.dims != 0 {
		return e.dims
	}
	return 3
}

func (e *countingEmbedder) ModelName() string {
	if e.model != "" {
		return e.model
	}
	return "counting"
}

func (e *countingEmbedder) Ping(_ context.Context) error { return nil }
func (e *countingEmbedder) Close() error                 { return nil }

// syncFixture wires an orchestrator over in-memory stores.
type syncFixture struct {
	sources      *memory.SourceStore
	manifests    *memory.ManifestStore
	documents    *memory.DocumentStore
	exclusions   *memory.ExclusionStore
	vectors      *memory.VectorIndex
	embedder     *countingEmbedder
	connectors   *scriptedFactory
	normalisers  *verbatimRegistry
	orchestrator *SyncOrchestrator
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		sources:     memory.NewSourceStore(),
		manifests:   memory.NewManifestStore(),
		documents:   memory.NewDocumentStore(),
		exclusions:  memory.NewExclusionStore(),
		vectors:     memory.NewVectorIndex(domain.MetricCosine),
		embedder:    &countingEmbedder{},
		connectors:  newScriptedFactory(),
		normalisers: &verbatimRegistry{},
	}
	f.orchestrator = NewSyncOrchestrator(
		f.sources, f.manifests, f.documents, f.exclusions,
		f.connectors, f.normalisers, &wholeDocPipeline{},
		f.vectors, f.embedder, 2,
	)
	return f
}

// addSource registers a source and a connector serving the given docs.
func (f *syncFixture) addSource(t *testing.T, sourceID string, docs ...domain.RawDocument) *scriptedConnector {
	t.Helper()
	source := domain.Source{ID: sourceID, Name: "Test", Type: "scripted"}
	require.NoError(t, f.sources.Save(context.Background(), source))

	conn := &scriptedConnector{sourceID: sourceID, docs: docs}
	f.connectors.bySource[sourceID] = conn
	return conn
}

func rawDoc(sourceID, path, content string) domain.RawDocument {
	return domain.RawDocument{
		SourceID: sourceID,
		URI:      "/kb/" + path,
		Path:     path,
		MIMEType: "text/plain",
		Content:  []byte(content),
	}
}

func TestNewSyncOrchestrator(t *testing.T) {
	f := newSyncFixture()

	require.NotNil(t, f.orchestrator)
	assert.Equal(t, 2, f.orchestrator.workers)
	assert.NotNil(t, f.orchestrator.active)
}

func TestNewSyncOrchestrator_DefaultWorkers(t *testing.T) {
	orchestrator := NewSyncOrchestrator(nil, nil, nil, nil, nil, nil, nil, nil, nil, 0)
	assert.Equal(t, DefaultSyncWorkers, orchestrator.workers)
}

func TestSyncOrchestrator_Sync_UnknownSource(t *testing.T) {
	f := newSyncFixture()

	report, err := f.orchestrator.Sync(context.Background(), "nonexistent")

	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorContains(t, err, "get source")
}

func TestSyncOrchestrator_Sync_NoFactory(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1")
	f.orchestrator.connectors = nil

	_, err := f.orchestrator.Sync(context.Background(), "src-1")

	require.Error(t, err)
	assert.ErrorContains(t, err, "create connector")
}

func TestSyncOrchestrator_Sync_FirstRun(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1",
		rawDoc("src-1", "notes/alpha.md", "alpha content"),
		rawDoc("src-1", "notes/beta.md", "beta content"),
		rawDoc("src-1", "guides/gamma.md", "gamma content"),
	)

	ctx := context.Background()
	report, err := f.orchestrator.Sync(ctx, "src-1")

	require.NoError(t, err)
	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, 3, report.ChunksIndexed)
	assert.Empty(t, report.Failed)
	assert.False(t, report.StartedAt.IsZero())
	assert.False(t, report.FinishedAt.IsZero())
	assert.True(t, conn.closed)

	docs, err := f.documents.ListDocuments(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	entries, err := f.manifests.List(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSyncOrchestrator_Sync_UnchangedSkipsEmbedding(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1",
		rawDoc("src-1", "a.md", "content a"),
		rawDoc("src-1", "b.md", "content b"),
	)

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)
	callsAfterFirst := f.embedder.callCount()

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.ChunksIndexed)
	assert.Equal(t, callsAfterFirst, f.embedder.callCount(), "unchanged documents must not be re-embedded")
}

func TestSyncOrchestrator_Sync_ChangedDocumentUpdated(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1",
		rawDoc("src-1", "a.md", "original"),
		rawDoc("src-1", "b.md", "stable"),
	)

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	conn.docs = []domain.RawDocument{
		rawDoc("src-1", "a.md", "revised"),
		rawDoc("src-1", "b.md", "stable"),
	}

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Added)

	docID := domain.NewDocumentID("src-1", "a.md")
	entry, err := f.manifests.Get(ctx, "src-1", docID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComputeContentHash("revised", nil), entry.ContentHash)

	doc, err := f.documents.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "revised", doc.Content)
}

func TestSyncOrchestrator_Sync_RemovedDocument(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1",
		rawDoc("src-1", "keep.md", "kept"),
		rawDoc("src-1", "gone.md", "doomed"),
	)

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	conn.docs = []domain.RawDocument{
		rawDoc("src-1", "keep.md", "kept"),
	}

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 1, report.Skipped)

	goneID := domain.NewDocumentID("src-1", "gone.md")
	_, err = f.documents.GetDocument(ctx, goneID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.manifests.Get(ctx, "src-1", goneID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncOrchestrator_Sync_ExcludedPathSkipped(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1",
		rawDoc("src-1", "wanted.md", "wanted"),
		rawDoc("src-1", "secret.md", "do not index"),
	)

	ctx := context.Background()
	require.NoError(t, f.exclusions.Add(ctx, &domain.Exclusion{
		ID:       "ex-1",
		SourceID: "src-1",
		Path:     "secret.md",
	}))

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	assert.Empty(t, report.Failed)

	_, err = f.documents.GetDocument(ctx, domain.NewDocumentID("src-1", "secret.md"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncOrchestrator_Sync_ExclusionRemovesIndexedCopy(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "indexed once"))

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	// Excluding after the fact: the next sync treats the path as gone.
	require.NoError(t, f.exclusions.Add(ctx, &domain.Exclusion{
		ID:       "ex-1",
		SourceID: "src-1",
		Path:     "doc.md",
	}))

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed)
	_, err = f.documents.GetDocument(ctx, domain.NewDocumentID("src-1", "doc.md"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncOrchestrator_Sync_NormaliseFailureReported(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1",
		rawDoc("src-1", "good.md", "fine"),
		rawDoc("src-1", "bad.md", "broken"),
	)
	f.normalisers.failPaths = map[string]error{
		"bad.md": domain.ErrParse,
	}

	ctx := context.Background()
	report, err := f.orchestrator.Sync(ctx, "src-1")

	require.NoError(t, err, "per-document failures must not abort the run")
	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "bad.md", report.Failed[0].Path)
	assert.Contains(t, report.Failed[0].Reason, "normalise:")
}

func TestSyncOrchestrator_Sync_EmbedFailureKeepsPreviousVersion(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "first version"))

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	conn.docs = []domain.RawDocument{rawDoc("src-1", "doc.md", "second version")}
	f.embedder.setErr(domain.ErrEmbeddingUnavailable)

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Reason, "embed:")
	assert.Equal(t, 0, report.Removed, "a failed document must not be reconciled away")

	// The first version stays indexed and the manifest still records
	// its hash, so the change is retried on the next run.
	docID := domain.NewDocumentID("src-1", "doc.md")
	entry, err := f.manifests.Get(ctx, "src-1", docID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComputeContentHash("first version", nil), entry.ContentHash)

	doc, err := f.documents.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "first version", doc.Content)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	f.embedder.setErr(nil)
	report, err = f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
}

func TestSyncOrchestrator_Sync_ReadErrorDoesNotRemove(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1",
		rawDoc("src-1", "ok.md", "readable"),
		rawDoc("src-1", "locked.md", "unreadable later"),
	)

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	conn.docs = []domain.RawDocument{rawDoc("src-1", "ok.md", "readable")}
	conn.readErrs = []error{&domain.RawDocumentError{
		SourceID: "src-1",
		Path:     "locked.md",
		Err:      errors.New("permission denied"),
	}}

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Reason, "read:")
	assert.Equal(t, 0, report.Removed)

	// The unreadable file is still on disk; its indexed copy survives.
	_, err = f.documents.GetDocument(ctx, domain.NewDocumentID("src-1", "locked.md"))
	assert.NoError(t, err)
}

func TestSyncOrchestrator_Sync_ConnectorErrorAborts(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))
	conn.fatalErr = errors.New("root directory vanished")

	report, err := f.orchestrator.Sync(context.Background(), "src-1")

	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorContains(t, err, "connector error")
}

func TestSyncOrchestrator_Sync_AbortedRunDoesNotRemove(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	// A walk that aborts before streaming anything must not treat the
	// unseen manifest entries as removed files.
	conn.docs = nil
	conn.fatalErr = errors.New("walk failed")

	_, err = f.orchestrator.Sync(ctx, "src-1")
	require.Error(t, err)

	_, err = f.documents.GetDocument(ctx, domain.NewDocumentID("src-1", "doc.md"))
	assert.NoError(t, err)

	entries, err := f.manifests.List(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSyncOrchestrator_Sync_Cancelled(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.orchestrator.Sync(ctx, "src-1")

	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncOrchestrator_Sync_AlreadyRunning(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))
	conn.started = make(chan struct{})
	conn.release = make(chan struct{})

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.orchestrator.Sync(ctx, "src-1")
	}()

	<-conn.started

	_, err := f.orchestrator.Sync(ctx, "src-1")
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(conn.release)
	<-done

	// The claim is released once the run finishes.
	status, err := f.orchestrator.Status(ctx, "src-1")
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestSyncOrchestrator_Status_Idle(t *testing.T) {
	f := newSyncFixture()

	status, err := f.orchestrator.Status(context.Background(), "src-1")

	require.NoError(t, err)
	assert.Equal(t, "src-1", status.SourceID)
	assert.False(t, status.Running)
	assert.Equal(t, 0, status.DocumentsProcessed)
}

func TestSyncOrchestrator_Status_DuringRun(t *testing.T) {
	f := newSyncFixture()
	conn := f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))
	conn.started = make(chan struct{})
	conn.release = make(chan struct{})

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.orchestrator.Sync(ctx, "src-1")
	}()

	<-conn.started

	status, err := f.orchestrator.Status(ctx, "src-1")
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, "src-1", status.SourceID)

	close(conn.release)
	<-done
}

func TestSyncOrchestrator_SyncAll(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1", rawDoc("src-1", "one.md", "content one"))
	f.addSource(t, "src-2", rawDoc("src-2", "two.md", "content two"))

	reports, err := f.orchestrator.SyncAll(context.Background())

	require.NoError(t, err)
	require.Len(t, reports, 2)
	total := 0
	for _, report := range reports {
		total += report.Added
	}
	assert.Equal(t, 2, total)
}

func TestSyncOrchestrator_SyncAll_OneSourceFails(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1", rawDoc("src-1", "one.md", "content one"))

	// src-2 has no connector configured, so its run fails outright.
	source := domain.Source{ID: "src-2", Name: "Broken", Type: "scripted"}
	require.NoError(t, f.sources.Save(context.Background(), source))

	reports, err := f.orchestrator.SyncAll(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "src-2")
	require.Len(t, reports, 1)
	assert.Equal(t, "src-1", reports[0].SourceID)
}

func TestSyncOrchestrator_Sync_NoEmbedder(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))
	f.orchestrator.embedder = nil
	f.orchestrator.vectors = nil

	ctx := context.Background()
	report, err := f.orchestrator.Sync(ctx, "src-1")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 0, report.ChunksIndexed)

	// Documents and chunks are still stored for later indexing.
	doc, err := f.documents.GetDocument(ctx, domain.NewDocumentID("src-1", "doc.md"))
	require.NoError(t, err)
	chunks, err := f.documents.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestSyncOrchestrator_Sync_EmbedderConfiguredLater(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))
	f.orchestrator.embedder = nil

	ctx := context.Background()
	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	// A provider arrives after the fact. The corpus was ingested
	// without vectors, so an unchanged file must still be re-indexed.
	f.orchestrator.embedder = f.embedder

	report, err = f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.ChunksIndexed)
	assert.Equal(t, 1, f.embedder.callCount())

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// With the vectors landed, the next run is a plain skip.
	report, err = f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, f.embedder.callCount())
}

func TestSyncOrchestrator_Sync_ModelChangeReindexes(t *testing.T) {
	f := newSyncFixture()
	f.addSource(t, "src-1", rawDoc("src-1", "doc.md", "content"))

	ctx := context.Background()
	_, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)

	// Same content under a different model: the indexed vectors no
	// longer match what queries will be embedded with.
	replacement := &countingEmbedder{model: "replacement", dims: 4}
	f.orchestrator.embedder = replacement

	report, err := f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, replacement.callCount())

	docID := domain.NewDocumentID("src-1", "doc.md")
	entry, err := f.manifests.Get(ctx, "src-1", docID)
	require.NoError(t, err)
	assert.True(t, entry.EmbeddedWith("replacement", 4))

	report, err = f.orchestrator.Sync(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, replacement.callCount())
}

func TestSyncOrchestrator_Sync_ManyDocumentsThroughPool(t *testing.T) {
	f := newSyncFixture()

	docs := make([]domain.RawDocument, 20)
	for i := range docs {
		path := "doc-" + string(rune('a'+i)) + ".md"
		docs[i] = rawDoc("src-1", path, "content for "+path)
	}
	f.addSource(t, "src-1", docs...)

	ctx := context.Background()
	report, err := f.orchestrator.Sync(ctx, "src-1")

	require.NoError(t, err)
	assert.Equal(t, 20, report.Added)
	assert.Equal(t, 20, report.ChunksIndexed)

	count, err := f.vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}
