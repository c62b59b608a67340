package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// DefaultSyncWorkers is the worker pool size when sync.workers is unset.
const DefaultSyncWorkers = 4

var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates document ingestion. It streams documents
// from a source's connector, normalises and chunks them, embeds changed
// content and reconciles the vector index against the manifest.
type SyncOrchestrator struct {
	sources     driven.SourceStore
	manifests   driven.ManifestStore
	documents   driven.DocumentStore
	exclusions  driven.ExclusionStore
	connectors  driven.ConnectorFactory
	normalisers driven.NormaliserRegistry
	processors  driven.PostProcessorPipeline
	vectors     driven.VectorIndex
	embedder    driven.EmbeddingService
	workers     int

	mu     sync.RWMutex
	active map[string]*syncRun
}

// NewSyncOrchestrator creates a new sync orchestrator. The vector index
// and embedder are optional - if nil, documents are still ingested but
// nothing is embedded or indexed for retrieval. A workers value below
// one falls back to DefaultSyncWorkers.
func NewSyncOrchestrator(sources driven.SourceStore, manifests driven.ManifestStore, documents driven.DocumentStore,
	exclusions driven.ExclusionStore, connectors driven.ConnectorFactory, normalisers driven.NormaliserRegistry,
	processors driven.PostProcessorPipeline, vectors driven.VectorIndex, embedder driven.EmbeddingService,
	workers int) *SyncOrchestrator {
	if workers < 1 {
		workers = DefaultSyncWorkers
	}
	return &SyncOrchestrator{
		sources:     sources,
		manifests:   manifests,
		documents:   documents,
		exclusions:  exclusions,
		connectors:  connectors,
		normalisers: normalisers,
		processors:  processors,
		vectors:     vectors,
		embedder:    embedder,
		workers:     workers,
		active:      make(map[string]*syncRun),
	}
}

// Sync ingests one source and reports what changed. Per-document
// failures are collected into the report; only errors that stop the
// whole run are returned as errors.
func (o *SyncOrchestrator) Sync(ctx context.Context, sourceID string) (*domain.IngestionReport, error) {
	// An unknown source ID fails before the source is claimed.
	source, err := o.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	// Two concurrent runs over the same manifest would race each
	// other's removal reconciliation, so the source is claimed first.
	run, err := o.beginRun(sourceID)
	if err != nil {
		return nil, err
	}
	defer o.endRun(sourceID)

	if o.connectors == nil {
		return nil, errors.New("create connector: connector factory not configured")
	}
	connector, err := o.connectors.Create(ctx, *source)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if connector.Capabilities().SupportsValidation {
		if err := connector.Validate(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
		}
	}

	logger.Info("Syncing source %s", sourceID)

	incoming, errCh := connector.FullSync(ctx)
	if err := o.processDocuments(ctx, source, incoming, errCh, run); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Remove documents whose files are gone. Only reached when the
	// walk completed: an aborted walk must not delete unseen entries.
	if err := o.reconcileRemovals(ctx, sourceID, run); err != nil {
		return nil, err
	}

	report := run.finish()
	logger.Info("Sync complete for %s: %d added, %d updated, %d skipped, %d removed, %d failed",
		sourceID, report.Added, report.Updated, report.Skipped, report.Removed, len(report.Failed))
	return report, nil
}

// SyncAll ingests every configured source. Reports are returned for the
// sources that ran; per-source run errors are joined.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) ([]domain.IngestionReport, error) {
	configured, err := o.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	var reports []domain.IngestionReport
	var errs []error
	for _, source := range configured {
		report, err := o.Sync(ctx, source.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", source.ID, err))
			continue
		}
		reports = append(reports, *report)
	}

	return reports, errors.Join(errs...)
}

// Status returns live progress for a source.
func (o *SyncOrchestrator) Status(_ context.Context, sourceID string) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if run, ok := o.active[sourceID]; ok {
		return run.snapshot(), nil
	}

	// Idle, nothing claimed this source
	return &driving.SyncStatus{SourceID: sourceID}, nil
}

// processDocuments fans the connector's document stream out to the
// worker pool and drains the error channel. Read failures for single
// documents arrive as *domain.RawDocumentError and are recorded without
// stopping the walk; any other connector error aborts the run.
func (o *SyncOrchestrator) processDocuments(ctx context.Context, source *domain.Source,
	incoming <-chan domain.RawDocument, errCh <-chan error, run *syncRun) error {
	work := make(chan domain.RawDocument)

	var wg sync.WaitGroup
	for range o.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range work {
				o.ingestOne(ctx, source, raw, run)
			}
		}()
	}

	var runErr error

feed:
	for incoming != nil || errCh != nil {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			var docErr *domain.RawDocumentError
			if errors.As(err, &docErr) {
				// The file is still on disk, so its last indexed
				// version must survive removal reconciliation.
				run.saw(domain.NewDocumentID(source.ID, docErr.Path))
				run.fail(docErr.Path, "read", docErr.Err)
				continue
			}
			runErr = fmt.Errorf("connector error: %w", err)
			break feed

		case raw, ok := <-incoming:
			if !ok {
				incoming = nil
				continue
			}
			select {
			case work <- raw:
			case <-ctx.Done():
				runErr = ctx.Err()
				break feed
			}
		}
	}

	close(work)
	wg.Wait()
	return runErr
}

// ingestOne runs the per-document pipeline: exclusion check, normalise,
// manifest compare, chunk, embed, index, manifest update. Failures are
// recorded on the run and never abort the sync.
//
//nolint:gocyclo // Pipeline orchestration with sequential steps
func (o *SyncOrchestrator) ingestOne(ctx context.Context, source *domain.Source, raw domain.RawDocument, run *syncRun) {
	if ctx.Err() != nil {
		return
	}
	docID := domain.NewDocumentID(source.ID, raw.Path)

	// 1. CHECK EXCLUSION. Excluded paths are not marked as seen, so a
	// previously indexed copy is cleaned up by removal reconciliation.
	excluded, err := o.exclusions.IsExcluded(ctx, source.ID, raw.Path)
	if err != nil {
		run.saw(docID)
		run.fail(raw.Path, "check exclusion", err)
		return
	}
	if excluded {
		logger.Debug("Excluded: %s", raw.Path)
		return
	}
	run.saw(docID)

	logger.Debug("Processing: %s", raw.URI)

	// 2. NORMALISE (produces Document with Content and ContentHash)
	result, err := o.normalisers.Normalise(ctx, &raw)
	if err != nil {
		run.fail(raw.Path, "normalise", err)
		return
	}
	doc := result.Document

	// 3. COMPARE AGAINST MANIFEST. Unchanged content is skipped before
	// any chunking or embedding happens; sync cost tracks changed
	// content, not corpus size.
	entry, err := o.manifests.Get(ctx, source.ID, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		run.fail(raw.Path, "manifest", err)
		return
	}
	expectedHash := ""
	update := false
	if entry != nil {
		if entry.ContentHash == doc.ContentHash && !o.needsReindex(entry) {
			logger.Debug("Unchanged: %s", raw.Path)
			run.skip()
			return
		}
		expectedHash = entry.ContentHash
		update = true
	}

	// 4. RUN POST-PROCESSOR PIPELINE (produces Chunks)
	chunks, err := o.processors.Process(ctx, &doc)
	if err != nil {
		run.fail(raw.Path, "chunk", err)
		return
	}

	// 5. GENERATE EMBEDDINGS. This happens before any destructive
	// write: an embedding failure leaves the previous indexed version
	// intact and the manifest untouched, safe to retry on the next run.
	if o.embedder != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}
		embeddings, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			run.fail(raw.Path, "embed", err)
			return
		}
		for i := range chunks {
			chunks[i].Embedding = embeddings[i]
		}
	}

	// 6. REPLACE THE STORED DOCUMENT. Old vectors are deleted before
	// new ones are upserted so no stale chunk set survives a change.
	if o.vectors != nil {
		if err := o.vectors.DeleteByDocument(ctx, doc.ID); err != nil {
			run.fail(raw.Path, "clear vectors", err)
			return
		}
	}
	if err := o.documents.SaveDocument(ctx, &doc); err != nil {
		run.fail(raw.Path, "save document", err)
		return
	}
	if err := o.documents.SaveChunks(ctx, chunks); err != nil {
		run.fail(raw.Path, "save chunks", err)
		return
	}

	indexed := 0
	if o.vectors != nil && o.embedder != nil {
		entries := make([]driven.IndexEntry, len(chunks))
		for i := range chunks {
			entries[i] = driven.IndexEntry{
				ChunkID:    chunks[i].ID,
				DocumentID: doc.ID,
				Embedding:  chunks[i].Embedding,
			}
		}
		if err := o.vectors.Upsert(ctx, entries); err != nil {
			run.fail(raw.Path, "index vectors", err)
			return
		}
		indexed = len(entries)
	}

	// 7. UPDATE MANIFEST last, via compare-and-swap. A conflict means a
	// concurrent run ingested the same document; ours is reported as a
	// failure and the winner's manifest entry stands. Runs without an
	// embedding provider leave the embedding fields zero, so the
	// document is picked up again once a provider is configured.
	record := domain.ManifestEntry{
		SourceID:    source.ID,
		DocumentID:  doc.ID,
		Path:        doc.Path,
		ContentHash: doc.ContentHash,
		ChunkCount:  len(chunks),
		SyncedAt:    time.Now(),
	}
	if o.embedder != nil && o.vectors != nil {
		record.EmbeddingModel = o.embedder.ModelName()
		record.EmbeddingDims = o.embedder.Dimensions()
	}
	if err := o.manifests.Update(ctx, record, expectedHash); err != nil {
		run.fail(raw.Path, "manifest", err)
		return
	}

	run.done(update, indexed)
}

// needsReindex reports whether a content-unchanged document still has
// to go back through the pipeline: its vectors never landed, or they
// were produced by a different embedding model. A run without a
// provider has nothing to gain from re-ingesting, so it skips as usual.
func (o *SyncOrchestrator) needsReindex(entry *domain.ManifestEntry) bool {
	if o.embedder == nil || o.vectors == nil {
		return false
	}
	return !entry.EmbeddedWith(o.embedder.ModelName(), o.embedder.Dimensions())
}

// reconcileRemovals deletes documents whose manifest entries were not
// seen during the walk: their files are gone from the source.
func (o *SyncOrchestrator) reconcileRemovals(ctx context.Context, sourceID string, run *syncRun) error {
	entries, err := o.manifests.List(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("list manifest: %w", err)
	}

	for _, entry := range entries {
		if run.wasSeen(entry.DocumentID) {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Debug("Removing: %s", entry.Path)
		if err := o.removeDocument(ctx, sourceID, entry.DocumentID); err != nil {
			run.fail(entry.Path, "remove", err)
			continue
		}
		run.removed()
	}

	return nil
}

// removeDocument deletes a document's vectors, stored chunks and
// manifest entry. Missing pieces are tolerated so a half-finished
// removal can be retried.
func (o *SyncOrchestrator) removeDocument(ctx context.Context, sourceID, documentID string) error {
	if o.vectors != nil {
		if err := o.vectors.DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}
	if err := o.documents.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := o.manifests.Delete(ctx, sourceID, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete manifest entry: %w", err)
	}
	return nil
}

// beginRun claims a source for syncing. Only one run per source may be
// active at a time.
func (o *SyncOrchestrator) beginRun(sourceID string) (*syncRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.active[sourceID]; ok {
		return nil, fmt.Errorf("%w: source %s", domain.ErrSyncInProgress, sourceID)
	}

	run := newSyncRun(sourceID)
	o.active[sourceID] = run
	return run, nil
}

// endRun releases the source claim.
func (o *SyncOrchestrator) endRun(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, sourceID)
}

// syncRun accumulates the shared state of one sync run. Workers update
// it under a short mutex; the lock is never held across store or
// network I/O.
type syncRun struct {
	sourceID string

	mu     sync.Mutex
	report *domain.IngestionReport
	seen   map[string]struct{}
}

func newSyncRun(sourceID string) *syncRun {
	return &syncRun{
		sourceID: sourceID,
		report:   &domain.IngestionReport{SourceID: sourceID, StartedAt: time.Now()},
		seen:     make(map[string]struct{}),
	}
}

// saw marks a document ID as present in the current walk, shielding it
// from removal reconciliation.
func (r *syncRun) saw(documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[documentID] = struct{}{}
}

func (r *syncRun) wasSeen(documentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[documentID]
	return ok
}

func (r *syncRun) skip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Skipped++
}

func (r *syncRun) done(update bool, chunksIndexed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if update {
		r.report.Updated++
	} else {
		r.report.Added++
	}
	r.report.ChunksIndexed += chunksIndexed
}

func (r *syncRun) removed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Removed++
}

func (r *syncRun) fail(path, stage string, err error) {
	logger.Debug("Failed to process %s: %s: %v", path, stage, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Failed = append(r.report.Failed, domain.DocumentFailure{
		Path:   path,
		Reason: stage + ": " + err.Error(),
	})
}

// snapshot returns a point-in-time copy of the run's progress.
func (r *syncRun) snapshot() *driving.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &driving.SyncStatus{
		SourceID:           r.sourceID,
		Running:            true,
		DocumentsProcessed: r.report.Added + r.report.Updated,
		ChunksIndexed:      r.report.ChunksIndexed,
		ErrorCount:         len(r.report.Failed),
	}
}

// finish stamps the report and returns it.
func (r *syncRun) finish() *domain.IngestionReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.FinishedAt = time.Now()
	return r.report
}
