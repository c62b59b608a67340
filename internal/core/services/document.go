package services

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService answers questions about indexed documents and handles
// per-document housekeeping such as exclusions.
type DocumentService struct {
	documents  driven.DocumentStore
	sources    driven.SourceStore
	exclusions driven.ExclusionStore
	manifests  driven.ManifestStore
	vectors    driven.VectorIndex
}

// NewDocumentService creates a new document service. The vector index
// is optional - if nil, exclusions skip the vector cleanup.
func NewDocumentService(documents driven.DocumentStore, sources driven.SourceStore,
	exclusions driven.ExclusionStore, manifests driven.ManifestStore, vectors driven.VectorIndex) *DocumentService {
	return &DocumentService{
		documents:  documents,
		sources:    sources,
		exclusions: exclusions,
		manifests:  manifests,
		vectors:    vectors,
	}
}

// ListBySource reports every document indexed from one source.
func (s *DocumentService) ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error) {
	return s.documents.ListDocuments(ctx, sourceID)
}

// Get loads one document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.documents.GetDocument(ctx, documentID)
}

// GetContent reassembles a document's normalised text from its stored
// chunks, in position order.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	// A document with no chunks yet still reads as empty, not missing.
	if _, err := s.documents.GetDocument(ctx, documentID); err != nil {
		return "", err
	}

	chunks, err := s.documents.GetChunks(ctx, documentID)
	if err != nil {
		return "", err
	}
	slices.SortFunc(chunks, func(a, b domain.Chunk) int {
		return cmp.Compare(a.Position, b.Position)
	})

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	return strings.Join(parts, "\n"), nil
}

// GetDetails assembles the display view of one document: the stored row
// plus its source name and chunk count. Source and chunk lookups are
// best effort so a half-indexed document still renders.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	details := &driving.DocumentDetails{
		ID:          doc.ID,
		SourceID:    doc.SourceID,
		Title:       doc.Title,
		Path:        doc.Path,
		URI:         doc.URI,
		Category:    doc.Category,
		ContentHash: doc.ContentHash,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		Metadata:    maps.Clone(doc.Metadata),
	}

	if s.sources != nil {
		if source, err := s.sources.Get(ctx, doc.SourceID); err == nil && source != nil {
			details.SourceName = source.DisplayName()
		}
	}
	if chunks, err := s.documents.GetChunks(ctx, documentID); err == nil {
		details.ChunkCount = len(chunks)
	}

	return details, nil
}

// Exclude removes a document from the index and records its path so
// future syncs skip it.
func (s *DocumentService) Exclude(ctx context.Context, documentID, reason string) error {
	// The document's path has to be captured before the row goes away.
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	exclusion := &domain.Exclusion{
		ID:         "excl-" + documentID,
		SourceID:   doc.SourceID,
		DocumentID: documentID,
		Path:       doc.Path,
		Reason:     reason,
		ExcludedAt: time.Now(),
	}
	if err := s.exclusions.Add(ctx, exclusion); err != nil {
		return fmt.Errorf("add exclusion: %w", err)
	}

	// Drop the indexed data. The exclusion above already guarantees the
	// path stays out even if part of this cleanup fails.
	if s.vectors != nil {
		if err := s.vectors.DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}
	if s.manifests != nil {
		//nolint:errcheck // Missing manifest entries are fine here
		_ = s.manifests.Delete(ctx, doc.SourceID, documentID)
	}
	return s.documents.DeleteDocument(ctx, documentID)
}

// Open launches the original file in the platform's default application.
func (s *DocumentService) Open(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	return openPath(strings.TrimPrefix(doc.URI, "file://"))
}

// openPath hands a file path to the operating system's opener.
func openPath(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "linux":
		return exec.Command("xdg-open", path).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	default:
		return fmt.Errorf("no opener for platform %s", runtime.GOOS)
	}
}
