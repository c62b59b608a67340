package services

import (
	"context"
	"fmt"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

var _ driving.StatsService = (*StatsService)(nil)

// StatsService aggregates corpus statistics across the stores.
type StatsService struct {
	docStore    driven.DocumentStore
	sourceStore driven.SourceStore
	vectorIndex driven.VectorIndex
}

// NewStatsService creates a stats service.
func NewStatsService(
	docStore driven.DocumentStore,
	sourceStore driven.SourceStore,
	vectorIndex driven.VectorIndex,
) *StatsService {
	return &StatsService{
		docStore:    docStore,
		sourceStore: sourceStore,
		vectorIndex: vectorIndex,
	}
}

// Corpus returns counts of sources, documents, chunks and vectors, with
// per-category and per-content-type document breakdowns. Documents
// without a content_type metadata value are not counted in that
// breakdown.
func (s *StatsService) Corpus(ctx context.Context) (*domain.CorpusStats, error) {
	sources, err := s.sourceStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	docs, err := s.docStore.ListAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	chunkCount, err := s.docStore.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	stats := &domain.CorpusStats{
		Sources:       len(sources),
		Documents:     len(docs),
		Chunks:        chunkCount,
		ByCategory:    make(map[domain.Category]int),
		ByContentType: make(map[string]int),
	}

	for i := range docs {
		doc := &docs[i]
		if doc.Category != "" {
			stats.ByCategory[doc.Category]++
		}
		if contentType := doc.Metadata["content_type"]; contentType != "" {
			stats.ByContentType[contentType]++
		}
	}

	if s.vectorIndex != nil {
		vectors, err := s.vectorIndex.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count vectors: %w", err)
		}
		stats.Vectors = vectors
	}

	return stats, nil
}
