package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// StatsService reports aggregate statistics about the indexed corpus.
type StatsService interface {
	// Corpus returns counts of sources, documents, chunks and vectors,
	// broken down by category and content type.
	Corpus(ctx context.Context) (*domain.CorpusStats, error)
}
