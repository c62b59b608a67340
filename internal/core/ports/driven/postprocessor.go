package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// PostProcessor is one stage of the chunking pipeline. A creating
// stage (the chunker) is handed nil chunks and builds them from the
// document; a transforming stage (a filter, say) is handed the
// previous stage's output.
type PostProcessor interface {
	// Name identifies the stage in logs, config, and errors.
	Name() string

	// Process produces the stage's output chunks for the document.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a normalised document into the chunks
// that get embedded and indexed, running its stages in order.
type PostProcessorPipeline interface {
	// Process returns the final chunk set, or the first stage error.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
