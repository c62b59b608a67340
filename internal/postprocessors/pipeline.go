// Package postprocessors turns normalised documents into the chunks
// that get embedded and indexed.
//
// The pipeline runs its stages in order: the first creates chunks from
// document content, later ones may filter or enrich them.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs an ordered list of PostProcessors over a document.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline that runs stages in the order given.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process feeds the document through every stage. The first stage
// receives nil chunks and creates them; each later stage receives the
// previous stage's output. A failing stage aborts the run with its
// name in the error.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		chunks, err = stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
	}

	return chunks, nil
}

// Add appends a stage to the end of the pipeline.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
