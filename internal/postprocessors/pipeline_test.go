package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// stage adapts a function into a PostProcessor for pipeline tests.
type stage struct {
	name string
	fn   func(doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

func (s *stage) Name() string { return s.name }

func (s *stage) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return s.fn(doc, chunks)
}

func packingDoc() *domain.Document {
	return &domain.Document{
		ID:      "doc-1",
		Path:    "guides/packing.md",
		Content: "Pack light.\n\nBring spares.",
	}
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), packingDoc())

	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_Process_FirstStageCreatesChunks(t *testing.T) {
	splitter := &stage{name: "splitter", fn: func(doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
		assert.Nil(t, chunks, "first stage must receive nil chunks")
		return []domain.Chunk{
			{ID: "c1", DocumentID: doc.ID, Content: "Pack light."},
			{ID: "c2", DocumentID: doc.ID, Content: "Bring spares."},
		}, nil
	}}

	chunks, err := NewPipeline(splitter).Process(context.Background(), packingDoc())

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Pack light.", chunks[0].Content)
}

func TestPipeline_Process_StagesChain(t *testing.T) {
	splitter := &stage{name: "splitter", fn: func(doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
		return []domain.Chunk{
			{ID: "c1", Content: "Pack light."},
			{ID: "c2", Content: ""},
		}, nil
	}}

	var received int
	dropEmpty := &stage{name: "drop-empty", fn: func(_ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
		received = len(chunks)
		kept := chunks[:0]
		for _, c := range chunks {
			if c.Content != "" {
				kept = append(kept, c)
			}
		}
		return kept, nil
	}}

	chunks, err := NewPipeline(splitter, dropEmpty).Process(context.Background(), packingDoc())

	require.NoError(t, err)
	assert.Equal(t, 2, received, "second stage should receive the first stage's chunks")
	assert.Len(t, chunks, 1, "the empty chunk should be dropped")
}

func TestPipeline_Process_StageErrorNamesStage(t *testing.T) {
	sentinel := errors.New("split failed")
	broken := &stage{name: "splitter", fn: func(_ *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
		return nil, sentinel
	}}

	_, err := NewPipeline(broken).Process(context.Background(), packingDoc())

	require.ErrorIs(t, err, sentinel)
	assert.EqualError(t, err, "processor splitter: split failed")
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_Process_CancelledContext(t *testing.T) {
	ran := false
	splitter := &stage{name: "splitter", fn: func(_ *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
		ran = true
		return nil, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(splitter).Process(ctx, packingDoc())

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran, "stage must not run after cancellation")
}

func TestPipeline_AddAndLen(t *testing.T) {
	p := NewPipeline()
	assert.Zero(t, p.Len())

	p.Add(&stage{name: "splitter", fn: func(_ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
		return chunks, nil
	}})
	assert.Equal(t, 1, p.Len())
}
