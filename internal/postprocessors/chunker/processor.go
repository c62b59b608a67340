// Package chunker provides a fixed-size sliding-window chunking processor.
package chunker

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"unicode/utf8"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// Default window geometry, used when the settings carry no values.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 128
)

// Processor splits document content into overlapping fixed-size chunks.
//
// Chunking is character based. The window advances by chunkSize minus
// overlap each step, so consecutive chunks share exactly overlap
// characters. The final chunk is truncated to the remaining text, never
// padded. Chunk IDs are derived from the document ID and position, so
// re-chunking unchanged content yields identical IDs.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option adjusts the window geometry.
type Option func(*Processor)

// WithChunkSize overrides the window width in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) { p.chunkSize = size }
}

// WithOverlap overrides how many characters consecutive windows share.
func WithOverlap(overlap int) Option {
	return func(p *Processor) { p.overlap = overlap }
}

// New builds a chunker and validates its window geometry.
// Returns domain.ErrInvalidConfig if the chunk size is not positive or
// the overlap is negative or not smaller than the chunk size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", p.chunkSize, domain.ErrInvalidConfig)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("overlap %d for chunk size %d: %w", p.overlap, p.chunkSize, domain.ErrInvalidConfig)
	}

	return p, nil
}

// Name identifies this processor in pipeline configuration.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits doc.Content into sliding windows. Incoming chunks are
// discarded: this processor is the pipeline's chunk producer.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	text := doc.Content
	if text == "" {
		return nil, nil
	}

	advance := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(text)/advance+1)

	for base := 0; base < len(text); base += advance {
		// Window edges snap back to rune boundaries so a chunk never
		// carries a split multi-byte character.
		start := snapToRuneStart(text, base)
		end := snapToRuneStart(text, min(base+p.chunkSize, len(text)))
		if end <= start {
			// A window narrower than one rune still has to advance.
			_, size := utf8.DecodeRuneInString(text[start:])
			end = start + size
		}

		position := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.NewChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Content:    text[start:end],
			Position:   position,
			StartChar:  start,
			EndChar:    end,
		})

		// The window reached the end of the content. Without this a
		// document shorter than one window would produce a second,
		// fully overlapping chunk.
		if end == len(text) {
			break
		}
	}

	total := strconv.Itoa(len(chunks))
	for i := range chunks {
		meta := maps.Clone(doc.Metadata)
		if meta == nil {
			meta = make(map[string]string, 2)
		}
		meta["chunk_index"] = strconv.Itoa(i)
		meta["total_chunks"] = total
		chunks[i].Metadata = meta
	}

	return chunks, nil
}

// snapToRuneStart moves an offset left to the nearest rune boundary.
// Offsets at either end of the text are already boundaries.
func snapToRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
