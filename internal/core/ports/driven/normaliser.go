package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// Normaliser converts raw bytes of one family of MIME types into an
// indexable document.
type Normaliser interface {
	// SupportedMIMETypes lists the MIME types this normaliser claims.
	SupportedMIMETypes() []string

	// Priority breaks ties when several normalisers claim a type;
	// higher wins. Format-specific normalisers sit in the 50-89 band,
	// fallbacks in 1-9.
	Priority() int

	// Normalise parses the raw document. Content that fails to parse
	// wraps domain.ErrParse so sync can isolate the failure to that
	// one document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the normalised document. Its Content,
// Metadata, Category and ContentHash are populated; chunking happens
// later in the post-processor pipeline.
type NormaliseResult struct {
	Document domain.Document
}
