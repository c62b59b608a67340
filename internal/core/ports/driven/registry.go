package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// NormaliserRegistry picks the normaliser for a raw document by its
// MIME type. When several claim the same type, the highest priority
// wins.
type NormaliserRegistry interface {
	// Normalise converts a raw document through the winning
	// normaliser, or returns domain.ErrUnsupportedType when no
	// normaliser claims its MIME type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns every MIME type some normaliser
	// claims.
	SupportedMIMETypes() []string
}
