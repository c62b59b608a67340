package normalisers

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/normalisers/markdown"
	"github.com/recall-labs/recall-cli/internal/normalisers/plaintext"
	"github.com/recall-labs/recall-cli/internal/normalisers/structured"
)

// Registry dispatches raw documents to normalisers by MIME type.
// It implements the NormaliserRegistry interface.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

var _ driven.NormaliserRegistry = (*Registry)(nil)

// NewRegistry creates a registry with the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	return &Registry{normalisers: normalisers}
}

// NewDefaultRegistry creates a registry with all built-in normalisers.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		markdown.New(),
		structured.New(),
		plaintext.New(),
	)
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, normaliser)
}

// Normalise transforms a raw document using the highest-priority
// normaliser claiming the document's MIME type.
// Returns domain.ErrUnsupportedType when no normaliser matches.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	normaliser := r.match(raw.MIMEType)
	if normaliser == nil {
		return nil, fmt.Errorf("mime type %q: %w", raw.MIMEType, domain.ErrUnsupportedType)
	}

	return normaliser.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			seen[m] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// match returns the highest-priority normaliser claiming the MIME type,
// or nil when none does. Registration order breaks priority ties.
func (r *Registry) match(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Normaliser
	for _, n := range r.normalisers {
		if !slices.Contains(n.SupportedMIMETypes(), mimeType) {
			continue
		}
		if best == nil || n.Priority() > best.Priority() {
			best = n
		}
	}
	return best
}
