package plaintext

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents. It is the fallback when no
// format-specific normaliser claims a MIME type.
type Normaliser struct{}

// New builds the plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes lists the MIME types this normaliser accepts.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority ranks this normaliser when several accept a type.
func (n *Normaliser) Priority() int {
	return 5 // Last resort when nothing format-specific matches
}

// Normalise wraps plain text in a document without reshaping the
// content; chunking is left to the post-processing pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("text %s: invalid utf-8: %w", raw.Path, domain.ErrParse)
	}

	metadata := maps.Clone(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata["mime_type"] = raw.MIMEType

	// Title preference: connector metadata, then filename
	title := metadata["title"]
	if title == "" {
		title = titleFromPath(raw.Path)
	}

	now := time.Now()
	doc := domain.Document{
		ID:        domain.NewDocumentID(raw.SourceID, raw.Path),
		SourceID:  raw.SourceID,
		URI:       raw.URI,
		Path:      raw.Path,
		Title:     title,
		Category:  domain.ResolveCategory(raw.Path, metadata["category"]),
		Content:   strings.TrimSpace(string(raw.Content)),
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.ContentHash = domain.ComputeContentHash(doc.Content, doc.Metadata)

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// titleFromPath falls back to a cleaned-up filename as the title.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
