package markdown

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents. Knowledge-base markdown files
// carry an optional "## Metadata" section of "- Key: Value" lines which
// is parsed into document metadata and stripped from the body.
type Normaliser struct{}

// New builds the markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes lists the MIME types this normaliser accepts.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority ranks this normaliser when several accept a type.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific, higher than plaintext
}

// Normalise parses a markdown document. The body keeps everything but
// the metadata section; chunking is left to the post-processing
// pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("markdown %s: invalid utf-8: %w", raw.Path, domain.ErrParse)
	}

	text := string(raw.Content)

	// Parse the "## Metadata" section and remove it from the body
	parsed := parseMetadataSection(text)
	content := stripMetadataSection(text)

	metadata := maps.Clone(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	maps.Copy(metadata, parsed)
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "markdown"

	// Title preference: metadata header, first H1, filename
	title := metadata["title"]
	if title == "" {
		title = extractMarkdownTitle(text, raw.Path)
	}

	now := time.Now()
	doc := domain.Document{
		ID:        domain.NewDocumentID(raw.SourceID, raw.Path),
		SourceID:  raw.SourceID,
		URI:       raw.URI,
		Path:      raw.Path,
		Title:     title,
		Category:  domain.ResolveCategory(raw.Path, metadata["category"]),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.ContentHash = domain.ComputeContentHash(doc.Content, doc.Metadata)

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// parseMetadataSection extracts "- Key: Value" lines under a
// "## Metadata" heading. Keys are lowercased with spaces replaced by
// underscores ("Last Updated" becomes "last_updated"). Lines that do
// not fit the pattern are ignored. The section ends at the next heading
// or end of input.
func parseMetadataSection(content string) map[string]string {
	fields := make(map[string]string)

	inSection := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if !inSection {
			if trimmed == "## Metadata" {
				inSection = true
			}
			continue
		}

		if isHeading(trimmed) {
			break
		}

		if !strings.HasPrefix(trimmed, "-") {
			continue
		}

		entry := strings.TrimSpace(strings.TrimLeft(trimmed, "- "))
		key, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		key = strings.ReplaceAll(key, " ", "_")
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}

	return fields
}

// blankRuns matches the runs of blank lines left where a section was
// removed.
var blankRuns = regexp.MustCompile(`\n{3,}`)

// stripMetadataSection removes the "## Metadata" section from the body,
// using the same boundaries as parseMetadataSection, and tidies the
// whitespace left behind.
func stripMetadataSection(content string) string {
	var kept []string

	inSection := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if inSection {
			if !isHeading(trimmed) {
				continue
			}
			inSection = false
		} else if trimmed == "## Metadata" {
			inSection = true
			continue
		}

		kept = append(kept, line)
	}

	body := blankRuns.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return strings.TrimSpace(body)
}

// isHeading reports whether a trimmed line is a markdown heading.
func isHeading(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := strings.TrimLeft(trimmed, "#")
	return rest == "" || strings.HasPrefix(rest, " ")
}

// extractMarkdownTitle extracts a title from the first H1 heading or
// falls back to the filename.
func extractMarkdownTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		if heading, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(heading)
		}
	}

	return titleFromPath(path)
}

// titleFromPath falls back to a cleaned-up filename as the title.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
