package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme prefixes every resource URI the server publishes.
const uriScheme = "recall://"

const (
	mimeJSON = "application/json"
	mimeText = "text/plain"
)

// sourcePayload is the JSON shape of one entry in the sources resource.
// Documents carries the URI where the source's document listing can be
// read, so clients can browse without knowing the URI layout.
type sourcePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Path      string `json:"path"`
	Documents string `json:"documents"`
}

// documentPayload is the JSON shape of one entry in a source's document
// listing.
type documentPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
}

// statsPayload is the JSON shape of the stats resource.
type statsPayload struct {
	Sources       int            `json:"sources"`
	Documents     int            `json:"documents"`
	Chunks        int            `json:"chunks"`
	Vectors       int            `json:"vectors"`
	ByCategory    map[string]int `json:"by_category,omitempty"`
	ByContentType map[string]int `json:"by_content_type,omitempty"`
}

func (s *Server) addResources() {
	sources := &mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Configured knowledge sources and where to browse their documents",
		MIMEType:    mimeJSON,
	}
	s.server.AddResource(sources, s.serveSources)

	stats := &mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Corpus statistics: sources, documents, chunks, vectors",
		MIMEType:    mimeJSON,
	}
	s.server.AddResource(stats, s.serveStats)

	sourceDocs := &mcp.ResourceTemplate{
		URITemplate: uriScheme + "sources/{source}/documents",
		Name:        "source-documents",
		Description: "Documents indexed from one source",
		MIMEType:    mimeJSON,
	}
	s.server.AddResourceTemplate(sourceDocs, s.serveSourceDocuments)

	docText := &mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{document}",
		Name:        "document-text",
		Description: "A document's normalised text",
		MIMEType:    mimeText,
	}
	s.server.AddResourceTemplate(docText, s.serveDocumentText)
}

// serveSources lists the configured sources. Without a source service the
// listing is empty rather than an error, so clients can still browse.
func (s *Server) serveSources(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	if s.ports.Source == nil {
		return textResult(uri, mimeJSON, "[]"), nil
	}

	sources, err := s.ports.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	payload := make([]sourcePayload, 0, len(sources))
	for _, src := range sources {
		payload = append(payload, sourcePayload{
			ID:        src.ID,
			Name:      src.Name,
			Type:      src.Type,
			Path:      src.RootPath(),
			Documents: uriScheme + "sources/" + src.ID + "/documents",
		})
	}

	return jsonResult(uri, "sources", payload)
}

// serveStats reports corpus-wide counts.
func (s *Server) serveStats(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	if s.ports.Stats == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	stats, err := s.ports.Stats.Corpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus stats: %w", err)
	}

	payload := statsPayload{
		Sources:       stats.Sources,
		Documents:     stats.Documents,
		Chunks:        stats.Chunks,
		Vectors:       stats.Vectors,
		ByContentType: stats.ByContentType,
	}
	if len(stats.ByCategory) > 0 {
		payload.ByCategory = make(map[string]int, len(stats.ByCategory))
		for category, count := range stats.ByCategory {
			payload.ByCategory[string(category)] = count
		}
	}

	return jsonResult(uri, "stats", payload)
}

// serveSourceDocuments lists the documents indexed from one source.
func (s *Server) serveSourceDocuments(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	sourceID := resourceArg(uri, uriScheme+"sources/", "/documents")
	if sourceID == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	docs, err := s.ports.Document.ListBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	payload := make([]documentPayload, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, documentPayload{
			ID:       doc.ID,
			Title:    doc.Title,
			Path:     doc.Path,
			Category: string(doc.Category),
		})
	}

	return jsonResult(uri, "documents", payload)
}

// serveDocumentText returns a document's full text.
func (s *Server) serveDocumentText(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	docID := resourceArg(uri, uriScheme+"documents/", "")
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	content, err := s.ports.Document.GetContent(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load document content: %w", err)
	}

	return textResult(uri, mimeText, content), nil
}

// textResult wraps a single text blob in the result envelope the SDK
// expects.
func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	contents := &mcp.ResourceContents{URI: uri, MIMEType: mimeType, Text: text}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{contents}}
}

// jsonResult marshals v and wraps it as an application/json resource.
func jsonResult(uri, what string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", what, err)
	}
	return textResult(uri, mimeJSON, string(data)), nil
}

// resourceArg pulls the variable segment out of a templated resource URI,
// given the literal text on either side of it.
func resourceArg(uri, before, after string) string {
	rest, ok := strings.CutPrefix(uri, before)
	if !ok {
		return ""
	}
	arg, ok := strings.CutSuffix(rest, after)
	if !ok {
		return ""
	}
	return arg
}
