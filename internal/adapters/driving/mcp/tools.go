package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// searchArgs describes the arguments accepted by the search tool. Every
// field except Query is optional and falls back to the configured settings.
type searchArgs struct {
	Query      string   `json:"query" jsonschema:"the search query to find relevant passages"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default from settings)"`
	Threshold  float64  `json:"threshold,omitempty" jsonschema:"minimum similarity score between 0 and 1 (default from settings)"`
	Rerank     string   `json:"rerank,omitempty" jsonschema:"override the reranker: on or off (default from settings)"`
	Categories []string `json:"categories,omitempty" jsonschema:"restrict results to these knowledge-base categories"`
}

// searchPayload is what the search tool returns to the client.
type searchPayload struct {
	Results []searchHit `json:"results"`
	Count   int         `json:"count"`
}

// searchHit is one scored passage together with the document it came
// from. Resource carries the URI where the document's full text can be
// read.
type searchHit struct {
	DocumentID string   `json:"document_id"`
	Resource   string   `json:"resource"`
	Title      string   `json:"title"`
	Source     string   `json:"source,omitempty"`
	Path       string   `json:"path,omitempty"`
	Category   string   `json:"category,omitempty"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
	Content    string   `json:"content,omitempty"`
}

func (s *Server) addTools() {
	search := &mcp.Tool{
		Name:        "search",
		Description: "Search the local knowledge base for relevant passages",
	}
	mcp.AddTool(s.server, search, s.searchTool)
}

// searchTool runs a retrieval query on behalf of the connected assistant.
func (s *Server) searchTool(
	ctx context.Context, _ *mcp.CallToolRequest, args searchArgs,
) (*mcp.CallToolResult, searchPayload, error) {
	opts, err := searchOptions(args)
	if err != nil {
		return nil, searchPayload{}, err
	}

	results, err := s.ports.Search.Search(ctx, args.Query, opts)
	if err != nil {
		return nil, searchPayload{}, err
	}

	hits := make([]searchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, searchHit{
			DocumentID: res.Document.ID,
			Resource:   uriScheme + "documents/" + res.Document.ID,
			Title:      res.Document.Title,
			Source:     res.SourceName,
			Path:       res.Document.Path,
			Category:   string(res.Document.Category),
			Score:      res.Score,
			Highlights: res.Highlights,
			Content:    res.Chunk.Content,
		})
	}

	return nil, searchPayload{Results: hits, Count: len(hits)}, nil
}

// searchOptions translates tool arguments into domain search options.
// Omitted fields map onto the sentinels the search service treats as
// "use the configured default".
func searchOptions(args searchArgs) (domain.SearchOptions, error) {
	opts := domain.SearchOptions{
		Limit:    args.Limit,
		MinScore: -1,
	}
	if args.Threshold > 0 {
		opts.MinScore = args.Threshold
	}

	switch args.Rerank {
	case "":
		opts.Rerank = domain.RerankDefault
	case "on":
		opts.Rerank = domain.RerankOn
	case "off":
		opts.Rerank = domain.RerankOff
	default:
		return domain.SearchOptions{}, fmt.Errorf("invalid rerank value %q (want on or off)", args.Rerank)
	}

	for _, category := range args.Categories {
		opts.Categories = append(opts.Categories, domain.Category(category))
	}

	return opts, nil
}
