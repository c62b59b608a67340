package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// SearchService provides retrieval over the indexed knowledge base.
type SearchService interface {
	// Search embeds the query, runs a similarity query against the
	// vector index, filters by the similarity threshold and returns
	// hydrated results. An empty result is a valid answer, not an
	// error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// BuildContext assembles retrieved chunks into a single context
	// block that fits within tokenBudget (approximated at four
	// characters per token). Pass 0 for the default budget.
	BuildContext(ctx context.Context, query string, opts domain.SearchOptions, tokenBudget int) (string, error)
}
