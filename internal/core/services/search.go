package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

const (
	// DefaultContextTokenBudget caps BuildContext output when no budget
	// is given.
	DefaultContextTokenBudget = 2000

	// contextCharsPerToken is the rough chars-per-token estimate used
	// to convert the budget into a character allowance.
	contextCharsPerToken = 4
)

var _ driving.SearchService = (*SearchService)(nil)

// candidate carries a hit between hydration and final ordering.
// vectorRank is the hit's position in similarity order and breaks ties
// when reranking.
type candidate struct {
	result     domain.SearchResult
	vectorRank int
	lexical    float64
}

// SearchService retrieves chunks by embedding similarity.
type SearchService struct {
	documents driven.DocumentStore
	sources   driven.SourceStore
	vectors   driven.VectorIndex
	embedder  driven.EmbeddingService
	settings  driving.SettingsService
}

// NewSearchService creates a new search service. A nil vector index or
// embedder means no provider is configured; searches then fail with
// ErrIndexUnavailable.
func NewSearchService(documents driven.DocumentStore, sources driven.SourceStore, vectors driven.VectorIndex,
	embedder driven.EmbeddingService, settings driving.SettingsService) *SearchService {
	return &SearchService{
		documents: documents,
		sources:   sources,
		vectors:   vectors,
		embedder:  embedder,
		settings:  settings,
	}
}

// Search embeds the query and returns the best-scoring chunks above the
// similarity threshold. An empty result is a valid answer, not an
// error.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	logger.Section("Search")
	logger.Debug("Search query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Blank query, nothing to search for")
		return []domain.SearchResult{}, nil
	}

	if s.vectors == nil || s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured, run 'recall settings wizard'",
			domain.ErrIndexUnavailable)
	}

	p, err := s.plan(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Resolved limit=%d offset=%d threshold=%.2f rerank=%t", p.limit, p.offset, p.threshold, p.rerank)

	// Over-fetch so threshold and filter losses still leave a full
	// page of results.
	fetch := (p.limit + p.offset) * 2
	if len(opts.SourceIDs) > 0 || len(opts.Categories) > 0 {
		fetch = (p.limit + p.offset) * 3
	}

	logger.Debug("Embedding the query")
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Query(ctx, vector, fetch)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	logger.Debug("Vector index returned %d hits", len(hits))

	candidates, err := s.hydrate(ctx, hits, query, p, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Hydrated %d candidates", len(candidates))

	if p.rerank {
		rerankByOverlap(candidates, query)
	}

	results := make([]domain.SearchResult, len(candidates))
	for i := range candidates {
		candidates[i].result.Rank = i
		results[i] = candidates[i].result
	}

	results = paginate(results, p.offset, p.limit)
	logger.Info("Returning %d search results", len(results))

	return results, nil
}

// BuildContext retrieves passages for the query and assembles them into
// one block that fits the token budget. Pass 0 for the default budget.
func (s *SearchService) BuildContext(ctx context.Context, query string, opts domain.SearchOptions, tokenBudget int) (string, error) {
	if tokenBudget <= 0 {
		tokenBudget = DefaultContextTokenBudget
	}
	charBudget := tokenBudget * contextCharsPerToken

	results, err := s.Search(ctx, query, opts)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var block strings.Builder
	for i, result := range results {
		passage := fmt.Sprintf("[%d] %s (score %.2f)\n%s\n\n", i+1, passageLabel(result), result.Score, result.Chunk.Content)
		if block.Len()+len(passage) > charBudget {
			if block.Len() == 0 {
				// An oversize first passage is truncated rather than
				// dropped so the block is never empty.
				block.WriteString(truncateRunes(passage, charBudget))
			}
			break
		}
		block.WriteString(passage)
	}

	return strings.TrimRight(block.String(), "\n"), nil
}

// searchPlan is the effective paging and scoring configuration for one
// query, after defaults from the retrieval settings have been applied.
type searchPlan struct {
	limit     int
	offset    int
	threshold float64
	rerank    bool
}

func (s *SearchService) plan(ctx context.Context, opts domain.SearchOptions) (searchPlan, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return searchPlan{}, fmt.Errorf("load settings: %w", err)
	}

	p := searchPlan{
		limit:     opts.Limit,
		offset:    max(opts.Offset, 0),
		threshold: opts.MinScore,
		rerank:    cfg.Retrieval.UseReranker,
	}
	if p.limit <= 0 {
		p.limit = cfg.Retrieval.MaxDocuments
	}
	if p.threshold < 0 {
		p.threshold = cfg.Retrieval.SimilarityThreshold
	}
	switch opts.Rerank {
	case domain.RerankOn:
		p.rerank = true
	case domain.RerankOff:
		p.rerank = false
	}

	return p, nil
}

// hydrate resolves vector hits into full results. Hits below the
// threshold, hits whose chunk or document has been deleted since
// indexing, and hits excluded by the source or category filters are
// dropped. Candidates come back ordered by score descending with chunk
// ID as the deterministic tie-break.
func (s *SearchService) hydrate(ctx context.Context, hits []driven.VectorHit, query string,
	p searchPlan, opts domain.SearchOptions) ([]candidate, error) {
	wantSource := make(map[string]bool, len(opts.SourceIDs))
	for _, id := range opts.SourceIDs {
		wantSource[id] = true
	}
	wantCategory := make(map[domain.Category]bool, len(opts.Categories))
	for _, category := range opts.Categories {
		wantCategory[category] = true
	}
	sourceNames := make(map[string]string)

	candidates := make([]candidate, 0, len(hits))

	for _, hit := range hits {
		if hit.Score < p.threshold {
			continue
		}

		chunk, err := s.documents.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		doc, err := s.documents.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}

		if len(wantSource) > 0 && !wantSource[doc.SourceID] {
			continue
		}
		if len(wantCategory) > 0 && !wantCategory[doc.Category] {
			continue
		}

		name, ok := sourceNames[doc.SourceID]
		if !ok {
			name = s.sourceName(ctx, doc.SourceID)
			sourceNames[doc.SourceID] = name
		}

		candidates = append(candidates, candidate{
			result: domain.SearchResult{
				Document:   *doc,
				Chunk:      *chunk,
				Score:      hit.Score,
				Highlights: generateHighlights(chunk.Content, query),
				SourceName: name,
			},
		})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(b.result.Score, a.result.Score), cmp.Compare(a.result.Chunk.ID, b.result.Chunk.ID))
	})
	for i := range candidates {
		candidates[i].vectorRank = i
	}

	return candidates, nil
}

// rerankByOverlap reorders candidates by lexical overlap with the
// query. Ties fall back to vector rank, then chunk ID.
func rerankByOverlap(candidates []candidate, query string) {
	queryTerms := uniqueTerms(query)
	for i := range candidates {
		candidates[i].lexical = lexicalOverlap(queryTerms, candidates[i].result.Chunk.Content)
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(b.lexical, a.lexical),
			cmp.Compare(a.vectorRank, b.vectorRank),
			cmp.Compare(a.result.Chunk.ID, b.result.Chunk.ID),
		)
	})
}

// lexicalOverlap scores a chunk against the query terms as a term-set
// F1: precision over the chunk's terms, recall over the query's.
func lexicalOverlap(queryTerms map[string]bool, content string) float64 {
	contentTerms := uniqueTerms(content)
	if len(queryTerms) == 0 || len(contentTerms) == 0 {
		return 0
	}

	shared := 0
	for term := range queryTerms {
		if contentTerms[term] {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}

	precision := float64(shared) / float64(len(contentTerms))
	recall := float64(shared) / float64(len(queryTerms))
	return 2 * precision * recall / (precision + recall)
}

// uniqueTerms lowercases and splits text into its set of terms.
func uniqueTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if token = strings.Trim(token, ".,;:!?\"'()[]"); token != "" {
			terms[token] = true
		}
	}
	return terms
}

// generateHighlights picks up to three sentences that mention a query
// term, each capped at 200 bytes.
func generateHighlights(content, query string) []string {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		if len(highlights) == 3 {
			break
		}
		lower := strings.ToLower(sentence)
		if !slices.ContainsFunc(terms, func(term string) bool { return strings.Contains(lower, term) }) {
			continue
		}
		if len(sentence) > 200 {
			sentence = truncateRunes(sentence, 200) + "..."
		}
		highlights = append(highlights, sentence)
	}

	return highlights
}

// splitSentences cuts content at sentence terminators and newlines,
// trimming whitespace and dropping empty spans.
func splitSentences(content string) []string {
	var sentences []string
	keep := func(span string) {
		if trimmed := strings.TrimSpace(span); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}

	start := 0
	for i, r := range content {
		switch r {
		case '.', '!', '?', '\n':
			keep(content[start : i+1])
			start = i + 1
		}
	}
	keep(content[start:])

	return sentences
}

// paginate slices one page out of the ordered results.
func paginate(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset >= len(results) {
		return []domain.SearchResult{}
	}
	return results[offset:min(offset+limit, len(results))]
}

// passageLabel names a result within a context block.
func passageLabel(result domain.SearchResult) string {
	return cmp.Or(result.Document.Path, result.Document.Title)
}

// truncateRunes cuts s to at most limit bytes on a rune boundary.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// sourceName resolves a display name for a source, empty when the
// source is unknown.
func (s *SearchService) sourceName(ctx context.Context, sourceID string) string {
	if s.sources == nil {
		return ""
	}
	source, err := s.sources.Get(ctx, sourceID)
	if err != nil || source == nil {
		return ""
	}
	return source.DisplayName()
}
