package mcp

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

// Hand-rolled port mocks. Each returns its canned fields and remembers the
// last search call so tests can assert on the options that were passed.

type mockSearchService struct {
	results      []domain.SearchResult
	lastOpts     domain.SearchOptions
	lastQuery    string
	contextBlock string
	err          error
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockSearchService) BuildContext(_ context.Context, query string, opts domain.SearchOptions, _ int) (string, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.contextBlock, nil
}

type mockSourceService struct {
	sources []domain.Source
	source  *domain.Source
	err     error
}

func (m *mockSourceService) Add(_ context.Context, _ domain.Source) error    { return m.err }
func (m *mockSourceService) Update(_ context.Context, _ domain.Source) error { return m.err }
func (m *mockSourceService) Remove(_ context.Context, _ string) error        { return m.err }

func (m *mockSourceService) Get(_ context.Context, _ string) (*domain.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.source, nil
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sources, nil
}

func (m *mockSourceService) ValidateConfig(_ context.Context, _ string, _ map[string]string) error {
	return m.err
}

type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	content   string
	details   *driving.DocumentDetails
	err       error
}

func (m *mockDocumentService) ListBySource(_ context.Context, _ string) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.documents, nil
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.document, nil
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.details, nil
}

func (m *mockDocumentService) Exclude(_ context.Context, _, _ string) error { return m.err }
func (m *mockDocumentService) Open(_ context.Context, _ string) error       { return m.err }

type mockStatsService struct {
	stats *domain.CorpusStats
	err   error
}

func (m *mockStatsService) Corpus(_ context.Context) (*domain.CorpusStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}
