package mcp

import (
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

// Ports collects the driving services the MCP server exposes. Search backs
// the search tool and is mandatory. The remaining services back resources
// and may be nil; their resources then read as empty or not found.
type Ports struct {
	Search   driving.SearchService
	Source   driving.SourceService
	Document driving.DocumentService
	Stats    driving.StatsService
}

// Validate reports whether the mandatory ports are present.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
