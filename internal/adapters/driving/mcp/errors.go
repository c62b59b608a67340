// Package mcp exposes the knowledge base over the Model Context Protocol,
// so assistants such as Claude can search and read indexed documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when a server is built without a
// search service. Search is the one capability every client expects.
var ErrMissingSearchService = errors.New("mcp: search service is required")
