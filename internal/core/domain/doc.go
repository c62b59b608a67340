// Package domain defines the core business entities for recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Document: A normalised document with metadata and a content hash
//   - Chunk: An embeddable unit within a document
//   - Source: A configured content directory
//   - RawDocument: Opaque bytes from a connector
//   - ManifestEntry: The recorded fingerprint of an ingested document
//   - IngestionReport: The outcome of a sync run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import the Go
// standard library and the uuid package (deterministic identifiers are
// a domain concern). All other packages depend on domain, never the
// reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/google/uuid
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
