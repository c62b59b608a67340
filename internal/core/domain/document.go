package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Namespaces for deterministic (v5) identifiers. Deriving IDs from content
// location means re-ingesting the same file always produces the same
// document and chunk IDs, which is what makes upserts idempotent.
var (
	namespaceDocument = uuid.NewSHA1(uuid.NameSpaceURL, []byte("recall:document"))
	namespaceChunk    = uuid.NewSHA1(uuid.NameSpaceURL, []byte("recall:chunk"))
)

// Document represents an indexed document with metadata.
// It is the canonical representation after normalisation.
type Document struct {
	// ID is the unique identifier, derived from SourceID and Path.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// URI is the absolute location on disk.
	URI string

	// Path is the location relative to the source root. Together with
	// SourceID it is the document's stable identity.
	Path string

	// Title is the human-readable title.
	Title string

	// Category classifies the document within the knowledge base.
	Category Category

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// ContentHash fingerprints Content plus Metadata. Unchanged hashes
	// are skipped during sync.
	ContentHash string

	// Metadata contains key-value pairs parsed from the document header.
	Metadata map[string]string

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk represents an embeddable unit within a document.
// Documents are split into chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier, derived from DocumentID and Position.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// StartChar is the offset of the first character within the
	// document content.
	StartChar int

	// EndChar is the offset one past the last character.
	EndChar int

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs. It carries the
	// parent document's metadata plus chunk_index and total_chunks.
	Metadata map[string]string
}

// NewDocumentID derives the deterministic document ID for a path within
// a source.
func NewDocumentID(sourceID, path string) string {
	return uuid.NewSHA1(namespaceDocument, []byte(sourceID+":"+path)).String()
}

// NewChunkID derives the deterministic chunk ID for a position within a
// document.
func NewChunkID(documentID string, position int) string {
	return uuid.NewSHA1(namespaceChunk, []byte(documentID+":"+strconv.Itoa(position))).String()
}

// ComputeContentHash fingerprints document content together with its
// metadata. Metadata keys are folded in sorted order so the digest does
// not depend on map iteration.
func ComputeContentHash(content string, metadata map[string]string) string {
	h := sha256.New()
	h.Write([]byte(content))

	for _, k := range slices.Sorted(maps.Keys(metadata)) {
		fmt.Fprintf(h, "\n%s=%s", k, metadata[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}
