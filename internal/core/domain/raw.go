package domain

import "fmt"

// RawDocument is a document exactly as a connector read it: opaque bytes
// plus enough location data to trace them back to the source. Nothing is
// normalised yet.
type RawDocument struct {
	// SourceID names the Source that produced the document.
	SourceID string

	// URI is the absolute location on disk.
	URI string

	// Path is the location relative to the source root.
	Path string

	// MIMEType is the detected content type, e.g. "text/markdown".
	MIMEType string

	// Content holds the unparsed bytes.
	Content []byte

	// Metadata carries connector-specific key-value pairs.
	Metadata map[string]string
}

// RawDocumentError reports a failure to read a single document. A sync
// run records these per document and keeps going; any other connector
// error aborts the run.
type RawDocumentError struct {
	// SourceID names the Source being read.
	SourceID string

	// Path is the source-relative location that failed.
	Path string

	// Err is the underlying failure.
	Err error
}

func (e *RawDocumentError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *RawDocumentError) Unwrap() error {
	return e.Err
}

// ChangeType classifies a watch-mode event.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange is one filesystem event seen by a watching
// connector. For deletions only the location fields of Document are
// populated.
type RawDocumentChange struct {
	Type     ChangeType
	Document RawDocument
}
