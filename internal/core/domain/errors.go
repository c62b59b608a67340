package domain

import "errors"

// Sentinel errors for business rule failures. Adapters translate their
// infrastructure failures into these so services can match with
// errors.Is without knowing which backend produced them.
var (
	// ErrNotFound reports a lookup for an entity that is not stored.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists reports an insert that collides with a stored
	// entity.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput reports arguments that fail domain validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates configuration values that cannot
	// produce a working pipeline, such as a chunk overlap at least as
	// large as the chunk size.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrParse indicates a document could not be parsed. Parse
	// failures are isolated per document and reported, never fatal to
	// a sync run.
	ErrParse = errors.New("parse failure")

	// ErrNotImplemented marks functionality that is declared but not
	// built.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType reports a connector, normaliser, or processor
	// name no factory recognises.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress rejects starting a sync for a source that is
	// already being synchronised.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrConflict indicates a concurrent modification was detected.
	// The caller should re-read and retry.
	ErrConflict = errors.New("conflict")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or cannot be reached after retries.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index cannot be reached.
	// Queries fail loudly rather than returning silently empty results.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)

// Connector errors.
var (
	// ErrConnectorValidation reports a source whose connector
	// configuration does not check out against its backing store.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrConnectorClosed reports a read on a connector after Close.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrRateLimited reports a provider that pushed back on request
	// volume. Embedding calls retry these before giving up.
	ErrRateLimited = errors.New("rate limited")
)
