package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// rowScanner lets one scan helper serve both *sql.Row and *sql.Rows.
// sql.ErrNoRows is translated to domain.ErrNotFound in the helpers; on
// the Rows path it cannot occur because Next has already returned true.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSource reads one row of: id, name, type, config, created_at,
// updated_at.
func scanSource(sc rowScanner) (*domain.Source, error) {
	var source domain.Source
	var configJSON string
	var createdAt, updatedAt sql.NullTime

	err := sc.Scan(&source.ID, &source.Name, &source.Type, &configJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &source.Config); err != nil {
		return nil, fmt.Errorf("decode source config: %w", err)
	}
	source.CreatedAt = createdAt.Time
	source.UpdatedAt = updatedAt.Time

	return &source, nil
}

// scanDocument reads one row of: id, source_id, path, uri, title,
// category, content, content_hash, metadata, created_at, updated_at.
func scanDocument(sc rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var category, metadataJSON string

	err := sc.Scan(&doc.ID, &doc.SourceID, &doc.Path, &doc.URI, &doc.Title, &category,
		&doc.Content, &doc.ContentHash, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Category = domain.Category(category)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode document metadata: %w", err)
		}
	}

	return &doc, nil
}

// scanChunk reads one row of: id, document_id, position, content,
// start_char, end_char, embedding, metadata.
func scanChunk(sc rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embedding []byte
	var metadataJSON string

	err := sc.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position, &chunk.Content,
		&chunk.StartChar, &chunk.EndChar, &embedding, &metadataJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chunk: %w", err)
	}

	chunk.Embedding = decodeVector(embedding)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}

// scanExclusion reads one row of: id, source_id, path, document_id,
// reason, excluded_at.
func scanExclusion(sc rowScanner) (*domain.Exclusion, error) {
	var e domain.Exclusion
	var excludedAt sql.NullTime

	err := sc.Scan(&e.ID, &e.SourceID, &e.Path, &e.DocumentID, &e.Reason, &excludedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan exclusion: %w", err)
	}
	e.ExcludedAt = excludedAt.Time

	return &e, nil
}

// drainRows collects every remaining row. Empty results come back as an
// empty slice, not nil, so list results serialise as JSON arrays.
func drainRows[T any](rows *sql.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
