package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

const documentColumns = "id, source_id, path, uri, title, category, content, content_hash, metadata, created_at, updated_at"

const chunkColumns = "id, document_id, position, content, start_char, end_char, embedding, metadata"

// documentStore implements driven.DocumentStore over the documents and
// chunks tables. Chunk embeddings are stored inline as little-endian
// float32 blobs.
type documentStore struct {
	db *sql.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode document metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id    = excluded.source_id,
			path         = excluded.path,
			uri          = excluded.uri,
			title        = excluded.title,
			category     = excluded.category,
			content      = excluded.content,
			content_hash = excluded.content_hash,
			metadata     = excluded.metadata,
			updated_at   = excluded.updated_at
	`, doc.ID, doc.SourceID, doc.Path, doc.URI, doc.Title, string(doc.Category),
		doc.Content, doc.ContentHash, string(metadataJSON), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// SaveChunks replaces a document's chunk set. The delete and the inserts
// run in one transaction so readers never see a partial set.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", chunks[0].DocumentID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks ("+chunkColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("encode chunk metadata: %w", err)
		}
		_, err = stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Position, chunk.Content,
			chunk.StartChar, chunk.EndChar, encodeVector(chunk.Embedding), string(metadataJSON))
		if err != nil {
			return fmt.Errorf("save chunk %d: %w", chunk.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? ORDER BY position", documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	return drainRows(rows, scanChunk)
}

func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE id = ?", id)
	return scanChunk(row)
}

// DeleteDocument removes a document; chunks follow through the foreign
// key cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *documentStore) ListDocuments(ctx context.Context, sourceID string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE source_id = ? ORDER BY path", sourceID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return drainRows(rows, scanDocument)
}

func (s *documentStore) ListAllDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return drainRows(rows, scanDocument)
}

func (s *documentStore) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}
