package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// manifestStore implements driven.ManifestStore over the manifest table,
// one fingerprint row per (source, document).
type manifestStore struct {
	db *sql.DB
}

var _ driven.ManifestStore = (*manifestStore)(nil)

func (s *manifestStore) Get(ctx context.Context, sourceID, documentID string) (*domain.ManifestEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_id, document_id, path, content_hash, chunk_count, embedding_model, embedding_dims, synced_at
		FROM manifest WHERE source_id = ? AND document_id = ?
	`, sourceID, documentID)

	var entry domain.ManifestEntry
	var syncedAt sql.NullTime
	err := row.Scan(&entry.SourceID, &entry.DocumentID, &entry.Path,
		&entry.ContentHash, &entry.ChunkCount,
		&entry.EmbeddingModel, &entry.EmbeddingDims, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan manifest entry: %w", err)
	}
	entry.SyncedAt = syncedAt.Time

	return &entry, nil
}

func (s *manifestStore) List(ctx context.Context, sourceID string) ([]domain.ManifestEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, document_id, path, content_hash, chunk_count, embedding_model, embedding_dims, synced_at
		FROM manifest WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query manifest: %w", err)
	}
	defer rows.Close()

	var entries []domain.ManifestEntry
	for rows.Next() {
		var entry domain.ManifestEntry
		var syncedAt sql.NullTime
		if err := rows.Scan(&entry.SourceID, &entry.DocumentID, &entry.Path,
			&entry.ContentHash, &entry.ChunkCount,
			&entry.EmbeddingModel, &entry.EmbeddingDims, &syncedAt); err != nil {
			return nil, fmt.Errorf("scan manifest entry: %w", err)
		}
		entry.SyncedAt = syncedAt.Time
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifest: %w", err)
	}

	return entries, nil
}

// Update stores an entry when the recorded hash matches expectedHash.
// Both arms are single statements, so the compare and the write are
// atomic without an explicit transaction.
func (s *manifestStore) Update(ctx context.Context, entry domain.ManifestEntry, expectedHash string) error {
	var res sql.Result
	var err error

	if expectedHash == "" {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO manifest (source_id, document_id, path, content_hash, chunk_count, embedding_model, embedding_dims, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source_id, document_id) DO NOTHING
		`, entry.SourceID, entry.DocumentID, entry.Path, entry.ContentHash,
			entry.ChunkCount, entry.EmbeddingModel, entry.EmbeddingDims, entry.SyncedAt)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE manifest
			SET path = ?, content_hash = ?, chunk_count = ?, embedding_model = ?, embedding_dims = ?, synced_at = ?
			WHERE source_id = ? AND document_id = ? AND content_hash = ?
		`, entry.Path, entry.ContentHash, entry.ChunkCount,
			entry.EmbeddingModel, entry.EmbeddingDims, entry.SyncedAt,
			entry.SourceID, entry.DocumentID, expectedHash)
	}
	if err != nil {
		return fmt.Errorf("update manifest: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check manifest update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("manifest %s changed underneath: %w", entry.DocumentID, domain.ErrConflict)
	}
	return nil
}

func (s *manifestStore) Delete(ctx context.Context, sourceID, documentID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM manifest WHERE source_id = ? AND document_id = ?", sourceID, documentID)
	if err != nil {
		return fmt.Errorf("delete manifest entry: %w", err)
	}
	return nil
}

func (s *manifestStore) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM manifest WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("delete manifest entries: %w", err)
	}
	return nil
}
