package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

const exclusionColumns = "id, source_id, path, document_id, reason, excluded_at"

// exclusionStore implements driven.ExclusionStore over the exclusions
// table. Sync consults it by (source, path) before ingesting a file.
type exclusionStore struct {
	db *sql.DB
}

var _ driven.ExclusionStore = (*exclusionStore)(nil)

func (s *exclusionStore) Add(ctx context.Context, exclusion *domain.Exclusion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exclusions (`+exclusionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id   = excluded.source_id,
			path        = excluded.path,
			document_id = excluded.document_id,
			reason      = excluded.reason,
			excluded_at = excluded.excluded_at
	`, exclusion.ID, exclusion.SourceID, exclusion.Path, exclusion.DocumentID,
		exclusion.Reason, exclusion.ExcludedAt)
	if err != nil {
		return fmt.Errorf("add exclusion: %w", err)
	}
	return nil
}

func (s *exclusionStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM exclusions WHERE id = ?", id); err != nil {
		return fmt.Errorf("remove exclusion: %w", err)
	}
	return nil
}

func (s *exclusionStore) GetBySourceID(ctx context.Context, sourceID string) ([]domain.Exclusion, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+exclusionColumns+" FROM exclusions WHERE source_id = ? ORDER BY path", sourceID)
	if err != nil {
		return nil, fmt.Errorf("query exclusions: %w", err)
	}
	return drainRows(rows, scanExclusion)
}

func (s *exclusionStore) IsExcluded(ctx context.Context, sourceID, path string) (bool, error) {
	var excluded bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM exclusions WHERE source_id = ? AND path = ?)",
		sourceID, path).Scan(&excluded)
	if err != nil {
		return false, fmt.Errorf("check exclusion: %w", err)
	}
	return excluded, nil
}

func (s *exclusionStore) List(ctx context.Context) ([]domain.Exclusion, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+exclusionColumns+" FROM exclusions ORDER BY source_id, path")
	if err != nil {
		return nil, fmt.Errorf("query exclusions: %w", err)
	}
	return drainRows(rows, scanExclusion)
}
