package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// sourceStore implements driven.SourceStore over the sources table.
// Connector config is stored as a JSON object in a text column.
type sourceStore struct {
	db *sql.DB
}

var _ driven.SourceStore = (*sourceStore)(nil)

func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	encodedConfig, err := json.Marshal(source.Config)
	if err != nil {
		return fmt.Errorf("encode source config: %w", err)
	}

	source.UpdatedAt = time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = source.UpdatedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sources (id, name, type, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE
		SET name = excluded.name, type = excluded.type,
			config = excluded.config, updated_at = excluded.updated_at
	`, source.ID, source.Name, source.Type, string(encodedConfig), source.CreatedAt, source.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save source: %w", err)
	}
	return nil
}

func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, type, config, created_at, updated_at FROM sources WHERE id = ?", id)
	return scanSource(row)
}

func (s *sourceStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, type, config, created_at, updated_at FROM sources ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	return drainRows(rows, scanSource)
}
