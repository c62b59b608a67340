package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex over the vectors table.
// Queries load every stored vector and score in process; acceptable
// for personal knowledge bases, revisit past ~100k chunks.
type vectorIndex struct {
	db     *sql.DB
	metric domain.DistanceMetric
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

func (s *vectorIndex) Upsert(ctx context.Context, entries []driven.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %v: %w", err, domain.ErrIndexUnavailable)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (chunk_id, document_id, embedding)
		VALUES (?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			embedding   = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("prepare vector upsert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.ChunkID, entry.DocumentID, encodeVector(entry.Embedding)); err != nil {
			return fmt.Errorf("upsert vector %s: %w", entry.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vectors: %w", err)
	}
	return nil
}

// Delete removes vectors by chunk ID. Unknown IDs are ignored.
func (s *vectorIndex) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE chunk_id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

func (s *vectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("delete document vectors: %w", err)
	}
	return nil
}

// Query scans all vectors and returns the k best matches by descending
// score. Ties break by chunk ID so results are deterministic.
func (s *vectorIndex) Query(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT chunk_id, embedding FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("query vectors: %v: %w", err, domain.ErrIndexUnavailable)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		hits = append(hits, driven.VectorHit{
			ChunkID: chunkID,
			Score:   domain.ScoreVectors(s.metric, query, decodeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vectors: %w", err)
	}

	slices.SortFunc(hits, func(a, b driven.VectorHit) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.ChunkID, b.ChunkID))
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *vectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&count); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return count, nil
}

// Close is a no-op; the owning Store manages the connection.
func (s *vectorIndex) Close() error {
	return nil
}

// encodeVector packs an embedding into a little-endian float32 blob.
// Empty embeddings encode as nil so the column stays NULL.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a blob written by encodeVector.
func decodeVector(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v
}
