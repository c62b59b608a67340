package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Queries scan every vector; fine for tests and ephemeral runs.
type VectorIndex struct {
	mu      sync.RWMutex
	metric  domain.DistanceMetric
	entries map[string]driven.IndexEntry
	closed  bool
}

// NewVectorIndex creates an in-memory vector index scoring with the
// given distance metric.
func NewVectorIndex(metric domain.DistanceMetric) *VectorIndex {
	return &VectorIndex{
		metric:  metric,
		entries: make(map[string]driven.IndexEntry),
	}
}

// Upsert inserts or replaces vectors for the given entries.
func (s *VectorIndex) Upsert(_ context.Context, entries []driven.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrIndexUnavailable
	}

	for _, entry := range entries {
		stored := make([]float32, len(entry.Embedding))
		copy(stored, entry.Embedding)
		entry.Embedding = stored
		s.entries[entry.ChunkID] = entry
	}
	return nil
}

// Delete removes vectors by chunk ID. Unknown IDs are ignored.
func (s *VectorIndex) Delete(_ context.Context, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrIndexUnavailable
	}

	for _, id := range chunkIDs {
		delete(s.entries, id)
	}
	return nil
}

// DeleteByDocument removes every vector belonging to a document.
func (s *VectorIndex) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrIndexUnavailable
	}

	for id, entry := range s.entries {
		if entry.DocumentID == documentID {
			delete(s.entries, id)
		}
	}
	return nil
}

// Query scans all vectors and returns the k best matches by descending
// score. Ties break by chunk ID so results are deterministic.
func (s *VectorIndex) Query(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrIndexUnavailable
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(s.entries))
	for id, entry := range s.entries {
		hits = append(hits, driven.VectorHit{
			ChunkID: id,
			Score:   domain.ScoreVectors(s.metric, query, entry.Embedding),
		})
	}

	slices.SortFunc(hits, func(a, b driven.VectorHit) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.ChunkID, b.ChunkID))
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (s *VectorIndex) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, domain.ErrIndexUnavailable
	}
	return len(s.entries), nil
}

// Close marks the index unavailable. Close is idempotent.
func (s *VectorIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
