package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.ExclusionStore = (*ExclusionStore)(nil)

// pathKey identifies an excluded path within a source.
type pathKey struct {
	sourceID string
	path     string
}

// ExclusionStore keeps exclusion records keyed by ID. Sync asks
// IsExcluded once per discovered file, so excluded paths are kept in a
// refcounted index rather than scanned per call.
type ExclusionStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.Exclusion
	byPath map[pathKey]int
}

// NewExclusionStore returns an empty in-memory exclusion store.
func NewExclusionStore() *ExclusionStore {
	return &ExclusionStore{
		byID:   make(map[string]domain.Exclusion),
		byPath: make(map[pathKey]int),
	}
}

// Add records an exclusion. Adding an ID again replaces the earlier
// record, the same as the SQLite upsert.
func (es *ExclusionStore) Add(_ context.Context, ex *domain.Exclusion) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if old, ok := es.byID[ex.ID]; ok {
		es.unindex(old)
	}
	es.byID[ex.ID] = *ex
	es.byPath[pathKey{ex.SourceID, ex.Path}]++
	return nil
}

// Remove deletes an exclusion by ID. Removing a missing ID is a no-op.
func (es *ExclusionStore) Remove(_ context.Context, id string) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if old, ok := es.byID[id]; ok {
		delete(es.byID, id)
		es.unindex(old)
	}
	return nil
}

// unindex drops one reference to the exclusion's path. Caller holds the
// write lock.
func (es *ExclusionStore) unindex(ex domain.Exclusion) {
	key := pathKey{ex.SourceID, ex.Path}
	if es.byPath[key] <= 1 {
		delete(es.byPath, key)
		return
	}
	es.byPath[key]--
}

// GetBySourceID returns the source's exclusions ordered by path.
func (es *ExclusionStore) GetBySourceID(_ context.Context, sourceID string) ([]domain.Exclusion, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	matches := make([]domain.Exclusion, 0)
	for _, ex := range es.byID {
		if ex.SourceID == sourceID {
			matches = append(matches, ex)
		}
	}
	slices.SortFunc(matches, func(a, b domain.Exclusion) int { return cmp.Compare(a.Path, b.Path) })
	return matches, nil
}

// IsExcluded reports whether a source-relative path has been excluded.
func (es *ExclusionStore) IsExcluded(_ context.Context, sourceID, path string) (bool, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	_, ok := es.byPath[pathKey{sourceID, path}]
	return ok, nil
}

// List returns all exclusions ordered by source then path.
func (es *ExclusionStore) List(_ context.Context) ([]domain.Exclusion, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	all := make([]domain.Exclusion, 0, len(es.byID))
	for _, ex := range es.byID {
		all = append(all, ex)
	}
	slices.SortFunc(all, func(a, b domain.Exclusion) int {
		return cmp.Or(cmp.Compare(a.SourceID, b.SourceID), cmp.Compare(a.Path, b.Path))
	})
	return all, nil
}
