package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore keeps sources in an ID-keyed map guarded by a RWMutex.
// It matches the SQLite adapter's observable behaviour, so services
// run the same against either: Save stamps timestamps and List comes
// back ordered by ID.
type SourceStore struct {
	mu   sync.RWMutex
	byID map[string]domain.Source
}

// NewSourceStore returns an empty in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{byID: make(map[string]domain.Source)}
}

// Save stores or updates a source. CreatedAt is stamped on first save
// and preserved on updates; UpdatedAt is stamped on every save.
func (ss *SourceStore) Save(_ context.Context, src domain.Source) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	src.UpdatedAt = time.Now().UTC()
	if existing, ok := ss.byID[src.ID]; ok {
		src.CreatedAt = existing.CreatedAt
	} else if src.CreatedAt.IsZero() {
		src.CreatedAt = src.UpdatedAt
	}
	src.Config = maps.Clone(src.Config)

	ss.byID[src.ID] = src
	return nil
}

// Get returns the source with the given ID.
func (ss *SourceStore) Get(_ context.Context, id string) (*domain.Source, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	src, ok := ss.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	src.Config = maps.Clone(src.Config)
	return &src, nil
}

// Delete removes a source. Deleting a missing source is a no-op.
func (ss *SourceStore) Delete(_ context.Context, id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.byID, id)
	return nil
}

// List returns all configured sources ordered by ID.
func (ss *SourceStore) List(_ context.Context) ([]domain.Source, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	listed := make([]domain.Source, 0, len(ss.byID))
	for _, src := range ss.byID {
		src.Config = maps.Clone(src.Config)
		listed = append(listed, src)
	}
	slices.SortFunc(listed, func(a, b domain.Source) int { return cmp.Compare(a.ID, b.ID) })
	return listed, nil
}
