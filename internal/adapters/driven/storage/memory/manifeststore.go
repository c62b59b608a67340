package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
type ManifestStore struct {
	mu      sync.RWMutex
	entries map[string]domain.ManifestEntry
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{
		entries: make(map[string]domain.ManifestEntry),
	}
}

func manifestKey(sourceID, documentID string) string {
	return sourceID + "/" + documentID
}

// Get retrieves the manifest entry for a document.
func (s *ManifestStore) Get(_ context.Context, sourceID, documentID string) (*domain.ManifestEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[manifestKey(sourceID, documentID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// List returns all manifest entries for a source.
func (s *ManifestStore) List(_ context.Context, sourceID string) ([]domain.ManifestEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ManifestEntry
	for _, entry := range s.entries {
		if entry.SourceID == sourceID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// Update stores an entry when the recorded hash matches expectedHash.
// An empty expectedHash asserts the entry does not exist yet. The check
// and the write happen under one lock, giving compare-and-swap
// semantics for concurrent sync workers.
func (s *ManifestStore) Update(_ context.Context, entry domain.ManifestEntry, expectedHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := manifestKey(entry.SourceID, entry.DocumentID)
	current, exists := s.entries[key]

	if expectedHash == "" {
		if exists {
			return fmt.Errorf("manifest %s already recorded: %w", entry.DocumentID, domain.ErrConflict)
		}
	} else if !exists || current.ContentHash != expectedHash {
		return fmt.Errorf("manifest %s changed underneath: %w", entry.DocumentID, domain.ErrConflict)
	}

	s.entries[key] = entry
	return nil
}

// Delete removes the manifest entry for a document.
func (s *ManifestStore) Delete(_ context.Context, sourceID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, manifestKey(sourceID, documentID))
	return nil
}

// DeleteBySource removes every manifest entry for a source.
func (s *ManifestStore) DeleteBySource(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.SourceID == sourceID {
			delete(s.entries, key)
		}
	}
	return nil
}
