package overlay

import (
	"context"
	"sync"

	"github.com/zatekoja/hospitalrouter/backend/internal/domain/entities"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/repositories"
)

// MemoryStore keeps the capacity overlay in process memory behind one mutex.
// Entries are created on first Apply and never expire.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entities.CapacityOverlay
}

var _ repositories.CapacityOverlayStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory overlay store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entities.CapacityOverlay)}
}

// Get returns a copy of the hospital's overlay
func (s *MemoryStore) Get(_ context.Context, hospitalID string) (entities.CapacityOverlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[hospitalID].Clone(), nil
}

// Snapshot returns a deep copy of every overlay
func (s *MemoryStore) Snapshot(_ context.Context) (map[string]entities.CapacityOverlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]entities.CapacityOverlay, len(s.entries))
	for id, entry := range s.entries {
		out[id] = entry.Clone()
	}
	return out, nil
}

// Apply adds delta to the hospital's overlay under the write lock
func (s *MemoryStore) Apply(_ context.Context, hospitalID string, delta entities.CapacityOverlay) error {
	if hospitalID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hospitalID] = s.entries[hospitalID].Add(delta)
	return nil
}
