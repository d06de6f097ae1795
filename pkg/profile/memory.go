package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps visit history in memory. Used for local runs and tests
// where no database is configured.
type MemoryStore struct {
	visits map[string][]Visit
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{visits: make(map[string][]Visit)}
}

// Visits returns a user's visit history, most recent first.
func (s *MemoryStore) Visits(_ context.Context, userID string) ([]Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.visits[userID]
	out := make([]Visit, len(stored))
	for i, v := range stored {
		out[len(stored)-1-i] = v
	}
	return out, nil
}

// RecordVisit stores one visit.
func (s *MemoryStore) RecordVisit(_ context.Context, userID string, v Visit) error {
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[userID] = append(s.visits[userID], v)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
