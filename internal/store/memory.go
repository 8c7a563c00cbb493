package store

import (
	"context"
	"sync"

	"github.com/i474232898/season-snow-board/internal/snow"
)

// MemoryStore is a concurrency-safe in-memory totals store. Nothing survives
// the process; it backs dry runs and tests.
type MemoryStore struct {
	mu sync.RWMutex

	totals  snow.Totals // nil until the first Save
	resorts []snow.Resort
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(resorts []snow.Resort) *MemoryStore {
	return &MemoryStore{resorts: resorts}
}

// Load returns a copy of the saved totals, or zero totals before any Save.
func (s *MemoryStore) Load(_ context.Context) (snow.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.totals == nil {
		return snow.ZeroTotals(s.resorts), nil
	}
	return s.totals.Clone(), nil
}

// Save replaces the stored totals with a copy of totals.
func (s *MemoryStore) Save(_ context.Context, totals snow.Totals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals = totals.Clone()
	return nil
}
