package history

import (
	"context"
	"sort"
	"sync"

	"github.com/preppal/backend/internal/contracts"
)

// MemoryStore is an in-process Store for tests and database-less runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records []contracts.SalesRecord
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Window implements Provider.
func (s *MemoryStore) Window(_ context.Context, itemName string, businessType contracts.BusinessType, n int) ([]contracts.SalesRecord, error) {
	if n <= 0 {
		n = DefaultWindowDays
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := func(rec contracts.SalesRecord) bool {
		return rec.ItemName == itemName && rec.BusinessType == businessType
	}
	out := s.collect(match, n)
	if len(out) == 0 {
		out = s.collect(func(rec contracts.SalesRecord) bool {
			return rec.BusinessType == businessType
		}, n)
	}
	return out, nil
}

func (s *MemoryStore) collect(match func(contracts.SalesRecord) bool, n int) []contracts.SalesRecord {
	var out []contracts.SalesRecord
	for _, rec := range s.records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// LoadAll implements Store.
func (s *MemoryStore) LoadAll(_ context.Context) ([]contracts.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contracts.SalesRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, records []contracts.SalesRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}
