package reconcile

import (
	"context"
	"strconv"
	"sync"
)

// MemStore is an in-memory Store. It keeps records in insertion order and
// allocates numeric ids as max(existing)+1, which keeps classification and
// tie-break behavior deterministic in tests.
type MemStore struct {
	mu      sync.RWMutex
	records []Record
	lookups map[string][]Lookup
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{lookups: make(map[string][]Lookup)}
}

// Seed appends records without allocating ids.
func (s *MemStore) Seed(records ...Record) *MemStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return s
}

// SeedLookups registers the dependency pool for a kind.
func (s *MemStore) SeedLookups(kind string, lookups ...Lookup) *MemStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[kind] = append(s.lookups[kind], lookups...)
	return s
}

func (s *MemStore) NextID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, record := range s.records {
		if id, err := strconv.Atoi(record.ID); err == nil && id > max {
			max = id
		}
	}
	return strconv.Itoa(max + 1), nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			record := s.records[i]
			return &record, nil
		}
	}
	return nil, nil
}

func (s *MemStore) List(ctx context.Context, scopeKeys []string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, record := range s.records {
		if scopeEqual(scopeKeys, record.ScopeKeys) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *MemStore) Lookups(ctx context.Context, kind string) ([]Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool := s.lookups[kind]
	out := make([]Lookup, len(pool))
	copy(out, pool)
	return out, nil
}

func (s *MemStore) Append(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *MemStore) Replace(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == record.ID {
			s.records[i] = record
			return nil
		}
	}
	return NewNotFoundError(record.ID)
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
