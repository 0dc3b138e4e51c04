package cache

import (
	"context"
	"sync"
	"time"

	"jobscout/pkg/models"
)

// MemoryStore keeps entries in a map guarded by a RWMutex. Entries are
// replaced whole, never mutated in place.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttls    TTLs
	now     func() time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore(ttls TTLs, opts ...MemoryOption) (*MemoryStore, error) {
	if err := ttls.Validate(); err != nil {
		return nil, err
	}

	s := &MemoryStore{
		entries: make(map[string]*Entry),
		ttls:    ttls,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Lookup, error) {
	s.mu.RLock()
	entry := s.entries[key]
	s.mu.RUnlock()

	return lookupOf(entry, s.now()), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, result models.ScrapeResult) error {
	entry := newEntry(key, result, s.now(), s.ttls)

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// InvalidateExpired removes entries past their stale window. The write lock
// is only held for the deletions, so readers are not stalled by the scan.
func (s *MemoryStore) InvalidateExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.RLock()
	var expired []string
	for key, entry := range s.entries {
		if !now.Before(entry.StaleExpiresAt) {
			expired = append(expired, key)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0, nil
	}

	removed := 0
	s.mu.Lock()
	for _, key := range expired {
		// re-check, the key may have been rewritten since the scan
		if entry, ok := s.entries[key]; ok && !now.Before(entry.StaleExpiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
