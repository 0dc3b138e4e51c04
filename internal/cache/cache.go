package cache

import (
	"context"
	"fmt"
	"time"

	"jobscout/pkg/models"
)

// State is the outcome of a cache lookup
type State int

const (
	Miss State = iota
	Fresh
	Stale
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Entry is a cached envelope with its two expiry windows
type Entry struct {
	Key            string              `json:"key"`
	Payload        models.ScrapeResult `json:"payload"`
	CreatedAt      time.Time           `json:"created_at"`
	FreshExpiresAt time.Time           `json:"fresh_expires_at"`
	StaleExpiresAt time.Time           `json:"stale_expires_at"`
}

// Lookup is the result of Get. Entry is nil on a miss.
type Lookup struct {
	State State
	Entry *Entry
}

// Store is the two-tier cache. Implementations must be safe for concurrent use
// and must replace entries atomically.
type Store interface {
	Get(ctx context.Context, key string) (Lookup, error)
	Put(ctx context.Context, key string, result models.ScrapeResult) error
	InvalidateExpired(ctx context.Context) (int, error)
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// TTLs holds the fresh and stale window lengths
type TTLs struct {
	Fresh time.Duration
	Stale time.Duration
}

// Validate ensures the stale window strictly contains the fresh one
func (t TTLs) Validate() error {
	if t.Fresh <= 0 {
		return fmt.Errorf("fresh ttl must be positive, got %s", t.Fresh)
	}
	if t.Stale <= t.Fresh {
		return fmt.Errorf("stale ttl %s must exceed fresh ttl %s", t.Stale, t.Fresh)
	}
	return nil
}

func newEntry(key string, result models.ScrapeResult, now time.Time, ttls TTLs) *Entry {
	return &Entry{
		Key:            key,
		Payload:        result.Clone(),
		CreatedAt:      now,
		FreshExpiresAt: now.Add(ttls.Fresh),
		StaleExpiresAt: now.Add(ttls.Stale),
	}
}

func classify(entry *Entry, now time.Time) State {
	switch {
	case entry == nil:
		return Miss
	case now.Before(entry.FreshExpiresAt):
		return Fresh
	case now.Before(entry.StaleExpiresAt):
		return Stale
	default:
		return Miss
	}
}

// lookupOf builds a Lookup around a private copy of the entry
func lookupOf(entry *Entry, now time.Time) Lookup {
	state := classify(entry, now)
	if state == Miss {
		return Lookup{State: Miss}
	}
	c := *entry
	c.Payload = entry.Payload.Clone()
	return Lookup{State: state, Entry: &c}
}
