package workers

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostIdleTTL is how long an unused host bucket is kept
const hostIdleTTL = 10 * time.Minute

type hostLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// HostLimiter paces requests per host with a token bucket each. It is shared
// by every scrape in the process so concurrent scrapes pace together.
type HostLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	hosts     map[string]*hostLimiter
	lastPrune time.Time
}

// NewHostLimiter creates a limiter allowing rps requests per second per host.
// A non-positive rps disables pacing.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limit:     limit,
		burst:     burst,
		hosts:     make(map[string]*hostLimiter),
		lastPrune: time.Now(),
	}
}

// Wait blocks until a request to rawURL's host may proceed or ctx ends
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	return hl.get(hostOf(rawURL)).Wait(ctx)
}

func (hl *HostLimiter) get(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	now := time.Now()
	if now.Sub(hl.lastPrune) > hostIdleTTL {
		for h, l := range hl.hosts {
			if now.Sub(l.lastSeen) > hostIdleTTL {
				delete(hl.hosts, h)
			}
		}
		hl.lastPrune = now
	}

	l, ok := hl.hosts[host]
	if !ok {
		l = &hostLimiter{limiter: rate.NewLimiter(hl.limit, hl.burst)}
		hl.hosts[host] = l
	}
	l.lastSeen = now
	return l.limiter
}

// Hosts returns how many host buckets are live
func (hl *HostLimiter) Hosts() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return len(hl.hosts)
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(parsed.Hostname())
}
