package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"jobscout/internal/logging"
)

// Evictor periodically drops entries past their stale window
type Evictor struct {
	cron   *cron.Cron
	store  Store
	spec   string
	logger logging.Logger

	mu      sync.Mutex
	running bool
}

// NewEvictor creates an evictor firing on a cron spec such as "@every 5m"
func NewEvictor(store Store, spec string) *Evictor {
	return &Evictor{
		// SkipIfStillRunning keeps a slow sweep from overlapping the next tick
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		store:  store,
		spec:   spec,
		logger: logging.GetGlobalLogger().WithField("component", "cache_evictor"),
	}
}

// Start registers the sweep and starts the scheduler
func (e *Evictor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	if _, err := e.cron.AddFunc(e.spec, func() { e.Sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid eviction schedule %q: %w", e.spec, err)
	}

	e.cron.Start()
	e.running = true
	e.logger.Info("Cache eviction scheduled", map[string]interface{}{"spec": e.spec})
	return nil
}

// Sweep runs one eviction pass
func (e *Evictor) Sweep(ctx context.Context) int {
	removed, err := e.store.InvalidateExpired(ctx)
	if err != nil {
		e.logger.Error("Cache eviction failed", map[string]interface{}{"error": err.Error()})
		return 0
	}
	if removed > 0 {
		e.logger.Debug("Evicted expired cache entries", map[string]interface{}{"removed": removed})
	}
	return removed
}

// Stop stops the scheduler and waits for a running sweep to finish
func (e *Evictor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	<-e.cron.Stop().Done()
	e.running = false
}
