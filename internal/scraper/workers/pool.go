package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scraper"
	"jobscout/internal/scraper/extractor"
	"jobscout/pkg/models"
)

// DefaultConcurrency is the number of detail fetches in flight per scrape
const DefaultConcurrency = 5

// Options configures an Enricher
type Options struct {
	Concurrency  int
	FetchTimeout time.Duration
}

// OptionsFromConfig reads the enrichment section of the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Concurrency:  cfg.Enrichment.Concurrency,
		FetchTimeout: cfg.Enrichment.FetchTimeout,
	}
}

// Stats are cumulative detail fetch counters
type Stats struct {
	Fetched int64 `json:"fetched"`
	Failed  int64 `json:"failed"`
}

// Enricher fans detail page fetches out over a fixed set of workers. Each
// worker writes only to the slot of the listing it took off the queue.
type Enricher struct {
	opts    Options
	limiter *HostLimiter
	logger  types.Logger

	fetched atomic.Int64
	failed  atomic.Int64
}

// NewEnricher creates an enricher; limiter may be nil to disable pacing
func NewEnricher(opts Options, limiter *HostLimiter) *Enricher {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	return &Enricher{
		opts:    opts,
		limiter: limiter,
		logger:  logging.GetGlobalLogger().WithField("component", "detail_enricher"),
	}
}

// Enrich fetches every listing's detail page and returns a new slice with the
// detail fields merged in, plus the number of fetches that failed. Failed
// listings keep their base fields. It returns once every listing is accounted
// for, after at most ceil(n/concurrency) fetch timeouts.
func (e *Enricher) Enrich(ctx context.Context, fetcher scraper.PageFetcher, jobs []models.JobListing) ([]models.JobListing, int) {
	out := make([]models.JobListing, len(jobs))
	copy(out, jobs)
	if len(out) == 0 {
		return out, 0
	}

	failed := make([]bool, len(out))
	queue := make(chan int, len(out))
	for i := range out {
		queue <- i
	}
	close(queue)

	workers := e.opts.Concurrency
	if workers > len(out) {
		workers = len(out)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range queue {
				if err := e.enrichOne(ctx, fetcher, &out[i]); err != nil {
					failed[i] = true
					e.logger.Debug("Detail fetch failed", map[string]interface{}{
						"worker_id": workerID,
						"url":       out[i].URL,
						"error":     err.Error(),
					})
				}
			}
		}(w + 1)
	}
	wg.Wait()

	failures := 0
	for _, f := range failed {
		if f {
			failures++
		}
	}

	e.fetched.Add(int64(len(out) - failures))
	e.failed.Add(int64(failures))

	e.logger.Info("Detail enrichment finished", map[string]interface{}{
		"listings":    len(out),
		"failures":    failures,
		"workers":     workers,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, failures
}

func (e *Enricher) enrichOne(ctx context.Context, fetcher scraper.PageFetcher, job *models.JobListing) error {
	fetchCtx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(fetchCtx, job.URL); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	html, err := fetcher.FetchPage(fetchCtx, job.URL)
	if err != nil {
		return err
	}
	// a fetch that returns after its deadline is still a failure
	if err := fetchCtx.Err(); err != nil {
		return err
	}

	detail, err := extractor.ParseDetail(html)
	if err != nil {
		return err
	}
	detail.ApplyTo(job)
	return nil
}

// Stats returns cumulative fetch counters
func (e *Enricher) Stats() Stats {
	return Stats{Fetched: e.fetched.Load(), Failed: e.failed.Load()}
}
