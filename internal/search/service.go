package search

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"jobscout/internal/analysis"
	"jobscout/internal/cache"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/query"
	"jobscout/internal/scraper"
	"jobscout/internal/scraper/extractor"
	"jobscout/internal/scraper/workers"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Options tunes the scrape pipeline
type Options struct {
	SearchURL         string
	MaxJobs           int
	ScrapeTimeout     time.Duration
	EnrichmentEnabled bool
}

// OptionsFromConfig reads the scraper and enrichment sections
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SearchURL:         cfg.Scraper.SearchURL,
		MaxJobs:           cfg.Scraper.MaxJobs,
		ScrapeTimeout:     cfg.Scraper.ScrapeTimeout,
		EnrichmentEnabled: cfg.Enrichment.Enabled,
	}
}

// Service answers searches from the cache and runs at most one live scrape
// per cache key at a time
type Service struct {
	store    cache.Store
	sessions scraper.SessionFactory
	enricher *workers.Enricher
	analyzer *analysis.Analyzer
	opts     Options
	group    singleflight.Group
	logger   types.Logger

	liveScrapes    atomic.Int64
	cacheHits      atomic.Int64
	staleFallbacks atomic.Int64
	joinedScrapes  atomic.Int64
}

// NewService wires the pipeline stages together
func NewService(store cache.Store, sessions scraper.SessionFactory, enricher *workers.Enricher, analyzer *analysis.Analyzer, opts Options) *Service {
	if opts.SearchURL == "" {
		opts.SearchURL = utils.DefaultLinkedInSearchURL
	}
	if opts.MaxJobs <= 0 || opts.MaxJobs > models.MaxJobsPerResult {
		opts.MaxJobs = models.MaxJobsPerResult
	}
	if opts.ScrapeTimeout <= 0 {
		opts.ScrapeTimeout = 2 * time.Minute
	}
	if analyzer == nil {
		analyzer = analysis.New(analysis.DefaultThreshold)
	}
	return &Service{
		store:    store,
		sessions: sessions,
		enricher: enricher,
		analyzer: analyzer,
		opts:     opts,
		logger:   logging.GetGlobalLogger().WithField("component", "search"),
	}
}

// Search validates the request and returns a cached, live or stale result.
// If ctx ends while a scrape is running the caller gets a RequestTimeout
// error and the scrape carries on to populate the cache.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (models.ScrapeResult, error) {
	q, err := query.Normalize(req)
	if err != nil {
		return models.ScrapeResult{}, err
	}
	key := q.CacheKey()
	logger := s.logger.WithContext(ctx).WithField("cache_key", key)

	if lookup := s.lookup(ctx, key); lookup.State == cache.Fresh {
		s.cacheHits.Add(1)
		logger.Debug("Serving fresh cache entry")
		return lookup.Entry.Payload.WithSource(models.SourceCache), nil
	}

	// The scrape outlives the caller; it keeps request values but not its deadline
	scrapeCtx := context.WithoutCancel(ctx)
	leader := false
	ch := s.group.DoChan(key, func() (interface{}, error) {
		leader = true
		return s.scrape(scrapeCtx, q, key)
	})

	select {
	case res := <-ch:
		if !leader {
			s.joinedScrapes.Add(1)
		}
		if res.Err != nil {
			return s.fallback(ctx, key, res.Err, logger)
		}
		return res.Val.(models.ScrapeResult).Clone(), nil
	case <-ctx.Done():
		logger.Warn("Caller gave up waiting for scrape", map[string]interface{}{"error": ctx.Err().Error()})
		return models.ScrapeResult{}, utils.NewRequestTimeoutError(ctx.Err())
	}
}

// fallback serves a stale entry for scrape failures that have one
func (s *Service) fallback(ctx context.Context, key string, scrapeErr error, logger types.Logger) (models.ScrapeResult, error) {
	if !utils.IsScrapeFailure(scrapeErr) {
		return models.ScrapeResult{}, scrapeErr
	}

	lookup := s.lookup(ctx, key)
	if lookup.State == cache.Miss {
		logger.Error("Scrape failed with no cached fallback", map[string]interface{}{"error": scrapeErr.Error()})
		return models.ScrapeResult{}, scrapeErr
	}

	s.staleFallbacks.Add(1)
	logger.Warn("Scrape failed, serving cached entry", map[string]interface{}{
		"error":      scrapeErr.Error(),
		"created_at": lookup.Entry.CreatedAt,
	})
	return lookup.Entry.Payload.WithSource(models.SourceStaleCacheOnError), nil
}

// lookup treats cache errors as misses; a broken cache must not fail searches
func (s *Service) lookup(ctx context.Context, key string) cache.Lookup {
	lookup, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed", map[string]interface{}{"cache_key": key, "error": err.Error()})
		return cache.Lookup{State: cache.Miss}
	}
	return lookup
}

func (s *Service) scrape(ctx context.Context, q *query.FilterQuery, key string) (models.ScrapeResult, error) {
	// a flight that finished between the caller's lookup and now
	if lookup := s.lookup(ctx, key); lookup.State == cache.Fresh {
		return lookup.Entry.Payload.WithSource(models.SourceCache), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ScrapeTimeout)
	defer cancel()

	s.liveScrapes.Add(1)
	start := time.Now()
	logger := s.logger.WithField("cache_key", key)

	session := s.sessions()
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser session", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := session.Launch(ctx); err != nil {
		return models.ScrapeResult{}, err
	}

	searchURL, err := utils.BuildSearchURL(s.opts.SearchURL, q.SiteParams())
	if err != nil {
		return models.ScrapeResult{}, utils.NewInternalServerError("failed to build search url").WithCause(err)
	}
	if err := session.Navigate(ctx, searchURL); err != nil {
		return models.ScrapeResult{}, err
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return models.ScrapeResult{}, utils.NewNavigationFailedError(searchURL, false, err)
	}

	page, err := extractor.ExtractListings(html, s.opts.MaxJobs)
	if err != nil {
		return models.ScrapeResult{}, err
	}

	jobs := make([]models.JobListing, 0, len(page.Jobs))
	for _, job := range page.Jobs {
		if q.MatchesCompany(job.Company) {
			jobs = append(jobs, job)
		}
	}

	failures := 0
	if s.opts.EnrichmentEnabled && s.enricher != nil && len(jobs) > 0 {
		jobs, failures = s.enricher.Enrich(ctx, session, jobs)
	}

	if len(jobs) > models.MaxJobsPerResult {
		jobs = jobs[:models.MaxJobsPerResult]
	}

	result := models.ScrapeResult{
		Jobs:             jobs,
		Source:           models.SourceLive,
		Count:            len(jobs),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		DetailFailures:   failures,
		FilterWarning:    s.analyzer.Analyze(jobs, q),
	}

	if err := s.store.Put(ctx, key, result); err != nil {
		logger.Error("Failed to cache scrape result", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Live scrape finished", map[string]interface{}{
		"count":           result.Count,
		"skipped_cards":   page.Skipped,
		"site_no_results": page.NoResults,
		"detail_failures": failures,
		"filter_warning":  result.FilterWarning != nil,
		"duration_ms":     result.ProcessingTimeMS,
	})
	return result, nil
}

// Stats reports cache size and pipeline counters
func (s *Service) Stats(ctx context.Context) models.CacheStatsResponse {
	entries, err := s.store.Len(ctx)
	if err != nil {
		s.logger.Warn("Failed to count cache entries", map[string]interface{}{"error": err.Error()})
		entries = -1
	}
	return models.CacheStatsResponse{
		Entries:        entries,
		LiveScrapes:    s.liveScrapes.Load(),
		CacheHits:      s.cacheHits.Load(),
		StaleFallbacks: s.staleFallbacks.Load(),
		JoinedScrapes:  s.joinedScrapes.Load(),
	}
}

// Ping checks the cache backend
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
