package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"`
	Allowed   []string  `json:"allowed,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CacheStatsResponse reports cache and scrape counters
type CacheStatsResponse struct {
	Entries        int   `json:"entries"`
	LiveScrapes    int64 `json:"live_scrapes"`
	CacheHits      int64 `json:"cache_hits"`
	StaleFallbacks int64 `json:"stale_fallbacks"`
	JoinedScrapes  int64 `json:"joined_scrapes"`
}
