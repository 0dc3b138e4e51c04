package handlers

import (
	"context"

	"jobscout/pkg/models"
)

// SearchService is what the handlers need from the search orchestrator
type SearchService interface {
	Search(ctx context.Context, req models.SearchRequest) (models.ScrapeResult, error)
	Stats(ctx context.Context) models.CacheStatsResponse
	Ping(ctx context.Context) error
}
