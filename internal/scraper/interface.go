package scraper

import "context"

// Session is one browser lifecycle, owned by a single scrape
type Session interface {
	// Launch starts the browser with the configured proxy
	Launch(ctx context.Context) error

	// Navigate loads the URL and waits for the page to settle
	Navigate(ctx context.Context, url string) error

	// HTML returns the rendered document of the last navigation
	HTML(ctx context.Context) (string, error)

	PageFetcher

	// Close releases the browser; safe to call more than once
	Close() error
}

// PageFetcher loads a page independently of the main navigation
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// SessionFactory creates a fresh idle session per scrape
type SessionFactory func() Session
