package models

// Source labels where a ScrapeResult came from
type Source string

const (
	SourceLive              Source = "live"
	SourceCache             Source = "cache"
	SourceStaleCacheOnError Source = "stale_cache_on_error"
)

// MaxJobsPerResult is the hard cap applied to every result set before caching
const MaxJobsPerResult = 25

// JobListing represents one posting as scraped from the search results page.
// The enrichment fields are filled by the detail fetch and stay empty when
// that fetch fails.
type JobListing struct {
	Title      string `json:"title"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	URL        string `json:"url"`
	DatePosted string `json:"date_posted"`
	Snippet    string `json:"snippet"`

	Description    string `json:"description,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	Seniority      string `json:"seniority,omitempty"`
}

// Enriched reports whether any detail field has been merged into the listing
func (j JobListing) Enriched() bool {
	return j.Description != "" || j.EmploymentType != "" || j.Seniority != ""
}

// FilterWarning is the advisory attached when the requested filters seem to
// starve the result set of on-target postings
type FilterWarning struct {
	Message               string   `json:"message"`
	Suggestions           []string `json:"suggestions"`
	RelaxedFiltersRemoved []string `json:"relaxed_filters_removed"`
	SuggestedQueryParams  string   `json:"suggested_query_params"`
}

// ScrapeResult is the response envelope for a search
type ScrapeResult struct {
	Jobs             []JobListing   `json:"jobs"`
	Source           Source         `json:"source"`
	Count            int            `json:"count"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	DetailFailures   int            `json:"detail_failures"`
	FilterWarning    *FilterWarning `json:"filter_warning,omitempty"`
}

// WithSource returns a copy of the envelope labelled with the given source
func (r ScrapeResult) WithSource(source Source) ScrapeResult {
	r.Source = source
	return r
}

// Clone returns a deep copy so cached envelopes cannot be mutated through
// a returned value
func (r ScrapeResult) Clone() ScrapeResult {
	if r.Jobs != nil {
		r.Jobs = append(make([]JobListing, 0, len(r.Jobs)), r.Jobs...)
	}
	if r.FilterWarning != nil {
		w := *r.FilterWarning
		w.Suggestions = append(make([]string, 0, len(w.Suggestions)), w.Suggestions...)
		w.RelaxedFiltersRemoved = append(make([]string, 0, len(w.RelaxedFiltersRemoved)), w.RelaxedFiltersRemoved...)
		r.FilterWarning = &w
	}
	return r
}
