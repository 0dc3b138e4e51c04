package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Search results card selectors
const (
	cardSelector     = "div.base-card, div.base-search-card"
	titleSelector    = "h3.base-search-card__title"
	companySelector  = "h4.base-search-card__subtitle"
	locationSelector = "span.job-search-card__location"
	linkSelector     = "a.base-card__full-link"
	dateSelector     = "time.job-search-card__listdate, time.job-search-card__listdate--new"
	snippetSelector  = "p.job-search-card__snippet, div.base-search-card__metadata p"
)

// Markers the site renders when a search has no matches
var noResultsSelectors = []string{
	"section.no-results",
	"div.no-results",
	"h1.no-results__main-title",
	".jobs-search-no-results-banner",
}

// ListingPage is the outcome of parsing one search results document
type ListingPage struct {
	Jobs []models.JobListing
	// Cards found but dropped for a missing title or url, or as duplicates
	Skipped int
	// The site itself reported zero matches
	NoResults bool
}

// ExtractListings parses the rendered search results into listings in page
// order, deduplicated by posting and capped at limit. A document with
// no parseable cards is a NoListingsFound error unless the site marked the
// search as empty.
func ExtractListings(html string, limit int) (*ListingPage, error) {
	if limit <= 0 || limit > models.MaxJobsPerResult {
		limit = models.MaxJobsPerResult
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, utils.NewNoListingsFoundError(fmt.Sprintf("unparseable document: %v", err))
	}

	page := &ListingPage{Jobs: []models.JobListing{}}
	seen := make(map[string]bool)

	doc.Find(cardSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		job, ok := parseCard(card)
		if !ok || seen[identity(job.URL)] {
			page.Skipped++
			return true
		}
		seen[identity(job.URL)] = true
		page.Jobs = append(page.Jobs, job)
		return len(page.Jobs) < limit
	})

	if len(page.Jobs) > 0 {
		return page, nil
	}

	if hasNoResultsMarker(doc) {
		page.NoResults = true
		return page, nil
	}

	if page.Skipped > 0 {
		return nil, utils.NewNoListingsFoundError(fmt.Sprintf("%d cards found, none with a title and url", page.Skipped))
	}
	return nil, utils.NewNoListingsFoundError("no listing cards in document")
}

func parseCard(card *goquery.Selection) (models.JobListing, bool) {
	title := text(card, titleSelector)
	href, _ := card.Find(linkSelector).First().Attr("href")
	if title == "" || strings.TrimSpace(href) == "" {
		return models.JobListing{}, false
	}

	link, err := utils.CanonicalJobURL(href)
	if err != nil {
		return models.JobListing{}, false
	}

	return models.JobListing{
		Title:      title,
		Company:    text(card, companySelector),
		Location:   text(card, locationSelector),
		URL:        link,
		DatePosted: text(card, dateSelector),
		Snippet:    text(card, snippetSelector),
	}, true
}

// identity is the posting's numeric ID when the URL carries one, so slug and
// country subdomain variants of the same posting collapse
func identity(link string) string {
	if id, err := utils.ExtractLinkedInJobID(link); err == nil {
		return "id:" + id
	}
	return link
}

func hasNoResultsMarker(doc *goquery.Document) bool {
	for _, sel := range noResultsSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

func text(s *goquery.Selection, selector string) string {
	return utils.CleanText(s.Find(selector).First().Text())
}
