package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultLinkedInSearchURL is the public, guest-accessible job search page
const DefaultLinkedInSearchURL = "https://www.linkedin.com/jobs/search/"

var jobViewIDPattern = regexp.MustCompile(`^/jobs/view/(?:[^/]*-)?(\d+)/?$`)

// IsLinkedInURL checks if a URL is a LinkedIn URL, including country subdomains
func IsLinkedInURL(urlStr string) bool {
	if urlStr == "" {
		return false
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	hostname := strings.ToLower(parsedURL.Hostname())
	return hostname == "linkedin.com" || strings.HasSuffix(hostname, ".linkedin.com")
}

// CanonicalJobURL strips tracking query parameters and fragments from a
// listing URL so that the same posting always has the same identity.
// Relative hrefs are resolved against the LinkedIn origin.
func CanonicalJobURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty listing URL")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %q: %w", raw, err)
	}

	if !parsed.IsAbs() {
		base, _ := url.Parse("https://www.linkedin.com")
		parsed = base.ResolveReference(parsed)
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	if parsed.Path == "" {
		return "", fmt.Errorf("listing URL %q has no path", raw)
	}

	return parsed.String(), nil
}

// ExtractLinkedInJobID extracts the numeric job ID from a /jobs/view/ URL
func ExtractLinkedInJobID(urlStr string) (string, error) {
	if !IsLinkedInURL(urlStr) {
		return "", fmt.Errorf("not a LinkedIn URL: %s", urlStr)
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if matches := jobViewIDPattern.FindStringSubmatch(parsedURL.Path); len(matches) > 1 {
		return matches[1], nil
	}

	if currentJobID := parsedURL.Query().Get("currentJobId"); currentJobID != "" {
		return currentJobID, nil
	}

	return "", fmt.Errorf("no job ID found in LinkedIn URL: %s", urlStr)
}

// BuildSearchURL appends the encoded site parameters to the search page URL
func BuildSearchURL(base string, params url.Values) (string, error) {
	if base == "" {
		base = DefaultLinkedInSearchURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search URL %q: %w", base, err)
	}

	query := parsed.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
