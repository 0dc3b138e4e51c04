package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"jobscout/internal/query"
	"jobscout/pkg/models"
)

// DefaultThreshold is the internship share above which a warning is emitted
const DefaultThreshold = 0.5

// InternshipKeywords are matched as whole words against title and snippet
var InternshipKeywords = []string{
	"intern", "interns", "internship", "internships",
	"trainee", "traineeship",
	"apprentice", "apprenticeship",
	"co-op", "werkstudent", "working student",
	"praktikum", "praktikant", "stagiaire",
}

var internshipPattern = compileKeywords(InternshipKeywords)

func compileKeywords(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// IsInternship classifies a listing from its title and snippet alone
func IsInternship(job models.JobListing) bool {
	return internshipPattern.MatchString(job.Title) || internshipPattern.MatchString(job.Snippet)
}

// Relaxation is a filter value the analyzer may propose dropping
type Relaxation struct {
	Field  string
	Values []string
}

func (r Relaxation) matches(q *query.FilterQuery) bool {
	v := q.Value(r.Field)
	for _, candidate := range r.Values {
		if v == candidate {
			return true
		}
	}
	return false
}

// DefaultPriority is the order in which relaxations are proposed
var DefaultPriority = []Relaxation{
	{Field: query.FieldExperience, Values: []string{"entry"}},
	{Field: query.FieldWorkplace, Values: []string{"remote"}},
	{Field: query.FieldDatePosted, Values: []string{"day", "week"}},
}

// Analyzer decides whether a result set looks starved by its filters
type Analyzer struct {
	threshold float64
	priority  []Relaxation
}

// New creates an analyzer. A threshold outside (0, 1) falls back to the default.
func New(threshold float64, priority ...Relaxation) *Analyzer {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	return &Analyzer{threshold: threshold, priority: priority}
}

// Analyze returns a warning when a non-internship job type was requested but
// more than the threshold share of results are internships. It never fails;
// nil means no advice.
func (a *Analyzer) Analyze(jobs []models.JobListing, q *query.FilterQuery) *models.FilterWarning {
	if q == nil || q.JobType == "" || q.JobType == "internship" || len(jobs) == 0 {
		return nil
	}

	internships := 0
	for _, job := range jobs {
		if IsInternship(job) {
			internships++
		}
	}

	share := float64(internships) / float64(len(jobs))
	if share <= a.threshold {
		return nil
	}

	removed := []string{}
	suggestions := []string{}
	for _, r := range a.priority {
		if !r.matches(q) {
			continue
		}
		removed = append(removed, r.Field)
		suggestions = append(suggestions, fmt.Sprintf("Remove %s=%s, it tends to surface internships over %s roles",
			r.Field, q.Value(r.Field), q.JobType))
	}
	if len(removed) == 0 {
		// nothing narrower to drop, so the job type itself is the last resort
		removed = append(removed, query.FieldJobType)
		suggestions = append(suggestions,
			fmt.Sprintf("Remove job_type=%s and filter by title instead, the site tags many internships as %s", q.JobType, q.JobType),
			"Try a more specific keyword, such as a seniority or technology term")
	}

	return &models.FilterWarning{
		Message: fmt.Sprintf("%d of %d results look like internships although job_type=%s was requested",
			internships, len(jobs), q.JobType),
		Suggestions:           suggestions,
		RelaxedFiltersRemoved: removed,
		SuggestedQueryParams:  q.Without(removed...).Encode(),
	}
}
