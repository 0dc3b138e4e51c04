package analysis

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/query"
	"jobscout/pkg/models"
)

func filterQuery(t *testing.T, req models.SearchRequest) *query.FilterQuery {
	t.Helper()
	if req.Keyword == "" {
		req.Keyword = "software engineer"
	}
	if req.Location == "" {
		req.Location = "Berlin"
	}
	q, err := query.Normalize(req)
	require.NoError(t, err)
	return q
}

func mixed(internships, others int) []models.JobListing {
	var jobs []models.JobListing
	for i := 0; i < internships; i++ {
		jobs = append(jobs, models.JobListing{Title: "Software Engineering Intern", URL: "i"})
	}
	for i := 0; i < others; i++ {
		jobs = append(jobs, models.JobListing{Title: "Senior Software Engineer", Snippet: "Own our internal platform", URL: "o"})
	}
	return jobs
}

func TestIsInternship(t *testing.T) {
	tests := []struct {
		job  models.JobListing
		want bool
	}{
		{models.JobListing{Title: "Summer Internship 2026"}, true},
		{models.JobListing{Title: "Backend Engineer", Snippet: "Join as a working student"}, true},
		{models.JobListing{Title: "Werkstudent Data (m/w/d)"}, true},
		{models.JobListing{Title: "INTERN - Platform"}, true},
		{models.JobListing{Title: "Internal Tools Engineer"}, false},
		{models.JobListing{Title: "International Sales Lead"}, false},
		{models.JobListing{Title: "Go Developer", Snippet: "Mentor our interns"}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsInternship(tt.job), tt.job.Title)
	}
}

func TestAnalyze_WarnsWhenInternshipsDominate(t *testing.T) {
	q := filterQuery(t, models.SearchRequest{
		JobType:    "fulltime",
		Experience: "entry",
		Workplace:  "remote",
		DatePosted: "week",
	})

	w := New(DefaultThreshold).Analyze(mixed(3, 1), q)
	require.NotNil(t, w)

	assert.Equal(t, []string{"experience", "workplace", "date_posted"}, w.RelaxedFiltersRemoved)
	assert.Len(t, w.Suggestions, 3)
	assert.Contains(t, w.Message, "3 of 4")

	params, err := url.ParseQuery(w.SuggestedQueryParams)
	require.NoError(t, err)
	assert.Equal(t, "fulltime", params.Get("job_type"))
	assert.Equal(t, "software engineer", params.Get("keyword"))
	assert.Empty(t, params.Get("experience"))
	assert.Empty(t, params.Get("workplace"))
	assert.Empty(t, params.Get("date_posted"))
}

func TestAnalyze_OnlyPresentFiltersInPriorityOrder(t *testing.T) {
	q := filterQuery(t, models.SearchRequest{
		JobType:    "contract",
		DatePosted: "day",
		Workplace:  "hybrid", // not a relaxation candidate
	})

	w := New(DefaultThreshold).Analyze(mixed(4, 0), q)
	require.NotNil(t, w)
	assert.Equal(t, []string{"date_posted"}, w.RelaxedFiltersRemoved)

	params, _ := url.ParseQuery(w.SuggestedQueryParams)
	assert.Equal(t, "hybrid", params.Get("workplace"))
}

func TestAnalyze_NoWarning(t *testing.T) {
	fulltime := filterQuery(t, models.SearchRequest{JobType: "fulltime", Experience: "entry"})

	tests := []struct {
		name string
		jobs []models.JobListing
		q    *query.FilterQuery
	}{
		{"no internships", mixed(0, 4), fulltime},
		{"exactly half", mixed(2, 2), fulltime},
		{"empty result", nil, fulltime},
		{"no job type", mixed(4, 0), filterQuery(t, models.SearchRequest{Experience: "entry"})},
		{"internships requested", mixed(4, 0), filterQuery(t, models.SearchRequest{JobType: "internship", Experience: "entry"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, New(DefaultThreshold).Analyze(tt.jobs, tt.q))
		})
	}
}

func TestAnalyze_NoRelaxableFilters(t *testing.T) {
	q := filterQuery(t, models.SearchRequest{JobType: "fulltime"})

	w := New(DefaultThreshold).Analyze(mixed(3, 1), q)
	require.NotNil(t, w)
	assert.Equal(t, []string{"job_type"}, w.RelaxedFiltersRemoved)
	assert.Len(t, w.Suggestions, 2)

	params, err := url.ParseQuery(w.SuggestedQueryParams)
	require.NoError(t, err)
	assert.Empty(t, params.Get("job_type"))
	assert.Equal(t, "software engineer", params.Get("keyword"))
	assert.Equal(t, "berlin", strings.ToLower(params.Get("location")))
}

func TestAnalyze_ConfigurableThreshold(t *testing.T) {
	q := filterQuery(t, models.SearchRequest{JobType: "fulltime", Experience: "entry"})

	assert.Nil(t, New(0.8).Analyze(mixed(3, 1), q))
	assert.NotNil(t, New(0.2).Analyze(mixed(1, 3), q))
	assert.NotNil(t, New(5).Analyze(mixed(3, 1), q), "out of range falls back to default")
}

func TestAnalyze_CustomPriority(t *testing.T) {
	q := filterQuery(t, models.SearchRequest{JobType: "fulltime", Experience: "entry", Workplace: "remote"})

	a := New(DefaultThreshold, Relaxation{Field: query.FieldWorkplace, Values: []string{"remote"}})
	w := a.Analyze(mixed(3, 1), q)
	require.NotNil(t, w)
	assert.Equal(t, []string{"workplace"}, w.RelaxedFiltersRemoved)
}
