package query

import (
	"net/url"
	"sort"
	"strings"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Filter names as accepted on the inbound query string
const (
	FieldKeyword    = "keyword"
	FieldLocation   = "location"
	FieldDatePosted = "date_posted"
	FieldJobType    = "job_type"
	FieldExperience = "experience"
	FieldWorkplace  = "workplace"
	FieldCompany    = "company"
)

// MaxCompanies is the largest company list a single query may carry
const MaxCompanies = 10

const cacheKeyPrefix = "jobs:v1:"

// Site filter codes for each semantic value
var (
	datePostedCodes = map[string]string{
		"day":   "r86400",
		"week":  "r604800",
		"month": "r2592000",
	}
	jobTypeCodes = map[string]string{
		"fulltime":   "F",
		"parttime":   "P",
		"contract":   "C",
		"temporary":  "T",
		"internship": "I",
		"volunteer":  "V",
		"other":      "O",
	}
	experienceCodes = map[string]string{
		"internship": "1",
		"entry":      "2",
		"associate":  "3",
		"mid_senior": "4",
		"director":   "5",
		"executive":  "6",
	}
	workplaceCodes = map[string]string{
		"onsite": "1",
		"remote": "2",
		"hybrid": "3",
	}
)

// FilterQuery is a validated, normalized search request. It is never
// mutated after Normalize returns; Without derives copies.
type FilterQuery struct {
	Keyword    string   `query:"keyword" validate:"required"`
	Location   string   `query:"location" validate:"required"`
	DatePosted string   `query:"date_posted" validate:"omitempty,oneof=day week month"`
	JobType    string   `query:"job_type" validate:"omitempty,oneof=fulltime parttime contract temporary internship volunteer other"`
	Experience string   `query:"experience" validate:"omitempty,oneof=internship entry associate mid_senior director executive"`
	Workplace  string   `query:"workplace" validate:"omitempty,oneof=onsite remote hybrid"`
	Companies  []string `query:"company" validate:"max=10"`
}

// Normalize trims and case-folds the raw request, validates it and returns
// the resulting FilterQuery. Failures are *utils.CustomError validation errors.
func Normalize(req models.SearchRequest) (*FilterQuery, error) {
	q := &FilterQuery{
		Keyword:    utils.CleanText(req.Keyword),
		Location:   utils.CleanText(req.Location),
		DatePosted: normalizeEnum(req.DatePosted),
		JobType:    normalizeEnum(req.JobType),
		Experience: normalizeEnum(req.Experience),
		Workplace:  normalizeEnum(req.Workplace),
		Companies:  normalizeCompanies(req.Companies),
	}

	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return q, nil
}

// "Mid-Senior " and "mid senior" both become "mid_senior"
func normalizeEnum(value string) string {
	value = strings.ToLower(utils.CleanText(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}

// Splits comma-separated entries and drops blanks and case-insensitive duplicates,
// keeping first-seen spelling and order.
func normalizeCompanies(raw []string) []string {
	var companies []string
	seen := make(map[string]bool)
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			name := utils.CleanText(part)
			if name == "" {
				continue
			}
			folded := strings.ToLower(name)
			if seen[folded] {
				continue
			}
			seen[folded] = true
			companies = append(companies, name)
		}
	}
	return companies
}

// CacheKey is the canonical identity of the query. Equal filters give equal
// keys regardless of field order, case or whitespace.
func (q *FilterQuery) CacheKey() string {
	pairs := make([]string, 0, 7)
	for _, field := range q.presentFields() {
		value := strings.ToLower(q.Value(field))
		if field == FieldCompany {
			value = strings.Join(q.foldedCompanies(), ",")
		}
		pairs = append(pairs, field+"="+url.QueryEscape(value))
	}
	sort.Strings(pairs)
	return cacheKeyPrefix + strings.Join(pairs, "&")
}

// SiteParams translates the query to the job site's native search parameters
func (q *FilterQuery) SiteParams() url.Values {
	params := url.Values{}
	params.Set("keywords", q.Keyword)
	params.Set("location", q.Location)

	if code, ok := datePostedCodes[q.DatePosted]; ok {
		params.Set("f_TPR", code)
	}
	if code, ok := jobTypeCodes[q.JobType]; ok {
		params.Set("f_JT", code)
	}
	if code, ok := experienceCodes[q.Experience]; ok {
		params.Set("f_E", code)
	}
	if code, ok := workplaceCodes[q.Workplace]; ok {
		params.Set("f_WT", code)
	}
	if ids := q.CompanyIDs(); len(ids) > 0 {
		params.Set("f_C", strings.Join(ids, ","))
	}
	return params
}

// CompanyIDs returns the numeric company entries, which the site filters on directly
func (q *FilterQuery) CompanyIDs() []string {
	var ids []string
	for _, c := range q.Companies {
		if isNumeric(c) {
			ids = append(ids, c)
		}
	}
	return ids
}

// CompanyNames returns the non-numeric company entries, matched after extraction
func (q *FilterQuery) CompanyNames() []string {
	var names []string
	for _, c := range q.Companies {
		if !isNumeric(c) {
			names = append(names, c)
		}
	}
	return names
}

// MatchesCompany reports whether a listing's company satisfies the name filter.
// Queries without company names match everything.
func (q *FilterQuery) MatchesCompany(company string) bool {
	names := q.CompanyNames()
	if len(names) == 0 {
		return true
	}
	company = strings.ToLower(utils.CleanText(company))
	for _, name := range names {
		if strings.Contains(company, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// Has reports whether the named filter is set
func (q *FilterQuery) Has(field string) bool {
	if field == FieldCompany {
		return len(q.Companies) > 0
	}
	return q.Value(field) != ""
}

// Value returns the named filter's value; companies are comma-joined
func (q *FilterQuery) Value(field string) string {
	switch field {
	case FieldKeyword:
		return q.Keyword
	case FieldLocation:
		return q.Location
	case FieldDatePosted:
		return q.DatePosted
	case FieldJobType:
		return q.JobType
	case FieldExperience:
		return q.Experience
	case FieldWorkplace:
		return q.Workplace
	case FieldCompany:
		return strings.Join(q.Companies, ",")
	}
	return ""
}

// Without returns a copy of the query with the named optional filters cleared.
// Keyword and location cannot be removed.
func (q *FilterQuery) Without(fields ...string) *FilterQuery {
	c := *q
	c.Companies = append([]string(nil), q.Companies...)
	for _, field := range fields {
		switch field {
		case FieldDatePosted:
			c.DatePosted = ""
		case FieldJobType:
			c.JobType = ""
		case FieldExperience:
			c.Experience = ""
		case FieldWorkplace:
			c.Workplace = ""
		case FieldCompany:
			c.Companies = nil
		}
	}
	return &c
}

// Encode renders the query in the inbound parameter form, so it can be
// replayed against the search endpoint
func (q *FilterQuery) Encode() string {
	values := url.Values{}
	for _, field := range q.presentFields() {
		values.Set(field, q.Value(field))
	}
	return values.Encode()
}

func (q *FilterQuery) presentFields() []string {
	all := []string{FieldKeyword, FieldLocation, FieldDatePosted, FieldJobType, FieldExperience, FieldWorkplace, FieldCompany}
	present := make([]string, 0, len(all))
	for _, field := range all {
		if q.Has(field) {
			present = append(present, field)
		}
	}
	return present
}

func (q *FilterQuery) foldedCompanies() []string {
	folded := make([]string, len(q.Companies))
	for i, c := range q.Companies {
		folded[i] = strings.ToLower(c)
	}
	sort.Strings(folded)
	return folded
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
