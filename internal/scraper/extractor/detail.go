package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// ErrNoDetailFields means the page rendered but carried none of the fields
// the detail parser looks for
var ErrNoDetailFields = errors.New("no detail fields found")

var descriptionSelectors = []string{
	"div.show-more-less-html__markup",
	"div.description__text",
}

// noiseSelector matches markup inside a description that renders no prose
const noiseSelector = "script, style, noscript, svg, button, form, iframe"

const (
	criteriaItemSelector  = "li.description__job-criteria-item"
	criteriaLabelSelector = "h3.description__job-criteria-subheader"
	criteriaValueSelector = "span.description__job-criteria-text"
)

// Detail holds the fields only available on a listing's own page
type Detail struct {
	Description    string
	EmploymentType string
	Seniority      string
}

// ApplyTo merges the detail into a listing, keeping base fields as they are
func (d Detail) ApplyTo(job *models.JobListing) {
	job.Description = d.Description
	job.EmploymentType = d.EmploymentType
	job.Seniority = d.Seniority
}

// ParseDetail extracts description and job criteria from a detail page
func ParseDetail(html string) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Detail{}, fmt.Errorf("failed to parse detail page: %w", err)
	}

	var d Detail
	for _, sel := range descriptionSelectors {
		node := doc.Find(sel).First()
		node.Find(noiseSelector).Remove()
		if desc := utils.CleanText(node.Text()); desc != "" {
			d.Description = desc
			break
		}
	}

	doc.Find(criteriaItemSelector).Each(func(_ int, item *goquery.Selection) {
		label := strings.ToLower(text(item, criteriaLabelSelector))
		value := text(item, criteriaValueSelector)
		switch {
		case strings.Contains(label, "seniority"):
			d.Seniority = value
		case strings.Contains(label, "employment type"):
			d.EmploymentType = value
		}
	})

	if d == (Detail{}) {
		return Detail{}, ErrNoDetailFields
	}
	return d, nil
}
