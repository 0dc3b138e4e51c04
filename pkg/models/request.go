package models

// SearchRequest carries the raw filter fields as received from the caller.
// Values are normalized and validated by the query package.
type SearchRequest struct {
	Keyword    string   `json:"keyword" query:"keyword"`
	Location   string   `json:"location" query:"location"`
	DatePosted string   `json:"date_posted,omitempty" query:"date_posted"`
	JobType    string   `json:"job_type,omitempty" query:"job_type"`
	Experience string   `json:"experience,omitempty" query:"experience"`
	Workplace  string   `json:"workplace,omitempty" query:"workplace"`
	Companies  []string `json:"company,omitempty" query:"company"`
}
