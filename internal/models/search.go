package models

// SearchResultType labels which entity a search hit came from.
type SearchResultType string

const (
	SearchTypeStudent SearchResultType = "student"
	SearchTypeTeacher SearchResultType = "teacher"
)

// SearchResult is one row of the global search box output. Detail carries
// the strand for students and the position for teachers.
type SearchResult struct {
	ID     int64            `db:"id" json:"id"`
	Name   string           `db:"name" json:"name"`
	Detail string           `db:"detail" json:"detail"`
	Type   SearchResultType `db:"type" json:"type"`
}

// SearchResponse wraps ranked search output.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Query   string         `json:"query,omitempty"`
	Message string         `json:"message,omitempty"`
}
