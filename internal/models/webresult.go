package models

// WebResult represents one normalized web search result.
// Each field is optional, but results with all three empty are dropped
// during normalization.
type WebResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Empty reports whether every field of the result is blank
func (r WebResult) Empty() bool {
	return r.Title == "" && r.Snippet == "" && r.Link == ""
}
