package models

// SearchResult is a single retrieved chunk. Score is the raw squared L2
// distance: lower means more similar.
type SearchResult struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// SearchResponse is the response for a search request. Found is false only
// when the index holds no chunks.
type SearchResponse struct {
	Found   bool            `json:"found"`
	Results []*SearchResult `json:"results"`
}

// Answer is a generated answer with the filenames it was grounded on.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
