package domain

// Tip is one expert finance tip from the static knowledge base.
type Tip struct {
	Topic  string `json:"topic"`
	Advice string `json:"advice"`
}

// SearchResult is the formatted outcome of a web place lookup.
type SearchResult struct {
	Answer  string   `json:"answer,omitempty"`
	Results string   `json:"results"`
	Sources []string `json:"sources"`
}
