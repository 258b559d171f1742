package search

// RawResult is the provider-agnostic shape of one organic search hit.
// Providers normalize their response envelopes into this type; it is
// consumed immediately by the processor and never retained.
type RawResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// EnrichedResult is a search hit with scraped markdown content. Content is
// populated exactly once; on scrape failure it holds a descriptive message
// rather than reverting to empty.
type EnrichedResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Content string `json:"content"`
}

// Outcome is the response for one query. Error is set only when every
// provider was exhausted without results; Source then records the last
// provider attempted.
type Outcome struct {
	Query   string           `json:"query"`
	Source  string           `json:"search_source"`
	Results []EnrichedResult `json:"results"`
	Error   string           `json:"error,omitempty"`
}

// ErrNoResults is the user-facing message when the whole chain comes up empty.
const ErrNoResults = "No search results found from any source."
