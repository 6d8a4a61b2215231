// internal/workers/research/fetch-rss/models.go
package fetchrss

type Input struct {
	URL string `json:"url"`
	// MaxItems defaults to the configured limit when absent; zero or less
	// returns no items.
	MaxItems *int `json:"max_items,omitempty"`
}

type Output struct {
	Error     string `json:"error,omitempty"`
	FeedTitle string `json:"feed_title,omitempty"`
	Items     []Item `json:"items"`
}

type Item struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
	Author    string `json:"author"`
}
