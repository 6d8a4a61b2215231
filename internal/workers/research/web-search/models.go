// internal/workers/research/web-search/models.go
package websearch

type Input struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type Output struct {
	Error   string   `json:"error,omitempty"`
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Source  string   `json:"source,omitempty"`
}

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}
