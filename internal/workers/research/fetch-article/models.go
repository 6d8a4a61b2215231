// internal/workers/research/fetch-article/models.go
package fetcharticle

type Input struct {
	URL string `json:"url"`
}

type Output struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	CharCount int    `json:"char_count"`
}

// ErrorOutput is what the model sees when the page could not be read.
type ErrorOutput struct {
	Error string `json:"error"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}
