// internal/workers/research/web-search/config.go
package websearch

import "time"

type Config struct {
	BraveAPIKey       string
	BraveURL          string
	DuckDuckGoURL     string
	Timeout           time.Duration
	DefaultMaxResults int
	// DuckDuckGo serves its HTML endpoint more reliably to a desktop browser.
	DuckDuckGoUserAgent string
}

func LoadConfig() *Config {
	return &Config{
		BraveURL:            "https://api.search.brave.com/res/v1/web/search",
		DuckDuckGoURL:       "https://html.duckduckgo.com/html/",
		Timeout:             10 * time.Second,
		DefaultMaxResults:   5,
		DuckDuckGoUserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
	}
}
