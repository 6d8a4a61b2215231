// internal/workers/research/fetch-rss/config.go
package fetchrss

import "time"

type Config struct {
	Timeout         time.Duration
	UserAgent       string
	DefaultMaxItems int
	SummaryLimit    int
	CacheTTL        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		UserAgent:       "linkedin-agent/2.0 (+feed reader)",
		DefaultMaxItems: 8,
		SummaryLimit:    500,
		CacheTTL:        30 * time.Minute,
	}
}
