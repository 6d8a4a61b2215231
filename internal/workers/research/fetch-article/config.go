// internal/workers/research/fetch-article/config.go
package fetcharticle

import "time"

type Config struct {
	Timeout   time.Duration
	UserAgent string
	TextLimit int
	CacheTTL  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   15 * time.Second,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		TextLimit: 3000,
		CacheTTL:  6 * time.Hour,
	}
}
