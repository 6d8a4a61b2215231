// internal/workers/content/generate-ideas/config.go
package generateideas

import (
	"time"

	"linkedin-agent/internal/common/config"
)

type Config struct {
	Model            string
	MaxTokens        int
	MaxIterations    int
	ForceOutputAfter int
	Timeout          time.Duration
	NewsletterLimit  int
	FeedItemLimit    int
	FeedSummaryLimit int
}

func LoadConfig() *Config {
	return &Config{
		Model:            "claude-sonnet-4-6",
		MaxTokens:        4096,
		MaxIterations:    10,
		ForceOutputAfter: 6,
		Timeout:          10 * time.Minute,
		NewsletterLimit:  4000,
		FeedItemLimit:    6,
		FeedSummaryLimit: 200,
	}
}

// FromAppConfig overlays the ideas agent section of the service config.
func FromAppConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if cfg.Anthropic.Model != "" {
		c.Model = cfg.Anthropic.Model
	}
	agent := cfg.Agents.Ideas
	if agent.MaxTokens > 0 {
		c.MaxTokens = agent.MaxTokens
	}
	if agent.MaxIterations > 0 {
		c.MaxIterations = agent.MaxIterations
	}
	if agent.ForceOutputAfter > 0 {
		c.ForceOutputAfter = agent.ForceOutputAfter
	}
	if agent.Timeout > 0 {
		c.Timeout = config.GetDuration(agent.Timeout)
	}
	return c
}
