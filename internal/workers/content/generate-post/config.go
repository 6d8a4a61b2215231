// internal/workers/content/generate-post/config.go
package generatepost

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
}

func LoadConfig() *Config {
	return &Config{
		Model:            "claude-sonnet-4-6",
		MaxTokens:        2048,
		MaxIterations:    6,
		ForceOutputAfter: 3,
		Timeout:          5 * time.Minute,
	}
}

// FromAppConfig overlays the post agent section of the service config.
func FromAppConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if cfg.Anthropic.Model != "" {
		c.Model = cfg.Anthropic.Model
	}
	agent := cfg.Agents.Post
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
