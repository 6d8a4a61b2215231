// internal/app/agents.go

// Package app assembles the components shared by the service and the CLI.
package app

import (
	"fmt"

	"linkedin-agent/internal/common/agentloop"
	"linkedin-agent/internal/common/anthropic"
	"linkedin-agent/internal/common/cache"
	"linkedin-agent/internal/common/config"
	"linkedin-agent/internal/common/logger"
	generateideas "linkedin-agent/internal/workers/content/generate-ideas"
	generatepost "linkedin-agent/internal/workers/content/generate-post"
	"linkedin-agent/internal/workers/research/toolbox"
)

// Agents holds the two content agents. Both share one Anthropic client and
// one toolbox.
type Agents struct {
	Ideas *generateideas.Handler
	Posts *generatepost.Handler
}

// NewAgents wires the research tools, the tool-use loop and both agents.
// c caches research results; pass cache.NewMemoryCache() when Redis is off.
func NewAgents(cfg *config.Config, c cache.Cache, log logger.Logger) (*Agents, error) {
	tools, err := toolbox.NewDefault(cfg.Research, c, log)
	if err != nil {
		return nil, fmt.Errorf("toolbox: %w", err)
	}

	llm := anthropic.NewClient(anthropic.Config{
		APIKey:         cfg.Anthropic.APIKey,
		BaseURL:        cfg.Anthropic.BaseURL,
		Version:        cfg.Anthropic.Version,
		Timeout:        config.GetDuration(cfg.Anthropic.Timeout),
		MaxRetries:     cfg.Anthropic.MaxRetries,
		RetryBaseDelay: config.GetDuration(cfg.Anthropic.RetryBaseDelay),
	}, log)

	runner := agentloop.NewRunner(llm, tools.Definitions(), tools, log)

	return &Agents{
		Ideas: generateideas.NewHandler(generateideas.FromAppConfig(cfg), runner, log),
		Posts: generatepost.NewHandler(generatepost.FromAppConfig(cfg), runner, log),
	}, nil
}
