// internal/workers/research/toolbox/toolbox.go
package toolbox

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"linkedin-agent/internal/common/anthropic"
	"linkedin-agent/internal/common/cache"
	"linkedin-agent/internal/common/config"
	"linkedin-agent/internal/common/errors"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"
	"linkedin-agent/internal/common/validation"
	fetcharticle "linkedin-agent/internal/workers/research/fetch-article"
	fetchrss "linkedin-agent/internal/workers/research/fetch-rss"
	websearch "linkedin-agent/internal/workers/research/web-search"
	"linkedin-agent/pkg/registry"
)

// Tool is one research tool the model can call. Run always returns JSON.
type Tool interface {
	Name() string
	Run(ctx context.Context, input json.RawMessage) string
}

type entry struct {
	tool   Tool
	schema *validation.Schema
}

// Toolbox dispatches tool_use blocks to the registered research tools.
type Toolbox struct {
	definitions []anthropic.Tool
	tools       map[string]entry
	logger      logger.Logger
}

// New binds tools to their registry definitions. Every tool must have one.
func New(reg *registry.Registry, log logger.Logger, tools ...Tool) (*Toolbox, error) {
	tb := &Toolbox{
		tools:  make(map[string]entry, len(tools)),
		logger: log,
	}

	for _, tool := range tools {
		def, ok := reg.Tool(tool.Name())
		if !ok {
			return nil, fmt.Errorf("tool %q is not in the registry", tool.Name())
		}
		schema, err := validation.Compile([]byte(def.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", def.Name, err)
		}

		tb.tools[def.Name] = entry{tool: tool, schema: schema}
		tb.definitions = append(tb.definitions, anthropic.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}

	return tb, nil
}

// NewDefault builds the three research tools from configuration, sharing one
// result cache.
func NewDefault(cfg config.ResearchConfig, c cache.Cache, log logger.Logger) (*Toolbox, error) {
	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}

	rssCfg := fetchrss.LoadConfig()
	articleCfg := fetcharticle.LoadConfig()
	searchCfg := websearch.LoadConfig()

	if cfg.RSSTimeout > 0 {
		rssCfg.Timeout = config.GetDuration(cfg.RSSTimeout)
	}
	if cfg.ArticleTimeout > 0 {
		articleCfg.Timeout = config.GetDuration(cfg.ArticleTimeout)
	}
	if cfg.SearchTimeout > 0 {
		searchCfg.Timeout = config.GetDuration(cfg.SearchTimeout)
	}
	if cfg.UserAgent != "" {
		articleCfg.UserAgent = cfg.UserAgent
	}
	if cfg.CacheTTL > 0 {
		ttl := config.GetDuration(cfg.CacheTTL)
		rssCfg.CacheTTL = ttl
		articleCfg.CacheTTL = ttl
	}
	if cfg.BraveURL != "" {
		searchCfg.BraveURL = cfg.BraveURL
	}
	if cfg.DuckDuckGoURL != "" {
		searchCfg.DuckDuckGoURL = cfg.DuckDuckGoURL
	}
	searchCfg.BraveAPIKey = cfg.BraveAPIKey

	return New(reg, log,
		fetchrss.NewHandler(rssCfg, nil, c, log),
		fetcharticle.NewHandler(articleCfg, nil, c, log),
		websearch.NewHandler(searchCfg, nil, log),
	)
}

// Definitions returns the tool list sent with every Messages request.
func (tb *Toolbox) Definitions() []anthropic.Tool {
	return tb.definitions
}

// Execute runs the named tool. Failures are encoded as {"error": ...}.
func (tb *Toolbox) Execute(ctx context.Context, name string, input json.RawMessage) string {
	e, ok := tb.tools[name]
	if !ok {
		metrics.ToolCalls.WithLabelValues(name, "unknown").Inc()
		tb.logger.Warn("unknown tool requested", map[string]interface{}{"tool": name})
		return errorJSON(fmt.Sprintf("Unknown tool: %s", name))
	}

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	if result := e.schema.Validate([]byte(input)); !result.Valid {
		metrics.ToolCalls.WithLabelValues(name, "invalid").Inc()
		msg := strings.Join(result.GetErrorMessages(), "; ")
		tb.logger.Warn("tool input rejected", map[string]interface{}{"tool": name, "error": msg})
		return errorJSON("invalid input: " + msg)
	}

	start := time.Now()
	out := e.tool.Run(ctx, input)

	status := "success"
	if msg := toolError(out); msg != "" {
		status = "error"
		toolErr := errors.NewToolFailedError(name, stderrors.New(msg))
		tb.logger.Warn(toolErr.Message, map[string]interface{}{
			"errorCode": string(toolErr.Code),
			"error":     msg,
		})
	}
	metrics.ToolCalls.WithLabelValues(name, status).Inc()

	tb.logger.Debug("tool executed", map[string]interface{}{
		"tool":     name,
		"status":   status,
		"duration": time.Since(start).String(),
		"bytes":    len(out),
	})
	return out
}

// toolError returns the error field of a tool result, or "".
func toolError(out string) string {
	var probe struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(out), &probe) != nil {
		return ""
	}
	return probe.Error
}

func errorJSON(msg string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]string{"error": msg})
	return strings.TrimSuffix(buf.String(), "\n")
}
