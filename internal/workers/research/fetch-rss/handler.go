// internal/workers/research/fetch-rss/handler.go
package fetchrss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"linkedin-agent/internal/common/cache"
	httpclient "linkedin-agent/internal/common/http"
	"linkedin-agent/internal/common/htmltext"
	"linkedin-agent/internal/common/logger"

	"github.com/mmcdole/gofeed"
)

const ToolName = "fetch_rss"

type Handler struct {
	config *Config
	client *httpclient.Client
	cache  cache.Cache
	logger logger.Logger
}

func NewHandler(config *Config, client *httpclient.Client, c cache.Cache, log logger.Logger) *Handler {
	if client == nil {
		client = httpclient.NewClient(config.Timeout, config.UserAgent)
	}
	return &Handler{
		config: config,
		client: client,
		cache:  c,
		logger: log.With(map[string]interface{}{"tool": ToolName}),
	}
}

func (h *Handler) Name() string { return ToolName }

// Run decodes the tool input and returns the result as JSON. Failures are
// reported as {"error": ..., "items": []}.
func (h *Handler) Run(ctx context.Context, raw json.RawMessage) string {
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return encode(&Output{Error: fmt.Sprintf("invalid input: %v", err), Items: []Item{}})
	}

	key := fmt.Sprintf("%s:%s:%d", ToolName, input.URL, h.maxItems(&input))
	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, key); ok {
			return cached
		}
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.logger.Error("fetch_rss failed", map[string]interface{}{"url": input.URL, "error": err.Error()})
		return encode(&Output{Error: err.Error(), Items: []Item{}})
	}

	result := encode(output)
	if h.cache != nil {
		h.cache.Set(ctx, key, result, h.config.CacheTTL)
	}
	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.URL) == "" {
		return nil, fmt.Errorf("url is required")
	}

	maxItems := h.maxItems(input)

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	body, err := h.client.Get(ctx, input.URL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		h.logger.Warn("feed download failed", map[string]interface{}{"url": input.URL, "error": err.Error()})
		return nil, fmt.Errorf("Failed to parse RSS feed: %s", input.URL)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil || feed == nil {
		if err != nil {
			h.logger.Warn("feed parse failed", map[string]interface{}{"url": input.URL, "error": err.Error()})
		}
		return nil, fmt.Errorf("Failed to parse RSS feed: %s", input.URL)
	}

	items := make([]Item, 0, maxItems)
	for _, entry := range feed.Items {
		if len(items) >= maxItems {
			break
		}
		items = append(items, h.toItem(entry))
	}

	title := feed.Title
	if title == "" {
		title = input.URL
	}

	h.logger.Info("feed fetched", map[string]interface{}{
		"url":       input.URL,
		"itemCount": len(items),
	})

	return &Output{FeedTitle: title, Items: items}, nil
}

func (h *Handler) maxItems(input *Input) int {
	if input.MaxItems == nil {
		return h.config.DefaultMaxItems
	}
	if *input.MaxItems < 0 {
		return 0
	}
	return *input.MaxItems
}

func (h *Handler) toItem(entry *gofeed.Item) Item {
	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}
	summary = strings.TrimSpace(htmltext.Truncate(htmltext.FragmentText(summary, " "), h.config.SummaryLimit))

	published := entry.Published
	if published == "" {
		published = entry.Updated
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	} else if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		author = entry.Authors[0].Name
	}

	return Item{
		Title:     strings.TrimSpace(entry.Title),
		Link:      entry.Link,
		Summary:   summary,
		Published: published,
		Author:    author,
	}
}

func encode(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return `{"error":"encode result","items":[]}`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
