// internal/workers/research/web-search/handler.go
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	httpclient "linkedin-agent/internal/common/http"
	"linkedin-agent/internal/common/htmltext"
	"linkedin-agent/internal/common/logger"

	"github.com/PuerkitoBio/goquery"
)

const (
	ToolName = "web_search"

	SourceDuckDuckGo = "duckduckgo"
)

type Handler struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewHandler(config *Config, client *httpclient.Client, log logger.Logger) *Handler {
	if client == nil {
		client = httpclient.NewClient(config.Timeout, "")
	}
	return &Handler{
		config: config,
		client: client,
		logger: log.With(map[string]interface{}{"tool": ToolName}),
	}
}

func (h *Handler) Name() string { return ToolName }

// Run returns {query, results[, source]} or {error, query, results: []}.
func (h *Handler) Run(ctx context.Context, raw json.RawMessage) string {
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return encode(&Output{Error: fmt.Sprintf("invalid input: %v", err), Results: []Result{}})
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.logger.Error("web search failed", map[string]interface{}{"query": input.Query, "error": err.Error()})
		return encode(&Output{Error: err.Error(), Query: input.Query, Results: []Result{}})
	}
	return encode(output)
}

// Execute queries Brave when an API key is configured and falls back to the
// DuckDuckGo HTML endpoint on any Brave failure.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = h.config.DefaultMaxResults
	}

	if key := strings.TrimSpace(h.config.BraveAPIKey); key != "" {
		out, err := h.braveSearch(ctx, input.Query, maxResults, key)
		if err == nil {
			return out, nil
		}
		h.logger.Warn("Brave search failed, falling back to DuckDuckGo", map[string]interface{}{
			"query": input.Query,
			"error": err.Error(),
		})
	}

	return h.duckDuckGoSearch(ctx, input.Query, maxResults)
}

func (h *Handler) braveSearch(ctx context.Context, query string, maxResults int, apiKey string) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	body, err := h.client.Get(ctx, h.buildBraveURL(query, maxResults), map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": apiKey,
	})
	if err != nil {
		return nil, err
	}

	var resp braveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	results := make([]Result, 0, maxResults)
	for _, item := range resp.Web.Results {
		if len(results) == maxResults {
			break
		}
		results = append(results, Result{Title: item.Title, URL: item.URL, Snippet: item.Description})
	}

	h.logger.Info("web search completed", map[string]interface{}{
		"query":       query,
		"engine":      "brave",
		"resultCount": len(results),
	})

	return &Output{Query: query, Results: results}, nil
}

func (h *Handler) buildBraveURL(query string, maxResults int) string {
	params := url.Values{}
	params.Add("q", query)
	params.Add("count", strconv.Itoa(maxResults))
	params.Add("search_lang", "de")
	return h.config.BraveURL + "?" + params.Encode()
}

func (h *Handler) duckDuckGoSearch(ctx context.Context, query string, maxResults int) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	searchURL := h.config.DuckDuckGoURL + "?q=" + url.QueryEscape(query)
	body, err := h.client.Get(ctx, searchURL, map[string]string{
		"User-Agent": h.config.DuckDuckGoUserAgent,
	})
	if err != nil {
		return nil, err
	}

	doc, err := htmltext.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo html: %w", err)
	}

	nodes := doc.Find(".result")
	if nodes.Length() > maxResults {
		nodes = nodes.Slice(0, maxResults)
	}

	results := make([]Result, 0, maxResults)
	nodes.Each(func(_ int, node *goquery.Selection) {
		link := node.Find(".result__title a").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		results = append(results, Result{
			Title:   strings.TrimSpace(htmltext.Text(link, "")),
			URL:     unwrapRedirect(href),
			Snippet: strings.TrimSpace(htmltext.Text(node.Find(".result__snippet").First(), "")),
		})
	})

	h.logger.Info("web search completed", map[string]interface{}{
		"query":       query,
		"engine":      SourceDuckDuckGo,
		"resultCount": len(results),
	})

	return &Output{Query: query, Results: results, Source: SourceDuckDuckGo}, nil
}

// unwrapRedirect extracts the target of a DuckDuckGo //duckduckgo.com/l/?uddg=
// redirect link.
func unwrapRedirect(href string) string {
	idx := strings.LastIndex(href, "uddg=")
	if idx < 0 {
		return href
	}
	target := href[idx+len("uddg="):]
	if amp := strings.Index(target, "&"); amp >= 0 {
		target = target[:amp]
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		return decoded
	}
	return target
}

func encode(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return `{"error":"encode result","results":[]}`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
