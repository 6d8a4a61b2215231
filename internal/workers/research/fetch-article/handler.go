// internal/workers/research/fetch-article/handler.go
package fetcharticle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"linkedin-agent/internal/common/cache"
	httpclient "linkedin-agent/internal/common/http"
	"linkedin-agent/internal/common/htmltext"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/validation"

	"github.com/PuerkitoBio/goquery"
)

const ToolName = "fetch_article"

// noiseSelector lists elements dropped before text extraction.
const noiseSelector = "script, style, nav, header, footer, aside, form, iframe, noscript, figure"

// contentSelectors are tried in order; the first match is the article body.
var contentSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".post-content",
	".article-body",
	".entry-content",
	"#content",
	"body",
}

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

// Run returns {url,title,text,char_count} or {error,url,text:""}.
func (h *Handler) Run(ctx context.Context, raw json.RawMessage) string {
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return encode(&ErrorOutput{Error: fmt.Sprintf("invalid input: %v", err)})
	}

	key := ToolName + ":" + input.URL
	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, key); ok {
			return cached
		}
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.logger.Error("fetch_article failed", map[string]interface{}{"url": input.URL, "error": err.Error()})
		return encode(&ErrorOutput{Error: err.Error(), URL: input.URL})
	}

	result := encode(output)
	if h.cache != nil {
		h.cache.Set(ctx, key, result, h.config.CacheTTL)
	}
	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !validation.ValidateURL(input.URL) {
		return nil, fmt.Errorf("invalid url: %q", input.URL)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	body, err := h.client.Get(ctx, input.URL, map[string]string{
		"User-Agent":      h.config.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7",
	})
	if err != nil {
		return nil, err
	}

	doc, err := htmltext.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title, text := extract(doc, h.config.TextLimit)

	h.logger.Info("article fetched", map[string]interface{}{
		"url":       input.URL,
		"charCount": utf8.RuneCountInString(text),
	})

	return &Output{
		URL:       input.URL,
		Title:     title,
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
	}, nil
}

// extract strips noise, picks the main content element and returns the
// page title and at most limit runes of collapsed text.
func extract(doc *goquery.Document, limit int) (string, string) {
	doc.Find(noiseSelector).Remove()

	title := strings.TrimSpace(htmltext.Text(doc.Find("title").First(), ""))

	content := doc.Selection
	for _, selector := range contentSelectors {
		if match := doc.Find(selector).First(); match.Length() > 0 {
			content = match
			break
		}
	}

	text := htmltext.Collapse(htmltext.Text(content, "\n"))
	return title, htmltext.Truncate(text, limit)
}

func encode(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return `{"error":"encode result","text":""}`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
