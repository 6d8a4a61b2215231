// internal/workers/research/fetch-rss/handler_test.go
package fetchrss

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"linkedin-agent/internal/common/cache"
	"linkedin-agent/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>OpenAI News</title>
  <item>
    <title>  Introducing GPT-5  </title>
    <link>https://openai.com/index/gpt-5</link>
    <description><![CDATA[<p>Our <b>smartest</b> model yet.</p>]]></description>
    <pubDate>Thu, 07 Aug 2025 10:00:00 GMT</pubDate>
    <author>press@openai.com (OpenAI)</author>
  </item>
  <item>
    <title>Second</title>
    <link>https://openai.com/index/second</link>
    <description>Plain summary</description>
  </item>
  <item>
    <title>Third</title>
    <link>https://openai.com/index/third</link>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Anthropic News</title>
  <entry>
    <title>Claude update</title>
    <link href="https://www.anthropic.com/news/claude"/>
    <updated>2025-08-05T09:00:00Z</updated>
    <summary>New capabilities</summary>
    <author><name>Anthropic</name></author>
  </entry>
</feed>`

func createTestHandler(t *testing.T, c cache.Cache) *Handler {
	cfg := LoadConfig()
	cfg.Timeout = 2 * time.Second
	return NewHandler(cfg, nil, c, logger.NewTestLogger(t))
}

func intPtr(n int) *int { return &n }

func serveFeed(body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestExecute_RSS(t *testing.T) {
	server := serveFeed(rssFeed, http.StatusOK)
	defer server.Close()

	out, err := createTestHandler(t, nil).Execute(context.Background(), &Input{URL: server.URL, MaxItems: intPtr(2)})
	require.NoError(t, err)

	assert.Equal(t, "OpenAI News", out.FeedTitle)
	require.Len(t, out.Items, 2)

	first := out.Items[0]
	assert.Equal(t, "Introducing GPT-5", first.Title)
	assert.Equal(t, "https://openai.com/index/gpt-5", first.Link)
	assert.Equal(t, "Our  smartest  model yet.", first.Summary)
	assert.Equal(t, "Thu, 07 Aug 2025 10:00:00 GMT", first.Published)

	assert.Equal(t, "Plain summary", out.Items[1].Summary)
}

func TestExecute_MaxItems(t *testing.T) {
	server := serveFeed(rssFeed, http.StatusOK)
	defer server.Close()
	h := createTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{URL: server.URL, MaxItems: intPtr(0)})
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	out, err = h.Execute(context.Background(), &Input{URL: server.URL, MaxItems: intPtr(1)})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)

	// absent max_items uses the default limit
	result := h.Run(context.Background(), json.RawMessage(`{"url":"`+server.URL+`"}`))
	assert.Contains(t, result, "Introducing GPT-5")
}

func TestExecute_AtomUsesUpdatedAndAuthor(t *testing.T) {
	server := serveFeed(atomFeed, http.StatusOK)
	defer server.Close()

	out, err := createTestHandler(t, nil).Execute(context.Background(), &Input{URL: server.URL})
	require.NoError(t, err)

	require.Len(t, out.Items, 1)
	assert.Equal(t, "Anthropic News", out.FeedTitle)
	assert.Equal(t, "2025-08-05T09:00:00Z", out.Items[0].Published)
	assert.Equal(t, "Anthropic", out.Items[0].Author)
}

func TestExecute_SummaryIsTruncated(t *testing.T) {
	long := strings.Repeat("ä", 800)
	feed := strings.Replace(rssFeed, "Plain summary", long, 1)
	server := serveFeed(feed, http.StatusOK)
	defer server.Close()

	out, err := createTestHandler(t, nil).Execute(context.Background(), &Input{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 500, len([]rune(out.Items[1].Summary)))
}

func TestRun_ParseFailure(t *testing.T) {
	server := serveFeed("<html>not a feed</html>", http.StatusOK)
	defer server.Close()

	result := createTestHandler(t, nil).Run(context.Background(), json.RawMessage(`{"url":"`+server.URL+`"}`))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result), &out))
	assert.Equal(t, "Failed to parse RSS feed: "+server.URL, out["error"])
	assert.Equal(t, []interface{}{}, out["items"])
}

func TestRun_HTTPErrorReportsParseFailure(t *testing.T) {
	server := serveFeed("gone", http.StatusNotFound)
	defer server.Close()

	result := createTestHandler(t, nil).Run(context.Background(), json.RawMessage(`{"url":"`+server.URL+`"}`))
	assert.Contains(t, result, "Failed to parse RSS feed")
}

func TestRun_UsesCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	h := createTestHandler(t, cache.NewMemoryCache())
	input := json.RawMessage(`{"url":"` + server.URL + `","max_items":1}`)

	first := h.Run(context.Background(), input)
	second := h.Run(context.Background(), input)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Contains(t, first, `"feed_title":"OpenAI News"`)
}
