// internal/workers/research/fetch-article/handler_test.go
package fetcharticle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkedin-agent/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!doctype html>
<html>
<head><title> KI-Agenten im Mittelstand </title><script>var x = 1;</script></head>
<body>
  <header>Navigation oben</header>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>KI-Agenten</h1>
    <p>Erster   Absatz.</p>



    <figure><img src="a.png"><figcaption>Bildunterschrift</figcaption></figure>
    <p>Zweiter Absatz.</p>
  </article>
  <footer>Impressum</footer>
</body>
</html>`

func createTestHandler(t *testing.T) *Handler {
	cfg := LoadConfig()
	cfg.Timeout = 2 * time.Second
	return NewHandler(cfg, nil, nil, logger.NewTestLogger(t))
}

func TestExecute_ExtractsArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		assert.Contains(t, r.Header.Get("Accept-Language"), "de-DE")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	out, err := createTestHandler(t).Execute(context.Background(), &Input{URL: server.URL})
	require.NoError(t, err)

	assert.Equal(t, "KI-Agenten im Mittelstand", out.Title)
	assert.Contains(t, out.Text, "KI-Agenten")
	assert.Contains(t, out.Text, "Erster Absatz.")
	assert.Contains(t, out.Text, "Zweiter Absatz.")
	assert.NotContains(t, out.Text, "Navigation oben")
	assert.NotContains(t, out.Text, "Impressum")
	assert.NotContains(t, out.Text, "Bildunterschrift")
	assert.NotContains(t, out.Text, "\n\n\n")
	assert.Equal(t, len([]rune(out.Text)), out.CharCount)
}

func TestExecute_FallsBackToBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="x">Nur ein Div</div></body></html>`))
	}))
	defer server.Close()

	out, err := createTestHandler(t).Execute(context.Background(), &Input{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "Nur ein Div", out.Text)
	assert.Empty(t, out.Title)
}

func TestExecute_PrefersEntryContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div>Sidebar</div><div class="entry-content">Der Inhalt</div></body></html>`))
	}))
	defer server.Close()

	out, err := createTestHandler(t).Execute(context.Background(), &Input{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "Der Inhalt", out.Text)
}

func TestExecute_TruncatesText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><main>" + strings.Repeat("wort ", 2000) + "</main></body></html>"))
	}))
	defer server.Close()

	out, err := createTestHandler(t).Execute(context.Background(), &Input{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 3000, out.CharCount)
}

func TestRun_HTTPErrorShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	result := createTestHandler(t).Run(context.Background(), json.RawMessage(`{"url":"`+server.URL+`"}`))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result), &out))
	assert.Contains(t, out["error"], "403")
	assert.Equal(t, server.URL, out["url"])
	assert.Equal(t, "", out["text"])
}

func TestRun_EmptyPageReportsZeroChars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body></body></html>`))
	}))
	defer server.Close()

	result := createTestHandler(t).Run(context.Background(), json.RawMessage(`{"url":"`+server.URL+`"}`))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result), &out))
	assert.Equal(t, float64(0), out["char_count"])
	assert.Equal(t, "", out["title"])
	assert.NotContains(t, out, "error")
}

func TestRun_RejectsInvalidURL(t *testing.T) {
	result := createTestHandler(t).Run(context.Background(), json.RawMessage(`{"url":"javascript:alert(1)"}`))
	assert.Contains(t, result, `"error":"invalid url`)
}
