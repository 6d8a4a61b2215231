// internal/api/handlers_test.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkedin-agent/internal/common/cache"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/slack"
	"linkedin-agent/internal/dispatch"
	"linkedin-agent/internal/models"
	slackdeliver "linkedin-agent/internal/workers/communication/slack-deliver"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==========================
// Mocks
// ==========================

type MockIdeas struct{ mock.Mock }

func (m *MockIdeas) Execute(ctx context.Context, input *models.IdeaRequest) (*models.IdeaBatch, error) {
	args := m.Called(ctx, input)
	batch, _ := args.Get(0).(*models.IdeaBatch)
	return batch, args.Error(1)
}

type MockPosts struct{ mock.Mock }

func (m *MockPosts) Execute(ctx context.Context, idea *models.Idea) (*models.PostResult, error) {
	args := m.Called(ctx, idea)
	result, _ := args.Get(0).(*models.PostResult)
	return result, args.Error(1)
}

type MockDelivery struct{ mock.Mock }

func (m *MockDelivery) DeliverIdeas(ctx context.Context, batch *models.IdeaBatch) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *MockDelivery) DeliverIdeasFailure(ctx context.Context, cause error) {
	m.Called(ctx, cause)
}

func (m *MockDelivery) DeliverPost(ctx context.Context, idea *models.Idea, result *models.PostResult, responseURL, channel string) error {
	return m.Called(ctx, idea, result, responseURL, channel).Error(0)
}

func (m *MockDelivery) DeliverPostFailure(ctx context.Context, idea *models.Idea, responseURL, channel string, cause error) {
	m.Called(ctx, idea, responseURL, channel, cause)
}

// inlineJobs runs jobs synchronously so assertions can follow the request.
type inlineJobs struct {
	err   error
	names []string
}

func (j *inlineJobs) Submit(name string, fn dispatch.JobFunc) (uuid.UUID, error) {
	if j.err != nil {
		return uuid.Nil, j.err
	}
	j.names = append(j.names, name)
	_ = fn(context.Background())
	return uuid.New(), nil
}

type fixture struct {
	ideas    *MockIdeas
	posts    *MockPosts
	delivery *MockDelivery
	jobs     *inlineJobs
	router   *Router
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()
	f := &fixture{
		ideas:    &MockIdeas{},
		posts:    &MockPosts{},
		delivery: &MockDelivery{},
		jobs:     &inlineJobs{},
	}
	handler := NewContentHandler(ContentHandlerDeps{
		Ideas:    f.ideas,
		Posts:    f.posts,
		Delivery: f.delivery,
		Jobs:     f.jobs,
		Dedupe:   cache.NewMemoryDeduper(time.Minute),
		Logger:   logger.NewTestLogger(t),
	})
	f.router = NewRouter(handler, secret, nil, logger.NewTestLogger(t))
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.Engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

const ideaBody = `{"idea":{"id":3,"title":"Agenten im Mittelstand","hook":"h","angle":"a","source":"web_research"},"response_url":"https://hooks.slack.com/actions/x","channel_id":"C42"}`

// ==========================
// Health and auth
// ==========================

func TestHealth(t *testing.T) {
	f := newFixture(t, "s3cret")

	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReady_ReportsFailedChecks(t *testing.T) {
	handler := NewContentHandler(ContentHandlerDeps{Jobs: &inlineJobs{}, Logger: logger.NewNoOpLogger()})
	router := NewRouter(handler, "", map[string]ReadinessCheck{
		"redis":    func(ctx context.Context) error { return nil },
		"postgres": func(ctx context.Context) error { return stderrors.New("connection refused") },
	}, logger.NewNoOpLogger())

	w := httptest.NewRecorder()
	router.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not_ready","errors":{"postgres":"connection refused"}}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "s3cret")

	w := f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAuth_RejectsWrongSecret(t *testing.T) {
	f := newFixture(t, "s3cret")

	for _, headers := range []map[string]string{nil, {SecretHeader: "wrong"}} {
		w := f.do(http.MethodPost, "/generate-ideas", `{}`, headers)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"detail":"Unauthorized"}`, w.Body.String())
	}
	assert.Empty(t, f.jobs.names)
}

func TestAuth_DisabledWithoutSecret(t *testing.T) {
	f := newFixture(t, "")
	f.ideas.On("Execute", mock.Anything, mock.Anything).Return(&models.IdeaBatch{}, nil)
	f.delivery.On("DeliverIdeas", mock.Anything, mock.Anything).Return(nil)

	w := f.do(http.MethodPost, "/generate-ideas", `{}`, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

// ==========================
// /generate-ideas
// ==========================

func TestGenerateIdeas_AcceptsAndDelivers(t *testing.T) {
	f := newFixture(t, "s3cret")
	batch := &models.IdeaBatch{Status: models.StatusSuccess, Ideas: []models.Idea{{ID: "1", Title: "t"}}}

	f.ideas.On("Execute", mock.Anything, mock.MatchedBy(func(req *models.IdeaRequest) bool {
		return req.EmailSubject == "The Batch" && len(req.RSSOpenAI) == 1
	})).Return(batch, nil)
	f.delivery.On("DeliverIdeas", mock.Anything, batch).Return(nil)

	w := f.do(http.MethodPost, "/generate-ideas",
		`{"email_subject":"The Batch","email_content":"...","rss_openai":[{"title":"GPT","link":"https://openai.com/x"}]}`,
		map[string]string{SecretHeader: "s3cret"})

	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.Equal(t, "accepted", body["status"])
	_, err := uuid.Parse(body["job_id"].(string))
	assert.NoError(t, err)

	assert.Equal(t, []string{"generate-ideas"}, f.jobs.names)
	f.ideas.AssertExpectations(t)
	f.delivery.AssertExpectations(t)
	f.delivery.AssertNotCalled(t, "DeliverIdeasFailure", mock.Anything, mock.Anything)
}

func TestGenerateIdeas_ReportsAgentFailure(t *testing.T) {
	f := newFixture(t, "")
	cause := stderrors.New("overloaded")

	f.ideas.On("Execute", mock.Anything, mock.Anything).Return(nil, cause)
	f.delivery.On("DeliverIdeasFailure", mock.Anything, cause).Return()

	w := f.do(http.MethodPost, "/generate-ideas", `{}`, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	f.delivery.AssertExpectations(t)
	f.delivery.AssertNotCalled(t, "DeliverIdeas", mock.Anything, mock.Anything)
}

func TestGenerateIdeas_ReportsDeliveryFailure(t *testing.T) {
	f := newFixture(t, "")
	cause := stderrors.New("channel_not_found")

	f.ideas.On("Execute", mock.Anything, mock.Anything).Return(&models.IdeaBatch{}, nil)
	f.delivery.On("DeliverIdeas", mock.Anything, mock.Anything).Return(cause)
	f.delivery.On("DeliverIdeasFailure", mock.Anything, cause).Return()

	f.do(http.MethodPost, "/generate-ideas", `{}`, nil)
	f.delivery.AssertExpectations(t)
}

func TestGenerateIdeas_InvalidJSON(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(http.MethodPost, "/generate-ideas", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.jobs.names)
}

func TestGenerateIdeas_QueueFull(t *testing.T) {
	f := newFixture(t, "")
	f.jobs.err = dispatch.ErrQueueFull

	w := f.do(http.MethodPost, "/generate-ideas", `{}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ==========================
// /generate-post
// ==========================

func TestGeneratePost_MissingIdea(t *testing.T) {
	f := newFixture(t, "")

	for _, body := range []string{`{}`, `{"idea":{}}`, `{"idea":null}`} {
		w := f.do(http.MethodPost, "/generate-post", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"detail":"Missing 'idea' in request body"}`, w.Body.String())
	}
	assert.Empty(t, f.jobs.names)
}

func TestGeneratePost_AcceptsAndDelivers(t *testing.T) {
	f := newFixture(t, "")
	result := &models.PostResult{Status: models.StatusSuccess, Post: "Text", IdeaTitle: "Agenten im Mittelstand", WordCount: 1}

	f.posts.On("Execute", mock.Anything, mock.MatchedBy(func(idea *models.Idea) bool {
		return idea.ID.String() == "3"
	})).Return(result, nil)
	f.delivery.On("DeliverPost", mock.Anything, mock.Anything, result, "https://hooks.slack.com/actions/x", "C42").Return(nil)

	w := f.do(http.MethodPost, "/generate-post", ideaBody, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "accepted", decode(t, w)["status"])

	f.posts.AssertExpectations(t)
	f.delivery.AssertExpectations(t)
}

func TestGeneratePost_ReportsFailureToResponseURL(t *testing.T) {
	f := newFixture(t, "")
	cause := stderrors.New("Agent did not produce output")

	f.posts.On("Execute", mock.Anything, mock.Anything).Return(nil, cause)
	f.delivery.On("DeliverPostFailure", mock.Anything, mock.Anything, "https://hooks.slack.com/actions/x", "C42", cause).Return()

	w := f.do(http.MethodPost, "/generate-post", ideaBody, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	f.delivery.AssertExpectations(t)
}

func TestGeneratePost_DuplicateIsNotRerun(t *testing.T) {
	f := newFixture(t, "")
	f.posts.On("Execute", mock.Anything, mock.Anything).Return(&models.PostResult{}, nil).Once()
	f.delivery.On("DeliverPost", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	first := f.do(http.MethodPost, "/generate-post", ideaBody, nil)
	second := f.do(http.MethodPost, "/generate-post", ideaBody, nil)

	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "duplicate", decode(t, second)["status"])
	assert.Len(t, f.jobs.names, 1)
}

func TestGeneratePost_RejectedSubmissionCanBeRetried(t *testing.T) {
	f := newFixture(t, "")
	f.jobs.err = dispatch.ErrClosed

	w := f.do(http.MethodPost, "/generate-post", ideaBody, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f.jobs.err = nil
	f.posts.On("Execute", mock.Anything, mock.Anything).Return(&models.PostResult{}, nil)
	f.delivery.On("DeliverPost", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w = f.do(http.MethodPost, "/generate-post", ideaBody, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestGeneratePost_FailedRunCanBeRetried(t *testing.T) {
	f := newFixture(t, "")
	cause := stderrors.New("Agent did not produce output")

	f.posts.On("Execute", mock.Anything, mock.Anything).Return(nil, cause).Once()
	f.delivery.On("DeliverPostFailure", mock.Anything, mock.Anything, mock.Anything, mock.Anything, cause).Return()

	first := f.do(http.MethodPost, "/generate-post", ideaBody, nil)
	assert.Equal(t, http.StatusAccepted, first.Code)

	f.posts.On("Execute", mock.Anything, mock.Anything).Return(&models.PostResult{}, nil).Once()
	f.delivery.On("DeliverPost", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	second := f.do(http.MethodPost, "/generate-post", ideaBody, nil)
	assert.Equal(t, http.StatusAccepted, second.Code)
	assert.Equal(t, "accepted", decode(t, second)["status"])
	assert.Len(t, f.jobs.names, 2)
}

// blockingIdeas never finishes on its own; it returns once ctx is done.
type blockingIdeas struct{}

func (blockingIdeas) Execute(ctx context.Context, input *models.IdeaRequest) (*models.IdeaBatch, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGenerateIdeas_FailureReportedAfterJobTimeout(t *testing.T) {
	received := make(chan string, 4)
	slackServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&msg)
		raw, _ := json.Marshal(msg)
		_, _ = w.Write([]byte(`{"ok":true}`))
		received <- string(raw)
	}))
	defer slackServer.Close()

	log := logger.NewTestLogger(t)
	delivery := slackdeliver.NewService(slackdeliver.ServiceDependencies{
		Slack: slack.NewClient(slack.Config{
			BotToken:   "xoxb-test",
			ChannelID:  "C_DEFAULT",
			APIBaseURL: slackServer.URL,
			Timeout:    2 * time.Second,
		}, log),
		Logger: log,
	}, slackdeliver.DefaultConfig())

	pool := dispatch.NewPool(&dispatch.Config{Workers: 1, QueueSize: 1, JobTimeout: 100 * time.Millisecond}, nil, log)
	defer func() { _ = pool.Shutdown(context.Background()) }()

	handler := NewContentHandler(ContentHandlerDeps{
		Ideas:    blockingIdeas{},
		Posts:    &MockPosts{},
		Delivery: delivery,
		Jobs:     pool,
		Logger:   log,
	})
	router := NewRouter(handler, "", nil, log)

	req := httptest.NewRequest(http.MethodPost, "/generate-ideas", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case msg := <-received:
		assert.Contains(t, msg, "Ideen-Generierung fehlgeschlagen")
	case <-time.After(5 * time.Second):
		t.Fatal("failure was not reported to Slack after the job timed out")
	}
}
