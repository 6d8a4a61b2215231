// internal/workers/content/generate-post/handler_test.go
package generatepost

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"linkedin-agent/internal/common/agentloop"
	"linkedin-agent/internal/common/anthropic"
	"linkedin-agent/internal/common/errors"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type scriptedLLM struct {
	responses []*anthropic.Response
	requests  []anthropic.Request
}

func (s *scriptedLLM) CreateWithRetry(ctx context.Context, req anthropic.Request) (*anthropic.Response, error) {
	s.requests = append(s.requests, req)
	return s.responses[len(s.requests)-1], nil
}

type recordingTools struct {
	calls []string
}

func (r *recordingTools) Execute(ctx context.Context, name string, input json.RawMessage) string {
	r.calls = append(r.calls, name)
	return `{"url":"https://example.com","text":"Artikeltext"}`
}

func createTestHandler(t *testing.T, llm *scriptedLLM, tools *recordingTools) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	defs := []anthropic.Tool{{Name: "fetch_article", InputSchema: json.RawMessage(`{"type":"object"}`)}}
	return NewHandler(LoadConfig(), agentloop.NewRunner(llm, defs, tools, log), log)
}

func createTestIdea() *models.Idea {
	return &models.Idea{
		ID:          "3",
		Title:       "Warum dein ERP kein KI-Problem hat",
		Hook:        "Dein ERP ist kein KI-Problem. Es ist ein Datenproblem.",
		Angle:       "Unternehmen kaufen KI-Add-ons bevor ihre Daten sauber sind.",
		Source:      models.SourceRSSAnthropic,
		SourceURL:   "https://www.anthropic.com/news/x",
		SourceTitle: "Claude for Enterprise",
		PostFormat:  "hot_take",
	}
}

func TestBuildUserMessage_WithSourceURL(t *testing.T) {
	msg := BuildUserMessage(createTestIdea())

	assert.True(t, strings.HasPrefix(msg, "Schreibe einen vollständigen LinkedIn-Post basierend auf dieser Idee:\n\n**Titel**: Warum dein ERP"))
	assert.Contains(t, msg, "**Hook (erste Zeile)**: Dein ERP ist kein KI-Problem.")
	assert.Contains(t, msg, "**Quell-URL**: https://www.anthropic.com/news/x")
	assert.Contains(t, msg, "**Quelle**: Claude for Enterprise")
	assert.Contains(t, msg, "Nutze fetch_article")
}

func TestBuildUserMessage_SourceFallsBackToSourceName(t *testing.T) {
	idea := createTestIdea()
	idea.SourceTitle = ""

	assert.Contains(t, BuildUserMessage(idea), "**Quelle**: rss_anthropic")
}

func TestBuildUserMessage_WebResearch(t *testing.T) {
	idea := createTestIdea()
	idea.SourceURL = ""
	idea.Source = models.SourceWebResearch

	msg := BuildUserMessage(idea)
	assert.Contains(t, msg, "Nutze web_search")
	assert.NotContains(t, msg, "Quell-URL")
}

func TestBuildUserMessage_WriteDirectly(t *testing.T) {
	idea := createTestIdea()
	idea.SourceURL = ""
	idea.Source = models.SourceEmailPodcast

	assert.True(t, strings.HasSuffix(BuildUserMessage(idea), "Schreibe direkt den fertigen Post basierend auf dem Hook und dem Winkel."))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords("  \n "))
	assert.Equal(t, 5, CountWords("Dein ERP\n\nist kein\tProblem."))
}

func TestExecute_Success(t *testing.T) {
	llm := &scriptedLLM{responses: []*anthropic.Response{
		{
			StopReason: anthropic.StopToolUse,
			Content: []anthropic.ContentBlock{{
				Type:  anthropic.BlockToolUse,
				ID:    "tu_1",
				Name:  "fetch_article",
				Input: json.RawMessage(`{"url":"https://www.anthropic.com/news/x"}`),
			}},
		},
		{
			StopReason: anthropic.StopEndTurn,
			Content: []anthropic.ContentBlock{
				anthropic.TextBlock("\nDein ERP ist kein KI-Problem.\n\n"),
				anthropic.TextBlock("#KI #Automatisierung\n"),
			},
		},
	}}
	tools := &recordingTools{}

	out, err := createTestHandler(t, llm, tools).Execute(context.Background(), createTestIdea())
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch_article"}, tools.calls)
	assert.Equal(t, models.StatusSuccess, out.Status)
	assert.Equal(t, "Dein ERP ist kein KI-Problem.\n\n#KI #Automatisierung", out.Post)
	assert.Equal(t, 7, out.WordCount)
	assert.Equal(t, "3", out.IdeaID.String())
	assert.Equal(t, "Warum dein ERP kein KI-Problem hat", out.IdeaTitle)

	assert.Equal(t, 2048, llm.requests[0].MaxTokens)
	assert.Contains(t, llm.requests[0].System, "LinkedIn-Ghostwriter")
}

func TestExecute_MissingIdea(t *testing.T) {
	h := createTestHandler(t, &scriptedLLM{}, &recordingTools{})

	for _, idea := range []*models.Idea{nil, {}} {
		_, err := h.Execute(context.Background(), idea)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "Missing 'idea'")
	}
}

func TestExecute_NoOutput(t *testing.T) {
	llm := &scriptedLLM{responses: []*anthropic.Response{{StopReason: anthropic.StopMaxTokens}}}

	_, err := createTestHandler(t, llm, &recordingTools{}).Execute(context.Background(), createTestIdea())
	assert.Equal(t, errors.ErrCodeAgentNoOutput, errors.CodeOf(err))
}

type stalledLLM struct{}

func (stalledLLM) CreateWithRetry(ctx context.Context, req anthropic.Request) (*anthropic.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExecute_AppliesConfiguredTimeout(t *testing.T) {
	log := logger.NewTestLogger(t)
	cfg := LoadConfig()
	cfg.Timeout = 50 * time.Millisecond
	h := NewHandler(cfg, agentloop.NewRunner(stalledLLM{}, nil, &recordingTools{}, log), log)

	_, err := h.Execute(context.Background(), createTestIdea())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ==========================
// Zeebe job handling
// ==========================

// fakeGateway answers the job commands a handler sends. CompleteJob fails
// with a transient error for the first completeFailures calls.
type fakeGateway struct {
	pb.GatewayClient
	completeFailures int
	completes        int
	thrown           []*pb.ThrowErrorRequest
	reportCtxErrs    []error
}

func (g *fakeGateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, opts ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.completes++
	if g.completes <= g.completeFailures {
		return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
	}
	return &pb.CompleteJobResponse{}, nil
}

func (g *fakeGateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, opts ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.thrown = append(g.thrown, in)
	g.reportCtxErrs = append(g.reportCtxErrs, ctx.Err())
	return &pb.ThrowErrorResponse{}, nil
}

func (g *fakeGateway) FailJob(ctx context.Context, in *pb.FailJobRequest, opts ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.reportCtxErrs = append(g.reportCtxErrs, ctx.Err())
	return &pb.FailJobResponse{}, nil
}

type fakeJobClient struct{ gw *fakeGateway }

func neverRetry(context.Context, error) bool { return false }

func (c fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gw, neverRetry)
}

func (c fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gw, neverRetry)
}

func (c fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gw, neverRetry)
}

func createTestJob(t *testing.T) entities.Job {
	t.Helper()
	vars, err := json.Marshal(Input{Idea: createTestIdea()})
	require.NoError(t, err)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: TaskType, Retries: 3, Variables: string(vars)}}
}

func TestHandle_RetriesTransientCompleteFailure(t *testing.T) {
	llm := &scriptedLLM{responses: []*anthropic.Response{
		{StopReason: anthropic.StopEndTurn, Content: []anthropic.ContentBlock{anthropic.TextBlock("Der Post.")}},
	}}
	gw := &fakeGateway{completeFailures: 1}

	createTestHandler(t, llm, &recordingTools{}).Handle(fakeJobClient{gw: gw}, createTestJob(t))

	assert.Equal(t, 2, gw.completes)
	assert.Empty(t, gw.thrown)
}

func TestHandle_ReportsFailureAfterTimeout(t *testing.T) {
	log := logger.NewTestLogger(t)
	cfg := LoadConfig()
	cfg.Timeout = 50 * time.Millisecond
	h := NewHandler(cfg, agentloop.NewRunner(stalledLLM{}, nil, &recordingTools{}, log), log)
	gw := &fakeGateway{}

	h.Handle(fakeJobClient{gw: gw}, createTestJob(t))

	require.Len(t, gw.reportCtxErrs, 1)
	assert.NoError(t, gw.reportCtxErrs[0])
	assert.Equal(t, 0, gw.completes)
}
