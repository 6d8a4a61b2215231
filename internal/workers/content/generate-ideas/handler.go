// internal/workers/content/generate-ideas/handler.go
package generateideas

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"linkedin-agent/internal/common/agentloop"
	"linkedin-agent/internal/common/camunda"
	"linkedin-agent/internal/common/errors"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"
	"linkedin-agent/internal/common/validation"
	"linkedin-agent/internal/models"
	"linkedin-agent/internal/prompts"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-ideas"

	nudgeMessage = "Du hast genug recherchiert. Erstelle jetzt die 10 LinkedIn-Post-Ideen " +
		"als JSON-Array. Nur das Array, kein Text drumherum."

	closingInstruction = "Analysiere die Quellen. Nutze fetch_article um interessante Artikel vollständig zu lesen " +
		"und web_search für deutschen Kontext oder aktuelle Reaktionen.\n" +
		"Erstelle dann genau 10 LinkedIn-Post-Ideen als JSON-Array. " +
		"Denke immer: Was ist der autofyn-Winkel? Nicht reporten – Standpunkt nehmen."

	defaultNewsletterSubject = "Startup Insider Daily"
)

var (
	fencedArray = regexp.MustCompile("```(?:json)?\\s*(\\[[\\s\\S]*?\\])\\s*```")
	bareArray   = regexp.MustCompile(`(\[[\s\S]*\])`)

	ideaSchema = validation.MustCompile(ideaListSchema)
)

type Handler struct {
	config       *Config
	runner       *agentloop.Runner
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, runner *agentloop.Runner, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		runner:       runner,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		now:          time.Now,
	}
}

// Handle serves the generate-ideas Zeebe task. Job variables are an IdeaRequest.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx := context.Background()
	reportCtx, cancelReport := camunda.ReportContext(ctx)
	defer cancelReport()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.ErrCodeInvalidInput)).Inc()
		h.errorHandler.HandleJobError(reportCtx, client, job, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(reportCtx, client, job, err)
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	h.completeJob(reportCtx, client, job, output)
}

// Execute runs the idea agent and returns the parsed batch. The run is bounded
// by the configured timeout.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	h.logger.Info("starting idea generation agent", map[string]interface{}{
		"model":        h.config.Model,
		"rssOpenAI":    len(input.RSSOpenAI),
		"rssAnthropic": len(input.RSSAnthropic),
		"hasEmail":     strings.TrimSpace(input.EmailContent) != "",
	})

	result, err := h.runner.Run(ctx, agentloop.Loop{
		Name:             "ideas",
		Model:            h.config.Model,
		MaxTokens:        h.config.MaxTokens,
		System:           prompts.IdeaGeneration(),
		UserMessage:      h.BuildUserMessage(input, h.now()),
		MaxIterations:    h.config.MaxIterations,
		ForceOutputAfter: h.config.ForceOutputAfter,
		NudgeMessage:     nudgeMessage,
	})
	if err != nil {
		return nil, err
	}

	ideas, raw, err := parseIdeas(result.Response.Text())
	if err != nil {
		return nil, errors.NewIdeaParseFailedError(err)
	}
	h.checkIdeas(raw)

	h.logger.Info("generated ideas successfully", map[string]interface{}{
		"count":      len(ideas),
		"iterations": result.Iterations,
		"toolCalls":  result.ToolCalls,
	})

	return &Output{
		Status:      models.StatusSuccess,
		Ideas:       ideas,
		GeneratedAt: h.now().In(models.Berlin()).Format(time.RFC3339),
		Model:       h.config.Model,
	}, nil
}

// BuildUserMessage lays out today's sources for the model.
func (h *Handler) BuildUserMessage(input *Input, now time.Time) string {
	lines := []string{fmt.Sprintf("Heute ist %s. Hier sind die Content-Quellen für heute:\n", models.DisplayDate(now))}

	if content := strings.TrimSpace(input.EmailContent); content != "" {
		subject := strings.TrimSpace(input.EmailSubject)
		if subject == "" {
			subject = defaultNewsletterSubject
		}
		lines = append(lines, "## Newsletter: "+subject, truncateRunes(content, h.config.NewsletterLimit), "")
	}

	lines = h.appendFeed(lines, "## OpenAI Blog (neueste Artikel)", input.RSSOpenAI)
	lines = h.appendFeed(lines, "## Anthropic Blog (neueste Artikel)", input.RSSAnthropic)

	lines = append(lines, closingInstruction)
	return strings.Join(lines, "\n")
}

func (h *Handler) appendFeed(lines []string, heading string, items []models.FeedItem) []string {
	if len(items) == 0 {
		return lines
	}
	if len(items) > h.config.FeedItemLimit {
		items = items[:h.config.FeedItemLimit]
	}

	lines = append(lines, heading)
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- [%s](%s)", item.Title, item.Link))
		if item.Summary != "" {
			lines = append(lines, "  "+truncateRunes(item.Summary, h.config.FeedSummaryLimit))
		}
	}
	return append(lines, "")
}

// ParseIdeas extracts the idea array from the model's final text: a fenced
// ```json block first, otherwise the outermost [ ... ].
func ParseIdeas(text string) ([]models.Idea, error) {
	ideas, _, err := parseIdeas(text)
	return ideas, err
}

func parseIdeas(text string) ([]models.Idea, []byte, error) {
	var candidate []byte
	if m := fencedArray.FindStringSubmatch(text); m != nil {
		candidate = []byte(m[1])
	} else if m := bareArray.FindStringSubmatch(text); m != nil {
		candidate = []byte(m[1])
	} else {
		return nil, nil, fmt.Errorf("could not parse JSON array from response. Raw text (first 500 chars):\n%s", truncateRunes(text, 500))
	}

	var ideas []models.Idea
	if err := json.Unmarshal(candidate, &ideas); err != nil {
		return nil, nil, fmt.Errorf("invalid idea JSON: %w. Raw text (first 500 chars):\n%s", err, truncateRunes(text, 500))
	}
	return ideas, candidate, nil
}

func (h *Handler) checkIdeas(raw []byte) {
	result := ideaSchema.Validate(raw)
	if result.Valid {
		return
	}
	h.logger.Warn("ideas do not match the expected shape", map[string]interface{}{
		"violations": result.GetErrorMessages(),
	})
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	err = camunda.ExecuteWithRetry(ctx, nil, "complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
		"ideas":  len(output.Ideas),
	})
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
