// internal/workers/content/generate-post/handler.go
package generatepost

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"linkedin-agent/internal/common/agentloop"
	"linkedin-agent/internal/common/camunda"
	"linkedin-agent/internal/common/errors"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"
	"linkedin-agent/internal/models"
	"linkedin-agent/internal/prompts"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-post"

	nudgeMessage = "Du hast genug recherchiert. Schreibe jetzt den vollständigen LinkedIn-Post. " +
		"Nur den fertigen Post-Text, kein JSON, keine Erklärungen."
)

type Handler struct {
	config       *Config
	runner       *agentloop.Runner
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, runner *agentloop.Runner, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		runner:       runner,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

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

	output, err := h.Execute(ctx, input.Idea)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(reportCtx, client, job, err)
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	err = camunda.ExecuteWithRetry(reportCtx, nil, "complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":    job.Key,
		"wordCount": output.WordCount,
	})
}

// Execute writes the full post for one idea within the configured timeout.
func (h *Handler) Execute(ctx context.Context, idea *models.Idea) (*Output, error) {
	if idea.IsEmpty() {
		return nil, errors.NewInvalidInputError("Missing 'idea'")
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	h.logger.Info("generating post", map[string]interface{}{
		"ideaId": idea.ID.String(),
		"title":  idea.Title,
		"model":  h.config.Model,
	})

	result, err := h.runner.Run(ctx, agentloop.Loop{
		Name:             "post",
		Model:            h.config.Model,
		MaxTokens:        h.config.MaxTokens,
		System:           prompts.PostGeneration(),
		UserMessage:      BuildUserMessage(idea),
		MaxIterations:    h.config.MaxIterations,
		ForceOutputAfter: h.config.ForceOutputAfter,
		NudgeMessage:     nudgeMessage,
	})
	if err != nil {
		return nil, err
	}

	post := strings.TrimSpace(result.Response.Text())
	return &Output{
		Status:    models.StatusSuccess,
		Post:      post,
		IdeaID:    idea.ID,
		IdeaTitle: idea.Title,
		WordCount: CountWords(post),
	}, nil
}

// BuildUserMessage turns an idea into the writing brief. Ideas with a source
// URL get the article fetched; web_research ideas get a search.
func BuildUserMessage(idea *models.Idea) string {
	lines := []string{
		"Schreibe einen vollständigen LinkedIn-Post basierend auf dieser Idee:\n",
		"**Titel**: " + idea.Title,
		"**Hook (erste Zeile)**: " + idea.Hook,
		"**Winkel / Kernaussage**: " + idea.Angle,
	}

	switch {
	case idea.SourceURL != "":
		source := idea.SourceTitle
		if source == "" {
			source = idea.Source
		}
		lines = append(lines,
			"**Quell-URL**: "+idea.SourceURL,
			"**Quelle**: "+source,
			"\nNutze fetch_article um den Quell-Artikel zu lesen und konkrete Details "+
				"(Zahlen, Zitate, spezifische Features) in den Post einzubauen. "+
				"Dann schreibe den fertigen Post.",
		)
	case idea.Source == models.SourceWebResearch:
		lines = append(lines, "\nNutze web_search um aktuelle Details zu diesem Thema zu finden. "+
			"Dann schreibe den fertigen Post.")
	default:
		lines = append(lines, "\nSchreibe direkt den fertigen Post basierend auf dem Hook und dem Winkel.")
	}

	return strings.Join(lines, "\n")
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}
