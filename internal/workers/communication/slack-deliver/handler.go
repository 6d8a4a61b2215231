// internal/workers/communication/slack-deliver/handler.go
package slackdeliver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"linkedin-agent/internal/common/camunda"
	"linkedin-agent/internal/common/errors"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"
	"linkedin-agent/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "slack-deliver"

type Handler struct {
	config       *Config
	service      *Service
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service *Service, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
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
	}
}

// Execute delivers whichever result the process carries; a post wins over ideas.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	switch {
	case strings.TrimSpace(input.Post) != "":
		result := &models.PostResult{
			Status:    models.StatusSuccess,
			Post:      input.Post,
			IdeaTitle: input.IdeaTitle,
			WordCount: input.WordCount,
		}
		if input.Idea != nil {
			result.IdeaID = input.Idea.ID
			if result.IdeaTitle == "" {
				result.IdeaTitle = input.Idea.Title
			}
		}
		if err := h.service.DeliverPost(ctx, input.Idea, result, input.ResponseURL, input.ChannelID); err != nil {
			return nil, err
		}
		return &Output{Delivered: true, Kind: KindPost}, nil

	case len(input.Ideas) > 0:
		batch := &models.IdeaBatch{
			Status:      models.StatusSuccess,
			Ideas:       input.Ideas,
			GeneratedAt: input.GeneratedAt,
			Model:       input.Model,
		}
		if err := h.service.DeliverIdeas(ctx, batch); err != nil {
			return nil, err
		}
		return &Output{Delivered: true, Kind: KindIdeas}, nil

	default:
		return nil, errors.NewInvalidInputError("neither 'post' nor 'ideas' present")
	}
}
