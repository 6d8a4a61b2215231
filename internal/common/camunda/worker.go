// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"linkedin-agent/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler is implemented by the content workers.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobWorker owns one open Zeebe job worker.
type JobWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// Options tune one job worker.
type Options struct {
	MaxJobsActive int
	Timeout       time.Duration
	PollInterval  time.Duration
}

// OpenWorker subscribes handler to taskType.
func OpenWorker(client zbc.Client, taskType string, opts Options, handler JobHandler, logger *zap.Logger) *JobWorker {
	if opts.PollInterval == 0 {
		opts.PollInterval = 100 * time.Millisecond
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler)).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		PollInterval(opts.PollInterval).
		Name(taskType).
		Open()

	logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", opts.MaxJobsActive),
		zap.Duration("timeout", opts.Timeout),
	)

	return &JobWorker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

// instrument tracks in-flight jobs and their duration. Outcome counters are
// recorded by the handlers, which know the error code.
func instrument(taskType string, handler JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		}()
		handler.Handle(client, job)
	}
}

// Stop closes the worker and waits for activated jobs to finish or ctx to end.
func (w *JobWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))

	done := make(chan struct{})
	go func() {
		w.worker.Close()
		w.worker.AwaitClose()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker did not stop in time", zap.String("taskType", w.taskType))
	}
}
