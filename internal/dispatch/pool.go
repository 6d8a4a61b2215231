// internal/dispatch/pool.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"
	"linkedin-agent/internal/common/observability"

	"github.com/google/uuid"
)

var (
	ErrQueueFull = errors.New("dispatch queue is full")
	ErrClosed    = errors.New("dispatcher is shut down")
)

// JobFunc is the unit of background work. ctx carries the per-job timeout.
type JobFunc func(ctx context.Context) error

type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Workers:    2,
		QueueSize:  32,
		JobTimeout: 12 * time.Minute,
	}
}

type job struct {
	id       uuid.UUID
	name     string
	fn       JobFunc
	enqueued time.Time
}

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	config *Config
	queue  chan job
	obs    *observability.Observability
	logger logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// ctx is cancelled only when Shutdown gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool starts cfg.Workers goroutines. obs may be nil.
func NewPool(cfg *Config, obs *observability.Observability, log logger.Logger) *Pool {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: cfg,
		queue:  make(chan job, cfg.QueueSize),
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "dispatch"}),
		ctx:    ctx,
		cancel: cancel,
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.work()
	}
	return p
}

// Submit queues fn without blocking and returns the job id.
func (p *Pool) Submit(name string, fn JobFunc) (uuid.UUID, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		metrics.DispatchRejected.WithLabelValues("closed").Inc()
		return uuid.Nil, ErrClosed
	}

	j := job{id: uuid.New(), name: name, fn: fn, enqueued: time.Now()}
	select {
	case p.queue <- j:
		metrics.DispatchQueueDepth.Inc()
	default:
		metrics.DispatchRejected.WithLabelValues("queue_full").Inc()
		p.logger.Warn("Dispatch queue full, rejecting job", map[string]interface{}{
			"job":        name,
			"queue_size": p.config.QueueSize,
		})
		return uuid.Nil, ErrQueueFull
	}

	p.logger.Debug("Job queued", map[string]interface{}{
		"job":    name,
		"job_id": j.id.String(),
	})
	return j.id, nil
}

// Shutdown stops accepting jobs and waits for queued and running ones. When
// ctx ends first, running jobs are cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Dispatcher drained", nil)
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("Dispatcher shutdown timed out, cancelling running jobs", nil)
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.queue {
		metrics.DispatchQueueDepth.Dec()
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	log := p.logger.WithFields(map[string]interface{}{
		"job":    j.name,
		"job_id": j.id.String(),
	})

	ctx, cancel := context.WithTimeout(p.ctx, p.config.JobTimeout)
	defer cancel()

	var endSpan func(error)
	if p.obs != nil {
		ctx, endSpan = p.obs.StartSpan(ctx, "dispatch."+j.name)
		log = log.WithFields(map[string]interface{}{"trace_id": observability.TraceID(ctx)})
	}

	start := time.Now()
	log.Info("Job started", map[string]interface{}{
		"waited_ms": start.Sub(j.enqueued).Milliseconds(),
	})

	err := p.safeCall(ctx, j, log)

	status := "success"
	if err != nil {
		status = "error"
		log.Error("Job failed", map[string]interface{}{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	} else {
		log.Info("Job completed", map[string]interface{}{
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}

	if endSpan != nil {
		endSpan(err)
	}
	if p.obs != nil {
		p.obs.RecordJobProcessed(ctx, j.name, status)
		p.obs.RecordJobDuration(ctx, j.name, time.Since(start), status)
	}
}

func (p *Pool) safeCall(ctx context.Context, j job, log logger.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}
