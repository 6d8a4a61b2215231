// cmd/agent-api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linkedin-agent/internal/api"
	"linkedin-agent/internal/app"
	"linkedin-agent/internal/common/aws"
	"linkedin-agent/internal/common/cache"
	"linkedin-agent/internal/common/camunda"
	"linkedin-agent/internal/common/config"
	"linkedin-agent/internal/common/database"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/observability"
	"linkedin-agent/internal/common/slack"
	"linkedin-agent/internal/dispatch"
	"linkedin-agent/internal/repository"
	slackdeliver "linkedin-agent/internal/workers/communication/slack-deliver"
	generateideas "linkedin-agent/internal/workers/content/generate-ideas"
	generatepost "linkedin-agent/internal/workers/content/generate-post"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting LinkedIn agent API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs := observability.New("linkedin-agent")
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]api.ReadinessCheck{}

	// --- Redis: research cache + click dedupe, in-memory when disabled ---
	var researchCache cache.Cache = cache.NewMemoryCache()
	var deduper cache.Deduper = cache.NewMemoryDeduper(config.GetDuration(cfg.Dispatch.DedupeTTL))
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()

		researchCache = cache.NewRedisCache(redis, "research:", log)
		deduper = cache.NewRedisDeduper(redis, config.GetDuration(cfg.Dispatch.DedupeTTL), log)
		checks["redis"] = redis.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- PostgreSQL: archive of delivered ideas and posts ---
	var archive slackdeliver.Archive
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		archive = repository.NewArchiveRepository(pg, log)
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- SNS: operator alerts on failed background jobs ---
	var alerter slackdeliver.Alerter
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		alerter = snsClient
		zapLog.Info("SNS alerts enabled", zap.String("topic", cfg.Notifications.SNS.TopicARN))
	}

	// --- Agents and delivery ---
	agents, err := app.NewAgents(cfg, researchCache, log)
	if err != nil {
		zapLog.Fatal("failed to build agents", zap.Error(err))
	}

	slackClient := slack.NewClient(slack.Config{
		BotToken:   cfg.Slack.BotToken,
		ChannelID:  cfg.Slack.ChannelID,
		APIBaseURL: cfg.Slack.APIBaseURL,
		Timeout:    config.GetDuration(cfg.Slack.Timeout),
	}, log)
	if cfg.Slack.BotToken == "" || cfg.Slack.ChannelID == "" {
		zapLog.Warn("Slack bot token or channel is not configured; results will only be logged")
	}

	deliverCfg := slackdeliver.DefaultConfig()
	delivery := slackdeliver.NewService(slackdeliver.ServiceDependencies{
		Slack:   slackClient,
		Archive: archive,
		Alerter: alerter,
		Logger:  log,
	}, deliverCfg)

	// --- Background jobs ---
	ideasCfg := generateideas.FromAppConfig(cfg)
	postCfg := generatepost.FromAppConfig(cfg)
	jobTimeout := ideasCfg.Timeout
	if postCfg.Timeout > jobTimeout {
		jobTimeout = postCfg.Timeout
	}

	pool := dispatch.NewPool(&dispatch.Config{
		Workers:    cfg.Dispatch.Workers,
		QueueSize:  cfg.Dispatch.QueueSize,
		JobTimeout: jobTimeout + deliverCfg.Timeout,
	}, obs, log)

	// --- Zeebe workers ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.JobWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		handlers := map[string]camunda.JobHandler{
			generateideas.TaskType: agents.Ideas,
			generatepost.TaskType:  agents.Posts,
			slackdeliver.TaskType:  slackdeliver.NewHandler(deliverCfg, delivery, log),
		}
		for taskType, handler := range handlers {
			wcfg := config.GetWorkerConfig(cfg, taskType)
			if !wcfg.Enabled {
				zapLog.Info("worker disabled", zap.String("taskType", taskType))
				continue
			}
			workers = append(workers, camunda.OpenWorker(zeebe.GetClient(), taskType, camunda.Options{
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
			}, handler, zapLog))
		}
	}

	// --- HTTP API ---
	content := api.NewContentHandler(api.ContentHandlerDeps{
		Ideas:    agents.Ideas,
		Posts:    agents.Posts,
		Delivery: delivery,
		Jobs:     pool,
		Dedupe:   deduper,
		Logger:   log,
	})
	router := api.NewRouter(content, cfg.Server.APISecret, checks, log)
	server := api.NewServer(cfg.Server.Address(), router, config.GetDuration(cfg.Server.ReadTimeout), log)

	if cfg.Server.APISecret == "" {
		zapLog.Warn("server.api_secret is empty; generation endpoints are unauthenticated")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, draining...")
	case err := <-serverErr:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("Background jobs did not finish in time", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("LinkedIn agent API stopped gracefully")
}
