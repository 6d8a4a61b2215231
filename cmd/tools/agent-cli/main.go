// cmd/tools/agent-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"linkedin-agent/internal/app"
	"linkedin-agent/internal/common/cache"
	"linkedin-agent/internal/common/config"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/models"
	generatepost "linkedin-agent/internal/workers/content/generate-post"
)

const usage = "Usage: agent-cli ideas|post <input_json_or_path>"

type ideaRunner interface {
	Execute(ctx context.Context, input *models.IdeaRequest) (*models.IdeaBatch, error)
}

type postRunner interface {
	Execute(ctx context.Context, idea *models.Idea) (*models.PostResult, error)
}

func main() {
	if len(os.Args) < 3 {
		os.Exit(fail(os.Stdout, usage))
	}

	cfg, err := config.Load()
	if err != nil {
		os.Exit(fail(os.Stdout, fmt.Sprintf("Config error: %v", err)))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	agents, err := app.NewAgents(cfg, cache.NewMemoryCache(), log)
	if err != nil {
		zapLog.Error("failed to build agents", zap.Error(err))
		os.Exit(fail(os.Stdout, err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, agents.Ideas, agents.Posts, log))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer, ideas ideaRunner, posts postRunner, log logger.Logger) int {
	if len(args) < 2 {
		return fail(stdout, usage)
	}

	data, err := loadInput(args[1])
	if err != nil {
		return fail(stdout, fmt.Sprintf("Input error: %v", err))
	}

	switch args[0] {
	case "ideas":
		var input models.IdeaRequest
		if err := json.Unmarshal(data, &input); err != nil {
			return fail(stdout, fmt.Sprintf("Input error: %v", err))
		}
		batch, err := ideas.Execute(ctx, &input)
		if err != nil {
			log.Error("Agent failed", map[string]interface{}{"error": err.Error()})
			return fail(stdout, err.Error())
		}
		return emit(stdout, batch)

	case "post":
		var input generatepost.Input
		if err := json.Unmarshal(data, &input); err != nil {
			return fail(stdout, fmt.Sprintf("Input error: %v", err))
		}
		if input.Idea.IsEmpty() {
			return fail(stdout, "Missing 'idea' in input")
		}
		result, err := posts.Execute(ctx, input.Idea)
		if err != nil {
			log.Error("Post generation failed", map[string]interface{}{"error": err.Error()})
			return fail(stdout, err.Error())
		}
		return emit(stdout, result)

	default:
		return fail(stdout, usage)
	}
}

// loadInput treats arguments starting with "/" or "./" as file paths and
// everything else as inline JSON. Surrounding whitespace is ignored.
func loadInput(arg string) ([]byte, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "/") || strings.HasPrefix(arg, "./") {
		data, err := os.ReadFile(arg)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("Input file not found: %s", arg)
		}
		return data, err
	}
	if !json.Valid([]byte(arg)) {
		return nil, fmt.Errorf("argument is neither a file path nor valid JSON")
	}
	return []byte(arg), nil
}

func emit(w io.Writer, v interface{}) int {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return 1
	}
	return 0
}

func fail(w io.Writer, message string) int {
	emit(w, models.ErrorResult{Status: models.StatusError, Message: message})
	return 1
}
