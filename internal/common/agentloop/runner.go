// internal/common/agentloop/runner.go

// Package agentloop drives a Claude tool-use conversation until the model
// ends its turn or the iteration budget is spent.
package agentloop

import (
	"context"
	"encoding/json"

	"linkedin-agent/internal/common/anthropic"
	"linkedin-agent/internal/common/errors"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MessageCreator is satisfied by *anthropic.Client.
type MessageCreator interface {
	CreateWithRetry(ctx context.Context, req anthropic.Request) (*anthropic.Response, error)
}

// ToolExecutor runs one tool call and returns its result as a JSON string.
// It never fails; errors are encoded in the result.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) string
}

// Loop describes one agent run.
type Loop struct {
	Name             string
	Model            string
	MaxTokens        int
	System           string
	UserMessage      string
	MaxIterations    int
	ForceOutputAfter int
	NudgeMessage     string
}

// Result is the final model turn plus bookkeeping.
type Result struct {
	Response   *anthropic.Response
	Iterations int
	ToolCalls  int
	Forced     bool
}

type Runner struct {
	llm      MessageCreator
	tools    []anthropic.Tool
	executor ToolExecutor
	logger   logger.Logger
}

func NewRunner(llm MessageCreator, tools []anthropic.Tool, executor ToolExecutor, log logger.Logger) *Runner {
	return &Runner{
		llm:      llm,
		tools:    tools,
		executor: executor,
		logger:   log,
	}
}

// Run executes the loop. Once ForceOutputAfter tool calls have been made the
// nudge is appended to the conversation and tools are withheld, so the model
// has to answer in text.
func (r *Runner) Run(ctx context.Context, loop Loop) (res *Result, err error) {
	ctx, span := otel.Tracer("linkedin-agent/agentloop").Start(ctx, "agent."+loop.Name)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := r.logger.With(map[string]interface{}{"agent": loop.Name})
	messages := []anthropic.Message{anthropic.UserText(loop.UserMessage)}

	toolCalls := 0
	nudged := false
	iteration := 0

	for iteration < loop.MaxIterations {
		iteration++

		force := toolCalls >= loop.ForceOutputAfter
		if force && !nudged {
			messages = appendUserText(messages, loop.NudgeMessage)
			nudged = true
			metrics.AgentForcedOutput.WithLabelValues(loop.Name).Inc()
			log.Info("forcing final output", map[string]interface{}{
				"iteration": iteration,
				"toolCalls": toolCalls,
			})
		}

		req := anthropic.Request{
			Model:     loop.Model,
			MaxTokens: loop.MaxTokens,
			System:    loop.System,
			Messages:  messages,
		}
		if !force {
			req.Tools = r.tools
		}

		resp, err := r.llm.CreateWithRetry(ctx, req)
		if err != nil {
			metrics.AgentIterations.WithLabelValues(loop.Name, "error").Observe(float64(iteration))
			return nil, err
		}

		log.Info("model turn", map[string]interface{}{
			"iteration":  iteration,
			"stopReason": resp.StopReason,
			"forced":     force,
		})

		switch resp.StopReason {
		case anthropic.StopEndTurn:
			metrics.AgentIterations.WithLabelValues(loop.Name, "success").Observe(float64(iteration))
			span.SetAttributes(
				attribute.Int("agent.iterations", iteration),
				attribute.Int("agent.tool_calls", toolCalls),
			)
			return &Result{
				Response:   resp,
				Iterations: iteration,
				ToolCalls:  toolCalls,
				Forced:     nudged,
			}, nil

		case anthropic.StopToolUse:
			messages = append(messages, anthropic.Message{Role: anthropic.RoleAssistant, Content: resp.Content})

			var results []anthropic.ContentBlock
			for _, use := range resp.ToolUses() {
				toolCalls++
				log.Info("tool call", map[string]interface{}{
					"tool":  use.Name,
					"input": truncate(string(use.Input), 120),
				})
				out := r.executor.Execute(ctx, use.Name, use.Input)
				results = append(results, anthropic.ToolResultBlock(use.ID, out))
			}
			if len(results) > 0 {
				messages = append(messages, anthropic.Message{Role: anthropic.RoleUser, Content: results})
			}

		default:
			log.Warn("unexpected stop reason", map[string]interface{}{
				"stopReason": resp.StopReason,
				"iteration":  iteration,
			})
			metrics.AgentIterations.WithLabelValues(loop.Name, "no_output").Observe(float64(iteration))
			return nil, errors.NewAgentNoOutputError(loop.Name, iteration)
		}

		if ctx.Err() != nil {
			return nil, errors.NewLLMTimeoutError(ctx.Err())
		}
	}

	metrics.AgentIterations.WithLabelValues(loop.Name, "no_output").Observe(float64(iteration))
	return nil, errors.NewAgentNoOutputError(loop.Name, iteration)
}

// appendUserText adds text to the trailing user turn, or opens a new one.
func appendUserText(messages []anthropic.Message, text string) []anthropic.Message {
	if n := len(messages); n > 0 && messages[n-1].Role == anthropic.RoleUser {
		last := messages[n-1]
		content := make([]anthropic.ContentBlock, 0, len(last.Content)+1)
		content = append(content, last.Content...)
		content = append(content, anthropic.TextBlock(text))
		out := append([]anthropic.Message(nil), messages[:n-1]...)
		return append(out, anthropic.Message{Role: anthropic.RoleUser, Content: content})
	}
	return append(messages, anthropic.UserText(text))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
