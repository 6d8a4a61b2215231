// internal/common/slack/client.go
package slack

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	httpclient "linkedin-agent/internal/common/http"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/common/metrics"
	"linkedin-agent/internal/models"
)

const DefaultAPIBaseURL = "https://slack.com/api"

// ErrNotConfigured is returned when the bot token or channel is missing.
// No request is made in that case.
var ErrNotConfigured = stderrors.New("slack: SLACK_BOT_TOKEN or SLACK_CHANNEL_ID missing")

// APIError is an ok:false answer from the Slack Web API.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

type Config struct {
	BotToken   string
	ChannelID  string
	APIBaseURL string
	Timeout    time.Duration
}

type Client struct {
	config Config
	http   *httpclient.Client
	logger logger.Logger
	now    func() time.Time
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		config: cfg,
		http:   httpclient.NewClient(cfg.Timeout, ""),
		logger: log.With(map[string]interface{}{"component": "slack"}),
		now:    time.Now,
	}
}

// DefaultChannel is the channel used when a request names none.
func (c *Client) DefaultChannel() string { return c.config.ChannelID }

// PostIdeas posts the idea list to the default channel.
func (c *Client) PostIdeas(ctx context.Context, ideas []models.Idea) error {
	return c.PostBlocks(ctx, c.config.ChannelID, IdeasMessage(ideas, c.now()))
}

// PostResult delivers a finished post. The interaction's response_url is
// tried first; on failure the post goes to channel via chat.postMessage.
func (c *Client) PostResult(ctx context.Context, result *models.PostResult, responseURL, channel string) error {
	blocks := ResultMessage(result.Post, result.IdeaTitle, result.WordCount)

	if responseURL != "" {
		err := c.Respond(ctx, responseURL, map[string]interface{}{
			"blocks":           blocks,
			"replace_original": false,
		})
		if err == nil {
			c.logger.Info("post sent via response_url", nil)
			return nil
		}
		c.logger.Warn("response_url failed, falling back to Slack API", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return c.PostBlocks(ctx, c.channelOrDefault(channel), blocks)
}

// PostError posts "❌ <message>" to channel, or the default channel.
func (c *Client) PostError(ctx context.Context, message, channel string) error {
	return c.PostBlocks(ctx, c.channelOrDefault(channel), ErrorMessage(message))
}

// Respond posts payload to an interaction response_url.
func (c *Client) Respond(ctx context.Context, responseURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.http.PostJSON(ctx, responseURL, nil, body); err != nil {
		metrics.SlackMessages.WithLabelValues("response_url", "error").Inc()
		return err
	}
	metrics.SlackMessages.WithLabelValues("response_url", "success").Inc()
	return nil
}

// PostBlocks calls chat.postMessage.
func (c *Client) PostBlocks(ctx context.Context, channel string, blocks []Block) error {
	if c.config.BotToken == "" || channel == "" {
		c.logger.Error("Cannot post to Slack: SLACK_BOT_TOKEN or SLACK_CHANNEL_ID missing", nil)
		metrics.SlackMessages.WithLabelValues("channel", "not_configured").Inc()
		return ErrNotConfigured
	}

	body, err := json.Marshal(map[string]interface{}{
		"channel": channel,
		"blocks":  blocks,
	})
	if err != nil {
		return err
	}

	data, err := c.http.PostJSON(ctx, strings.TrimSuffix(c.config.APIBaseURL, "/")+"/chat.postMessage",
		map[string]string{"Authorization": "Bearer " + c.config.BotToken}, body)
	if err != nil {
		metrics.SlackMessages.WithLabelValues("channel", "error").Inc()
		return err
	}

	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		metrics.SlackMessages.WithLabelValues("channel", "error").Inc()
		return fmt.Errorf("decode slack response: %w", err)
	}
	if !resp.OK {
		code := resp.Error
		if code == "" {
			code = "unknown"
		}
		c.logger.Error("Slack API error", map[string]interface{}{
			"error":   code,
			"channel": channel,
		})
		metrics.SlackMessages.WithLabelValues("channel", "error").Inc()
		return &APIError{Method: "chat.postMessage", Code: code}
	}

	metrics.SlackMessages.WithLabelValues("channel", "success").Inc()
	c.logger.Info("posted to Slack channel", map[string]interface{}{"channel": channel})
	return nil
}

func (c *Client) channelOrDefault(channel string) string {
	if channel != "" {
		return channel
	}
	return c.config.ChannelID
}
