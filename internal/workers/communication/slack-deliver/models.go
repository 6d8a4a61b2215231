// internal/workers/communication/slack-deliver/models.go
package slackdeliver

import (
	"context"

	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/models"
)

// Input is the process state after generate-ideas or generate-post: either
// ideas or a finished post is present.
type Input struct {
	Ideas       []models.Idea `json:"ideas,omitempty"`
	GeneratedAt string        `json:"generated_at,omitempty"`
	Model       string        `json:"model,omitempty"`

	Post        string       `json:"post,omitempty"`
	IdeaTitle   string       `json:"idea_title,omitempty"`
	WordCount   int          `json:"word_count,omitempty"`
	Idea        *models.Idea `json:"idea,omitempty"`
	ResponseURL string       `json:"response_url,omitempty"`
	ChannelID   string       `json:"channel_id,omitempty"`
}

type Output struct {
	Delivered bool   `json:"delivered"`
	Kind      string `json:"deliveryKind"`
}

const (
	KindIdeas = "ideas"
	KindPost  = "post"
)

// SlackPoster is satisfied by *slack.Client.
type SlackPoster interface {
	PostIdeas(ctx context.Context, ideas []models.Idea) error
	PostResult(ctx context.Context, result *models.PostResult, responseURL, channel string) error
	PostError(ctx context.Context, message, channel string) error
	Respond(ctx context.Context, responseURL string, payload interface{}) error
}

// Archive is satisfied by *repository.ArchiveRepository.
type Archive interface {
	SaveIdeaBatch(ctx context.Context, batch *models.IdeaBatch) (string, error)
	SavePost(ctx context.Context, idea *models.Idea, result *models.PostResult) (string, error)
}

// Alerter is satisfied by *aws.SNSClient.
type Alerter interface {
	Alert(ctx context.Context, job, message string) error
}

// ServiceDependencies wires the service. Archive and Alerter are optional.
type ServiceDependencies struct {
	Slack   SlackPoster
	Archive Archive
	Alerter Alerter
	Logger  logger.Logger
}
