// internal/workers/communication/slack-deliver/service.go
package slackdeliver

import (
	"context"
	"fmt"

	"linkedin-agent/internal/common/errors"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/models"
)

type Service struct {
	config  *Config
	slack   SlackPoster
	archive Archive
	alerter Alerter
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:  config,
		slack:   deps.Slack,
		archive: deps.Archive,
		alerter: deps.Alerter,
		logger:  deps.Logger.With(map[string]interface{}{"component": "slack-deliver"}),
	}
}

// DeliverIdeas archives the batch and posts it to the default channel.
func (s *Service) DeliverIdeas(ctx context.Context, batch *models.IdeaBatch) error {
	if s.archive != nil {
		if _, err := s.archive.SaveIdeaBatch(ctx, batch); err != nil {
			archiveErr := errors.NewArchiveFailedError(err)
			s.logger.Warn(archiveErr.Message, map[string]interface{}{
				"errorCode": string(archiveErr.Code),
				"error":     err.Error(),
			})
		}
	}

	if err := s.slack.PostIdeas(ctx, batch.Ideas); err != nil {
		return errors.NewSlackDeliveryFailedError(err)
	}

	s.logger.Info("ideas delivered", map[string]interface{}{"count": len(batch.Ideas)})
	return nil
}

// DeliverIdeasFailure reports a failed idea run to the default channel.
func (s *Service) DeliverIdeasFailure(ctx context.Context, cause error) {
	ctx, cancel := s.reportContext(ctx)
	defer cancel()

	message := fmt.Sprintf("Ideen-Generierung fehlgeschlagen: %v", cause)
	s.alert(ctx, "generate-ideas", message)

	if err := s.slack.PostError(ctx, message, ""); err != nil {
		s.logger.Error("could not report failure to Slack", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// DeliverPost archives the post and sends it back to whoever clicked.
func (s *Service) DeliverPost(ctx context.Context, idea *models.Idea, result *models.PostResult, responseURL, channel string) error {
	if s.archive != nil && idea != nil {
		if _, err := s.archive.SavePost(ctx, idea, result); err != nil {
			archiveErr := errors.NewArchiveFailedError(err)
			s.logger.Warn(archiveErr.Message, map[string]interface{}{
				"errorCode": string(archiveErr.Code),
				"error":     err.Error(),
			})
		}
	}

	if err := s.slack.PostResult(ctx, result, responseURL, channel); err != nil {
		return errors.NewSlackDeliveryFailedError(err)
	}

	s.logger.Info("post delivered", map[string]interface{}{
		"ideaTitle": result.IdeaTitle,
		"wordCount": result.WordCount,
	})
	return nil
}

// DeliverPostFailure reports a failed post run, preferring the interaction's
// response_url over the channel.
func (s *Service) DeliverPostFailure(ctx context.Context, idea *models.Idea, responseURL, channel string, cause error) {
	ctx, cancel := s.reportContext(ctx)
	defer cancel()

	title := "?"
	if idea != nil && idea.Title != "" {
		title = idea.Title
	}
	message := fmt.Sprintf("Post-Generierung fehlgeschlagen für '%s': %v", title, cause)
	s.alert(ctx, "generate-post", message)

	if responseURL != "" {
		err := s.slack.Respond(ctx, responseURL, map[string]string{"text": "❌ " + message})
		if err == nil {
			return
		}
		s.logger.Warn("response_url failed, falling back to Slack API", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := s.slack.PostError(ctx, message, channel); err != nil {
		s.logger.Error("could not report failure to Slack", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// reportContext detaches failure reports from the job's context, which has
// usually expired or been cancelled by the time a failure is reported.
func (s *Service) reportContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.config.Timeout)
}

func (s *Service) alert(ctx context.Context, job, message string) {
	if s.alerter == nil || !s.config.AlertOnFailure {
		return
	}
	if err := s.alerter.Alert(ctx, job, message); err != nil {
		alertErr := errors.NewAlertFailedError(err)
		s.logger.Warn(alertErr.Message, map[string]interface{}{
			"errorCode": string(alertErr.Code),
			"error":     err.Error(),
		})
	}
}
