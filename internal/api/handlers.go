// internal/api/handlers.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"linkedin-agent/internal/common/cache"
	"linkedin-agent/internal/common/logger"
	"linkedin-agent/internal/dispatch"
	"linkedin-agent/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	jobGenerateIdeas = "generate-ideas"
	jobGeneratePost  = "generate-post"
)

type IdeaGenerator interface {
	Execute(ctx context.Context, input *models.IdeaRequest) (*models.IdeaBatch, error)
}

type PostGenerator interface {
	Execute(ctx context.Context, idea *models.Idea) (*models.PostResult, error)
}

// Deliverer reports results and failures to Slack.
type Deliverer interface {
	DeliverIdeas(ctx context.Context, batch *models.IdeaBatch) error
	DeliverIdeasFailure(ctx context.Context, cause error)
	DeliverPost(ctx context.Context, idea *models.Idea, result *models.PostResult, responseURL, channel string) error
	DeliverPostFailure(ctx context.Context, idea *models.Idea, responseURL, channel string, cause error)
}

type Dispatcher interface {
	Submit(name string, fn dispatch.JobFunc) (uuid.UUID, error)
}

// ContentHandler accepts generation requests and runs them in the background.
type ContentHandler struct {
	ideas    IdeaGenerator
	posts    PostGenerator
	delivery Deliverer
	jobs     Dispatcher
	dedupe   cache.Deduper
	logger   logger.Logger
}

type ContentHandlerDeps struct {
	Ideas    IdeaGenerator
	Posts    PostGenerator
	Delivery Deliverer
	Jobs     Dispatcher
	Dedupe   cache.Deduper
	Logger   logger.Logger
}

func NewContentHandler(deps ContentHandlerDeps) *ContentHandler {
	return &ContentHandler{
		ideas:    deps.Ideas,
		posts:    deps.Posts,
		delivery: deps.Delivery,
		jobs:     deps.Jobs,
		dedupe:   deps.Dedupe,
		logger:   deps.Logger.With(map[string]interface{}{"component": "api"}),
	}
}

type acceptedResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id,omitempty"`
}

// GenerateIdeas handles POST /generate-ideas.
func (h *ContentHandler) GenerateIdeas(c *gin.Context) {
	var req models.IdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid JSON body"})
		return
	}

	jobID, err := h.jobs.Submit(jobGenerateIdeas, func(ctx context.Context) error {
		return h.runIdeas(ctx, &req)
	})
	if err != nil {
		h.rejected(c, jobGenerateIdeas, err)
		return
	}

	h.logger.Info("generate-ideas accepted", map[string]interface{}{
		"subject": req.EmailSubject,
		"job_id":  jobID.String(),
	})
	c.JSON(http.StatusAccepted, acceptedResponse{Status: models.StatusAccepted, JobID: jobID.String()})
}

// GeneratePost handles POST /generate-post.
func (h *ContentHandler) GeneratePost(c *gin.Context) {
	var req models.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid JSON body"})
		return
	}
	if req.Idea.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing 'idea' in request body"})
		return
	}

	ctx := c.Request.Context()
	key := req.Idea.DedupeKey()
	if h.dedupe != nil && !h.dedupe.AcquireOnce(ctx, key) {
		h.logger.Info("generate-post duplicate ignored", map[string]interface{}{
			"idea": req.Idea.Title,
		})
		c.JSON(http.StatusOK, acceptedResponse{Status: models.StatusDuplicate})
		return
	}

	jobID, err := h.jobs.Submit(jobGeneratePost, func(ctx context.Context) error {
		return h.runPost(ctx, &req, key)
	})
	if err != nil {
		if h.dedupe != nil {
			h.dedupe.Release(ctx, key)
		}
		h.rejected(c, jobGeneratePost, err)
		return
	}

	h.logger.Info("generate-post accepted", map[string]interface{}{
		"idea":   req.Idea.Title,
		"job_id": jobID.String(),
	})
	c.JSON(http.StatusAccepted, acceptedResponse{Status: models.StatusAccepted, JobID: jobID.String()})
}

func (h *ContentHandler) runIdeas(ctx context.Context, req *models.IdeaRequest) error {
	batch, err := h.ideas.Execute(ctx, req)
	if err == nil {
		err = h.delivery.DeliverIdeas(ctx, batch)
	}
	if err != nil {
		h.delivery.DeliverIdeasFailure(ctx, err)
	}
	return err
}

// runPost releases the dedupe key when the run fails so the button can be
// clicked again.
func (h *ContentHandler) runPost(ctx context.Context, req *models.PostRequest, key string) error {
	result, err := h.posts.Execute(ctx, req.Idea)
	if err == nil {
		err = h.delivery.DeliverPost(ctx, req.Idea, result, req.ResponseURL, req.ChannelID)
	}
	if err != nil {
		h.delivery.DeliverPostFailure(ctx, req.Idea, req.ResponseURL, req.ChannelID, err)
		if h.dedupe != nil {
			h.dedupe.Release(context.WithoutCancel(ctx), key)
		}
	}
	return err
}

func (h *ContentHandler) rejected(c *gin.Context, job string, err error) {
	h.logger.Warn("job not accepted", map[string]interface{}{
		"job":   job,
		"error": err.Error(),
	})

	detail := "Service unavailable"
	if stderrors.Is(err, dispatch.ErrQueueFull) {
		detail = "Too many jobs in progress, try again later"
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"detail": detail})
}
