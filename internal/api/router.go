// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"linkedin-agent/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the public health endpoints and the protected generation
// endpoints. checks are run by /ready, keyed by dependency name.
func NewRouter(content *ContentHandler, secret string, checks map[string]ReadinessCheck, log logger.Logger) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "errors": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := r.Group("/")
	protected.Use(SecretMiddleware(secret))
	{
		protected.POST("/generate-ideas", content.GenerateIdeas)
		protected.POST("/generate-post", content.GeneratePost)
	}

	return &Router{Engine: r}
}
