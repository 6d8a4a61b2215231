// internal/api/server.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"linkedin-agent/internal/common/logger"
)

type Server struct {
	srv    *http.Server
	logger logger.Logger
}

func NewServer(addr string, router *Router, readTimeout time.Duration, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router.Engine,
			ReadHeaderTimeout: readTimeout,
			ReadTimeout:       readTimeout,
		},
		logger: log,
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
