// Package server exposes the request intake HTTP API consumed by chat
// front ends and operator tooling.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fetcharr/internal/config"
	"fetcharr/internal/logging"
	"fetcharr/internal/requests"
	"fetcharr/internal/tracker"
)

// Server wraps the gin router and its http.Server lifecycle.
type Server struct {
	cfg    *config.Config
	engine *tracker.Engine
	store  *requests.Store
	logger *slog.Logger
	http   *http.Server
}

// New builds the API server around a lifecycle engine and store.
func New(cfg *config.Config, engine *tracker.Engine, store *requests.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		store:  store,
		logger: logging.NewComponentLogger(logger, "server"),
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestIDMiddleware(), s.accessLogMiddleware())

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/api/v1")
	v1.Use(s.authMiddleware())
	{
		v1.POST("/requests", s.handleCreate)
		v1.POST("/requests/:id/selection", s.handleSelect)
		v1.GET("/requests", s.handleList)
	}
	return router
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", logging.String("bind", s.cfg.Server.Bind))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
