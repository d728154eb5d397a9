// Package api exposes the filter pipeline and the source catalog over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/newsfilter/src/config"
	"github.com/stake-plus/newsfilter/src/factcheck"
	"go.uber.org/zap"
)

// Analyzer classifies one message.
type Analyzer interface {
	Analyze(ctx context.Context, text, contextLabel string) (factcheck.Result, error)
}

// CatalogAdmin is the part of the source catalog the admin routes edit.
type CatalogAdmin interface {
	Names() []string
	Categories() map[string]string
	DomainsForCategory(name string) []string
	AddDomain(ctx context.Context, category, raw, description string) (bool, error)
	RemoveDomain(ctx context.Context, category, raw string) (bool, error)
}

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    config.API
	engine *gin.Engine
	logger *zap.Logger
}

// New builds the router. cat may be nil, in which case the admin routes are not mounted.
func New(cfg config.API, analyzer Analyzer, cat CatalogAdmin, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "api"))

	g := gin.New()
	g.Use(requestLogger(logger), gin.Recovery())
	attachRoutes(g, cfg, analyzer, cat, logger)
	return &Server{cfg: cfg, engine: g, logger: logger}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("listening", zap.String("addr", s.cfg.Listen))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}
