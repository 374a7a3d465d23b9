// Package server exposes the network graph, traversals, house metric series
// and the visualization page over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/feedergraph/feedergraph/internal/energy"
	"github.com/feedergraph/feedergraph/internal/session"
	"github.com/feedergraph/feedergraph/internal/traverse"
)

// ErrNoMetricStore is returned by metric endpoints when no store is configured.
var ErrNoMetricStore = errors.New("no metric store configured")

// Options configures a Server.
type Options struct {
	// Metrics serves house metric rows; nil disables the metric endpoints.
	Metrics energy.Source
	// RateLimit is the sustained request rate per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
	MaxDepth  int
	Logger    *slog.Logger
}

// Server serves one session handle.
type Server struct {
	session  *session.Handle
	metrics  energy.Source
	limiter  *rate.Limiter
	pathOpts []traverse.PathOption
	logger   *slog.Logger
	router   *gin.Engine
}

// New builds a Server and its routes.
func New(h *session.Handle, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}

	s := &Server{
		session:  h,
		metrics:  opts.Metrics,
		limiter:  rate.NewLimiter(limit, burst),
		pathOpts: []traverse.PathOption{traverse.WithLogger(logger)},
		logger:   logger,
	}
	if opts.MaxDepth > 0 {
		s.pathOpts = append(s.pathOpts, traverse.WithMaxDepth(opts.MaxDepth))
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests(), observeRequests(), s.rateLimit())
	s.setupRoutes(router)
	s.router = router
	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
