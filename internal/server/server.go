// Package server exposes the chart pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz                 liveness and build information
//	POST /v1/render/{kind}        render a chart, answers text/plain
//	POST /v1/export/{format}      export the path tree as dot or svg
//
// Render and export requests carry the dataset inline:
//
//	{
//	  "dataset": {"headers": ["animal", "size"], "rows": [["shark", "small"]]},
//	  "roles":   {"primary": "animal", "display": ["animal", "size"]},
//	  "options": {"width": 80, "aggregate": "sum", "show_aggregate": true}
//	}
//
// Every response carries an X-Request-ID header; a request ID sent by the
// client is echoed back.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flat/pkg/pipeline"
)

const (
	// DefaultAddr is the listen address of [Server.ListenAndServe].
	DefaultAddr = ":8080"

	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 8 << 20

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// Server serves chart requests through a pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
	router  chi.Router
}

// New creates a server. A nil logger falls back to the runner's logger.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		maxBody: DefaultMaxBodyBytes,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/render/{kind}", s.handleRender)
		r.Post("/export/{format}", s.handleExport)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
