// Package server exposes the agent as a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/promptdb/promptdb/pkg/agent"
	"github.com/promptdb/promptdb/pkg/llm"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server wraps one agent and one plan generator behind HTTP handlers.
// The agent's single-flow constraint carries over: requests are served
// sequentially safe only insofar as the underlying database/sql pool
// serializes them; the table-name map is rebuilt per introspection.
type Server struct {
	agent  *agent.Agent
	gen    llm.Generator
	model  string
	addr   string
	logger *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Agent     *agent.Agent
	Generator llm.Generator
	Model     string
	Addr      string
	Logger    *slog.Logger
}

// New creates a server instance. If logger is nil, a discard logger is
// used.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		agent:  cfg.Agent,
		gen:    cfg.Generator,
		model:  cfg.Model,
		addr:   cfg.Addr,
		logger: logger,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/v1/schema", s.handleSchema)
	r.Post("/v1/plan", s.handlePlan)
	r.Post("/v1/query", s.handleQuery)

	return r
}

// Serve starts the server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", slog.String("addr", s.addr))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
