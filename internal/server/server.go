// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the process action, the settings form and the
// file action lookup over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

// Register mounts every route of h on r.
func Register(r chi.Router, h *Handler) {
	r.Get("/health/live", h.Live)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/contexts/{contextID}", func(r chi.Router) {
		r.Post("/grobid/process", h.Process)
		r.Get("/grobid/settings", h.GetSettings)
		r.Put("/grobid/settings", h.PutSettings)
		r.Get("/submissions/{submissionID}/files/{fileID}/actions", h.FileActions)
	})
}

// NewRouter builds the chi router with the standard middleware stack.
func NewRouter(h *Handler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(RequestLogger(logger))
	r.Use(Metrics())
	Register(r, h)
	return r
}

// Server is the HTTP server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	cfg        types.ServerConfig
	logger     *slog.Logger
}

// New creates a Server for h.
func New(cfg types.ServerConfig, h *Handler, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(h, logger),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", slog.String("addr", ln.Addr().String()))
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
