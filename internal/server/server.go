// Package server exposes report generation and the history log over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Stone-IT-Cloud/devsummary"
	"github.com/Stone-IT-Cloud/devsummary/internal/history"
)

// Reports runs the report use cases.
type Reports interface {
	EndOfDay(ctx context.Context) (string, error)
	SprintReview(ctx context.Context, req devsummary.SprintRequest) (string, error)
}

// History is the subset of the history store served over HTTP.
type History interface {
	List() []history.Entry
	Get(id string) (history.Entry, error)
	Delete(id string) (bool, error)
	Clear() error
}

// HTTPObserver is told about every served request.
type HTTPObserver interface {
	ObserveHTTP(method, route string, code int)
}

// Config configures the HTTP server.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
	// StaticDir, when set, is served at "/".
	StaticDir string
	// Metrics, when set, is served at "/metrics".
	Metrics http.Handler
	// Observer is optional.
	Observer HTTPObserver
}

// Server is the devsummary HTTP server.
type Server struct {
	config       Config
	reports      Reports
	history      History
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	terminate    sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server.
func New(cfg Config, reports Reports, hist History) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		config:       cfg,
		reports:      reports,
		history:      hist,
		shutdownChan: make(chan struct{}),
	}
}

// Start serves until ctx is cancelled, a termination signal arrives, the
// terminate endpoint is called or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting devsummary server", "address", s.config.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		slog.Info("devsummary server stopped")
	})

	return shutdownErr
}

// RequestShutdown asks a running Start to return. It is safe to call more
// than once.
func (s *Server) RequestShutdown() {
	s.terminate.Do(func() { close(s.shutdownChan) })
}

// IsRunning reports whether Start is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /run-eod", s.handleRunEOD)
	mux.HandleFunc("POST /run-sprint-review", s.handleRunSprintReview)
	mux.HandleFunc("GET /history", s.handleListHistory)
	mux.HandleFunc("DELETE /history", s.handleClearHistory)
	mux.HandleFunc("POST /history/clear", s.handleClearHistory)
	mux.HandleFunc("GET /history/{id}", s.handleGetHistory)
	mux.HandleFunc("DELETE /history/{id}", s.handleDeleteHistory)
	mux.HandleFunc("POST /terminate", s.handleTerminate)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.config.Metrics != nil {
		mux.Handle("GET /metrics", s.config.Metrics)
	}
	if s.config.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	var handler http.Handler = mux
	handler = corsMiddleware(handler)
	handler = loggingMiddleware(s.config.Observer)(handler)
	handler = recoveryMiddleware(handler)
	return handler
}
