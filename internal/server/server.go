// Package server exposes the status service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kijani/sentinel/internal/analyst"
	"github.com/kijani/sentinel/internal/config"
)

// Version is reported by GET /health.
const Version = "0.1.0"

// Server is the kijani status service.
type Server struct {
	cfg      *config.Config
	srv      *http.Server
	ln       net.Listener
	webhooks *WebhookNotifier
	logger   *slog.Logger
}

// NewServer wires routes and middleware and binds the listener.
func NewServer(cfg *config.Config, an *analyst.Analyst, logger *slog.Logger) (*Server, error) {
	webhooks := NewWebhookNotifier(cfg.Webhooks, logger)

	bind := cfg.Server.Bind
	if bind == "" {
		bind = "127.0.0.1"
	}

	// Try configured port, auto-find next available if busy.
	ln, actualPort, err := listenAutoPort(bind, cfg.Server.Port, logger)
	if err != nil {
		return nil, fmt.Errorf("binding port: %w", err)
	}
	cfg.Server.Port = actualPort

	srv := &http.Server{
		Handler:        NewHandlerChain(cfg, an, webhooks, logger),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	return &Server{
		cfg:      cfg,
		srv:      srv,
		ln:       ln,
		webhooks: webhooks,
		logger:   logger,
	}, nil
}

// NewHandlerChain builds the routed, middleware-wrapped HTTP handler.
func NewHandlerChain(cfg *config.Config, an *analyst.Analyst, webhooks *WebhookNotifier, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/analyse-threat", NewHandler(an, webhooks, logger))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": Version,
		})
	})
	if cfg.Telemetry.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	var h http.Handler = instrument(mux)
	h = securityHeaders(h)
	h = cors(h)
	h = logging(logger)(h)
	h = recovery(logger)(h)
	h = requestID(h)
	return otelhttp.NewHandler(h, "kijani")
}

// listenAutoPort tries the configured port; if busy, scans up to 10 higher ports.
func listenAutoPort(bind string, port int, logger *slog.Logger) (net.Listener, int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(bind, fmt.Sprint(port)))
	if err == nil {
		// When port is 0, the OS assigns a random port.
		return ln, ln.Addr().(*net.TCPAddr).Port, nil
	}
	if !errors.Is(err, syscall.EADDRINUSE) {
		return nil, 0, err
	}

	logger.Warn("port in use, searching for available port", "port", port)
	for offset := 1; offset <= 10; offset++ {
		tryPort := port + offset
		ln, err = net.Listen("tcp", net.JoinHostPort(bind, fmt.Sprint(tryPort)))
		if err == nil {
			logger.Info("using alternative port", "original", port, "actual", tryPort)
			return ln, tryPort, nil
		}
	}
	return nil, 0, fmt.Errorf("port %d and next 10 ports are all in use", port)
}

// Reload applies the hot-reloadable parts of a new config.
func (s *Server) Reload(cfg *config.Config) {
	s.webhooks.SetWebhooks(cfg.Webhooks)
	s.logger.Info("webhooks reloaded", "count", s.webhooks.Count())
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Port returns the actual port the server is bound to.
func (s *Server) Port() int {
	return s.cfg.Server.Port
}

// Start begins serving. Blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("kijani status service starting",
		"addr", s.ln.Addr().String(),
		"model", s.cfg.Analysis.Model,
		"webhooks", s.webhooks.Count(),
	)
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	err := s.srv.Shutdown(ctx)
	// Shutdown only closes listeners passed to Serve.
	_ = s.ln.Close()
	return err
}
