package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kijani/sentinel/internal/analyst"
	"github.com/kijani/sentinel/internal/config"
	"github.com/kijani/sentinel/internal/server"
	"github.com/kijani/sentinel/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var port int
	var bind string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kijani status service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			var level slog.LevelVar
			level.Set(config.ParseLevel(cfg.Server.LogLevel))
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))

			// Graceful shutdown on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Setup(cfg.Telemetry.Tracing, os.Stdout)
			if err != nil {
				return fmt.Errorf("starting tracing: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracing(flushCtx)
			}()

			gen, err := newGenerator(ctx, cfg, logger)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(cfg, analyst.New(gen, logger), logger)
			if err != nil {
				return err
			}

			printBanner(cmd.OutOrStdout(), cfg, gen != nil)

			if watch {
				go func() {
					err := config.Watch(ctx, cfgFile, logger, func(next *config.Config) {
						level.Set(config.ParseLevel(next.Server.LogLevel))
						srv.Reload(next)
					})
					if err != nil {
						logger.Warn("config watch disabled", "error", err)
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "address to bind (default: 127.0.0.1)")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload log level and webhooks when the config file changes")
	return cmd
}

// newGenerator builds the Gemini generator. A missing credential is not an
// error: the service still starts and every analysis falls back.
func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (analyst.Generator, error) {
	g, err := analyst.NewGemini(ctx, analyst.GeminiOptions{
		APIKey: cfg.APIKey(),
		Model:  cfg.Analysis.Model,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   60 * time.Second,
		},
	})
	if errors.Is(err, analyst.ErrNoCredential) {
		logger.Warn("no AI credential found, all analyses will use the local fallback",
			"env", cfg.Analysis.APIKeyEnv)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating AI client: %w", err)
	}
	return g, nil
}

func printBanner(w io.Writer, cfg *config.Config, aiEnabled bool) {
	bindAddr := cfg.Server.Bind
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}

	ai := "fallback only (set " + cfg.Analysis.APIKeyEnv + ")"
	if aiEnabled {
		ai = cfg.Analysis.Model
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "  kijani status service")
	_, _ = fmt.Fprintln(w, "  ────────────────────────────────────────")
	_, _ = fmt.Fprintf(w, "  API:      http://%s:%d/api/analyse-threat\n", bindAddr, cfg.Server.Port)
	_, _ = fmt.Fprintf(w, "  Health:   http://%s:%d/health\n", bindAddr, cfg.Server.Port)
	if cfg.Telemetry.Metrics {
		_, _ = fmt.Fprintf(w, "  Metrics:  http://%s:%d/metrics\n", bindAddr, cfg.Server.Port)
	}
	_, _ = fmt.Fprintln(w, "  ────────────────────────────────────────")
	_, _ = fmt.Fprintf(w, "  AI:       %s\n", ai)
	_, _ = fmt.Fprintf(w, "  Webhooks: %d\n", len(cfg.Webhooks))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "  Press Ctrl+C to stop.")
	_, _ = fmt.Fprintln(w)
}
