package commands

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kijani/sentinel/internal/config"
	"github.com/kijani/sentinel/internal/dashboard"
	"github.com/kijani/sentinel/internal/safefile"
	"github.com/kijani/sentinel/sdk"
)

func newDashboardCmd() *cobra.Command {
	var variant, backend, logFile string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the terminal security dashboard",
		Long: `Shows the current security score and lets you run a check, simulate an
attack (demo variant) or fix a detected threat.

Keys: c check, a simulate attack, f fix it now, q quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if variant != "" {
				cfg.Dashboard.Variant = variant
			}
			if backend != "" {
				cfg.Dashboard.BackendURL = backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Stderr belongs to the UI; log to a file only when asked.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := safefile.OpenAppend(logFile)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer func() { _ = f.Close() }()
				logOut = f
			}
			logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
				Level: config.ParseLevel(cfg.Server.LogLevel),
			}))

			fetcher := dashboard.SDKFetcher{
				Client: sdk.NewClient(cfg.Dashboard.BackendURL),
				Trigger: sdk.TriggerContext{
					Device:     cfg.Dashboard.Device,
					LogTrigger: cfg.Dashboard.LogTrigger,
				},
			}
			model := dashboard.NewModel(dashboard.New(cfg.Dashboard.Variant, cfg.Dashboard.Device), fetcher, logger)

			logger.Info("dashboard starting",
				"variant", cfg.Dashboard.Variant,
				"backend", cfg.Dashboard.BackendURL,
			)
			if _, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run(); err != nil {
				return fmt.Errorf("running dashboard: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "dashboard variant: live or demo (default from config)")
	cmd.Flags().StringVar(&backend, "backend", "", "status service base URL (default from config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	return cmd
}
