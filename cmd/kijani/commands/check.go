package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kijani/sentinel/sdk"
)

func newCheckCmd() *cobra.Command {
	var backend string
	var asJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one threat analysis against the status service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if backend != "" {
				cfg.Dashboard.BackendURL = backend
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := sdk.NewClient(cfg.Dashboard.BackendURL)
			health, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("status service at %s is not reachable: %w", cfg.Dashboard.BackendURL, err)
			}

			status, err := client.AnalyseThreat(ctx, sdk.TriggerContext{
				Device:     cfg.Dashboard.Device,
				LogTrigger: cfg.Dashboard.LogTrigger,
			})
			if err != nil {
				return fmt.Errorf("checking %s: %w", cfg.Dashboard.BackendURL, err)
			}

			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			printStatus(out, cfg.Dashboard.Device, health.Version, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "status service base URL (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON status")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// statusColor picks the terminal color for a status color name.
func statusColor(name string) *color.Color {
	switch name {
	case "red":
		return color.New(color.FgRed, color.Bold)
	case "yellow":
		return color.New(color.FgYellow, color.Bold)
	case "green":
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.Faint)
	}
}

func printStatus(w io.Writer, device, serviceVersion string, s *sdk.ThreatStatus) {
	c := statusColor(s.StatusColor)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  Kijani security check  %s\n", device)
	_, _ = fmt.Fprintln(w, "  ────────────────────────────────────────")
	_, _ = fmt.Fprintf(w, "  Service: %s\n", serviceVersion)
	_, _ = fmt.Fprintf(w, "  Score:   %s\n", c.Sprintf("%d/100", s.Score))
	_, _ = fmt.Fprintf(w, "  Action:  %s\n", c.Sprint(s.Action))
	_, _ = fmt.Fprintf(w, "  %s\n", s.Message)
	if s.Error != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", color.YellowString(s.Error))
	}
	_, _ = fmt.Fprintln(w)
}
