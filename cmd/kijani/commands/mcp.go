package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kijani/sentinel/internal/analyst"
	mcpserver "github.com/kijani/sentinel/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start kijani as an MCP server (stdio)",
		Long: `Exposes kijani as an MCP tool server. Add to your MCP client config:

  {
    "mcpServers": {
      "kijani": {
        "command": "kijani",
        "args": ["mcp", "--config", "./kijani.yaml"]
      }
    }
  }

Tools: analyse_threat, sample_log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Stdout carries the protocol.
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

			gen, err := newGenerator(cmd.Context(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				return err
			}

			s := mcpserver.NewServer(cfg, analyst.New(gen, logger), logger)
			return mcpserver.Serve(cmd.Context(), s)
		},
	}
}
