package commands

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/kijani/sentinel/internal/config"
)

var cfgFile string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "kijani",
		Short:         "Security score service and dashboard for small businesses",
		Long:          "Kijani CyberProtect: an AI-backed security score for a small office, with a local fallback when the AI service is unreachable.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "kijani.yaml", "config file path")

	root.AddCommand(
		newServeCmd(),
		newDashboardCmd(),
		newCheckCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist. Any other load error is returned.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Defaults(), nil
	}
	return cfg, err
}
