package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kijani/sentinel/internal/safefile"
)

// maxConfigBytes caps the size of a config file.
const maxConfigBytes = 1 << 20

// Dashboard variants.
const (
	VariantLive = "live"
	VariantDemo = "demo"
)

// Config is the top-level kijani configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Webhooks  []Webhook       `yaml:"webhooks,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds status service settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"` // Address to bind (default: 127.0.0.1)
	LogLevel string `yaml:"log_level"`
}

// AnalysisConfig configures the generative-AI call.
type AnalysisConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // environment variable holding the credential
}

// DashboardConfig configures the terminal dashboard client.
type DashboardConfig struct {
	BackendURL string `yaml:"backend_url"`
	Variant    string `yaml:"variant"` // live, demo
	Device     string `yaml:"device"`
	LogTrigger string `yaml:"log_trigger"`
}

// Webhook defines an outgoing alert endpoint.
type Webhook struct {
	URL    string   `yaml:"url"`
	Events []string `yaml:"events"` // threat_alert, analysis_fallback
}

// TelemetryConfig toggles metrics and tracing.
type TelemetryConfig struct {
	Metrics bool `yaml:"metrics"`
	Tracing bool `yaml:"tracing"` // spans are written to stdout
}

// Load reads and parses a kijani config file.
func Load(path string) (*Config, error) {
	data, err := safefile.ReadFileMax(path, maxConfigBytes)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply zero-value defaults after unmarshal
	if cfg.Analysis.Model == "" {
		cfg.Analysis.Model = "gemini-2.5-flash"
	}
	if cfg.Analysis.APIKeyEnv == "" {
		cfg.Analysis.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Dashboard.Variant == "" {
		cfg.Dashboard.Variant = VariantLive
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "info",
		},
		Analysis: AnalysisConfig{
			Model:     "gemini-2.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Dashboard: DashboardConfig{
			BackendURL: "http://localhost:8080",
			Variant:    VariantLive,
			Device:     "Office PC 1",
			LogTrigger: "mass_encryption",
		},
		Telemetry: TelemetryConfig{
			Metrics: true,
		},
	}
}

// Save writes the config to a YAML file at the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.Server.LogLevel)
	}
	switch c.Dashboard.Variant {
	case VariantLive, VariantDemo:
	default:
		return fmt.Errorf("invalid dashboard variant %q (want live or demo)", c.Dashboard.Variant)
	}
	if c.Analysis.Model == "" {
		return fmt.Errorf("analysis.model is required")
	}
	for _, wh := range c.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("webhook with empty url")
		}
	}
	return nil
}

// APIKey returns the AI credential from the environment. An empty result
// is not an error: the service degrades to its fallback verdict.
func (c *Config) APIKey() string {
	return os.Getenv(c.Analysis.APIKeyEnv)
}

// ParseLevel maps a log_level string to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
