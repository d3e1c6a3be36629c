package config

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
version: "1"
server:
  port: 9090
  log_level: debug
analysis:
  model: gemini-2.5-pro
dashboard:
  variant: demo
  device: Reception Laptop
webhooks:
  - url: https://hooks.example.com/kijani
    events: [threat_alert]
`
	dir := t.TempDir()
	path := filepath.Join(dir, "kijani.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "gemini-2.5-pro", cfg.Analysis.Model)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Analysis.APIKeyEnv, "unset fields keep defaults")
	assert.Equal(t, VariantDemo, cfg.Dashboard.Variant)
	assert.Equal(t, "Reception Laptop", cfg.Dashboard.Device)
	assert.Equal(t, "mass_encryption", cfg.Dashboard.LogTrigger)
	require.Len(t, cfg.Webhooks, 1)
	assert.Equal(t, []string{"threat_alert"}, cfg.Webhooks[0].Events)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_RejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.yaml")
	require.NoError(t, os.WriteFile(target, []byte("server:\n  port: 9000\n"), 0o644))
	link := filepath.Join(dir, "kijani.yaml")
	require.NoError(t, os.Symlink(target, link))

	_, err := Load(link)
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kijani.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, VariantLive, cfg.Dashboard.Variant)
	assert.Equal(t, "gemini-2.5-flash", cfg.Analysis.Model)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }},
		{"bad variant", func(c *Config) { c.Dashboard.Variant = "kiosk" }},
		{"no model", func(c *Config) { c.Analysis.Model = "" }},
		{"empty webhook", func(c *Config) { c.Webhooks = []Webhook{{}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kijani.yaml")
	cfg := Defaults()
	cfg.Dashboard.Variant = VariantDemo
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestAPIKey(t *testing.T) {
	cfg := Defaults()
	cfg.Analysis.APIKeyEnv = "KIJANI_TEST_API_KEY"
	t.Setenv("KIJANI_TEST_API_KEY", "secret")
	assert.Equal(t, "secret", cfg.APIKey())

	t.Setenv("KIJANI_TEST_API_KEY", "")
	assert.Empty(t, cfg.APIKey())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kijani.yaml")
	require.NoError(t, Defaults().Save(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- Watch(ctx, path, logger, func(c *Config) { reloaded <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	cfg := Defaults()
	cfg.Server.LogLevel = "debug"
	require.NoError(t, cfg.Save(path))

	select {
	case got := <-reloaded:
		assert.Equal(t, "debug", got.Server.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	assert.NoError(t, <-done)
}
