package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kijani/sentinel/internal/config"
	"github.com/kijani/sentinel/sdk"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "kijani.yaml")
}

// newStatusService fakes the health and analysis endpoints and counts
// analysis calls.
func newStatusService(t *testing.T, healthCode int, analyses *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if healthCode != http.StatusOK {
			http.Error(w, "starting", healthCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","version":"0.1.0"}`))
	})
	mux.HandleFunc("POST /api/analyse-threat", func(w http.ResponseWriter, r *http.Request) {
		*analyses++
		var req sdk.TriggerContext
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "Office PC 1", req.Device)
		assert.Equal(t, "mass_encryption", req.LogTrigger)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score":45,"message":"Local Sentinel Agent detected a serious issue.","action":"FIX_IT_NOW","status_color":"red","error":"SIMULATED FALLBACK: AI API Failure"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck_PrintsJSONWhenNotATerminal(t *testing.T) {
	var analyses int
	srv := newStatusService(t, http.StatusOK, &analyses)

	out, err := execute(t, "check", "--config", missingConfig(t), "--backend", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, analyses)

	var status sdk.ThreatStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 45, status.Score)
	assert.Equal(t, "red", status.StatusColor)
	assert.NotEmpty(t, status.Error)
}

func TestCheck_UnhealthyServiceSkipsAnalysis(t *testing.T) {
	var analyses int
	srv := newStatusService(t, http.StatusServiceUnavailable, &analyses)

	_, err := execute(t, "check", "--config", missingConfig(t), "--backend", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")

	var se *sdk.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Zero(t, analyses)
}

func TestCheck_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := execute(t, "check", "--config", missingConfig(t), "--backend", url, "--timeout", "2s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), url)
}

func TestCheck_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kijani.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not, a, map]"), 0o600))

	_, err := execute(t, "check", "--config", path)
	require.Error(t, err)
}

func TestPrintStatus(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	printStatus(&buf, "Office PC 1", "0.1.0", &sdk.ThreatStatus{
		Score:       40,
		Message:     "Network Error: Cannot contact AI Cloud.",
		Action:      "FIX_IT_NOW",
		StatusColor: "red",
		Error:       "SIMULATED FALLBACK: AI API Failure",
	})

	out := buf.String()
	assert.Contains(t, out, "Office PC 1")
	assert.Contains(t, out, "Service: 0.1.0")
	assert.Contains(t, out, "40/100")
	assert.Contains(t, out, "FIX_IT_NOW")
	assert.Contains(t, out, "SIMULATED FALLBACK")
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfgFile = missingConfig(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().Dashboard.BackendURL, cfg.Dashboard.BackendURL)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "kijani "))
}

func TestPrintBanner(t *testing.T) {
	cfg := config.Defaults()
	var buf bytes.Buffer
	printBanner(&buf, cfg, false)
	assert.Contains(t, buf.String(), "/api/analyse-threat")
	assert.Contains(t, buf.String(), "GEMINI_API_KEY")

	buf.Reset()
	printBanner(&buf, cfg, true)
	assert.Contains(t, buf.String(), cfg.Analysis.Model)
}
