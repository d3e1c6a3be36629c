package analyst

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kijani/sentinel/internal/threat"
)

func TestNewGemini_NoKey(t *testing.T) {
	g, err := NewGemini(context.Background(), GeminiOptions{})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestGemini_Generate(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"score": 12, "message": "Ransomware", "action": "FIX_IT_NOW"}`}},
				},
			}},
		})
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "analyse this")
	require.NoError(t, err)
	assert.Contains(t, text, `"action": "FIX_IT_NOW"`)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-2.5-flash:generateContent"), "path = %s", gotPath)
	assert.Contains(t, gotBody, "analyse this")
	assert.Contains(t, gotBody, "application/json")

	status, err := ParseVerdict(text)
	require.NoError(t, err)
	assert.Equal(t, 12, status.Score)
}

func TestGemini_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"code": 401, "message": "API key not valid", "status": "UNAUTHENTICATED"}}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	assert.Error(t, err)

	status, outcome := New(g, testLogger()).Analyse(context.Background(), threat.Trigger{})
	assert.Equal(t, OutcomeFallback, outcome)
	assert.Equal(t, 45, status.Score)
}
