// Package sdk provides a Go client for the kijani status service.
//
// Basic usage:
//
//	c := sdk.NewClient("http://localhost:8080")
//	status, err := c.AnalyseThreat(ctx, sdk.TriggerContext{Device: "Office PC 1"})
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TriggerContext is sent to POST /api/analyse-threat.
type TriggerContext struct {
	Device     string `json:"device"`
	LogTrigger string `json:"log_trigger"`
}

// ThreatStatus is returned by the status service.
type ThreatStatus struct {
	Score       int    `json:"score"`
	Message     string `json:"message"`
	Action      string `json:"action"`       // FIX_IT_NOW, SAFE
	StatusColor string `json:"status_color"` // red, green
	Error       string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatusError is returned when the service answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kijani: unexpected HTTP %d: %s", e.StatusCode, e.Body)
}

// Client talks to a kijani status service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the status service.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// AnalyseThreat requests a threat status for the given trigger.
func (c *Client) AnalyseThreat(ctx context.Context, trigger TriggerContext) (*ThreatStatus, error) {
	body, err := json.Marshal(trigger)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var status ThreatStatus
	if err := c.do(ctx, http.MethodPost, "/api/analyse-threat", body, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health reports whether the service is up and which version it runs.
// A non-200 answer is returned as *StatusError.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return &resp, nil
}

// do sends one request and decodes a 200 JSON answer into out.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return &StatusError{StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
