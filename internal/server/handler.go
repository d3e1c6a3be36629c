package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kijani/sentinel/internal/analyst"
	"github.com/kijani/sentinel/internal/threat"
)

// maxBodyBytes bounds the trigger payload; it is never used for analysis.
const maxBodyBytes = 64 << 10

// AnalyseRequest is the body of POST /api/analyse-threat.
type AnalyseRequest = threat.Trigger

// Handler serves POST /api/analyse-threat. It always answers 200 with a
// threat status; analysis failures are folded into the fallback status.
type Handler struct {
	analyst  *analyst.Analyst
	webhooks *WebhookNotifier
	logger   *slog.Logger
}

// NewHandler creates an analysis handler.
func NewHandler(an *analyst.Analyst, webhooks *WebhookNotifier, logger *slog.Logger) *Handler {
	return &Handler{
		analyst:  an,
		webhooks: webhooks,
		logger:   logger,
	}
}

// ServeHTTP handles POST /api/analyse-threat.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req AnalyseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		// The trigger is informational only; a bad body still gets a verdict.
		h.logger.Debug("ignoring unreadable trigger body", "error", err, "request_id", RequestID(r.Context()))
	}

	status, outcome := h.analyst.Analyse(r.Context(), req)
	analysesTotal.WithLabelValues(string(outcome), string(status.Action)).Inc()

	h.notify(r, req, status, outcome)
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) notify(r *http.Request, req AnalyseRequest, status threat.Status, outcome analyst.Outcome) {
	if h.webhooks == nil {
		return
	}
	event := AlertEvent{
		RequestID:  RequestID(r.Context()),
		Device:     req.Device,
		LogTrigger: req.LogTrigger,
		Score:      status.Score,
		Action:     string(status.Action),
		Message:    status.Message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if outcome == analyst.OutcomeFallback {
		event.Event = EventAnalysisFallback
		h.webhooks.Notify(event)
	}
	if status.NeedsFix() {
		event.Event = EventThreatAlert
		h.webhooks.Notify(event)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Header already sent; the status code cannot change.
		slog.Default().Error("writeJSON: encode failed", "error", err)
	}
}
