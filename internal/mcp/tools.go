package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kijani/sentinel/internal/analyst"
	"github.com/kijani/sentinel/internal/config"
	"github.com/kijani/sentinel/internal/mcputil"
	"github.com/kijani/sentinel/internal/threat"
)

type handlers struct {
	cfg     *config.Config
	analyst *analyst.Analyst
	logger  *slog.Logger
}

func readOnly() *mcpsdk.ToolAnnotations {
	no := false
	return &mcpsdk.ToolAnnotations{
		ReadOnlyHint:    true,
		DestructiveHint: &no,
	}
}

// --- Tool definitions ---

func analyseThreatTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name: "analyse_threat",
		Description: "Analyse the latest security log for a device and return a security score " +
			"(0-100), a plain-language message and an action (FIX_IT_NOW or SAFE). " +
			"If the AI service is unavailable a local fallback verdict is returned with an error label.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"device":      map[string]any{"type": "string", "description": "Device name, e.g. Office PC 1"},
				"log_trigger": map[string]any{"type": "string", "description": "What triggered the check, e.g. mass_encryption"},
			},
		},
		Annotations: readOnly(),
	}
}

func sampleLogTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "sample_log",
		Description: "Return the security log record that analyse_threat sends to the AI service.",
		InputSchema: map[string]any{"type": "object"},
		Annotations: readOnly(),
	}
}

// --- Handlers ---

func (h *handlers) handleAnalyseThreat(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var raw []byte
	if req.Params != nil {
		raw = req.Params.Arguments
	}
	trigger := threat.Trigger{
		Device:     mcputil.GetString(raw, "device", h.cfg.Dashboard.Device),
		LogTrigger: mcputil.GetString(raw, "log_trigger", h.cfg.Dashboard.LogTrigger),
	}

	status, outcome := h.analyst.Analyse(ctx, trigger)
	h.logger.Info("mcp analyse_threat",
		"device", trigger.Device,
		"outcome", outcome,
		"score", status.Score,
		"action", status.Action,
	)

	res, err := mcputil.NewToolResultJSON(status)
	if err != nil {
		return mcputil.NewToolResultError(err.Error()), nil
	}
	return res, nil
}

func (h *handlers) handleSampleLog(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	res, err := mcputil.NewToolResultJSON(threat.SampleLog())
	if err != nil {
		return mcputil.NewToolResultError(err.Error()), nil
	}
	return res, nil
}
