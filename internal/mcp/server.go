// Package mcp exposes threat analysis as an MCP tool server.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kijani/sentinel/internal/analyst"
	"github.com/kijani/sentinel/internal/config"
)

// Version is advertised in the MCP implementation info.
const Version = "0.1.0"

// NewServer creates an MCP server exposing kijani tools.
func NewServer(cfg *config.Config, an *analyst.Analyst, logger *slog.Logger) *mcpsdk.Server {
	s := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "kijani",
		Version: Version,
	}, &mcpsdk.ServerOptions{
		Instructions: "Kijani scores the security of a small-business device. " +
			"Use analyse_threat to get a 0-100 security score, a plain-language message " +
			"and a recommended action for the latest security log.",
	})

	h := &handlers{
		cfg:     cfg,
		analyst: an,
		logger:  logger,
	}

	s.AddTool(analyseThreatTool(), h.handleAnalyseThreat)
	s.AddTool(sampleLogTool(), h.handleSampleLog)

	return s
}

// Serve runs the MCP server on stdio until the client disconnects or ctx ends.
func Serve(ctx context.Context, s *mcpsdk.Server) error {
	return s.Run(ctx, &mcpsdk.StdioTransport{})
}
