// Package mcputil holds small helpers for go-sdk tool handlers: reading
// raw JSON arguments and building text results.
package mcputil

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetString extracts a string argument.
// Returns defaultVal if the key is absent, empty or not a string.
func GetString(raw json.RawMessage, key, defaultVal string) string {
	m := parseArgs(raw)
	if m == nil {
		return defaultVal
	}
	s, ok := m[key].(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// NewToolResultText creates a successful CallToolResult with text content.
func NewToolResultText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// NewToolResultJSON marshals v as indented JSON text content.
func NewToolResultJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return NewToolResultText(string(b)), nil
}

// NewToolResultError creates an error CallToolResult with text content.
func NewToolResultError(msg string) *mcp.CallToolResult {
	var r mcp.CallToolResult
	r.SetError(fmt.Errorf("%s", msg))
	return &r
}

func parseArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
