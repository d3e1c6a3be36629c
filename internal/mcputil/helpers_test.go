package mcputil

import (
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestGetString(t *testing.T) {
	raw := json.RawMessage(`{"device":"Office PC 1","score":42,"log_trigger":""}`)

	if got := GetString(raw, "device", ""); got != "Office PC 1" {
		t.Errorf("GetString(device) = %q, want Office PC 1", got)
	}
	if got := GetString(raw, "missing", "default"); got != "default" {
		t.Errorf("GetString(missing) = %q, want default", got)
	}
	if got := GetString(raw, "score", "default"); got != "default" {
		t.Errorf("GetString(score) = %q, want default (wrong type)", got)
	}
	if got := GetString(raw, "log_trigger", "default"); got != "default" {
		t.Errorf("GetString(log_trigger) = %q, want default (empty)", got)
	}
	if got := GetString(nil, "device", "default"); got != "default" {
		t.Errorf("GetString(nil) = %q, want default", got)
	}
	if got := GetString(json.RawMessage(`not json`), "device", "default"); got != "default" {
		t.Errorf("GetString(invalid) = %q, want default", got)
	}
}

func textOf(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(r.Content))
	}
	tc, ok := r.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] type = %T, want *mcp.TextContent", r.Content[0])
	}
	return tc.Text
}

func TestNewToolResultText(t *testing.T) {
	r := NewToolResultText("hello")
	if r.IsError {
		t.Error("expected IsError=false")
	}
	if got := textOf(t, r); got != "hello" {
		t.Errorf("text = %q, want hello", got)
	}
}

func TestNewToolResultJSON(t *testing.T) {
	r, err := NewToolResultJSON(map[string]int{"score": 45})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal([]byte(textOf(t, r)), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got["score"] != 45 {
		t.Errorf("score = %d, want 45", got["score"])
	}

	if _, err := NewToolResultJSON(make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
}

func TestNewToolResultError(t *testing.T) {
	r := NewToolResultError("something broke")
	if !r.IsError {
		t.Error("expected IsError=true")
	}
	if got := textOf(t, r); got != "something broke" {
		t.Errorf("text = %q, want 'something broke'", got)
	}
}
