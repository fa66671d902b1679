package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Kuroukai/Kuroukai-api/internal/keys"
	"github.com/Kuroukai/Kuroukai-api/internal/model"
	"github.com/Kuroukai/Kuroukai-api/internal/store"
)

func newTestMCP(t *testing.T) *MCPServer {
	t.Helper()

	st, err := store.New(store.Options{})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMCPServer(keys.NewService(st, keys.Config{}), logger)
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultText extracts the single text payload of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestCreateAndValidateTool(t *testing.T) {
	s := newTestMCP(t)
	ctx := context.Background()

	result, err := s.handleCreateKey(ctx, toolRequest("kuroukai_create_key", map[string]interface{}{
		"owner_id":  "owner-1",
		"ttl_hours": 24,
	}))
	if err != nil {
		t.Fatalf("handleCreateKey: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var key model.AccessKey
	if err := json.Unmarshal([]byte(resultText(t, result)), &key); err != nil {
		t.Fatalf("decode key: %v", err)
	}
	if key.ID == "" {
		t.Fatal("expected a key id")
	}

	result, err = s.handleValidateKey(ctx, toolRequest("kuroukai_validate_key", map[string]interface{}{
		"id": key.ID,
	}))
	if err != nil {
		t.Fatalf("handleValidateKey: %v", err)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("decode validity: %v", err)
	}
	if out.Status != "valid" {
		t.Errorf("validity: got %q, want %q", out.Status, "valid")
	}
}

func TestCreateToolInvalidTTL(t *testing.T) {
	s := newTestMCP(t)

	result, err := s.handleCreateKey(context.Background(), toolRequest("kuroukai_create_key", map[string]interface{}{
		"owner_id":  "owner-1",
		"ttl_hours": 0,
	}))
	if err != nil {
		t.Fatalf("handleCreateKey: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool error for ttl_hours=0")
	}
}

func TestToolMissingParameter(t *testing.T) {
	s := newTestMCP(t)

	result, err := s.handleValidateKey(context.Background(), toolRequest("kuroukai_validate_key", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleValidateKey: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool error when id is missing")
	}
}

func TestGetUnknownKeyTool(t *testing.T) {
	s := newTestMCP(t)

	result, err := s.handleGetKey(context.Background(), toolRequest("kuroukai_get_key", map[string]interface{}{
		"id": "no-such-key",
	}))
	if err != nil {
		t.Fatalf("handleGetKey: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool error for an unknown key")
	}
}

func TestBoolPtr(t *testing.T) {
	if p := boolPtr(true); p == nil || !*p {
		t.Error("boolPtr(true) should point at true")
	}
	if p := boolPtr(false); p == nil || *p {
		t.Error("boolPtr(false) should point at false")
	}
}

func TestAnnotations(t *testing.T) {
	ro := readOnlyAnnotation()
	if ro.ReadOnlyHint == nil || !*ro.ReadOnlyHint {
		t.Error("readOnlyAnnotation should hint read-only")
	}
	mut := mutatingAnnotation()
	if mut.ReadOnlyHint == nil || *mut.ReadOnlyHint {
		t.Error("mutatingAnnotation should hint mutating")
	}
}
