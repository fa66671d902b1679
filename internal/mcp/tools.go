package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Kuroukai/Kuroukai-api/internal/keys"
	"github.com/Kuroukai/Kuroukai-api/internal/store"
)

// registerTools registers the key lifecycle tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("kuroukai_create_key",
			mcp.WithDescription(
				"Issue a new short-lived access key for an owner. The key expires "+
					"ttl_hours from now and the id is shown in the result.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("owner_id",
				mcp.Required(),
				mcp.Description("Identifier grouping the owner's keys"),
			),
			mcp.WithNumber("ttl_hours",
				mcp.Required(),
				mcp.Description("Key lifetime in hours (must be at least 1)"),
			),
		),
		s.handleCreateKey,
	)

	srv.AddTool(
		mcp.NewTool("kuroukai_validate_key",
			mcp.WithDescription(
				"Check whether a key is still valid. The result status is one of "+
					"valid, expired, revoked, or not_found.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The key id to check"),
			),
		),
		s.handleValidateKey,
	)

	srv.AddTool(
		mcp.NewTool("kuroukai_get_key",
			mcp.WithDescription("Fetch the stored record for a key by id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The key id to fetch"),
			),
		),
		s.handleGetKey,
	)

	srv.AddTool(
		mcp.NewTool("kuroukai_list_keys",
			mcp.WithDescription("List all keys for an owner, in creation order."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("owner_id",
				mcp.Required(),
				mcp.Description("Owner whose keys to list"),
			),
		),
		s.handleListKeys,
	)

	srv.AddTool(
		mcp.NewTool("kuroukai_revoke_key",
			mcp.WithDescription(
				"Revoke a key. Revocation is terminal: the key never becomes active again.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The key id to revoke"),
			),
		),
		s.handleRevokeKey,
	)

	srv.AddTool(
		mcp.NewTool("kuroukai_delete_key",
			mcp.WithDescription(
				"Permanently delete a key. The id is gone for good afterwards.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The key id to delete"),
			),
		),
		s.handleDeleteKey,
	)
}

func (s *MCPServer) handleCreateKey(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	ownerID, err := request.RequireString("owner_id")
	if err != nil {
		return toolError("missing required parameter %q", "owner_id")
	}
	ttlHours, err := request.RequireInt("ttl_hours")
	if err != nil {
		return toolError("missing required parameter %q", "ttl_hours")
	}

	key, err := s.keySvc.Create(ctx, ownerID, ttlHours)
	if err != nil {
		if errors.Is(err, keys.ErrInvalidParameter) {
			return toolError("%v", err)
		}
		return toolError("Failed to create key: %v", err)
	}

	return successJSON(key)
}

func (s *MCPServer) handleValidateKey(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := request.RequireString("id")
	if err != nil {
		return toolError("missing required parameter %q", "id")
	}

	validity, err := s.keySvc.Validate(ctx, id)
	if err != nil {
		return toolError("Validation failed: %v", err)
	}

	return successJSON(map[string]interface{}{
		"id":     id,
		"status": validity,
	})
}

func (s *MCPServer) handleGetKey(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := request.RequireString("id")
	if err != nil {
		return toolError("missing required parameter %q", "id")
	}

	key, err := s.keySvc.Info(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return toolError("Key %q not found", id)
	}
	if err != nil {
		return toolError("Failed to fetch key: %v", err)
	}

	return successJSON(key)
}

func (s *MCPServer) handleListKeys(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	ownerID, err := request.RequireString("owner_id")
	if err != nil {
		return toolError("missing required parameter %q", "owner_id")
	}

	list, err := s.keySvc.ListByOwner(ctx, ownerID)
	if err != nil {
		return toolError("Failed to list keys: %v", err)
	}

	return successJSON(list)
}

func (s *MCPServer) handleRevokeKey(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := request.RequireString("id")
	if err != nil {
		return toolError("missing required parameter %q", "id")
	}

	if err := s.keySvc.Revoke(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("Key %q not found", id)
		}
		return toolError("Failed to revoke key: %v", err)
	}

	return successJSON(map[string]string{"id": id, "status": "revoked"})
}

func (s *MCPServer) handleDeleteKey(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := request.RequireString("id")
	if err != nil {
		return toolError("missing required parameter %q", "id")
	}

	if err := s.keySvc.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("Key %q not found", id)
		}
		return toolError("Failed to delete key: %v", err)
	}

	return successJSON(map[string]string{"id": id, "status": "deleted"})
}

// successJSON marshals data and returns it as a text result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}
