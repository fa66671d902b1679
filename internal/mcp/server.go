package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Kuroukai/Kuroukai-api/internal/keys"
)

// MCPServer wraps the mcp-go server with the Kuroukai key lifecycle tools,
// so agents can issue, inspect, and revoke access keys.
type MCPServer struct {
	keySvc *keys.Service
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all key tools. The
// returned server is ready to serve over stdio.
func NewMCPServer(keySvc *keys.Service, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		keySvc: keySvc,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"Kuroukai Key API",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance, used by tests.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, the integration path for
// clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
