package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	kmcp "github.com/Kuroukai/Kuroukai-api/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the key lifecycle
as tools for AI agents. The server communicates over stdin/stdout using
JSON-RPC, suitable for direct integration with MCP clients that launch the
server as a subprocess.`,
		Example: `  kuroukai mcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}

	return cmd
}

func runMCP() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	srv := kmcp.NewMCPServer(newKeyService(st), logger)
	return srv.ServeStdio()
}
