// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/gemaraproj/statement-screener/internal/tool"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the screening tools over MCP on stdio",
		Long: `Serve runs a Model Context Protocol server on stdin/stdout exposing the
screen_text and read_evidence tools. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, err := a.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			server := NewMCPServer()
			log.Info("Serving MCP tools on stdio", "version", Version)
			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}

// NewMCPServer creates a server with every screening tool registered.
func NewMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "statement-screener",
		Version: Version,
	}, nil)
	mcp.AddTool(server, tool.MetadataScreenText, tool.ScreenText)
	mcp.AddTool(server, tool.MetadataReadEvidence, tool.ReadEvidence)
	return server
}
