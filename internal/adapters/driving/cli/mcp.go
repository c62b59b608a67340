package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the knowledge base over MCP",
	Long:  `Commands for serving the knowledge base over the Model Context Protocol.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio or HTTP",
	Long: `Start an MCP server that gives AI assistants access to the knowledge base
through a search tool and browsable resources.

Without flags the server speaks JSON-RPC over stdio, which is what Claude
Desktop and most MCP hosts expect. Pass --port to serve streamable HTTP
instead, useful for the MCP Inspector or access from another machine.

Examples:
  # Stdio mode (for Claude Desktop)
  recall mcp serve

  # HTTP mode on port 8080
  recall mcp serve --port 8080

To register with Claude Desktop, add an entry to the "mcpServers"
map in claude_desktop_config.json:
  "recall": {"command": "/path/to/recall", "args": ["mcp", "serve"]}`,
	RunE: serveMCP,
}

func init() {
	serveCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func serveMCP(cmd *cobra.Command, _ []string) error {
	if searchSvc == nil {
		return errServiceMissing("search service")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchSvc,
		Source:   sourceSvc,
		Document: docSvc,
		Stats:    statsSvc,
	}, version)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
