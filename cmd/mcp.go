package cmd

import (
	"github.com/huangsam/storefront/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the storefront MCP server",
	Long:  `Launch an MCP server that lets AI agents browse the catalog and manage the cart via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Debug logs go to stderr, so stdio stays clean for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, app.catalog, app.cart)
	},
}
