package cmd

import (
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the stockpulse MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents read stock history,
the dashboard, the latest session and the stock changelog via standard tools.

Logs go to stderr; stdout carries the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := mcp.StartMCPServer(rootCtx, cfg, store); err != nil {
			contract.LogWarn("MCP server stopped", err)
			return err
		}
		return nil
	},
}
