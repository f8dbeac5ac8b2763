package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stravacontest/contest/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the contest MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents read leaderboards,
score athletes and trigger recomputation via standard tools.

Logs go to stderr or --log-file so stdout stays reserved for the protocol.`,
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(cmd.Context(), cfg, activeStore())
	},
}
