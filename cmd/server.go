package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentic-research/quickdir/internal/lsp"
	"github.com/agentic-research/quickdir/internal/mcpserver"
)

func init() {
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(mcpCmd)
}

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the layout language server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return lsp.NewServer(version).RunStdio()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcpserver.ServeStdio(mcpserver.New(version))
	},
}
