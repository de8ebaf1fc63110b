package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server reads the timer and task state, lists history, and can toggle
grid cells, complete linked subtasks and describe sessions. It talks over stdio.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server on stdio (Ctrl+C to stop)")

		server := mcp.NewServer(app.state)
		if err := server.Start(setupSignalHandler()); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
