package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/lukman83/dealdesk/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting dealdesk MCP server on stdio...")

	if err := mcpserver.Serve(cmd.Context(), newService(cfg, nil), logger); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
