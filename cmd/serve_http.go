package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/dealdesk/internal/metrics"
	mcpserver "github.com/lukman83/dealdesk/mcp"
)

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Start MCP HTTP server",
	Long:  "Start the MCP server over streamable HTTP at /mcp, with /healthz and Prometheus /metrics.",
	RunE:  runServeHTTP,
}

func init() {
	serveHTTPCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(serveHTTPCmd)
}

func runServeHTTP(cmd *cobra.Command, _ []string) error {
	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	m := metrics.New()
	addr := fmt.Sprintf(":%s", port)
	return mcpserver.ServeHTTP(cmd.Context(), addr, cfg.APIKey, newService(cfg, m), m, logger)
}
