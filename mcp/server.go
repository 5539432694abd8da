package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/dealdesk/internal/tools"
)

const (
	serverName    = "dealdesk"
	serverVersion = "1.0.0"
)

// NewServer returns an MCP server exposing every tool of svc.
func NewServer(svc *tools.Service) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	registerTools(s, svc)

	return s
}

// Serve runs the MCP stdio server until ctx is done or stdin closes.
func Serve(ctx context.Context, svc *tools.Service, logger *slog.Logger) error {
	stdio := server.NewStdioServer(NewServer(svc))
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	stdio.SetContextFunc(func(ctx context.Context) context.Context {
		return withLogger(ctx, logger)
	})
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
