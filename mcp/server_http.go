package mcp

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/metrics"
	"github.com/lukman83/dealdesk/internal/tools"
)

const shutdownTimeout = 10 * time.Second

// NewHTTPHandler routes /mcp (bearer-protected when apiKey is set),
// /healthz and /metrics.
func NewHTTPHandler(svc *tools.Service, apiKey string, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	httpServer := server.NewStreamableHTTPServer(NewServer(svc),
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, _ *http.Request) context.Context {
			return withLogger(ctx, logger)
		}),
	)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", m.Handler())

	var mcpHandler http.Handler = httpServer
	if apiKey != "" {
		mcpHandler = bearerAuth(apiKey, httpServer)
	}
	mux.Handle("/mcp", mcpHandler)

	return mux
}

// ServeHTTP starts the MCP server over HTTP and shuts it down when ctx is done.
func ServeHTTP(ctx context.Context, addr, apiKey string, svc *tools.Service, m *metrics.Metrics, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewHTTPHandler(svc, apiKey, m, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dealdesk MCP HTTP server listening", slog.String("addr", addr), slog.Bool("auth", apiKey != ""))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("dealdesk MCP HTTP server stopped")
	return nil
}

func bearerAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, `{"error":"missing Authorization header"}`, http.StatusUnauthorized)
			return
		}
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp", error="invalid_token"`)
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return logx.WithLogger(ctx, logger)
}
