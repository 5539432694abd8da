package logx

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rs/xid"

	"github.com/lukman83/dealdesk/internal/ui"
)

const (
	FieldBuyer      = "buyer"
	FieldCollection = "collection"
	FieldDealID     = "deal-id"
	FieldDurationMs = "duration-ms"
	FieldError      = "error"
	FieldRequestID  = "request-id"
	FieldStatus     = "status"
	FieldTool       = "tool"
)

var Error = tint.Err //nolint:gochecknoglobals

// New builds a tint logger writing to w. Colours are only used when w is a
// terminal.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
		NoColor:    !ui.IsTerminal(w),
	}))
}

// ParseLevel maps debug, info, warn and error to slog levels; anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKeyLogger struct{}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKeyLogger{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID tags the context logger with a fresh request id.
func WithRequestID(ctx context.Context) (context.Context, string) {
	id := xid.New().String()
	return WithLogger(ctx, FromContext(ctx).With(slog.String(FieldRequestID, id))), id
}
