package logx_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/logx"
)

func TestParseLevel(t *testing.T) {
	rq := require.New(t)

	rq.Equal(slog.LevelDebug, logx.ParseLevel("DEBUG"))
	rq.Equal(slog.LevelWarn, logx.ParseLevel("warning"))
	rq.Equal(slog.LevelError, logx.ParseLevel(" error "))
	rq.Equal(slog.LevelInfo, logx.ParseLevel("verbose"))
}

func TestFromContext(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	rq.Equal(slog.Default(), logx.FromContext(ctx))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx = logx.WithLogger(ctx, logger)
	rq.Equal(logger, logx.FromContext(ctx))
}

func TestWithRequestID(t *testing.T) {
	rq := require.New(t)

	var buf bytes.Buffer
	ctx := logx.WithLogger(context.Background(), logx.New(&buf, "info"))
	ctx, id := logx.WithRequestID(ctx)

	const xidLen = 20
	rq.Len(id, xidLen)

	logx.FromContext(ctx).Info("hello")
	rq.Contains(buf.String(), "hello")
	rq.Contains(buf.String(), logx.FieldRequestID+"="+id)
	rq.NotContains(buf.String(), "\x1b[", "no colour codes when not writing to a terminal")
}
