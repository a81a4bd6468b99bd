package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/vocabweave-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			level, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

// setup replaces slog's default logger, so these cases run sequentially.
func TestSetup(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	t.Run("json at configured level", func(t *testing.T) {
		buf := &TestLogBuffer{}
		l := setup(buf, config.ServerConfig{LogLevel: "warn", LogFormat: "json"})

		l.Info("hidden")
		l.Warn("shown", "k", "v")

		entries, err := buf.GetLogEntries()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "shown", entries[0]["msg"])
		assert.Equal(t, "v", entries[0]["k"])
		assert.Same(t, l, slog.Default())
	})

	t.Run("text format", func(t *testing.T) {
		buf := &TestLogBuffer{}
		l := setup(buf, config.ServerConfig{LogLevel: "info", LogFormat: "text"})

		l.Info("plain", "k", "v")
		assert.Contains(t, buf.String(), "msg=plain")
		assert.Contains(t, buf.String(), "k=v")
	})

	t.Run("invalid level warns and defaults to info", func(t *testing.T) {
		buf := &TestLogBuffer{}
		l := setup(buf, config.ServerConfig{LogLevel: "loud", LogFormat: "json"})

		AssertLogContains(t, buf, "invalid log level configured")
		AssertLogField(t, buf, "configured_level", "loud")

		buf.Reset()
		l.Debug("hidden")
		assert.Empty(t, buf.String())
	})
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("logger round trip", func(t *testing.T) {
		t.Parallel()
		ctx := WithLogger(context.Background(), custom)
		assert.Same(t, custom, FromContext(ctx))
		assert.Same(t, custom, FromContextOrDefault(ctx, fallback))
	})

	t.Run("fallback when absent", func(t *testing.T) {
		t.Parallel()
		assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
		assert.NotNil(t, FromContextOrDefault(context.Background(), nil))
	})

	t.Run("nil logger is ignored", func(t *testing.T) {
		t.Parallel()
		ctx := WithLogger(context.Background(), nil)
		assert.Same(t, fallback, FromContextOrDefault(ctx, fallback))
	})

	t.Run("request id", func(t *testing.T) {
		t.Parallel()
		_, ok := RequestIDFromContext(context.Background())
		assert.False(t, ok)

		id, ok := RequestIDFromContext(WithRequestID(context.Background(), "req-1"))
		assert.True(t, ok)
		assert.Equal(t, "req-1", id)
	})
}

func TestContextHandlerEnrichesRecords(t *testing.T) {
	t.Parallel()

	l, buf := GetTestLogger(t)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	ctx := trace.ContextWithSpanContext(WithRequestID(context.Background(), "req-42"), sc)
	l.With("component", "test").InfoContext(ctx, "graded")

	AssertLogField(t, buf, "request_id", "req-42")
	AssertLogField(t, buf, "trace_id", "4bf92f3577b34da6a3ce929d0e0e4736")
	AssertLogField(t, buf, "span_id", "00f067aa0ba902b7")
	AssertLogField(t, buf, "component", "test")
}

func TestContextHandlerWithoutContextValues(t *testing.T) {
	t.Parallel()

	l, buf := GetTestLogger(t)
	l.WithGroup("g").Info("plain", "k", 1)

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "request_id")
	assert.NotContains(t, entries[0], "trace_id")
}

func TestNewTestContext(t *testing.T) {
	t.Parallel()

	ctx, buf := NewTestContext(t)
	FromContext(ctx).InfoContext(ctx, "hello")

	AssertLogField(t, buf, "request_id", "test-"+t.Name())
}
