package logger

import (
	"context"
	"log/slog"

	"github.com/phrazzld/vocabweave-api/internal/ciutil"
	"go.opentelemetry.io/otel/trace"
)

// ContextHandler is a slog.Handler that enriches records with values found
// in the logging context: the request ID, the active OpenTelemetry trace and
// span IDs, and CI metadata when running under CI.
type ContextHandler struct {
	// The underlying handler (JSON or text)
	handler slog.Handler
	// CI metadata to add to every log record
	metadata map[string]string
}

var _ slog.Handler = (*ContextHandler)(nil)

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{
		handler:  h,
		metadata: ciutil.Metadata(),
	}
}

// Enabled implements the slog.Handler interface.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs), metadata: h.metadata}
}

// WithGroup implements the slog.Handler interface.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name), metadata: h.metadata}
}

// Handle implements the slog.Handler interface.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()

	if id, ok := RequestIDFromContext(ctx); ok {
		enhanced.AddAttrs(slog.String("request_id", id))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		enhanced.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	for key, value := range h.metadata {
		enhanced.AddAttrs(slog.String(key, value))
	}

	return h.handler.Handle(ctx, enhanced)
}
