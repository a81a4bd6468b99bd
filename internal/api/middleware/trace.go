package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/vocabweave-api/internal/api/shared"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"go.opentelemetry.io/otel/trace"
)

// TraceMiddleware adds a trace ID and a request-scoped logger to the
// context. When a span is active its OpenTelemetry trace ID is reused, so an
// error response can be found in the exported traces; the logger's
// ContextHandler already records that ID. Otherwise a random ID is generated
// and attached to the logger.
//
// It must run after chi's RequestID and the tracing middleware.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := base

			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				ctx = shared.WithTraceID(ctx, sc.TraceID().String())
			} else {
				ctx = shared.SetTraceID(ctx)
				log = base.With(slog.String("trace_id", shared.GetTraceID(ctx)))
			}

			if reqID := chimw.GetReqID(ctx); reqID != "" {
				ctx = logger.WithRequestID(ctx, reqID)
			}
			ctx = logger.WithLogger(ctx, log)

			log.DebugContext(ctx, "request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
