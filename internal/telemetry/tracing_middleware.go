package telemetry

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the HTTP tracer
	TracerName = "github.com/stacklok/vicius-manifest-server/http"

	// ArchitectureHeader carries the client OS architecture
	ArchitectureHeader = "X-Vicius-OS-Architecture"
)

// TracingMiddleware starts a server span per request, continuing any W3C trace
// context sent by the caller. A nil provider passes requests through.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	tracer := provider.Tracer(TracerName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// Renamed to the route pattern once chi has routed the request.
			ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			if arch := r.Header.Get(ArchitectureHeader); arch != "" {
				span.SetAttributes(semconv.HostArchKey.String(arch))
			}

			next.ServeHTTP(ww, r.WithContext(ctx))

			pattern := routePattern(r)
			span.SetName(fmt.Sprintf("%s %s", r.Method, pattern))
			span.SetAttributes(
				semconv.HTTPRouteKey.String(pattern),
				semconv.HTTPResponseStatusCode(ww.Status()),
			)

			if ww.Status() >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(ww.Status()))
			}
		})
	}
}
