package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/smbwire/internal/logger"
	"github.com/marmos91/smbwire/internal/telemetry"
	"github.com/marmos91/smbwire/pkg/api/handlers"
	"github.com/marmos91/smbwire/pkg/dissect"
	"github.com/marmos91/smbwire/pkg/metrics"
)

// NewRouter builds the chi router with its middleware and routes. m may be
// nil; /metrics is mounted only when the metrics registry is enabled.
func NewRouter(config APIConfig, d *dissect.Dissector, m metrics.HTTPMetrics) http.Handler {
	config.ApplyDefaults()

	r := chi.NewRouter()

	// Order matters: the request ID must exist before it is logged.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument(m))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.RequestTimeout))

	health := handlers.NewHealthHandler(d)
	dissectHandler := handlers.NewDissectHandler(d, int64(config.MaxBodySize))
	schemas := handlers.NewSchemaHandler()

	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/dissect", dissectHandler.Dissect)
		r.Get("/layers", dissectHandler.Layers)
		r.Get("/schemas", schemas.List)
		r.Get("/schemas/{name}", schemas.Get)
	})

	if metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// instrument logs, traces and counts every request. The route label is the
// chi pattern so path parameters do not explode metric cardinality.
func instrument(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			ctx, span := telemetry.StartHTTPSpan(r.Context(), r.Method, r.URL.Path,
				telemetry.RequestID(requestID),
				telemetry.ClientAddr(r.RemoteAddr),
			)
			defer span.End()

			lc := logger.NewLogContext("api").WithRequestID(requestID)
			ctx = logger.WithContext(ctx, lc)

			logger.DebugCtx(ctx, "API request started",
				logger.Operation(r.Method),
				logger.Path(r.URL.Path),
				logger.Remote(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			span.SetAttributes(telemetry.HTTPRoute(route), telemetry.HTTPStatus(status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			metrics.ObserveRequest(m, route, r.Method, status, time.Since(start))

			logger.InfoCtx(ctx, "API request completed",
				logger.Operation(r.Method),
				logger.Path(route),
				logger.Status(status),
				logger.Bytes(ww.BytesWritten()),
				logger.DurationMs(lc.DurationMs()),
			)
		})
	}
}
