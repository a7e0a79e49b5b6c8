package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
)

var durationBuckets = metrics.ExponentialBuckets(1e-3, 5, 6)

// unmatchedRoute labels requests that no route handled, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// Metrics counts requests and records their latency in set, labelled by
// method, chi route pattern and status. It also writes one access log line
// per request through the context logger.
func Metrics(set *metrics.Set) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)

			labels := fmt.Sprintf(`{method=%q,path=%q,status="%d"}`, r.Method, route, status)
			set.GetOrCreatePrometheusHistogramExt(`http_request_duration_seconds`+labels, durationBuckets).UpdateDuration(start)
			set.GetOrCreateCounter(`http_requests_total` + labels).Inc()

			logger.FromContext(r.Context()).Info("request completed",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
