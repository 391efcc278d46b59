// Package metrics provides Prometheus metrics for the classifier service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muliwe/go-triangle-classifier/internal/classifier"
)

var (
	// ClassificationsTotal counts successful classifications by kind.
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triangle_classifications_total",
		Help: "Total number of classified triangles, by kind.",
	}, []string{"kind"})

	// RejectionsTotal counts rejected side triples by error kind.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triangle_rejections_total",
		Help: "Total number of rejected side triples, by reason.",
	}, []string{"reason"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "triangle_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// RecordResult increments the counter matching the result.
func RecordResult(r classifier.Result) {
	if k := r.Kind(); k.Valid() {
		ClassificationsTotal.WithLabelValues(k.String()).Inc()
		return
	}
	RejectionsTotal.WithLabelValues(r.ErrorKind).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request duration by route pattern.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// route pattern keeps label cardinality bounded
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestDuration.WithLabelValues(r.Method, path, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		})
	}
}
