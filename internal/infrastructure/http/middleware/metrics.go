package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provisioner_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	projectOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioner_project_operations_total",
			Help: "Project lifecycle operations by outcome and failed step",
		},
		[]string{"operation", "outcome", "step"},
	)
)

// PrometheusMiddleware records request duration, labelled by route pattern.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(ww.Status())
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// OperationOutcome names the result of a lifecycle operation for metrics.
func OperationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domerrors.ErrUnauthorized):
		return "denied"
	case errors.Is(err, domerrors.ErrEmptyPatch), errors.Is(err, domerrors.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domerrors.ErrProjectNotFound):
		return "not_found"
	default:
		return "failed"
	}
}

// RecordProjectOperation counts one lifecycle operation.
func RecordProjectOperation(operation string, err error) {
	projectOperations.WithLabelValues(operation, OperationOutcome(err), domerrors.StepOf(err)).Inc()
}
