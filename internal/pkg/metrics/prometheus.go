package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foliofy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foliofy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "foliofy",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Token lifecycle metrics
	tokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foliofy",
			Subsystem: "token",
			Name:      "issued_total",
			Help:      "Total number of tokens issued",
		},
		[]string{"kind"},
	)

	tokenVerifyFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foliofy",
			Subsystem: "token",
			Name:      "verify_failures_total",
			Help:      "Total number of failed token verifications",
		},
		[]string{"kind", "reason"},
	)

	tokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foliofy",
			Subsystem: "token",
			Name:      "refresh_total",
			Help:      "Total number of refresh exchanges",
		},
		[]string{"status"},
	)

	// Entitlement metrics
	entitlementTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foliofy",
			Subsystem: "entitlement",
			Name:      "transitions_total",
			Help:      "Total number of entitlement state transitions",
		},
		[]string{"event", "plan"},
	)

	lazyExpiriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foliofy",
			Subsystem: "entitlement",
			Name:      "lazy_expiries_total",
			Help:      "Total number of subscriptions expired at read time",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTokenIssued records an issued token by kind (access or refresh)
func RecordTokenIssued(kind string) {
	tokensIssuedTotal.WithLabelValues(kind).Inc()
}

// RecordTokenVerifyFailure records a failed verification by reason (expired or invalid)
func RecordTokenVerifyFailure(kind, reason string) {
	tokenVerifyFailuresTotal.WithLabelValues(kind, reason).Inc()
}

// RecordTokenRefresh records a refresh exchange outcome
func RecordTokenRefresh(status string) {
	tokenRefreshTotal.WithLabelValues(status).Inc()
}

// RecordEntitlementTransition records an entitlement state transition
func RecordEntitlementTransition(event, plan string) {
	entitlementTransitionsTotal.WithLabelValues(event, plan).Inc()
}

// RecordLazyExpiry records a subscription expired during a read
func RecordLazyExpiry() {
	lazyExpiriesTotal.Inc()
}
