package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps the Prometheus collectors exposed on /metrics. A
// zero-value Metrics (no collectors registered) makes RecordDBOperation,
// UpdateDBStats and RecordHealthCheck no-ops.
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	dbOperationsTotal    *prometheus.CounterVec
	dbOperationDuration  *prometheus.HistogramVec
	dbKeysTotal          prometheus.Gauge
	dbDataSizeBytes      prometheus.Gauge
	authRequestsTotal    *prometheus.CounterVec
	healthChecksTotal    prometheus.Counter
}

// NewMetrics registers and returns the server's metric collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emberdb_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "emberdb_http_request_duration_seconds",
			Help: "HTTP request duration in seconds.",
		}, []string{"method", "path"}),
		httpRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "emberdb_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		dbOperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emberdb_db_operations_total",
			Help: "Total number of engine operations, by kind and outcome.",
		}, []string{"operation", "success"}),
		dbOperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "emberdb_db_operation_duration_seconds",
			Help: "Engine operation duration in seconds.",
		}, []string{"operation"}),
		dbKeysTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "emberdb_db_keys_total",
			Help: "Current number of live keys in the engine's index.",
		}),
		dbDataSizeBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "emberdb_db_data_size_bytes",
			Help: "Current size of the active log file in bytes.",
		}),
		authRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "emberdb_auth_requests_total",
			Help: "Total number of API-key authentication attempts.",
		}, []string{"success"}),
		healthChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "emberdb_health_checks_total",
			Help: "Total number of health check requests.",
		}),
	}
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := http.StatusText(status)
	if statusStr == "" {
		statusStr = "unknown"
	}
	m.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDBOperation records one engine operation and its outcome.
func (m *Metrics) RecordDBOperation(operation string, success bool, duration time.Duration) {
	if m.dbOperationsTotal == nil {
		return
	}
	m.dbOperationsTotal.WithLabelValues(operation, boolLabel(success)).Inc()
	m.dbOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBStats refreshes the point-in-time engine gauges.
func (m *Metrics) UpdateDBStats(keys int, dataSize int64) {
	if m.dbKeysTotal == nil {
		return
	}
	m.dbKeysTotal.Set(float64(keys))
	m.dbDataSizeBytes.Set(float64(dataSize))
}

// RecordAuthRequest records one API-key authentication attempt.
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(boolLabel(success)).Inc()
}

// RecordHealthCheck records one health check request.
func (m *Metrics) RecordHealthCheck() {
	if m.healthChecksTotal == nil {
		return
	}
	m.healthChecksTotal.Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// InstrumentHandler wraps h, recording request count and latency.
func (m *Metrics) InstrumentHandler(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()
		defer m.httpRequestsInFlight.Dec()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		h(rw, r)

		m.RecordHTTPRequest(r.Method, path, rw.status, time.Since(start))
	}
}

// InstrumentAuthMiddleware wraps an auth middleware, recording every
// authentication attempt's outcome before delegating to next.
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		wrapped := next(h)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			wrapped.ServeHTTP(rw, r)
			m.RecordAuthRequest(rw.status != http.StatusUnauthorized)
		})
	}
}
