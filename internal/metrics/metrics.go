// Package metrics provides Prometheus metrics for the CloudFlow server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudflow_mutations_total",
			Help: "Total number of tree mutations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	snapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudflow_snapshot_entities",
			Help: "Number of entities in the current snapshot",
		},
	)

	persistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudflow_snapshot_persist_duration_seconds",
			Help:    "Time to persist a snapshot through the store",
			Buckets: prometheus.DefBuckets,
		},
	)

	persistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudflow_snapshot_persist_failures_total",
			Help: "Snapshot persist attempts that failed",
		},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudflow_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudflow_sse_connections_active",
			Help: "Currently connected SSE subscribers",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudflow_sse_events_total",
			Help: "Total SSE events published by type",
		},
		[]string{"type"},
	)

	assistRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudflow_assist_requests_total",
			Help: "AI sidecar requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudflow_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"success"},
	)

	blobBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudflow_blob_bytes_total",
			Help: "Bytes moved through the blob storage backend",
		},
		[]string{"direction"},
	)
)

// RecordMutation records a mutation attempt.
func RecordMutation(op, outcome string) {
	mutationsTotal.WithLabelValues(op, outcome).Inc()
}

// SetSnapshotSize updates the snapshot size gauge.
func SetSnapshotSize(n int) {
	snapshotSize.Set(float64(n))
}

// RecordPersist records a persist attempt.
func RecordPersist(d time.Duration, err error) {
	persistDuration.Observe(d.Seconds())
	if err != nil {
		persistFailures.Inc()
	}
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, d time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(d.Seconds())
}

// SetSSEConnectionsActive updates the SSE subscriber gauge.
func SetSSEConnectionsActive(n int64) {
	sseConnectionsActive.Set(float64(n))
}

// RecordSSEEvent records a published SSE event.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordAssistRequest records an AI sidecar call.
func RecordAssistRequest(endpoint, outcome string) {
	assistRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordAuthAttempt records a login or token validation.
func RecordAuthAttempt(success bool) {
	authAttemptsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// RecordBlobBytes records bytes uploaded to or downloaded from storage.
func RecordBlobBytes(direction string, n int64) {
	blobBytesTotal.WithLabelValues(direction).Add(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request counts and durations.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
