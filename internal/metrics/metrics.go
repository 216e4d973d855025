// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dn_http_requests_total",
			Help: "HTTP requests by method, normalised path and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dn_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	extractorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dn_extractor_calls_total",
			Help: "Extractor model calls by outcome.",
		},
		[]string{"outcome"},
	)

	extractorCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dn_extractor_call_duration_seconds",
			Help:    "Extractor model call latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	extractorCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dn_extractor_cache_lookups_total",
			Help: "Extractor result cache lookups by result.",
		},
		[]string{"result"},
	)

	jobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dn_jobs_active",
			Help: "Batch jobs currently running.",
		},
	)

	jobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dn_jobs_finished_total",
			Help: "Batch jobs by terminal status.",
		},
		[]string{"status"},
	)

	pagesClassifiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dn_pages_classified_total",
			Help: "Pages that received a classification.",
		},
	)

	notesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dn_notes_created_total",
			Help: "Delivery notes created by origin.",
		},
		[]string{"origin"},
	)
)

// Extractor call outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient"
	OutcomePermanent = "permanent"
)

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveExtractorCall records one model call.
func ObserveExtractorCall(outcome string, d time.Duration) {
	extractorCallsTotal.WithLabelValues(outcome).Inc()
	extractorCallDuration.Observe(d.Seconds())
}

// ObserveCacheLookup records a cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		extractorCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	extractorCacheTotal.WithLabelValues("miss").Inc()
}

// JobStarted increments the active job gauge.
func JobStarted() {
	jobsActive.Inc()
}

// JobFinished decrements the active job gauge and counts the terminal status.
func JobFinished(status string) {
	jobsActive.Dec()
	jobsFinishedTotal.WithLabelValues(status).Inc()
}

// PageClassified counts one classified page.
func PageClassified() {
	pagesClassifiedTotal.Inc()
}

// NotesCreated counts n new notes of the given origin.
func NotesCreated(origin string, n int) {
	notesCreatedTotal.WithLabelValues(origin).Add(float64(n))
}

// Middleware records request counts and latency.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := NormalizePath(r.URL.Path)

			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

var uuidSegment = regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// NormalizePath replaces uuid path segments with {id} to bound label cardinality.
func NormalizePath(path string) string {
	return uuidSegment.ReplaceAllString(path, "/{id}")
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
