// Package metrics registers the Prometheus collectors for the intake service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeSkipped  = "skipped"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

var (
	stageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grievance_stage_outcomes_total",
			Help: "Outcome of each ingestion stage (transcription, translation, classification, persistence)",
		},
		[]string{"stage", "outcome"},
	)

	submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grievance_submissions_total",
			Help: "Submissions by final result",
		},
		[]string{"result"},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grievance_transitions_total",
			Help: "Status transitions applied, by target status",
		},
		[]string{"status"},
	)

	translationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grievance_translation_cache_total",
			Help: "Translation cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grievance_http_requests_total",
			Help: "HTTP requests handled by the intake API",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grievance_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func RecordStage(stage, outcome string) {
	stageOutcomes.WithLabelValues(stage, outcome).Inc()
}

func RecordSubmission(result string) {
	submissions.WithLabelValues(result).Inc()
}

func RecordTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

func RecordCacheLookup(hit bool) {
	if hit {
		translationCache.WithLabelValues("hit").Inc()
		return
	}
	translationCache.WithLabelValues("miss").Inc()
}

// Middleware records request count and latency. The path label is the
// matched route template so ids never reach label values.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
