// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submissions processed by content type and outcome",
		},
		[]string{"type", "outcome"},
	)

	SubmissionRisk = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "submission_risk_score",
		Help:    "Risk score of completed submissions",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	AnalyzerFaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_faults_total",
			Help: "Analyzer failures by analyzer and fault kind",
		},
		[]string{"analyzer", "kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Alert notifications by delivery result",
		},
		[]string{"delivered"},
	)
)

func RecordRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordSubmission(contentType, outcome string, risk int) {
	SubmissionsTotal.WithLabelValues(contentType, outcome).Inc()
	if outcome == "ok" || outcome == "degraded" {
		SubmissionRisk.Observe(float64(risk))
	}
}

func RecordAnalyzerFault(analyzer, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	AnalyzerFaultsTotal.WithLabelValues(analyzer, kind).Inc()
}

func RecordNotification(delivered bool) {
	NotificationsTotal.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}
