// Package metrics exposes Prometheus collectors for the route client.
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
	jobsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeclient_jobs_submitted_total",
		Help: "Total number of optimization jobs accepted by the service.",
	})

	jobsFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeclient_jobs_finished_total",
		Help: "Total number of jobs that reached a terminal state, labeled by status.",
	}, []string{"status"})

	submitErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeclient_submit_errors_total",
		Help: "Total number of rejected submissions, labeled by kind (validation, submission).",
	}, []string{"kind"})

	statusChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeclient_status_checks_total",
		Help: "Total number of task status checks, labeled by outcome.",
	}, []string{"outcome"})

	jobDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeclient_job_duration_seconds",
		Help:    "Wall-clock time from submission to terminal status.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeclient_http_requests_total",
		Help: "Total number of HTTP requests served, labeled by method and code.",
	}, []string{"method", "code"})

	httpRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeclient_http_request_duration_seconds",
		Help:    "Histogram of HTTP request latencies, labeled by method and route.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "route"})
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveSubmitted() {
	jobsSubmittedTotal.Inc()
}

func ObserveSubmitError(kind string) {
	submitErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveFinished records a terminal job status and how long the job ran.
func ObserveFinished(status string, elapsed time.Duration) {
	jobsFinishedTotal.WithLabelValues(status).Inc()
	jobDurationSeconds.Observe(elapsed.Seconds())
}

// ObserveStatusCheck counts one status check; outcome is the raw task state or "error".
func ObserveStatusCheck(outcome string) {
	statusChecksTotal.WithLabelValues(outcome).Inc()
}

func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
