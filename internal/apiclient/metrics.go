package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentix",
			Subsystem: "apiclient",
			Name:      "requests_total",
			Help:      "Total number of backend requests by method and status class",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rentix",
			Subsystem: "apiclient",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	sessionInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rentix",
			Subsystem: "apiclient",
			Name:      "session_invalidations_total",
			Help:      "Number of 401 responses that invalidated the session",
		},
	)
)

func observe(method, status string, d time.Duration) {
	requestsTotal.WithLabelValues(method, status).Inc()
	requestDuration.WithLabelValues(method).Observe(d.Seconds())
}
