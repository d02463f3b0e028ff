package httpapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts HTTP requests.
	// Labels: method, path (route template), status.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "path", "status"},
	)

	// requestDuration tracks request latency.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spr",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// documentWords sizes the documents moving through the API.
	// Labels: operation (compress, expand), side (in, out).
	documentWords = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spr",
			Subsystem: "http",
			Name:      "document_words",
			Help:      "Word counts of documents passing through the API",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		},
		[]string{"operation", "side"},
	)
)

func observeRequest(method, path string, status int, d time.Duration) {
	requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
