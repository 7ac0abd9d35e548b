package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "endpoint"})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_import_rows_total",
		Help: "Statement rows seen by imports, by outcome",
	}, []string{"outcome"})

	transferOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_transfer_operations_total",
		Help: "Transfer operations, by operation and result",
	}, []string{"operation", "result"})
)
