package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StoreObjects  = "s3"
	StoreMetadata = "rds"

	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoapp_commands_total",
			Help: "Total number of dispatched REPL commands",
		},
		[]string{"command", "status"},
	)

	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoapp_store_operations_total",
			Help: "Total number of calls into the object and metadata stores",
		},
		[]string{"store", "operation", "status"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoapp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoapp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		CommandsTotal,
		StoreOperationsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// RecordCommand counts one console command. command is the metrics name of
// the menu entry, status one of the Status constants.
func RecordCommand(command, status string) {
	CommandsTotal.WithLabelValues(command, status).Inc()
}

// RecordStore counts one store call, labelled by the outcome of err.
func RecordStore(store, operation string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	StoreOperationsTotal.WithLabelValues(store, operation, status).Inc()
}

// RecordRequest counts one HTTP request and observes its latency. route is
// the matched route pattern, not the raw path.
func RecordRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
