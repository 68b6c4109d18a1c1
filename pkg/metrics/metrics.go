package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lattice", Name: "operations_total", Help: "Collection operations by outcome."},
		[]string{"collection", "op", "result"},
	)
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "lattice", Name: "operation_duration_seconds", Help: "Collection operation latency.", Buckets: prometheus.DefBuckets},
		[]string{"collection", "op"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(OperationDuration)
}

// Observe records one finished operation. result is "ok", "domain" or
// "infrastructure".
func Observe(collection, op, result string, start time.Time) {
	Operations.WithLabelValues(collection, op, result).Inc()
	OperationDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}
