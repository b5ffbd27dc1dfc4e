package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "altcredit",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of credit scoring endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "altcredit",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by credit scoring endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)
)

// Register adds the endpoint collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors)
	})
}

// Observe records the latency of one endpoint call and, when kind is set,
// an error of that kind.
func Observe(endpoint string, start time.Time, kind string) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if kind != "" {
		EndpointErrors.WithLabelValues(endpoint, kind).Inc()
	}
}
