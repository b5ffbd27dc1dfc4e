package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions   *prometheus.CounterVec
	scores      *prometheus.HistogramVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	batchSize   prometheus.Histogram
	batchFailed prometheus.Counter
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// New returns the process-wide recorder registered on the default registry.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegisterer(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewWithRegisterer creates a recorder on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altcredit_decisions_total",
				Help: "Total number of credit decisions by source and risk category",
			},
			[]string{"source", "category"},
		),
		scores: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "altcredit_credit_score",
				Help:    "Distribution of issued credit scores",
				Buckets: prometheus.LinearBuckets(300, 50, 12),
			},
			[]string{"source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altcredit_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "altcredit_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		batchSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "altcredit_batch_size",
				Help:    "Number of applications per batch request",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
		batchFailed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "altcredit_batch_item_failures_total",
				Help: "Total number of failed batch items",
			},
		),
	}
}

// RecordDecision records an issued score.
func (r *Recorder) RecordDecision(source, category string, score int) {
	r.decisions.WithLabelValues(source, category).Inc()
	r.scores.WithLabelValues(source).Observe(float64(score))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordBatch records a processed batch and its failed item count.
func (r *Recorder) RecordBatch(size, failed int) {
	r.batchSize.Observe(float64(size))
	if failed > 0 {
		r.batchFailed.Add(float64(failed))
	}
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) RecordDecision(string, string, int) {}
func (Noop) RecordError(string)                 {}
func (Noop) RecordLatency(string, float64)      {}
func (Noop) RecordBatch(int, int)               {}
