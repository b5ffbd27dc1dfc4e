package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerConfigDefaultsSurviveZeroOptions(t *testing.T) {
	cfg := defaultProducerConfig()
	for _, opt := range []ProducerOption{
		WithBrokers([]string{"localhost:9092"}),
		WithCompression(""),
		WithBatching(0, 0, 0),
		WithTimeouts(0, 5*time.Second),
		WithMaxAttempts(0),
	} {
		opt(cfg)
	}
	require.NoError(t, cfg.validate())
	assert.Equal(t, "gzip", cfg.Compression)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestProducerConfigValidate(t *testing.T) {
	cfg := defaultProducerConfig()
	assert.EqualError(t, cfg.validate(), "brokers are required")

	cfg.Brokers = []string{"b:9092"}
	cfg.RequiredAcks = 2
	assert.Error(t, cfg.validate())

	cfg.RequiredAcks = 1
	cfg.Compression = "brotli"
	assert.Error(t, cfg.validate())
}

func TestProducerConfigWriter(t *testing.T) {
	cfg := defaultProducerConfig()
	WithBrokers([]string{"b:9092"})(cfg)
	WithCompression("ZSTD")(cfg)
	WithHashByKey(true)(cfg)

	w := cfg.writer()
	assert.Equal(t, kafka.Zstd, w.Compression)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}

func TestTraceHeaders(t *testing.T) {
	assert.Nil(t, traceHeaders(context.Background()))

	h := traceHeaders(WithTraceID(context.Background(), "req-1"))
	require.Len(t, h, 1)
	assert.Equal(t, TraceHeader, h[0].Key)
	assert.Equal(t, "req-1", Header(kafka.Message{Headers: h}, TraceHeader))
}

func TestProducerMetricsObserve(t *testing.T) {
	m := newProducerMetrics(prometheus.NewRegistry())
	m.observe("decisions", "gzip", 10, 2, time.Millisecond, nil)
	m.observe("decisions", "gzip", 10, 1, time.Millisecond, assert.AnError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("decisions", "gzip", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("decisions", "gzip", "error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.bytes.WithLabelValues("decisions", "gzip")))
}
