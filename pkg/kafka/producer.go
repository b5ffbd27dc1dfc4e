package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Producer writes JSON (or raw byte) payloads through a kafka-go Writer.
// A trace id found in the context is copied into the TraceHeader header.
type Producer struct {
	writer  *kafka.Writer
	comp    string
	metrics *producerMetrics
}

// Message is one entry of PublishBatch. Value is encoded like Publish.
type Message struct {
	Key   []byte
	Value interface{}
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Producer{writer: cfg.writer(), comp: cfg.Compression, metrics: defaultProducerMetrics()}, nil
}

// Publish writes one keyed message.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishMessage publishes an unkeyed payload. It satisfies logger.Publisher.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// PublishBatch encodes every message first so a bad value writes nothing.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	headers := traceHeaders(ctx)
	msgs := make([]kafka.Message, len(messages))
	var size int64
	for i, m := range messages {
		v, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		msgs[i] = kafka.Message{Topic: topic, Key: m.Key, Value: v, Headers: headers, Time: start}
		size += int64(len(v))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	p.metrics.observe(topic, p.comp, size, len(msgs), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), topic, err)
	}
	return nil
}

func traceHeaders(ctx context.Context) []kafka.Header {
	id := TraceID(ctx)
	if id == "" {
		return nil
	}
	return []kafka.Header{{Key: TraceHeader, Value: []byte(id)}}
}

func encodeValue(value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	}
	v, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return v, nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	producerMetricsOnce sync.Once
	producerM           *producerMetrics
)

func defaultProducerMetrics() *producerMetrics {
	producerMetricsOnce.Do(func() { producerM = newProducerMetrics(prometheus.DefaultRegisterer) })
	return producerM
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	f := promauto.With(reg)
	return &producerMetrics{
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altcredit_kafka_producer_messages_total",
			Help: "Messages written to Kafka by result",
		}, []string{"topic", "compression", "result"}),
		bytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altcredit_kafka_producer_bytes_total",
			Help: "Payload bytes written to Kafka",
		}, []string{"topic", "compression"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "altcredit_kafka_producer_publish_seconds",
			Help:    "WriteMessages latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
}

func (m *producerMetrics) observe(topic, comp string, size int64, count int, dur time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, comp, result).Add(float64(count))
	if err == nil {
		m.bytes.WithLabelValues(topic, comp).Add(float64(size))
	}
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
