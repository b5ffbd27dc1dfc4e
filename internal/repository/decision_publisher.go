package repository

import (
	"context"
	"time"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/domain/repository"
	pkgkafka "AltCredit/pkg/kafka"
)

// EventProducer is the subset of pkgkafka.Producer the publisher needs.
type EventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaDecisionPublisher writes decision events keyed by request id.
type KafkaDecisionPublisher struct {
	producer EventProducer
	topic    string
}

// NewKafkaDecisionPublisher creates Kafka publisher.
func NewKafkaDecisionPublisher(producer EventProducer, topic string) *KafkaDecisionPublisher {
	return &KafkaDecisionPublisher{producer: producer, topic: topic}
}

var _ repository.DecisionPublisher = (*KafkaDecisionPublisher)(nil)

// Publish keys by request id. Without an upstream trace id the request id
// becomes the trace header.
func (p *KafkaDecisionPublisher) Publish(ctx context.Context, ev *models.DecisionEvent) error {
	if pkgkafka.TraceID(ctx) == "" {
		ctx = pkgkafka.WithTraceID(ctx, ev.RequestID)
	}
	return p.producer.Publish(ctx, p.topic, []byte(ev.RequestID), ev)
}

func (p *KafkaDecisionPublisher) PublishBatch(ctx context.Context, evs []*models.DecisionEvent) error {
	msgs := make([]pkgkafka.Message, 0, len(evs))
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(ev.RequestID), Value: ev})
	}
	if len(msgs) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.DecisionEvent) error        { return nil }
func (NopPublisher) PublishBatch(context.Context, []*models.DecisionEvent) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

// NopStore discards audit rows. Used when ClickHouse is disabled.
type NopStore struct{}

func (NopStore) Init(context.Context) error                                { return nil }
func (NopStore) Store(context.Context, *models.DecisionEvent) error        { return nil }
func (NopStore) StoreBatch(context.Context, []*models.DecisionEvent) error { return nil }
func (NopStore) Health(context.Context) error                              { return nil }
func (NopStore) Close() error                                              { return nil }

func (NopStore) Query(context.Context, time.Time, time.Time, int) ([]*models.DecisionEvent, error) {
	return nil, repository.ErrAuditDisabled
}

var (
	_ repository.DecisionPublisher = NopPublisher{}
	_ repository.DecisionStore     = NopStore{}
)
