package repository

import (
	"context"
	"errors"
	"time"

	"AltCredit/internal/domain/models"
)

// DecisionPublisher emits decision events to downstream consumers.
type DecisionPublisher interface {
	Publish(ctx context.Context, ev *models.DecisionEvent) error
	PublishBatch(ctx context.Context, evs []*models.DecisionEvent) error
	Close() error
}

// ErrAuditDisabled is returned by Query when no audit store is configured.
var ErrAuditDisabled = errors.New("decision audit is disabled")

// DecisionStore is the append-only audit sink. The scoring path only writes.
type DecisionStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, ev *models.DecisionEvent) error
	StoreBatch(ctx context.Context, evs []*models.DecisionEvent) error
	Query(ctx context.Context, from, to time.Time, limit int) ([]*models.DecisionEvent, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordDecision(source, category string, score int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordBatch(size, failed int)
}
