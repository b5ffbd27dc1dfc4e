package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AltCredit/internal/domain/models"
	pkgkafka "AltCredit/pkg/kafka"
	applogger "AltCredit/pkg/logger"
)

// DecisionRequest is the payload on the requests topic.
type DecisionRequest struct {
	CorrelationID string                   `json:"correlation_id"`
	Application   *models.ApplicantRequest `json:"application"`
}

// DecisionRequestHandler scores applications arriving over Kafka. Decisions
// are emitted through the same sinks as HTTP requests.
type DecisionRequestHandler struct {
	topic   string
	scoring *CreditScoring
	l       *applogger.Logger
}

func NewDecisionRequestHandler(topic string, scoring *CreditScoring, l *applogger.Logger) *DecisionRequestHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &DecisionRequestHandler{topic: topic, scoring: scoring, l: l}
}

var _ pkgkafka.MessageHandler = (*DecisionRequestHandler)(nil)

func (h *DecisionRequestHandler) Topic() string { return h.topic }

// Handle decodes and scores one request. Malformed or invalid payloads are
// permanent failures.
func (h *DecisionRequestHandler) Handle(ctx context.Context, b []byte) error {
	var req DecisionRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.scoring.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode decision request: %w", err))
	}

	start := time.Now()
	in, err := h.scoring.Validate(ctx, req.Application)
	if err != nil {
		h.scoring.metrics.RecordError("validation")
		return pkgkafka.Permanent(err)
	}

	d, err := h.scoring.Decide(ctx, in, SourceKafka)
	h.scoring.metrics.RecordLatency("consumer_decide", time.Since(start).Seconds())
	if err != nil {
		return pkgkafka.Permanent(err)
	}

	fields := []applogger.Field{applogger.String("request_id", d.RequestID)}
	if req.CorrelationID != "" {
		fields = append(fields, applogger.String("correlation_id", req.CorrelationID))
	}
	if id := pkgkafka.TraceID(ctx); id != "" {
		fields = append(fields, applogger.String("trace_id", id))
	}
	h.l.Debug("decision request handled", fields...)
	return nil
}
