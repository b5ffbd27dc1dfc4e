package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AltCredit/internal/domain/models"
	pkgkafka "AltCredit/pkg/kafka"
)

func sampleEvent(id string) *models.DecisionEvent {
	return &models.DecisionEvent{
		RequestID:    id,
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Score:        745,
		RiskCategory: models.RiskGood,
		Probability:  7.8,
		RuleScore:    235,
		NeuralScore:  127,
		ModelVersion: "2.1.0",
		Source:       "http",
	}
}

func TestBuildInsert(t *testing.T) {
	evs := []*models.DecisionEvent{sampleEvent("a"), nil, {RequestID: ""}, sampleEvent("b")}
	evs[3].BiasFlags = []string{"income_bias"}

	q, args := buildInsert("decision_events", evs)
	require.NotEmpty(t, q)
	assert.True(t, strings.HasPrefix(q, "INSERT INTO decision_events (request_id, ts,"))
	assert.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 2*decisionArity)

	assert.Equal(t, "a", args[0])
	assert.Equal(t, uint16(745), args[2])
	assert.Equal(t, "Good", args[3])
	assert.Equal(t, []string{}, args[9])
	assert.Equal(t, []string{"income_bias"}, args[19])
}

func TestBuildInsertEmpty(t *testing.T) {
	q, args := buildInsert("t", []*models.DecisionEvent{nil})
	assert.Empty(t, q)
	assert.Nil(t, args)
}

func TestDecisionSchemaNamesTable(t *testing.T) {
	stmts := DecisionSchema("audit.decisions")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS audit.decisions")
	assert.Contains(t, stmts[0], "bias_flags    Array(String)")
}

type fakeScanner struct{ vals []interface{} }

func (f fakeScanner) Scan(dest ...interface{}) error {
	if len(dest) != len(f.vals) {
		return errors.New("arity")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = f.vals[i].(string)
		case *time.Time:
			*p = f.vals[i].(time.Time)
		case *uint16:
			*p = f.vals[i].(uint16)
		case *float64:
			*p = f.vals[i].(float64)
		case *int32:
			*p = f.vals[i].(int32)
		case *[]string:
			*p = f.vals[i].([]string)
		}
	}
	return nil
}

func TestScanDecision(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ev, err := scanDecision(fakeScanner{vals: []interface{}{
		"r1", ts, uint16(612), "Fair", 31.4, int32(180), int32(90), "2.1.0", "batch", []string{"x"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 612, ev.Score)
	assert.Equal(t, models.RiskFair, ev.RiskCategory)
	assert.Equal(t, 180, ev.RuleScore)
	assert.Equal(t, "batch", ev.Source)

	_, err = scanDecision(fakeScanner{})
	assert.Error(t, err)
}

type fakeProducer struct {
	keys   []string
	batch  []pkgkafka.Message
	topic  string
	closed bool
	traces []string
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, key []byte, _ interface{}) error {
	f.topic = topic
	f.keys = append(f.keys, string(key))
	f.traces = append(f.traces, pkgkafka.TraceID(ctx))
	return nil
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	f.topic = topic
	f.batch = append(f.batch, msgs...)
	return nil
}

func (f *fakeProducer) Close() error { f.closed = true; return nil }

func TestKafkaDecisionPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaDecisionPublisher(fp, "credit.decisions")

	require.NoError(t, p.Publish(context.Background(), sampleEvent("r1")))
	assert.Equal(t, []string{"r1"}, fp.keys)
	assert.Equal(t, "credit.decisions", fp.topic)

	require.NoError(t, p.Publish(pkgkafka.WithTraceID(context.Background(), "upstream"), sampleEvent("r2")))
	assert.Equal(t, []string{"r1", "upstream"}, fp.traces)

	require.NoError(t, p.PublishBatch(context.Background(), []*models.DecisionEvent{sampleEvent("a"), nil, sampleEvent("b")}))
	require.Len(t, fp.batch, 2)
	assert.Equal(t, "b", string(fp.batch[1].Key))

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}
