package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/domain/repository"
	pkgch "AltCredit/pkg/clickhouse"
	applogger "AltCredit/pkg/logger"
)

const (
	decisionColumns = "request_id, ts, score, category, probability, rule_score, neural_score, model_version, source, bias_flags"
	decisionArity   = 10
	insertChunk     = 2000
)

// DecisionSchema returns the DDL for the decision audit table.
func DecisionSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	request_id    String,
	ts            DateTime64(3, 'UTC'),
	score         UInt16,
	category      LowCardinality(String),
	probability   Float64,
	rule_score    Int32,
	neural_score  Int32,
	model_version LowCardinality(String),
	source        LowCardinality(String),
	bias_flags    Array(String)
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (ts, request_id)`, table),
	}
}

// ClickHouseDecisionStore appends decision events to a ClickHouse table.
type ClickHouseDecisionStore struct {
	client *pkgch.Client
	table  string
	l      *applogger.Logger
}

// NewClickHouseDecisionStore creates the audit store.
func NewClickHouseDecisionStore(client *pkgch.Client, table string) *ClickHouseDecisionStore {
	if table == "" {
		table = "decision_events"
	}
	return &ClickHouseDecisionStore{client: client, table: table, l: applogger.Nop()}
}

var _ repository.DecisionStore = (*ClickHouseDecisionStore)(nil)

func (s *ClickHouseDecisionStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *ClickHouseDecisionStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, DecisionSchema(s.table))
}

func (s *ClickHouseDecisionStore) Store(ctx context.Context, ev *models.DecisionEvent) error {
	return s.StoreBatch(ctx, []*models.DecisionEvent{ev})
}

func (s *ClickHouseDecisionStore) StoreBatch(ctx context.Context, evs []*models.DecisionEvent) error {
	for start := 0; start < len(evs); start += insertChunk {
		end := start + insertChunk
		if end > len(evs) {
			end = len(evs)
		}
		q, args := buildInsert(s.table, evs[start:end])
		if q == "" {
			continue
		}
		if _, err := s.client.DB().ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert decisions: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseDecisionStore) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.DecisionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", decisionColumns, s.table)
	rows, err := s.client.DB().QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.DecisionEvent
	for rows.Next() {
		ev, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *ClickHouseDecisionStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close is a no-op; the client owns the pool.
func (s *ClickHouseDecisionStore) Close() error {
	return nil
}

// buildInsert renders a multi-row INSERT. Events without a request id are skipped.
func buildInsert(table string, evs []*models.DecisionEvent) (string, []interface{}) {
	values := make([]string, 0, len(evs))
	args := make([]interface{}, 0, len(evs)*decisionArity)
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", decisionArity), ", ") + ")"

	for _, ev := range evs {
		if ev == nil || ev.RequestID == "" {
			continue
		}
		flags := ev.BiasFlags
		if flags == nil {
			flags = []string{}
		}
		values = append(values, placeholder)
		args = append(args,
			ev.RequestID,
			ev.Timestamp.UTC(),
			uint16(ev.Score),
			string(ev.RiskCategory),
			ev.Probability,
			int32(ev.RuleScore),
			int32(ev.NeuralScore),
			ev.ModelVersion,
			ev.Source,
			flags,
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, decisionColumns, strings.Join(values, ","))
	return q, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(r rowScanner) (*models.DecisionEvent, error) {
	var (
		ev       models.DecisionEvent
		score    uint16
		category string
		rule     int32
		neural   int32
	)
	if err := r.Scan(&ev.RequestID, &ev.Timestamp, &score, &category, &ev.Probability,
		&rule, &neural, &ev.ModelVersion, &ev.Source, &ev.BiasFlags); err != nil {
		return nil, fmt.Errorf("scan decision: %w", err)
	}
	ev.Score = int(score)
	ev.RiskCategory = models.RiskCategory(category)
	ev.RuleScore = int(rule)
	ev.NeuralScore = int(neural)
	return &ev, nil
}

var _ rowScanner = (*sql.Rows)(nil)
