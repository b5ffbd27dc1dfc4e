package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"AltCredit/internal/domain/models"
	drepo "AltCredit/internal/domain/repository"
	dservice "AltCredit/internal/domain/service"
	"AltCredit/internal/repository"
	icache "AltCredit/internal/service/cache"
	"AltCredit/internal/services/features"
	"AltCredit/internal/services/fairness"
	"AltCredit/internal/services/scoring"
	pkghttp "AltCredit/pkg/http"
	applogger "AltCredit/pkg/logger"
	"AltCredit/pkg/metrics"
)

const (
	SourceHTTP  = "http"
	SourceBatch = "batch"
	SourceKafka = "kafka"

	defaultMaxBatch = 100
	emitTimeout     = 2 * time.Second
)

// CreditScoring runs the score, explain and bias pipeline for applicants and
// ships the resulting decisions to the configured sinks.
type CreditScoring struct {
	scorer    dservice.Scorer
	explainer dservice.Explainer
	bias      dservice.BiasAnalyzer
	model     *scoring.ModelConfig

	cache   *icache.ScoreCache
	pub     drepo.DecisionPublisher
	store   drepo.DecisionStore
	metrics drepo.Metrics
	l       *applogger.Logger

	maxBatch int
	workers  int
	newID    func() string
	now      func() time.Time
}

// Option configures CreditScoring.
type Option func(*CreditScoring)

// WithCache enables response caching. It is ignored when scoring is not deterministic.
func WithCache(c *icache.ScoreCache) Option {
	return func(s *CreditScoring) { s.cache = c }
}

func WithPublisher(p drepo.DecisionPublisher) Option {
	return func(s *CreditScoring) {
		if p != nil {
			s.pub = p
		}
	}
}

func WithStore(st drepo.DecisionStore) Option {
	return func(s *CreditScoring) {
		if st != nil {
			s.store = st
		}
	}
}

func WithMetrics(m drepo.Metrics) Option {
	return func(s *CreditScoring) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *CreditScoring) {
		if l != nil {
			s.l = l
		}
	}
}

// WithBatchLimits sets the maximum batch size and the number of concurrent workers.
func WithBatchLimits(maxBatch, workers int) Option {
	return func(s *CreditScoring) {
		if maxBatch > 0 {
			s.maxBatch = maxBatch
		}
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithIDGenerator replaces uuid request ids. Tests only.
func WithIDGenerator(fn func() string) Option {
	return func(s *CreditScoring) { s.newID = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *CreditScoring) { s.now = now }
}

// NewCreditScoring creates a new CreditScoring instance.
func NewCreditScoring(
	scorer dservice.Scorer,
	explainer dservice.Explainer,
	bias dservice.BiasAnalyzer,
	model *scoring.ModelConfig,
	opts ...Option,
) *CreditScoring {
	if model == nil {
		model = scoring.DefaultModel()
	}
	s := &CreditScoring{
		scorer:    scorer,
		explainer: explainer,
		bias:      bias,
		model:     model,
		pub:       repository.NopPublisher{},
		store:     repository.NopStore{},
		metrics:   metrics.Noop{},
		l:         applogger.Nop(),
		maxBatch:  defaultMaxBatch,
		workers:   4,
		newID:     func() string { return uuid.NewString() },
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxBatch is the largest accepted batch.
func (s *CreditScoring) MaxBatch() int { return s.maxBatch }

// Validate checks a wire request and converts it to domain input.
func (s *CreditScoring) Validate(ctx context.Context, req *models.ApplicantRequest) (models.ApplicantFeatures, error) {
	if req == nil {
		return models.ApplicantFeatures{}, &models.ValidationError{Fields: []models.FieldError{{
			Code: "ERR_REQUIRED", Field: "application", Message: "application is required",
		}}}
	}
	if errs := pkghttp.ValidateStruct(ctx, req); len(errs) > 0 {
		return models.ApplicantFeatures{}, toValidationError(errs)
	}
	return req.Features(), nil
}

// Calculate validates, scores, explains and bias-checks one applicant.
func (s *CreditScoring) Calculate(ctx context.Context, req *models.ApplicantRequest) (*models.CreditScoreResponse, error) {
	in, err := s.Validate(ctx, req)
	if err != nil {
		s.metrics.RecordError("validation")
		return nil, err
	}
	d, err := s.Decide(ctx, in, SourceHTTP)
	if err != nil {
		return nil, err
	}
	return Response(d), nil
}

// Decide runs the pipeline on validated input and emits the decision.
func (s *CreditScoring) Decide(ctx context.Context, in models.ApplicantFeatures, source string) (*models.Decision, error) {
	d, err := s.evaluate(ctx, in, source)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDecision(source, string(d.Result.RiskCategory), d.Result.Score)
	s.l.Info("credit score calculated",
		applogger.String("request_id", d.RequestID),
		applogger.Int("score", d.Result.Score),
		applogger.String("category", string(d.Result.RiskCategory)),
		applogger.String("source", source),
	)
	s.emit(ctx, d)
	return d, nil
}

// Explain returns the full explanation for one applicant.
func (s *CreditScoring) Explain(ctx context.Context, req *models.ApplicantRequest) (*models.Explanation, error) {
	in, err := s.Validate(ctx, req)
	if err != nil {
		s.metrics.RecordError("validation")
		return nil, err
	}
	d, err := s.evaluate(ctx, in, SourceHTTP)
	if err != nil {
		return nil, err
	}
	return d.Explanation, nil
}

// BiasReport returns the per-request bias analysis with its compliance report.
func (s *CreditScoring) BiasReport(ctx context.Context, req *models.ApplicantRequest) (*models.BiasReportResponse, error) {
	in, err := s.Validate(ctx, req)
	if err != nil {
		s.metrics.RecordError("validation")
		return nil, err
	}
	d, err := s.evaluate(ctx, in, SourceHTTP)
	if err != nil {
		return nil, err
	}
	return &models.BiasReportResponse{
		CreditScore:  d.Result.Score,
		RiskCategory: d.Result.RiskCategory,
		Report:       s.bias.Report(d.Bias),
	}, nil
}

// EvaluateFairness compares two labeled cohorts.
func (s *CreditScoring) EvaluateFairness(ctx context.Context, req *models.FairnessEvaluationRequest) (*models.FairnessEvaluation, error) {
	if req == nil {
		return nil, &models.ValidationError{Fields: []models.FieldError{{Code: "ERR_REQUIRED", Field: "body", Message: "body is required"}}}
	}
	if errs := pkghttp.ValidateStruct(ctx, req); len(errs) > 0 {
		s.metrics.RecordError("validation")
		return nil, toValidationError(errs)
	}
	ev, err := s.bias.Evaluate(req.GroupA, req.GroupB)
	if err != nil {
		if errors.Is(err, fairness.ErrEmptyCohort) {
			return nil, &models.ValidationError{Fields: []models.FieldError{{Code: "ERR_MIN", Field: "groups", Message: err.Error()}}}
		}
		return nil, fmt.Errorf("evaluate fairness: %w", err)
	}
	return ev, nil
}

// ModelInfo describes the loaded model. Every number is a static descriptor.
func (s *CreditScoring) ModelInfo() *models.ModelInfo {
	md := s.model.Metadata
	return &models.ModelInfo{
		Version:          s.model.Version,
		ModelType:        md.ModelType,
		Features:         features.Names(),
		Accuracy:         md.Accuracy,
		Precision:        md.Precision,
		Recall:           md.Recall,
		F1Score:          md.F1Score,
		LastTrained:      md.LastTrained.UTC().Format(time.RFC3339),
		DataSourcesUsed:  append([]string(nil), md.DataSources...),
		BiasMetrics:      s.bias.Baseline(),
		MetricsSource:    fairness.MetricsSourceStatic,
		ImportanceTotal:  s.model.ImportanceSum(),
		DeterministicRun: s.scorer.Deterministic(),
	}
}

// evaluate computes a decision without side effects other than the cache.
func (s *CreditScoring) evaluate(ctx context.Context, in models.ApplicantFeatures, source string) (*models.Decision, error) {
	key := ""
	if s.cache != nil && s.scorer.Deterministic() {
		if k, err := icache.Key(s.model.Version, in); err == nil {
			key = k
			if d, ok, err := s.cache.Get(ctx, key); err != nil {
				s.l.Warn("score cache get failed", applogger.Error(err))
			} else if ok {
				d.RequestID = s.newID()
				d.Timestamp = s.now()
				d.Source = source
				return d, nil
			}
		}
	}

	start := time.Now()
	res, err := s.scorer.Score(in)
	s.metrics.RecordLatency("score", time.Since(start).Seconds())
	if err != nil {
		return nil, s.computationFailed(err)
	}

	start = time.Now()
	exp, err := s.explainer.Explain(in, res)
	s.metrics.RecordLatency("explain", time.Since(start).Seconds())
	if err != nil {
		return nil, s.computationFailed(err)
	}

	d := &models.Decision{
		RequestID:    s.newID(),
		Input:        in,
		Result:       res,
		Explanation:  exp,
		Bias:         s.bias.Analyze(in, res),
		ModelVersion: s.model.Version,
		Timestamp:    s.now(),
		Source:       source,
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, d); err != nil {
			s.l.Warn("score cache set failed", applogger.Error(err))
		}
	}
	return d, nil
}

func (s *CreditScoring) computationFailed(err error) error {
	s.metrics.RecordError("computation")
	s.l.Error("credit score computation failed", applogger.Error(err))
	var ce *models.ComputationError
	if errors.As(err, &ce) {
		return err
	}
	return &models.ComputationError{Stage: "pipeline", Err: err}
}

// emit is best effort: sink failures are logged and counted, never returned.
func (s *CreditScoring) emit(ctx context.Context, d *models.Decision) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	ev := d.Event()
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.metrics.RecordError("publish")
		s.l.Warn("decision publish failed", applogger.String("request_id", d.RequestID), applogger.Error(err))
	}
	if err := s.store.Store(ctx, ev); err != nil {
		s.metrics.RecordError("store")
		s.l.Warn("decision store failed", applogger.String("request_id", d.RequestID), applogger.Error(err))
	}
}

// Response renders the combined single-applicant response.
func Response(d *models.Decision) *models.CreditScoreResponse {
	r := &models.CreditScoreResponse{
		RequestID:    d.RequestID,
		CreditScore:  d.Result.Score,
		RiskCategory: d.Result.RiskCategory,
		Probability:  d.Result.Probability,
		BiasMetrics:  d.Bias,
		ModelVersion: d.ModelVersion,
		Timestamp:    d.Timestamp,
	}
	if d.Explanation != nil {
		r.Explanation = d.Explanation.Summary
		r.FeatureImportance = d.Explanation.FeatureImportance
	}
	return r
}

func toValidationError(errs []pkghttp.ValidationError) *models.ValidationError {
	ve := &models.ValidationError{Fields: make([]models.FieldError, 0, len(errs))}
	for _, e := range errs {
		ve.Fields = append(ve.Fields, models.FieldError{Code: e.Code, Field: e.Field, Message: e.Message})
	}
	return ve
}
