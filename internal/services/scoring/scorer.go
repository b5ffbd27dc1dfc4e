package scoring

import (
	"fmt"
	"math"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/services/features"
)

// Scorer runs normalization, both models, the blend and classification.
type Scorer struct {
	model  *ModelConfig
	jitter Jitter
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithJitter sets the perturbation source. The default is NoJitter.
func WithJitter(j Jitter) Option {
	return func(s *Scorer) {
		if j != nil {
			s.jitter = j
		}
	}
}

// WithModel overrides the model configuration.
func WithModel(m *ModelConfig) Option {
	return func(s *Scorer) {
		if m != nil {
			s.model = m
		}
	}
}

// NewScorer creates a scorer over DefaultModel unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{model: DefaultModel(), jitter: NoJitter{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the model configuration in use.
func (s *Scorer) Model() *ModelConfig { return s.model }

// Deterministic reports whether identical inputs always yield identical scores.
func (s *Scorer) Deterministic() bool { return Deterministic(s.jitter) }

// Normalize maps raw input with the model's normalization table.
func (s *Scorer) Normalize(a models.ApplicantFeatures) features.Vector {
	return s.model.Normalization.Normalize(a)
}

// Score computes the ScoreResult for a single applicant. Non-finite
// intermediate values are reported as *models.ComputationError.
func (s *Scorer) Score(a models.ApplicantFeatures) (models.ScoreResult, error) {
	v := s.Normalize(a)
	for _, f := range features.All {
		if !finite(v.At(f)) {
			return models.ScoreResult{}, &models.ComputationError{
				Stage: "normalize",
				Err:   fmt.Errorf("%s is not finite", f),
			}
		}
	}

	rule := RuleScore(v, s.model.Rule)
	if !finite(rule) {
		return models.ScoreResult{}, &models.ComputationError{Stage: "rule_based", Err: fmt.Errorf("score is not finite")}
	}
	neural := NeuralScore(v, s.model.Neural)
	if !finite(neural) {
		return models.ScoreResult{}, &models.ComputationError{Stage: "neural", Err: fmt.Errorf("score is not finite")}
	}

	score := Blend(rule, neural, s.model.Ensemble, s.jitter)
	return models.ScoreResult{
		Score:        score,
		RiskCategory: s.model.Classify(score),
		Probability:  s.model.DefaultProbability(score),
		ModelScores: models.ModelScores{
			RuleBased: int(math.Round(rule)),
			Neural:    int(math.Round(neural)),
		},
	}, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
