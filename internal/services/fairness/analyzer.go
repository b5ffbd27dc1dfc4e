// Package fairness holds the per-request bias heuristics and the cohort
// fairness statistics.
//
// The metrics attached to a per-request BiasReport are a configured
// baseline, reported with MetricsSource "static". Only the cohort functions
// in stats.go compute anything from data.
package fairness

import (
	"fmt"
	"time"

	"AltCredit/internal/domain/models"
)

// MetricsSourceStatic marks baseline metrics that were not measured.
const MetricsSourceStatic = "static"

// BaselineMetrics are the placeholder values shipped with the model.
func BaselineMetrics() models.FairnessMetrics {
	return models.FairnessMetrics{
		OverallFairnessScore: 0.95,
		DemographicParity:    0.02,
		EqualizedOdds:        0.03,
		EqualOpportunity:     0.025,
		Calibration:          0.98,
	}
}

// Thresholds are the maximum tolerated gaps between cohorts.
type Thresholds struct {
	DemographicParity float64 `yaml:"demographic_parity" default:"0.05"`
	EqualizedOdds     float64 `yaml:"equalized_odds" default:"0.05"`
	EqualOpportunity  float64 `yaml:"equal_opportunity" default:"0.05"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{DemographicParity: 0.05, EqualizedOdds: 0.05, EqualOpportunity: 0.05}
}

// Analyzer builds bias and compliance reports.
type Analyzer struct {
	baseline   models.FairnessMetrics
	thresholds Thresholds
	now        func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithBaseline overrides the static metrics.
func WithBaseline(m models.FairnessMetrics) AnalyzerOption {
	return func(a *Analyzer) { a.baseline = m }
}

func WithThresholds(t Thresholds) AnalyzerOption {
	return func(a *Analyzer) { a.thresholds = t }
}

// WithClock sets the report timestamp source.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		baseline:   BaselineMetrics(),
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Baseline returns the static metrics attached to every report.
func (a *Analyzer) Baseline() models.FairnessMetrics { return a.baseline }

// Analyze flags bias risks for one applicant. The result is not used; the
// heuristics look at raw input only.
func (a *Analyzer) Analyze(in models.ApplicantFeatures, _ models.ScoreResult) *models.BiasReport {
	return &models.BiasReport{
		FairnessMetrics: a.baseline,
		MetricsSource:   MetricsSourceStatic,
		RiskFactors:     RiskFactors(in),
		Recommendations: Recommendations(in),
	}
}

// RiskFactors applies the raw-input bias thresholds.
func RiskFactors(in models.ApplicantFeatures) []models.BiasRiskFactor {
	out := make([]models.BiasRiskFactor, 0, 4)
	if in.Age < 25 {
		out = append(out, models.BiasRiskFactor{
			Type:        "age_discrimination",
			Severity:    "low",
			Description: "Young applicant - ensure age is not unfairly penalized",
		})
	}
	if in.Income < 30000 {
		out = append(out, models.BiasRiskFactor{
			Type:        "income_bias",
			Severity:    "medium",
			Description: "Low income applicant - verify alternative data sources compensate",
		})
	}
	if in.FinancialAppUsage < 3 || in.SocialNetworkQuality < 3 {
		out = append(out, models.BiasRiskFactor{
			Type:        "digital_divide",
			Severity:    "medium",
			Description: "Limited digital footprint - may disadvantage certain populations",
		})
	}
	if in.AddressStabilityYears < 1 {
		out = append(out, models.BiasRiskFactor{
			Type:        "mobility_bias",
			Severity:    "low",
			Description: "High mobility may disadvantage certain demographics (students, military, etc.)",
		})
	}
	return out
}

// Recommendations mirrors RiskFactors and always ends with the
// transparency and monitoring entries.
func Recommendations(in models.ApplicantFeatures) []models.BiasRecommendation {
	out := make([]models.BiasRecommendation, 0, 5)
	if in.Age < 25 {
		out = append(out, models.BiasRecommendation{
			Category:   "Age Fairness",
			Suggestion: "Consider educational enrollment or internship history as alternative stability indicators",
			Priority:   "medium",
		})
	}
	if in.Income < 30000 {
		out = append(out, models.BiasRecommendation{
			Category:   "Income Equity",
			Suggestion: "Weight alternative data sources more heavily for low-income applicants",
			Priority:   "high",
		})
	}
	if in.FinancialAppUsage < 3 {
		out = append(out, models.BiasRecommendation{
			Category:   "Digital Inclusion",
			Suggestion: "Provide alternative verification methods for those with limited digital access",
			Priority:   "high",
		})
	}
	return append(out,
		models.BiasRecommendation{
			Category:   "Model Transparency",
			Suggestion: "Provide clear explanation of scoring factors to applicant",
			Priority:   "high",
		},
		models.BiasRecommendation{
			Category:   "Continuous Monitoring",
			Suggestion: "Monitor score distributions across demographic groups",
			Priority:   "medium",
		},
	)
}

// Evaluate computes cohort statistics and checks them against thresholds.
func (a *Analyzer) Evaluate(groupA, groupB []models.Outcome) (*models.FairnessEvaluation, error) {
	ra, err := Rates(groupA)
	if err != nil {
		return nil, fmt.Errorf("group A: %w", err)
	}
	rb, err := Rates(groupB)
	if err != nil {
		return nil, fmt.Errorf("group B: %w", err)
	}
	parity, err := DemographicParity(groupA, groupB)
	if err != nil {
		return nil, err
	}
	odds := EqualizedOdds(groupA, groupB)
	opportunity := EqualOpportunity(groupA, groupB)

	return &models.FairnessEvaluation{
		DemographicParity: parity,
		EqualizedOdds:     odds,
		EqualOpportunity:  opportunity,
		GroupA:            ra,
		GroupB:            rb,
		ParityWithin:      parity <= a.thresholds.DemographicParity,
		OddsWithin:        odds <= a.thresholds.EqualizedOdds,
		OpportunityWithin: opportunity <= a.thresholds.EqualOpportunity,
	}, nil
}
