package service

import "AltCredit/internal/domain/models"

// Scorer maps raw applicant input to a ScoreResult.
type Scorer interface {
	Score(in models.ApplicantFeatures) (models.ScoreResult, error)
	Deterministic() bool
}

// Explainer derives an Explanation from input and its result.
type Explainer interface {
	Explain(in models.ApplicantFeatures, res models.ScoreResult) (*models.Explanation, error)
}

// BiasAnalyzer produces the per-request bias report and its compliance view.
type BiasAnalyzer interface {
	Analyze(in models.ApplicantFeatures, res models.ScoreResult) *models.BiasReport
	Report(br *models.BiasReport) *models.ComplianceReport
	Evaluate(groupA, groupB []models.Outcome) (*models.FairnessEvaluation, error)
	Baseline() models.FairnessMetrics
}
