package models

import "time"

// BiasRiskFactor is a heuristic flag raised from raw input thresholds.
type BiasRiskFactor struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type BiasRecommendation struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

// FairnessMetrics are baseline values configured with the model. They are
// not measured for the request they are attached to.
type FairnessMetrics struct {
	OverallFairnessScore float64 `json:"overallFairnessScore" yaml:"overall_fairness_score"`
	DemographicParity    float64 `json:"demographicParity" yaml:"demographic_parity"`
	EqualizedOdds        float64 `json:"equalizedOdds" yaml:"equalized_odds"`
	EqualOpportunity     float64 `json:"equalOpportunity" yaml:"equal_opportunity"`
	Calibration          float64 `json:"calibration" yaml:"calibration"`
}

// BiasReport is the per-request fairness assessment.
type BiasReport struct {
	FairnessMetrics
	MetricsSource   string               `json:"metricsSource"`
	RiskFactors     []BiasRiskFactor     `json:"riskFactors"`
	Recommendations []BiasRecommendation `json:"recommendations"`
}

// OutcomeLabel is a good/bad credit outcome.
type OutcomeLabel string

const (
	OutcomeGood OutcomeLabel = "good"
	OutcomeBad  OutcomeLabel = "bad"
)

// Outcome is one labeled record of a cohort.
type Outcome struct {
	Approved      bool         `json:"approved"`
	ActualOutcome OutcomeLabel `json:"actualOutcome" validate:"required,oneof=good bad"`
	Predicted     OutcomeLabel `json:"predicted" validate:"required,oneof=good bad"`
}

// FairnessEvaluationRequest compares two labeled cohorts.
type FairnessEvaluationRequest struct {
	GroupA []Outcome `json:"groupA" validate:"required,min=1,dive"`
	GroupB []Outcome `json:"groupB" validate:"required,min=1,dive"`
}

// GroupRates are the per-cohort statistics behind parity and odds.
type GroupRates struct {
	Size              int     `json:"size"`
	ApprovalRate      float64 `json:"approvalRate"`
	TruePositiveRate  float64 `json:"truePositiveRate"`
	FalsePositiveRate float64 `json:"falsePositiveRate"`
}

type FairnessEvaluation struct {
	DemographicParity float64    `json:"demographicParity"`
	EqualizedOdds     float64    `json:"equalizedOdds"`
	EqualOpportunity  float64    `json:"equalOpportunity"`
	GroupA            GroupRates `json:"groupA"`
	GroupB            GroupRates `json:"groupB"`
	ParityWithin      bool       `json:"parityWithinThreshold"`
	OddsWithin        bool       `json:"oddsWithinThreshold"`
	OpportunityWithin bool       `json:"opportunityWithinThreshold"`
}

type Assessment struct {
	Level       string `json:"level"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type ComplianceStatus struct {
	FCRA             bool `json:"FCRA"`
	ECOA             bool `json:"ECOA"`
	GDPR             bool `json:"GDPR"`
	StateRegulations bool `json:"stateRegulations"`
	OverallCompliant bool `json:"overallCompliant"`
}

type ActionItem struct {
	Priority    string `json:"priority"`
	Action      string `json:"action"`
	Timeline    string `json:"timeline"`
	Responsible string `json:"responsible"`
}

// ComplianceReport is generated from a BiasReport.
type ComplianceReport struct {
	Timestamp         time.Time        `json:"timestamp"`
	OverallAssessment Assessment       `json:"overallAssessment"`
	FairnessMetrics   *BiasReport      `json:"fairnessMetrics"`
	ComplianceStatus  ComplianceStatus `json:"complianceStatus"`
	ActionItems       []ActionItem     `json:"actionItems"`
}
