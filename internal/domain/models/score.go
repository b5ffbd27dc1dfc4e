package models

import "time"

// RiskCategory is a step function of the final score.
type RiskCategory string

const (
	RiskExcellent RiskCategory = "Excellent"
	RiskGood      RiskCategory = "Good"
	RiskFair      RiskCategory = "Fair"
	RiskPoor      RiskCategory = "Poor"
	RiskVeryPoor  RiskCategory = "Very Poor"
)

// ModelScores are the rounded outputs of the two ensemble members.
type ModelScores struct {
	RuleBased int `json:"ruleBased"`
	Neural    int `json:"neural"`
}

// ScoreResult is the output of the scoring pipeline.
type ScoreResult struct {
	Score        int          `json:"score"`        // [300, 850]
	RiskCategory RiskCategory `json:"riskCategory"` // pure function of Score
	Probability  float64      `json:"probability"`  // default probability, percent, 1 decimal
	ModelScores  ModelScores  `json:"modelScores"`
}

// Decision bundles everything produced for a single applicant.
type Decision struct {
	RequestID    string
	Input        ApplicantFeatures
	Result       ScoreResult
	Explanation  *Explanation
	Bias         *BiasReport
	ModelVersion string
	Timestamp    time.Time
	Source       string // "http", "batch", "kafka"
}

// DecisionEvent is the published/audited form of a Decision.
type DecisionEvent struct {
	RequestID    string       `json:"request_id"`
	Timestamp    time.Time    `json:"timestamp"`
	Score        int          `json:"score"`
	RiskCategory RiskCategory `json:"risk_category"`
	Probability  float64      `json:"probability"`
	RuleScore    int          `json:"rule_score"`
	NeuralScore  int          `json:"neural_score"`
	ModelVersion string       `json:"model_version"`
	Source       string       `json:"source"`
	BiasFlags    []string     `json:"bias_flags,omitempty"`
}

// Event converts a Decision for publishing.
func (d *Decision) Event() *DecisionEvent {
	ev := &DecisionEvent{
		RequestID:    d.RequestID,
		Timestamp:    d.Timestamp,
		Score:        d.Result.Score,
		RiskCategory: d.Result.RiskCategory,
		Probability:  d.Result.Probability,
		RuleScore:    d.Result.ModelScores.RuleBased,
		NeuralScore:  d.Result.ModelScores.Neural,
		ModelVersion: d.ModelVersion,
		Source:       d.Source,
	}
	if d.Bias != nil {
		for _, rf := range d.Bias.RiskFactors {
			ev.BiasFlags = append(ev.BiasFlags, rf.Type)
		}
	}
	return ev
}
