package models

import "time"

// CreditScoreResponse is the combined single-applicant response.
type CreditScoreResponse struct {
	RequestID         string              `json:"requestId"`
	CreditScore       int                 `json:"creditScore"`
	RiskCategory      RiskCategory        `json:"riskCategory"`
	Probability       float64             `json:"probability"`
	Explanation       string              `json:"explanation"`
	FeatureImportance []FeatureImportance `json:"featureImportance"`
	BiasMetrics       *BiasReport         `json:"biasMetrics"`
	ModelVersion      string              `json:"modelVersion"`
	Timestamp         time.Time           `json:"timestamp"`
}

// BatchItemResult is either a success or an error marker.
type BatchItemResult struct {
	Success      bool         `json:"success,omitempty"`
	CreditScore  int          `json:"creditScore,omitempty"`
	RiskCategory RiskCategory `json:"riskCategory,omitempty"`
	Explanation  string       `json:"explanation,omitempty"`
	Error        bool         `json:"error,omitempty"`
	Message      string       `json:"message,omitempty"`
	Details      []string     `json:"details,omitempty"`
}

type BatchResponse struct {
	Processed int               `json:"processed"`
	Results   []BatchItemResult `json:"results"`
	Timestamp time.Time         `json:"timestamp"`
}

// BiasReportResponse pairs the per-request analysis with its compliance report.
type BiasReportResponse struct {
	CreditScore  int               `json:"creditScore"`
	RiskCategory RiskCategory      `json:"riskCategory"`
	Report       *ComplianceReport `json:"report"`
}

// ModelInfo is a static descriptor. None of the numbers are measured at runtime.
type ModelInfo struct {
	Version          string          `json:"version"`
	ModelType        string          `json:"modelType"`
	Features         []string        `json:"features"`
	Accuracy         float64         `json:"accuracy"`
	Precision        float64         `json:"precision"`
	Recall           float64         `json:"recall"`
	F1Score          float64         `json:"f1Score"`
	LastTrained      string          `json:"lastTrained"`
	DataSourcesUsed  []string        `json:"dataSourcesUsed"`
	BiasMetrics      FairnessMetrics `json:"biasMetrics"`
	MetricsSource    string          `json:"metricsSource"`
	ImportanceTotal  int             `json:"importanceWeightTotal"`
	DeterministicRun bool            `json:"deterministic"`
}
