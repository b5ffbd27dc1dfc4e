package models

// ImpactLevel buckets a feature contribution.
type ImpactLevel string

const (
	ImpactHighPositive   ImpactLevel = "High Positive"
	ImpactMediumPositive ImpactLevel = "Medium Positive"
	ImpactLowPositive    ImpactLevel = "Low Positive"
	ImpactNeutral        ImpactLevel = "Neutral"
	ImpactLowNegative    ImpactLevel = "Low Negative"
	ImpactMediumNegative ImpactLevel = "Medium Negative"
	ImpactHighNegative   ImpactLevel = "High Negative"
)

// FeatureImportance describes one feature's share of the decision.
// Contribution = Weight x NormalizedValue, in percentage points.
type FeatureImportance struct {
	Feature         string      `json:"feature"`
	Weight          int         `json:"weight"`
	NormalizedValue float64     `json:"normalizedValue"`
	Contribution    float64     `json:"contribution"`
	Impact          ImpactLevel `json:"impact"`
	Description     string      `json:"description"`
}

// Factor is a ranked entry in the top positive/negative lists.
type Factor struct {
	Feature       string  `json:"feature"`
	Contribution  float64 `json:"contribution"`
	Description   string  `json:"description"`
	HumanReadable string  `json:"humanReadable"`
}

type Recommendation struct {
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Action    string `json:"action"`
	Impact    string `json:"impact"`
	Timeframe string `json:"timeframe"`
}

type RiskFactor struct {
	Factor      string `json:"factor"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type ImprovementArea struct {
	Area            string  `json:"area"`
	CurrentValue    float64 `json:"currentValue"`
	PotentialImpact int     `json:"potentialImpact"`
	Recommendation  string  `json:"recommendation"`
}

// Explanation is derived from the raw input and its ScoreResult only.
type Explanation struct {
	Summary            string              `json:"summary"`
	FeatureImportance  []FeatureImportance `json:"featureImportance"`
	TopPositiveFactors []Factor            `json:"topPositiveFactors"`
	TopNegativeFactors []Factor            `json:"topNegativeFactors"`
	Recommendations    []Recommendation    `json:"recommendations"`
	RiskFactors        []RiskFactor        `json:"riskFactors"`
	ImprovementAreas   []ImprovementArea   `json:"improvementAreas"`
}
