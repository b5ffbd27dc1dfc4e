package scoring

import (
	"fmt"
	"time"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/services/features"
)

// ModelVersion identifies the fixed weight tables below. Bump it whenever a
// weight or threshold changes so stored decisions stay attributable.
const ModelVersion = "2.1.0"

// ImportanceTotal is the sum of DefaultModel().Importance. The table sums to
// 120 rather than 100; it is kept as-is so contributions stay comparable with
// decisions already issued under this model version.
const ImportanceTotal = 120

// Tier awards Points when a composite is strictly above Above.
type Tier struct {
	Above  float64
	Points float64
}

// RuleConfig holds the decision-rule scorer tables.
type RuleConfig struct {
	PaymentWeights [3]float64 // phone, electricity, internet
	PaymentTiers   []Tier     // evaluated top-down, first match wins
	PaymentFloor   float64    // applied when no tier matches

	StabilityWeights [2]float64 // income, employment
	StabilityPoints  float64

	AgeTiers []Tier // cumulative, every matching tier applies

	CommerceWeights    [3]float64 // return rate, purchases, avg amount
	CommercePurchaseAt float64    // purchase sweet spot
	CommerceAmountCap  float64
	CommercePoints     float64

	LocationWeights [2]float64 // address, work location
	LocationPoints  float64
}

// NeuralConfig holds the fixed feed-forward network weights.
type NeuralConfig struct {
	H1     Neuron // income, employment, phone, budgeting
	H2     Neuron // electricity, internet, address
	H3     Neuron // social, app usage, network
	H4     Neuron // h1, h2
	H5     Neuron // h2, h3
	Output Neuron // h4, h5
	Scale  float64
}

// Neuron is a weighted sum plus bias.
type Neuron struct {
	Weights []float64
	Bias    float64
}

func (n Neuron) sum(in ...float64) float64 {
	s := n.Bias
	for i, w := range n.Weights {
		s += w * in[i]
	}
	return s
}

// EnsembleConfig maps the blended scorer output onto the score range.
type EnsembleConfig struct {
	RuleWeight   float64
	NeuralWeight float64
	Base         float64
	Multiplier   float64
	Min          int
	Max          int
}

// CategoryThreshold is an inclusive lower bound.
type CategoryThreshold struct {
	Min      int
	Category models.RiskCategory
}

// ProbabilityConfig parameterizes the default-probability logistic curve.
type ProbabilityConfig struct {
	Steepness float64
	Midpoint  float64
}

// Metadata is the static model descriptor. The quality figures are fixed
// values published with the model, not measurements.
type Metadata struct {
	ModelType   string
	Accuracy    float64
	Precision   float64
	Recall      float64
	F1Score     float64
	LastTrained time.Time
	DataSources []string
}

// ModelConfig is the complete, versioned scoring configuration. It is
// read-only after construction and safe to share between goroutines.
type ModelConfig struct {
	Version       string
	Normalization features.Rules
	Rule          RuleConfig
	Neural        NeuralConfig
	Ensemble      EnsembleConfig
	Categories    []CategoryThreshold // descending by Min
	Fallback      models.RiskCategory
	Probability   ProbabilityConfig
	Importance    [features.Count]int // percent units
	Metadata      Metadata
}

// DefaultModel returns the production model.
func DefaultModel() *ModelConfig {
	var importance [features.Count]int
	importance[features.Age] = 8
	importance[features.Income] = 15
	importance[features.EmploymentYears] = 12
	importance[features.PhonePaymentConsistency] = 9
	importance[features.MonthlyUsageGB] = 4
	importance[features.NetworkStability] = 6
	importance[features.ElectricityPaymentHistory] = 10
	importance[features.InternetPaymentConsistency] = 8
	importance[features.MonthlyPurchases] = 5
	importance[features.ReturnRate] = 7
	importance[features.AvgTransactionAmount] = 4
	importance[features.AddressStabilityYears] = 8
	importance[features.WorkLocationConsistency] = 6
	importance[features.SocialNetworkQuality] = 5
	importance[features.FinancialAppUsage] = 3
	importance[features.BudgetingBehavior] = 10

	return &ModelConfig{
		Version:       ModelVersion,
		Normalization: features.DefaultRules(),
		Rule: RuleConfig{
			PaymentWeights:     [3]float64{0.4, 0.35, 0.25},
			PaymentTiers:       []Tier{{Above: 0.8, Points: 120}, {Above: 0.6, Points: 80}, {Above: 0.4, Points: 40}},
			PaymentFloor:       -20,
			StabilityWeights:   [2]float64{0.6, 0.4},
			StabilityPoints:    100,
			AgeTiers:           []Tier{{Above: 0.3, Points: 40}, {Above: 0.6, Points: 20}},
			CommerceWeights:    [3]float64{0.5, 0.3, 0.2},
			CommercePurchaseAt: 0.3,
			CommerceAmountCap:  0.5,
			CommercePoints:     60,
			LocationWeights:    [2]float64{0.6, 0.4},
			LocationPoints:     50,
		},
		Neural: NeuralConfig{
			H1:     Neuron{Weights: []float64{0.3, 0.2, 0.25, 0.25}, Bias: -0.2},
			H2:     Neuron{Weights: []float64{0.4, 0.3, 0.3}, Bias: -0.15},
			H3:     Neuron{Weights: []float64{0.3, 0.3, 0.4}, Bias: -0.1},
			H4:     Neuron{Weights: []float64{0.4, 0.6}, Bias: -0.1},
			H5:     Neuron{Weights: []float64{0.3, 0.7}, Bias: -0.05},
			Output: Neuron{Weights: []float64{0.6, 0.4}, Bias: 0.1},
			Scale:  200,
		},
		Ensemble: EnsembleConfig{
			RuleWeight:   0.7,
			NeuralWeight: 0.3,
			Base:         300,
			Multiplier:   2.2,
			Min:          300,
			Max:          850,
		},
		Categories: []CategoryThreshold{
			{Min: 750, Category: models.RiskExcellent},
			{Min: 700, Category: models.RiskGood},
			{Min: 650, Category: models.RiskFair},
			{Min: 600, Category: models.RiskPoor},
		},
		Fallback:    models.RiskVeryPoor,
		Probability: ProbabilityConfig{Steepness: 8, Midpoint: 0.5},
		Importance:  importance,
		Metadata: Metadata{
			ModelType:   "Ensemble (XGBoost + Neural Network)",
			Accuracy:    0.892,
			Precision:   0.876,
			Recall:      0.854,
			F1Score:     0.865,
			LastTrained: time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC),
			DataSources: []string{
				"Mobile Phone Usage",
				"Utility Payments",
				"E-commerce Behavior",
				"Geolocation Stability",
				"Digital Footprint",
			},
		},
	}
}

// Validate checks the structural invariants the scorers rely on.
func (m *ModelConfig) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("model version is required")
	}
	if err := m.Normalization.Validate(); err != nil {
		return err
	}
	if m.Ensemble.Min >= m.Ensemble.Max {
		return fmt.Errorf("ensemble range [%d,%d] is empty", m.Ensemble.Min, m.Ensemble.Max)
	}
	for i := 1; i < len(m.Categories); i++ {
		if m.Categories[i].Min >= m.Categories[i-1].Min {
			return fmt.Errorf("category thresholds must be strictly descending")
		}
	}
	checks := []struct {
		name string
		n    Neuron
		want int
	}{
		{"h1", m.Neural.H1, 4}, {"h2", m.Neural.H2, 3}, {"h3", m.Neural.H3, 3},
		{"h4", m.Neural.H4, 2}, {"h5", m.Neural.H5, 2}, {"output", m.Neural.Output, 2},
	}
	for _, c := range checks {
		if len(c.n.Weights) != c.want {
			return fmt.Errorf("neuron %s: want %d weights, got %d", c.name, c.want, len(c.n.Weights))
		}
	}
	return nil
}

// ImportanceSum returns the total of the importance table.
func (m *ModelConfig) ImportanceSum() int {
	total := 0
	for _, w := range m.Importance {
		total += w
	}
	return total
}
