package scoring

import (
	"math"

	"AltCredit/internal/domain/models"
)

// Classify maps a score to its risk category. Thresholds are inclusive lower
// bounds evaluated top-down.
func (m *ModelConfig) Classify(score int) models.RiskCategory {
	for _, t := range m.Categories {
		if score >= t.Min {
			return t.Category
		}
	}
	return m.Fallback
}

// DefaultProbability returns the default probability in percent, rounded to
// one decimal. It is strictly decreasing in score.
func (m *ModelConfig) DefaultProbability(score int) float64 {
	span := float64(m.Ensemble.Max - m.Ensemble.Min)
	norm := float64(score-m.Ensemble.Min) / span
	p := 100 / (1 + math.Exp(m.Probability.Steepness*(norm-m.Probability.Midpoint)))
	return Round(p, 1)
}
