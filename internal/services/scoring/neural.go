package scoring

import (
	"math"

	"AltCredit/internal/services/features"
)

// NeuralScore runs the fixed two-hidden-layer network; the result is in
// [0, cfg.Scale].
func NeuralScore(v features.Vector, cfg NeuralConfig) float64 {
	h1 := relu(cfg.H1.sum(
		v.At(features.Income),
		v.At(features.EmploymentYears),
		v.At(features.PhonePaymentConsistency),
		v.At(features.BudgetingBehavior),
	))
	h2 := relu(cfg.H2.sum(
		v.At(features.ElectricityPaymentHistory),
		v.At(features.InternetPaymentConsistency),
		v.At(features.AddressStabilityYears),
	))
	h3 := relu(cfg.H3.sum(
		v.At(features.SocialNetworkQuality),
		v.At(features.FinancialAppUsage),
		v.At(features.NetworkStability),
	))

	h4 := relu(cfg.H4.sum(h1, h2))
	h5 := relu(cfg.H5.sum(h2, h3))

	return sigmoid(cfg.Output.sum(h4, h5)) * cfg.Scale
}

func relu(x float64) float64 {
	return math.Max(0, x)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
