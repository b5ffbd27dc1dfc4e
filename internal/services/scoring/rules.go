package scoring

import (
	"math"

	"AltCredit/internal/services/features"
)

// RuleScore evaluates the five additive decision rules. The result is
// unbounded, typically 0-400, and depends only on v and cfg.
func RuleScore(v features.Vector, cfg RuleConfig) float64 {
	score := 0.0

	// Payment consistency.
	p := cfg.PaymentWeights[0]*v.At(features.PhonePaymentConsistency) +
		cfg.PaymentWeights[1]*v.At(features.ElectricityPaymentHistory) +
		cfg.PaymentWeights[2]*v.At(features.InternetPaymentConsistency)
	score += firstTier(p, cfg.PaymentTiers, cfg.PaymentFloor)

	// Financial stability.
	s := cfg.StabilityWeights[0]*v.At(features.Income) +
		cfg.StabilityWeights[1]*v.At(features.EmploymentYears)
	score += cfg.StabilityPoints * s

	// Age bonuses stack.
	age := v.At(features.Age)
	for _, t := range cfg.AgeTiers {
		if age > t.Above {
			score += t.Points
		}
	}

	// E-commerce behaviour.
	c := cfg.CommerceWeights[0]*v.At(features.ReturnRate) +
		cfg.CommerceWeights[1]*(1-math.Abs(v.At(features.MonthlyPurchases)-cfg.CommercePurchaseAt)) +
		cfg.CommerceWeights[2]*min(v.At(features.AvgTransactionAmount), cfg.CommerceAmountCap)
	score += cfg.CommercePoints * c

	// Location stability.
	l := cfg.LocationWeights[0]*v.At(features.AddressStabilityYears) +
		cfg.LocationWeights[1]*v.At(features.WorkLocationConsistency)
	score += cfg.LocationPoints * l

	return score
}

func firstTier(x float64, tiers []Tier, floor float64) float64 {
	for _, t := range tiers {
		if x > t.Above {
			return t.Points
		}
	}
	return floor
}
