package features

import (
	"fmt"

	"AltCredit/internal/domain/models"
)

// Shape selects how a raw value is mapped onto [0,1].
type Shape int

const (
	// Linear clamps (x-Lo)/(Hi-Lo) to [0,1].
	Linear Shape = iota
	// Capped is min(x/Hi, 1).
	Capped
	// Scale10 rescales a 1-10 rating as (x-1)/9.
	Scale10
	// InvertedPercent is 1 - x/100.
	InvertedPercent
)

// Rule is the normalization rule of a single feature.
type Rule struct {
	Shape Shape
	Lo    float64
	Hi    float64
}

// Rules is indexed by Feature.
type Rules [Count]Rule

// Vector holds normalized feature values, indexed by Feature.
type Vector [Count]float64

// At returns the normalized value of f.
func (v Vector) At(f Feature) float64 { return v[f] }

// DefaultRules returns the production normalization table.
func DefaultRules() Rules {
	var r Rules
	r[Age] = Rule{Shape: Linear, Lo: 18, Hi: 65}
	r[Income] = Rule{Shape: Capped, Hi: 100000}
	r[EmploymentYears] = Rule{Shape: Capped, Hi: 20}
	r[MonthlyUsageGB] = Rule{Shape: Capped, Hi: 50}
	r[MonthlyPurchases] = Rule{Shape: Capped, Hi: 50}
	r[AvgTransactionAmount] = Rule{Shape: Capped, Hi: 500}
	r[AddressStabilityYears] = Rule{Shape: Capped, Hi: 10}
	r[ReturnRate] = Rule{Shape: InvertedPercent}
	for _, f := range []Feature{
		PhonePaymentConsistency,
		ElectricityPaymentHistory,
		InternetPaymentConsistency,
		NetworkStability,
		WorkLocationConsistency,
		SocialNetworkQuality,
		FinancialAppUsage,
		BudgetingBehavior,
	} {
		r[f] = Rule{Shape: Scale10}
	}
	return r
}

// Validate rejects degenerate rules that would divide by zero.
func (r Rules) Validate() error {
	for _, f := range All {
		rule := r[f]
		switch rule.Shape {
		case Linear:
			if rule.Hi <= rule.Lo {
				return fmt.Errorf("normalization rule for %s: hi must be greater than lo", f)
			}
		case Capped:
			if rule.Hi <= 0 {
				return fmt.Errorf("normalization rule for %s: cap must be positive", f)
			}
		case Scale10, InvertedPercent:
		default:
			return fmt.Errorf("normalization rule for %s: unknown shape %d", f, rule.Shape)
		}
	}
	return nil
}

// Apply maps a single raw value. NaN passes through unchanged.
func (rule Rule) Apply(x float64) float64 {
	switch rule.Shape {
	case Linear:
		return clamp01((x - rule.Lo) / (rule.Hi - rule.Lo))
	case Capped:
		return min(x/rule.Hi, 1)
	case Scale10:
		return (x - 1) / 9
	case InvertedPercent:
		return 1 - x/100
	default:
		return x
	}
}

// Normalize maps every raw field of a through its rule. It is a pure
// function of its inputs.
func (r Rules) Normalize(a models.ApplicantFeatures) Vector {
	var v Vector
	for _, f := range All {
		v[f] = r[f].Apply(Raw(a, f))
	}
	return v
}

// Normalize applies DefaultRules.
func Normalize(a models.ApplicantFeatures) Vector {
	return DefaultRules().Normalize(a)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
