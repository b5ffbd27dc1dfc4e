package explain

import "AltCredit/internal/domain/models"

type recommendationRule struct {
	when func(models.ApplicantFeatures) bool
	rec  models.Recommendation
}

// Evaluated in order; at most MaxRecommendations are returned.
var recommendationRules = []recommendationRule{
	{
		when: func(a models.ApplicantFeatures) bool { return a.Income < 40000 },
		rec: models.Recommendation{
			Category:  "Income",
			Priority:  "High",
			Action:    "Focus on increasing income through career development or additional income sources",
			Impact:    "High positive impact on credit score",
			Timeframe: "Long-term (6-12 months)",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool {
			return a.PhonePaymentConsistency < 8 || a.ElectricityPaymentHistory < 8
		},
		rec: models.Recommendation{
			Category:  "Payment History",
			Priority:  "High",
			Action:    "Set up automatic payments for all bills to ensure 100% on-time payment rate",
			Impact:    "High positive impact on credit score",
			Timeframe: "Immediate (within 1 month)",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool { return a.EmploymentYears < 2 },
		rec: models.Recommendation{
			Category:  "Employment Stability",
			Priority:  "Medium",
			Action:    "Focus on building tenure at current job or demonstrate consistent employment history",
			Impact:    "Medium positive impact on credit score",
			Timeframe: "Long-term (12+ months)",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool { return a.FinancialAppUsage < 5 },
		rec: models.Recommendation{
			Category:  "Financial Management",
			Priority:  "Medium",
			Action:    "Use budgeting and financial tracking apps to demonstrate financial responsibility",
			Impact:    "Medium positive impact on credit score",
			Timeframe: "Short-term (1-3 months)",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool { return a.BudgetingBehavior < 7 },
		rec: models.Recommendation{
			Category:  "Budgeting",
			Priority:  "High",
			Action:    "Implement consistent budgeting practices and track spending patterns",
			Impact:    "High positive impact on credit score",
			Timeframe: "Short-term (1-3 months)",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool { return a.ReturnRate > 15 },
		rec: models.Recommendation{
			Category:  "Purchase Decisions",
			Priority:  "Low",
			Action:    "Make more thoughtful purchase decisions to reduce return rate",
			Impact:    "Low positive impact on credit score",
			Timeframe: "Short-term (1-3 months)",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool { return a.AddressStabilityYears < 2 },
		rec: models.Recommendation{
			Category:  "Stability",
			Priority:  "Medium",
			Action:    "Maintain current address to build residential stability history",
			Impact:    "Medium positive impact on credit score",
			Timeframe: "Long-term (12+ months)",
		},
	},
}

type riskRule struct {
	when func(models.ApplicantFeatures) bool
	risk models.RiskFactor
}

var riskRules = []riskRule{
	{
		when: func(a models.ApplicantFeatures) bool { return a.Income < 25000 },
		risk: models.RiskFactor{
			Factor:      "Low Income",
			Severity:    "High",
			Description: "Income below typical lending thresholds may limit access to credit",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool { return a.EmploymentYears < 1 },
		risk: models.RiskFactor{
			Factor:      "Employment Instability",
			Severity:    "Medium",
			Description: "Short employment history may indicate income instability",
		},
	},
	{
		when: func(a models.ApplicantFeatures) bool { return a.ReturnRate > 25 },
		risk: models.RiskFactor{
			Factor:      "High Return Rate",
			Severity:    "Low",
			Description: "High product return rate may indicate poor decision-making",
		},
	},
}

// Recommendations applies the raw-input recommendation rules.
func Recommendations(a models.ApplicantFeatures) []models.Recommendation {
	out := make([]models.Recommendation, 0, MaxRecommendations)
	for _, r := range recommendationRules {
		if len(out) == MaxRecommendations {
			break
		}
		if r.when(a) {
			out = append(out, r.rec)
		}
	}
	return out
}

// RiskFactors applies the raw-input risk rules.
func RiskFactors(a models.ApplicantFeatures) []models.RiskFactor {
	out := make([]models.RiskFactor, 0, len(riskRules))
	for _, r := range riskRules {
		if r.when(a) {
			out = append(out, r.risk)
		}
	}
	return out
}
