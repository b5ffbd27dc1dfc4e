package explain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/services/scoring"
)

func goodApplicant() models.ApplicantFeatures {
	return models.ApplicantFeatures{
		Age:                        30,
		Income:                     50000,
		EmploymentYears:            5,
		PhonePaymentConsistency:    9,
		MonthlyUsageGB:             10,
		NetworkStability:           8,
		ElectricityPaymentHistory:  9,
		InternetPaymentConsistency: 8,
		MonthlyPurchases:           10,
		ReturnRate:                 5,
		AvgTransactionAmount:       100,
		AddressStabilityYears:      4,
		WorkLocationConsistency:    8,
		SocialNetworkQuality:       7,
		FinancialAppUsage:          6,
		BudgetingBehavior:          8,
	}
}

func maxedApplicant() models.ApplicantFeatures {
	return models.ApplicantFeatures{
		Age:                        70,
		Income:                     200000,
		EmploymentYears:            25,
		PhonePaymentConsistency:    10,
		MonthlyUsageGB:             60,
		NetworkStability:           10,
		ElectricityPaymentHistory:  10,
		InternetPaymentConsistency: 10,
		MonthlyPurchases:           60,
		ReturnRate:                 0,
		AvgTransactionAmount:       600,
		AddressStabilityYears:      12,
		WorkLocationConsistency:    10,
		SocialNetworkQuality:       10,
		FinancialAppUsage:          10,
		BudgetingBehavior:          10,
	}
}

func explainAll(t *testing.T, a models.ApplicantFeatures) (models.ScoreResult, *models.Explanation) {
	t.Helper()
	res, err := scoring.NewScorer().Score(a)
	require.NoError(t, err)
	exp, err := NewEngine(nil).Explain(a, res)
	require.NoError(t, err)
	return res, exp
}

func TestExplain_GoodApplicant(t *testing.T) {
	res, exp := explainAll(t, goodApplicant())
	require.Equal(t, 745, res.Score)

	assert.Equal(t,
		`Your credit score of 745 places you in the "Good" category. `+
			`Your strongest factor is Utility Payment History, which positively contributed 8.9% to your score. `+
			`Good score! You should qualify for competitive rates.`,
		exp.Summary)

	require.Len(t, exp.FeatureImportance, 16)
	income := exp.FeatureImportance[1]
	assert.Equal(t, "income", income.Feature)
	assert.Equal(t, 15, income.Weight)
	assert.Equal(t, 0.5, income.NormalizedValue)
	assert.Equal(t, 7.5, income.Contribution)
	assert.Equal(t, models.ImpactMediumPositive, income.Impact)

	require.Len(t, exp.TopPositiveFactors, 5)
	assert.Equal(t, "electricity_payment_history", exp.TopPositiveFactors[0].Feature)
	assert.Equal(t, "Mobile Payment History", exp.TopPositiveFactors[1].HumanReadable)
	assert.Empty(t, exp.TopNegativeFactors)

	assert.Empty(t, exp.Recommendations)
	assert.Empty(t, exp.RiskFactors)

	require.Len(t, exp.ImprovementAreas, 3)
	assert.Equal(t, "Age", exp.ImprovementAreas[0].Area)
	assert.Equal(t, "Focus on improving this area for better credit outcomes", exp.ImprovementAreas[0].Recommendation)
	assert.Equal(t, "Employment Stability", exp.ImprovementAreas[1].Area)
	assert.Equal(t, 12, exp.ImprovementAreas[1].PotentialImpact)
	assert.Equal(t, "Residential Stability", exp.ImprovementAreas[2].Area)
}

func TestExplain_DoesNotMutateInputs(t *testing.T) {
	a := goodApplicant()
	res, err := scoring.NewScorer().Score(a)
	require.NoError(t, err)
	resCopy := res

	_, err = NewEngine(nil).Explain(a, res)
	require.NoError(t, err)
	assert.Equal(t, goodApplicant(), a)
	assert.Equal(t, resCopy, res)
}

func TestImportance_SumsToWeightTable(t *testing.T) {
	imp, err := NewEngine(nil).Importance(maxedApplicant())
	require.NoError(t, err)

	total := 0.0
	for _, fi := range imp {
		assert.Equal(t, float64(fi.Weight), fi.Contribution, fi.Feature)
		total += fi.Contribution
	}
	assert.InDelta(t, float64(scoring.ImportanceTotal), total, 1e-9)
	assert.Equal(t, 120, scoring.ImportanceTotal)
}

func TestImportance_ContributionIsWeightTimesValue(t *testing.T) {
	imp, err := NewEngine(nil).Importance(goodApplicant())
	require.NoError(t, err)
	for _, fi := range imp {
		assert.InDelta(t, float64(fi.Weight)*fi.NormalizedValue, fi.Contribution, 0.15, fi.Feature)
	}
}

func TestImportance_NaN(t *testing.T) {
	a := goodApplicant()
	a.Age = math.NaN()
	_, err := NewEngine(nil).Importance(a)
	assert.ErrorIs(t, err, models.ErrComputation)
}

func TestTopFactors_SortedAndDisjoint(t *testing.T) {
	imp := []models.FeatureImportance{
		{Feature: "age", Contribution: 1.0},
		{Feature: "income", Contribution: -9.0},
		{Feature: "employment_years", Contribution: 4.0},
		{Feature: "return_rate", Contribution: -3.5},
		{Feature: "budgeting_behavior", Contribution: 6.0},
		{Feature: "monthly_usage_gb", Contribution: 0},
		{Feature: "network_stability", Contribution: 2.0},
		{Feature: "social_network_quality", Contribution: 3.0},
		{Feature: "financial_app_usage", Contribution: 5.0},
		{Feature: "monthly_purchases", Contribution: -0.5},
	}

	pos, neg := TopFactorsOf(imp, 5)
	require.Len(t, pos, 5)
	require.Len(t, neg, 3)

	for i := 1; i < len(pos); i++ {
		assert.GreaterOrEqual(t, math.Abs(pos[i-1].Contribution), math.Abs(pos[i].Contribution))
	}
	for i := 1; i < len(neg); i++ {
		assert.GreaterOrEqual(t, math.Abs(neg[i-1].Contribution), math.Abs(neg[i].Contribution))
	}

	seen := map[string]bool{}
	for _, f := range append(pos, neg...) {
		assert.False(t, seen[f.Feature], "duplicate %s", f.Feature)
		seen[f.Feature] = true
		assert.NotEqual(t, "monthly_usage_gb", f.Feature)
	}
	assert.Equal(t, "budgeting_behavior", pos[0].Feature)
	assert.Equal(t, "Monthly Income", neg[0].HumanReadable)
}

func TestSummary_NamesWeakestFactor(t *testing.T) {
	e := NewEngine(nil)
	s := e.Summary(
		models.ScoreResult{Score: 610, RiskCategory: models.RiskPoor},
		[]models.Factor{{HumanReadable: "Monthly Income", Contribution: 4.3}},
		[]models.Factor{{HumanReadable: "Return Rate", Contribution: -3.0}},
	)
	assert.Equal(t,
		`Your credit score of 610 places you in the "Poor" category. `+
			`Your strongest factor is Monthly Income, which positively contributed 4.3% to your score. `+
			`The area with the most room for improvement is Return Rate, which reduced your score by 3.0%. `+
			`There's significant room for improvement. Focus on the recommended areas below.`,
		s)
}

func TestSummary_EncouragementByThreshold(t *testing.T) {
	e := NewEngine(nil)
	cases := map[int]string{
		800: "Excellent score! You qualify for the best rates and terms.",
		750: "Excellent score! You qualify for the best rates and terms.",
		700: "Good score! You should qualify for competitive rates.",
		650: "Fair score. Focus on improvement areas to access better rates.",
		649: "There's significant room for improvement. Focus on the recommended areas below.",
	}
	for score, want := range cases {
		s := e.Summary(models.ScoreResult{Score: score}, nil, nil)
		assert.Contains(t, s, want, "score %d", score)
	}
}

func TestImpactOf(t *testing.T) {
	cases := []struct {
		in   float64
		want models.ImpactLevel
	}{
		{8, models.ImpactHighPositive},
		{7.9, models.ImpactMediumPositive},
		{5, models.ImpactMediumPositive},
		{2, models.ImpactLowPositive},
		{1.9, models.ImpactNeutral},
		{-2, models.ImpactNeutral},
		{-2.1, models.ImpactLowNegative},
		{-5, models.ImpactLowNegative},
		{-8, models.ImpactMediumNegative},
		{-8.1, models.ImpactHighNegative},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ImpactOf(c.in), "contribution %v", c.in)
	}
}

func TestRecommendations_WeakApplicantCapped(t *testing.T) {
	a := models.ApplicantFeatures{
		Age:                        22,
		Income:                     20000,
		EmploymentYears:            0.5,
		PhonePaymentConsistency:    5,
		ElectricityPaymentHistory:  5,
		InternetPaymentConsistency: 5,
		NetworkStability:           5,
		ReturnRate:                 30,
		AddressStabilityYears:      1,
		WorkLocationConsistency:    5,
		SocialNetworkQuality:       5,
		FinancialAppUsage:          2,
		BudgetingBehavior:          3,
	}

	recs := Recommendations(a)
	require.Len(t, recs, MaxRecommendations)
	assert.Equal(t, "Income", recs[0].Category)
	assert.Equal(t, "Payment History", recs[1].Category)
	assert.Equal(t, "Budgeting", recs[4].Category)

	risks := RiskFactors(a)
	require.Len(t, risks, 3)
	assert.Equal(t, "Low Income", risks[0].Factor)
	assert.Equal(t, "High", risks[0].Severity)
	assert.Equal(t, "Employment Instability", risks[1].Factor)
	assert.Equal(t, "High Return Rate", risks[2].Factor)
}

func TestImprovementAreas_Capped(t *testing.T) {
	imp := []models.FeatureImportance{
		{Feature: "income", Weight: 15, Contribution: 1},
		{Feature: "employment_years", Weight: 12, Contribution: 0},
		{Feature: "monthly_usage_gb", Weight: 4, Contribution: 0},
		{Feature: "electricity_payment_history", Weight: 10, Contribution: 4.9},
		{Feature: "budgeting_behavior", Weight: 10, Contribution: 0},
	}
	areas := ImprovementAreas(imp)
	require.Len(t, areas, 3)
	assert.Equal(t, "Monthly Income", areas[0].Area)
	assert.Equal(t, "Consider increasing income through career advancement or side hustles", areas[0].Recommendation)
	assert.Equal(t, "Utility Payment History", areas[2].Area)
}
