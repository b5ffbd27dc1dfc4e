package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AltCredit/internal/domain/models"
)

func sampleApplicant() models.ApplicantFeatures {
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

func TestNormalize_Shapes(t *testing.T) {
	v := Normalize(sampleApplicant())

	assert.InDelta(t, 12.0/47.0, v.At(Age), 1e-12)
	assert.InDelta(t, 0.5, v.At(Income), 1e-12)
	assert.InDelta(t, 0.25, v.At(EmploymentYears), 1e-12)
	assert.InDelta(t, 8.0/9.0, v.At(PhonePaymentConsistency), 1e-12)
	assert.InDelta(t, 0.95, v.At(ReturnRate), 1e-12)
	assert.InDelta(t, 0.2, v.At(AvgTransactionAmount), 1e-12)
	assert.InDelta(t, 0.4, v.At(AddressStabilityYears), 1e-12)
}

func TestNormalize_ClampsToUnitInterval(t *testing.T) {
	a := sampleApplicant()
	a.Age = 100
	a.Income = 1000000
	a.EmploymentYears = 50
	a.MonthlyUsageGB = 1000
	a.MonthlyPurchases = 1000
	a.AvgTransactionAmount = 10000
	a.AddressStabilityYears = 50
	a.ReturnRate = 100

	v := Normalize(a)
	for _, f := range All {
		assert.GreaterOrEqual(t, v.At(f), 0.0, f.String())
		assert.LessOrEqual(t, v.At(f), 1.0, f.String())
	}
	assert.Equal(t, 1.0, v.At(Age))
	assert.Equal(t, 1.0, v.At(Income))
	assert.Equal(t, 0.0, v.At(ReturnRate))
}

func TestNormalize_Pure(t *testing.T) {
	a := sampleApplicant()
	assert.Equal(t, Normalize(a), Normalize(a))
}

func TestNormalize_PropagatesNaN(t *testing.T) {
	a := sampleApplicant()
	a.Income = math.NaN()
	v := Normalize(a)
	assert.True(t, math.IsNaN(v.At(Income)))
}

func TestRules_Validate(t *testing.T) {
	require.NoError(t, DefaultRules().Validate())

	r := DefaultRules()
	r[Income] = Rule{Shape: Capped}
	assert.Error(t, r.Validate())

	r = DefaultRules()
	r[Age] = Rule{Shape: Linear, Lo: 10, Hi: 10}
	assert.Error(t, r.Validate())
}

func TestFeature_Tables(t *testing.T) {
	seen := make(map[string]bool, Count)
	for _, f := range All {
		name := f.String()
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
		assert.NotEmpty(t, f.Label())
		assert.NotEmpty(t, f.Description())
		assert.NotEmpty(t, f.Improvement())
	}
	assert.Len(t, Names(), Count)
	assert.Equal(t, "Focus on improving this area for better credit outcomes", Age.Improvement())
	assert.Equal(t, "Utility Payment History", ElectricityPaymentHistory.Label())
	assert.Equal(t, "feature(99)", Feature(99).String())
}
