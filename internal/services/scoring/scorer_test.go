package scoring

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/services/features"
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

func weakApplicant() models.ApplicantFeatures {
	return models.ApplicantFeatures{
		Age:                        19,
		Income:                     8000,
		EmploymentYears:            0,
		PhonePaymentConsistency:    1,
		MonthlyUsageGB:             1,
		NetworkStability:           1,
		ElectricityPaymentHistory:  1,
		InternetPaymentConsistency: 1,
		MonthlyPurchases:           0,
		ReturnRate:                 90,
		AvgTransactionAmount:       5,
		AddressStabilityYears:      0,
		WorkLocationConsistency:    1,
		SocialNetworkQuality:       1,
		FinancialAppUsage:          1,
		BudgetingBehavior:          1,
	}
}

func TestDefaultModel_Valid(t *testing.T) {
	m := DefaultModel()
	require.NoError(t, m.Validate())
	assert.Equal(t, ModelVersion, m.Version)
	assert.Equal(t, ImportanceTotal, m.ImportanceSum())
}

func TestModelConfig_ValidateRejectsBadTables(t *testing.T) {
	m := DefaultModel()
	m.Neural.H1.Weights = m.Neural.H1.Weights[:2]
	assert.Error(t, m.Validate())

	m = DefaultModel()
	m.Categories[1].Min = 800
	assert.Error(t, m.Validate())

	m = DefaultModel()
	m.Ensemble.Min = m.Ensemble.Max
	assert.Error(t, m.Validate())
}

func TestScore_EndToEndExample(t *testing.T) {
	res, err := NewScorer().Score(goodApplicant())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Score, 700)
	assert.Equal(t, 745, res.Score)
	assert.Equal(t, models.RiskGood, res.RiskCategory)
	assert.Equal(t, 7.8, res.Probability)
	assert.Equal(t, 235, res.ModelScores.RuleBased)
	assert.Equal(t, 127, res.ModelScores.Neural)
}

func TestScore_DeterministicWithoutJitter(t *testing.T) {
	s := NewScorer()
	require.True(t, s.Deterministic())

	first, err := s.Score(goodApplicant())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := s.Score(goodApplicant())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScore_RangeAndCategoryConsistency(t *testing.T) {
	s := NewScorer(WithJitter(NewSeededJitter(42, 5)))
	for _, a := range []models.ApplicantFeatures{goodApplicant(), weakApplicant()} {
		for i := 0; i < 50; i++ {
			res, err := s.Score(a)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Score, 300)
			assert.LessOrEqual(t, res.Score, 850)
			assert.Equal(t, s.Model().Classify(res.Score), res.RiskCategory)
			assert.GreaterOrEqual(t, res.Probability, 0.0)
			assert.LessOrEqual(t, res.Probability, 100.0)
		}
	}
}

func TestScore_WeakApplicantScoresLow(t *testing.T) {
	res, err := NewScorer().Score(weakApplicant())
	require.NoError(t, err)
	assert.Less(t, res.Score, 600)
	assert.Equal(t, models.RiskVeryPoor, res.RiskCategory)
}

func TestScore_NaNIsComputationError(t *testing.T) {
	a := goodApplicant()
	a.Income = math.NaN()

	_, err := NewScorer().Score(a)
	require.Error(t, err)

	var ce *models.ComputationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "normalize", ce.Stage)
	assert.True(t, errors.Is(err, models.ErrComputation))
}

func TestScore_InfinityIsComputationError(t *testing.T) {
	a := goodApplicant()
	a.MonthlyUsageGB = math.Inf(-1)

	_, err := NewScorer().Score(a)
	assert.ErrorIs(t, err, models.ErrComputation)
}

func TestMemberScorers_Pure(t *testing.T) {
	m := DefaultModel()
	v := features.Normalize(goodApplicant())
	r := RuleScore(v, m.Rule)
	n := NeuralScore(v, m.Neural)
	for i := 0; i < 10; i++ {
		assert.Equal(t, r, RuleScore(v, m.Rule))
		assert.Equal(t, n, NeuralScore(v, m.Neural))
	}
}

func TestRuleScore_Tiers(t *testing.T) {
	cfg := DefaultModel().Rule
	var v features.Vector

	// All-zero vector: payment floor, no age bonus, commerce on purchases only.
	want := -20 + 60*(0.3*(1-0.3))
	assert.InDelta(t, want, RuleScore(v, cfg), 1e-9)

	v[features.Age] = 0.61
	assert.InDelta(t, want+60, RuleScore(v, cfg), 1e-9)

	v[features.Age] = 0.31
	assert.InDelta(t, want+40, RuleScore(v, cfg), 1e-9)

	v[features.PhonePaymentConsistency] = 1
	v[features.ElectricityPaymentHistory] = 1
	v[features.InternetPaymentConsistency] = 1
	assert.InDelta(t, want+40+140, RuleScore(v, cfg), 1e-9)
}

func TestNeuralScore_Bounds(t *testing.T) {
	cfg := DefaultModel().Neural
	var zero, one features.Vector
	for i := range one {
		one[i] = 1
	}

	lo := NeuralScore(zero, cfg)
	hi := NeuralScore(one, cfg)
	assert.InDelta(t, 200*sigmoid(0.1), lo, 1e-9)
	assert.Greater(t, hi, lo)
	assert.LessOrEqual(t, hi, 200.0)
}

func TestBlend_Clamps(t *testing.T) {
	cfg := DefaultModel().Ensemble
	assert.Equal(t, 300, Blend(-1000, 0, cfg, NoJitter{}))
	assert.Equal(t, 850, Blend(1000, 200, cfg, NoJitter{}))
	assert.Equal(t, 300, Blend(0, 0, cfg, nil))
}

func TestBlend_ClampsHugeRawBeforeRounding(t *testing.T) {
	cfg := DefaultModel().Ensemble
	assert.Equal(t, 850, Blend(1e300, 1e300, cfg, NoJitter{}))
	assert.Equal(t, 850, Blend(math.Inf(1), 0, cfg, NoJitter{}))
	assert.Equal(t, 300, Blend(-1e300, 0, cfg, NoJitter{}))
}

func TestClassify_Boundaries(t *testing.T) {
	m := DefaultModel()
	cases := []struct {
		score int
		want  models.RiskCategory
	}{
		{850, models.RiskExcellent},
		{750, models.RiskExcellent},
		{749, models.RiskGood},
		{700, models.RiskGood},
		{699, models.RiskFair},
		{650, models.RiskFair},
		{649, models.RiskPoor},
		{600, models.RiskPoor},
		{599, models.RiskVeryPoor},
		{300, models.RiskVeryPoor},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, m.Classify(c.score), "score %d", c.score)
	}
}

func TestDefaultProbability_Monotonic(t *testing.T) {
	m := DefaultModel()
	assert.Equal(t, 98.2, m.DefaultProbability(300))
	assert.Equal(t, 50.0, m.DefaultProbability(575))
	assert.Equal(t, 1.8, m.DefaultProbability(850))

	prev := m.DefaultProbability(300)
	for s := 301; s <= 850; s++ {
		p := m.DefaultProbability(s)
		assert.LessOrEqual(t, p, prev, "score %d", s)
		prev = p
	}
}

func TestSeededJitter(t *testing.T) {
	a := NewSeededJitter(7, 5)
	b := NewSeededJitter(7, 5)
	for i := 0; i < 100; i++ {
		x := a.Offset()
		assert.Equal(t, x, b.Offset())
		assert.GreaterOrEqual(t, x, -5.0)
		assert.LessOrEqual(t, x, 5.0)
	}
	assert.Equal(t, uint64(7), a.Seed())
	assert.False(t, Deterministic(a))
	assert.True(t, Deterministic(NewSeededJitter(1, 0)))
	assert.True(t, Deterministic(NoJitter{}))
}

func TestSeededJitter_Concurrent(t *testing.T) {
	j := NewSeededJitter(3, 5)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				_ = j.Offset()
			}
		}()
	}
	wg.Wait()
}

func TestRound(t *testing.T) {
	assert.Equal(t, 7.8, Round(7.7792, 1))
	assert.Equal(t, 0.5, Round(0.45, 1))
	assert.True(t, math.IsNaN(Round(math.NaN(), 1)))
}
