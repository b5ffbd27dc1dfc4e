package fairness

import (
	"errors"
	"math"

	"AltCredit/internal/domain/models"
)

// ErrEmptyCohort is returned when a rate is requested over zero records.
var ErrEmptyCohort = errors.New("cohort has no outcomes")

// ApprovalRate is the share of approved records.
func ApprovalRate(outcomes []models.Outcome) (float64, error) {
	if len(outcomes) == 0 {
		return 0, ErrEmptyCohort
	}
	approved := 0
	for _, o := range outcomes {
		if o.Approved {
			approved++
		}
	}
	return float64(approved) / float64(len(outcomes)), nil
}

// TruePositiveRate is the share of actually-good records predicted good.
// It is 0 when the cohort has no actually-good records.
func TruePositiveRate(outcomes []models.Outcome) float64 {
	return predictedGoodRate(outcomes, models.OutcomeGood)
}

// FalsePositiveRate is the share of actually-bad records predicted good.
// It is 0 when the cohort has no actually-bad records.
func FalsePositiveRate(outcomes []models.Outcome) float64 {
	return predictedGoodRate(outcomes, models.OutcomeBad)
}

func predictedGoodRate(outcomes []models.Outcome, actual models.OutcomeLabel) float64 {
	total, good := 0, 0
	for _, o := range outcomes {
		if o.ActualOutcome != actual {
			continue
		}
		total++
		if o.Predicted == models.OutcomeGood {
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(good) / float64(total)
}

// DemographicParity is the absolute approval-rate gap between two cohorts.
func DemographicParity(a, b []models.Outcome) (float64, error) {
	ra, err := ApprovalRate(a)
	if err != nil {
		return 0, err
	}
	rb, err := ApprovalRate(b)
	if err != nil {
		return 0, err
	}
	return math.Abs(ra - rb), nil
}

// EqualizedOdds is the larger of the TPR and FPR gaps.
func EqualizedOdds(a, b []models.Outcome) float64 {
	tpr := math.Abs(TruePositiveRate(a) - TruePositiveRate(b))
	fpr := math.Abs(FalsePositiveRate(a) - FalsePositiveRate(b))
	return math.Max(tpr, fpr)
}

// EqualOpportunity is the TPR gap alone.
func EqualOpportunity(a, b []models.Outcome) float64 {
	return math.Abs(TruePositiveRate(a) - TruePositiveRate(b))
}

// Rates summarizes one cohort.
func Rates(outcomes []models.Outcome) (models.GroupRates, error) {
	approval, err := ApprovalRate(outcomes)
	if err != nil {
		return models.GroupRates{}, err
	}
	return models.GroupRates{
		Size:              len(outcomes),
		ApprovalRate:      approval,
		TruePositiveRate:  TruePositiveRate(outcomes),
		FalsePositiveRate: FalsePositiveRate(outcomes),
	}, nil
}
