// Package explain turns a score into feature contributions and
// applicant-facing text.
package explain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/services/features"
	"AltCredit/internal/services/scoring"
)

const (
	TopFactors         = 5
	MaxRecommendations = 5
	MaxImprovements    = 3

	// A feature is an improvement area when it carries at least this weight
	// and contributes less than improvementBelow percentage points.
	improvementMinWeight = 8
	improvementBelow     = 5.0
)

var encouragement = map[models.RiskCategory]string{
	models.RiskExcellent: "Excellent score! You qualify for the best rates and terms.",
	models.RiskGood:      "Good score! You should qualify for competitive rates.",
	models.RiskFair:      "Fair score. Focus on improvement areas to access better rates.",
}

const defaultEncouragement = "There's significant room for improvement. Focus on the recommended areas below."

// Engine derives explanations. It holds only read-only model tables.
type Engine struct {
	model *scoring.ModelConfig
}

func NewEngine(model *scoring.ModelConfig) *Engine {
	if model == nil {
		model = scoring.DefaultModel()
	}
	return &Engine{model: model}
}

// Explain builds the full explanation for a and its result. Neither
// argument is modified.
func (e *Engine) Explain(a models.ApplicantFeatures, res models.ScoreResult) (*models.Explanation, error) {
	importance, err := e.Importance(a)
	if err != nil {
		return nil, err
	}
	positive, negative := TopFactorsOf(importance, TopFactors)

	return &models.Explanation{
		Summary:            e.Summary(res, positive, negative),
		FeatureImportance:  importance,
		TopPositiveFactors: positive,
		TopNegativeFactors: negative,
		Recommendations:    Recommendations(a),
		RiskFactors:        RiskFactors(a),
		ImprovementAreas:   ImprovementAreas(importance),
	}, nil
}

// Importance computes weight x normalized value for every feature, in
// feature order. Contribution is in percentage points of the importance
// table, which totals scoring.ImportanceTotal.
func (e *Engine) Importance(a models.ApplicantFeatures) ([]models.FeatureImportance, error) {
	v := e.model.Normalization.Normalize(a)
	out := make([]models.FeatureImportance, 0, features.Count)
	for _, f := range features.All {
		w := e.model.Importance[f]
		contribution := float64(w) * v.At(f)
		if math.IsNaN(contribution) || math.IsInf(contribution, 0) {
			return nil, &models.ComputationError{Stage: "explain", Err: fmt.Errorf("%s contribution is not finite", f)}
		}
		contribution = scoring.Round(contribution, 1)
		out = append(out, models.FeatureImportance{
			Feature:         f.String(),
			Weight:          w,
			NormalizedValue: scoring.Round(v.At(f), 2),
			Contribution:    contribution,
			Impact:          ImpactOf(contribution),
			Description:     f.Description(),
		})
	}
	return out, nil
}

// ImpactOf buckets a contribution given in percentage points.
func ImpactOf(contribution float64) models.ImpactLevel {
	switch {
	case contribution >= 8:
		return models.ImpactHighPositive
	case contribution >= 5:
		return models.ImpactMediumPositive
	case contribution >= 2:
		return models.ImpactLowPositive
	case contribution >= -2:
		return models.ImpactNeutral
	case contribution >= -5:
		return models.ImpactLowNegative
	case contribution >= -8:
		return models.ImpactMediumNegative
	default:
		return models.ImpactHighNegative
	}
}

// TopFactorsOf ranks by absolute contribution and splits by sign. Zero
// contributions appear in neither list.
func TopFactorsOf(importance []models.FeatureImportance, n int) (positive, negative []models.Factor) {
	ranked := slices.Clone(importance)
	slices.SortStableFunc(ranked, func(x, y models.FeatureImportance) int {
		return cmp.Compare(math.Abs(y.Contribution), math.Abs(x.Contribution))
	})

	positive = make([]models.Factor, 0, n)
	negative = make([]models.Factor, 0, n)
	for _, fi := range ranked {
		switch {
		case fi.Contribution > 0 && len(positive) < n:
			positive = append(positive, factorOf(fi))
		case fi.Contribution < 0 && len(negative) < n:
			negative = append(negative, factorOf(fi))
		}
	}
	return positive, negative
}

func factorOf(fi models.FeatureImportance) models.Factor {
	return models.Factor{
		Feature:       fi.Feature,
		Contribution:  fi.Contribution,
		Description:   fi.Description,
		HumanReadable: labelOf(fi.Feature),
	}
}

// Summary renders the one-paragraph explanation.
func (e *Engine) Summary(res models.ScoreResult, positive, negative []models.Factor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your credit score of %d places you in the %q category. ", res.Score, string(res.RiskCategory))
	if len(positive) > 0 {
		top := positive[0]
		fmt.Fprintf(&b, "Your strongest factor is %s, which positively contributed %.1f%% to your score. ",
			top.HumanReadable, top.Contribution)
	}
	if len(negative) > 0 {
		worst := negative[0]
		fmt.Fprintf(&b, "The area with the most room for improvement is %s, which reduced your score by %.1f%%. ",
			worst.HumanReadable, math.Abs(worst.Contribution))
	}
	if msg, ok := encouragement[e.model.Classify(res.Score)]; ok {
		b.WriteString(msg)
	} else {
		b.WriteString(defaultEncouragement)
	}
	return b.String()
}

// ImprovementAreas lists heavily weighted features that contribute little,
// in feature order.
func ImprovementAreas(importance []models.FeatureImportance) []models.ImprovementArea {
	out := make([]models.ImprovementArea, 0, MaxImprovements)
	for _, fi := range importance {
		if len(out) == MaxImprovements {
			break
		}
		if fi.Weight < improvementMinWeight || fi.Contribution >= improvementBelow {
			continue
		}
		f, _ := lookup(fi.Feature)
		out = append(out, models.ImprovementArea{
			Area:            f.Label(),
			CurrentValue:    fi.NormalizedValue,
			PotentialImpact: fi.Weight,
			Recommendation:  f.Improvement(),
		})
	}
	return out
}

var byName = func() map[string]features.Feature {
	m := make(map[string]features.Feature, features.Count)
	for _, f := range features.All {
		m[f.String()] = f
	}
	return m
}()

func lookup(name string) (features.Feature, bool) {
	f, ok := byName[name]
	if !ok {
		return features.Feature(-1), false
	}
	return f, true
}

func labelOf(name string) string {
	if f, ok := lookup(name); ok {
		return f.Label()
	}
	return name
}
