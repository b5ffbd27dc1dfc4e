package fairness

import "AltCredit/internal/domain/models"

// Report builds the compliance report for a bias analysis.
func (a *Analyzer) Report(br *models.BiasReport) *models.ComplianceReport {
	return &models.ComplianceReport{
		Timestamp:         a.now().UTC(),
		OverallAssessment: Assess(br.OverallFairnessScore),
		FairnessMetrics:   br,
		ComplianceStatus:  a.Compliance(br),
		ActionItems:       a.ActionItems(br),
	}
}

// Assess grades an overall fairness score.
func Assess(score float64) models.Assessment {
	switch {
	case score >= 0.95:
		return models.Assessment{
			Level:       "Low Risk",
			Description: "Model demonstrates strong fairness across demographic groups",
			Color:       "green",
		}
	case score >= 0.90:
		return models.Assessment{
			Level:       "Medium Risk",
			Description: "Some fairness concerns identified - monitoring recommended",
			Color:       "yellow",
		}
	default:
		return models.Assessment{
			Level:       "High Risk",
			Description: "Significant bias concerns - immediate review required",
			Color:       "red",
		}
	}
}

func (a *Analyzer) Compliance(br *models.BiasReport) models.ComplianceStatus {
	s := models.ComplianceStatus{
		FCRA:             br.OverallFairnessScore >= 0.90,
		ECOA:             br.DemographicParity <= a.thresholds.DemographicParity,
		GDPR:             true,
		StateRegulations: true,
	}
	s.OverallCompliant = s.FCRA && s.ECOA && s.GDPR && s.StateRegulations
	return s
}

func (a *Analyzer) ActionItems(br *models.BiasReport) []models.ActionItem {
	out := make([]models.ActionItem, 0, 3)
	if br.DemographicParity > a.thresholds.DemographicParity {
		out = append(out, models.ActionItem{
			Priority:    "High",
			Action:      "Investigate demographic parity violation",
			Timeline:    "Immediate",
			Responsible: "Model Risk Team",
		})
	}
	if br.EqualizedOdds > a.thresholds.EqualizedOdds {
		out = append(out, models.ActionItem{
			Priority:    "High",
			Action:      "Review equalized odds metrics",
			Timeline:    "Within 48 hours",
			Responsible: "Data Science Team",
		})
	}
	if len(br.RiskFactors) > 0 {
		out = append(out, models.ActionItem{
			Priority:    "Medium",
			Action:      "Address identified risk factors",
			Timeline:    "Within 1 week",
			Responsible: "Product Team",
		})
	}
	return out
}
