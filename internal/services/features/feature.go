package features

import (
	"fmt"

	"AltCredit/internal/domain/models"
)

// Feature enumerates the fixed applicant signal set. Tables indexed by
// Feature are sized by Count so a missing entry fails to compile.
type Feature int

const (
	Age Feature = iota
	Income
	EmploymentYears
	PhonePaymentConsistency
	MonthlyUsageGB
	NetworkStability
	ElectricityPaymentHistory
	InternetPaymentConsistency
	MonthlyPurchases
	ReturnRate
	AvgTransactionAmount
	AddressStabilityYears
	WorkLocationConsistency
	SocialNetworkQuality
	FinancialAppUsage
	BudgetingBehavior

	Count int = iota
)

// All lists every feature in declaration order.
var All = func() [Count]Feature {
	var out [Count]Feature
	for i := range out {
		out[i] = Feature(i)
	}
	return out
}()

var names = [Count]string{
	Age:                        "age",
	Income:                     "income",
	EmploymentYears:            "employment_years",
	PhonePaymentConsistency:    "phone_payment_consistency",
	MonthlyUsageGB:             "monthly_usage_gb",
	NetworkStability:           "network_stability",
	ElectricityPaymentHistory:  "electricity_payment_history",
	InternetPaymentConsistency: "internet_payment_consistency",
	MonthlyPurchases:           "monthly_purchases",
	ReturnRate:                 "return_rate",
	AvgTransactionAmount:       "avg_transaction_amount",
	AddressStabilityYears:      "address_stability_years",
	WorkLocationConsistency:    "work_location_consistency",
	SocialNetworkQuality:       "social_network_quality",
	FinancialAppUsage:          "financial_app_usage",
	BudgetingBehavior:          "budgeting_behavior",
}

var labels = [Count]string{
	Age:                        "Age",
	Income:                     "Monthly Income",
	EmploymentYears:            "Employment Stability",
	PhonePaymentConsistency:    "Mobile Payment History",
	MonthlyUsageGB:             "Data Usage Pattern",
	NetworkStability:           "Network Quality",
	ElectricityPaymentHistory:  "Utility Payment History",
	InternetPaymentConsistency: "Internet Bill Payments",
	MonthlyPurchases:           "Online Shopping Frequency",
	ReturnRate:                 "Return Rate",
	AvgTransactionAmount:       "Average Transaction Size",
	AddressStabilityYears:      "Residential Stability",
	WorkLocationConsistency:    "Work Location Stability",
	SocialNetworkQuality:       "Social Network Quality",
	FinancialAppUsage:          "Financial App Usage",
	BudgetingBehavior:          "Budgeting Habits",
}

var descriptions = [Count]string{
	Age:                        "Age indicates experience and stability in financial decisions",
	Income:                     "Higher income suggests greater ability to repay debts",
	EmploymentYears:            "Employment stability indicates reliable income source",
	PhonePaymentConsistency:    "Consistent mobile bill payments show payment discipline",
	MonthlyUsageGB:             "Data usage patterns indicate digital engagement and lifestyle",
	NetworkStability:           "Network quality in area suggests socioeconomic status",
	ElectricityPaymentHistory:  "Utility payment history is a strong predictor of creditworthiness",
	InternetPaymentConsistency: "Internet bill payments indicate modern lifestyle and payment habits",
	MonthlyPurchases:           "Online purchasing behavior shows digital commerce engagement",
	ReturnRate:                 "Lower return rates indicate better purchase decisions",
	AvgTransactionAmount:       "Transaction patterns reveal spending habits and financial behavior",
	AddressStabilityYears:      "Residential stability indicates life stability and lower risk",
	WorkLocationConsistency:    "Consistent work location suggests employment stability",
	SocialNetworkQuality:       "Social connections can indicate support system and stability",
	FinancialAppUsage:          "Financial app usage shows proactive financial management",
	BudgetingBehavior:          "Good budgeting behavior indicates financial responsibility",
}

// Empty entries fall back to defaultImprovement.
var improvements = [Count]string{
	Income:                     "Consider increasing income through career advancement or side hustles",
	EmploymentYears:            "Focus on building tenure at your current position",
	PhonePaymentConsistency:    "Set up automatic payments to ensure consistent mobile bill payments",
	ElectricityPaymentHistory:  "Establish automatic utility bill payments",
	InternetPaymentConsistency: "Set up automatic internet bill payments",
	BudgetingBehavior:          "Use budgeting apps and create a monthly budget plan",
	FinancialAppUsage:          "Download and actively use financial management applications",
	AddressStabilityYears:      "Maintain your current residence to build stability history",
	SocialNetworkQuality:       "Build professional networks and maintain positive relationships",
	ReturnRate:                 "Make more thoughtful purchase decisions to reduce returns",
}

const defaultImprovement = "Focus on improving this area for better credit outcomes"

func (f Feature) valid() bool { return f >= 0 && int(f) < Count }

// String returns the wire name, e.g. "employment_years".
func (f Feature) String() string {
	if !f.valid() {
		return fmt.Sprintf("feature(%d)", int(f))
	}
	return names[f]
}

// Label returns the human-readable factor name.
func (f Feature) Label() string {
	if !f.valid() {
		return f.String()
	}
	return labels[f]
}

func (f Feature) Description() string {
	if !f.valid() {
		return ""
	}
	return descriptions[f]
}

// Improvement returns the applicant-facing tip for raising this feature.
func (f Feature) Improvement() string {
	if !f.valid() || improvements[f] == "" {
		return defaultImprovement
	}
	return improvements[f]
}

// Names returns the wire names of all features in order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Raw reads the raw value of f from an applicant.
func Raw(a models.ApplicantFeatures, f Feature) float64 {
	switch f {
	case Age:
		return a.Age
	case Income:
		return a.Income
	case EmploymentYears:
		return a.EmploymentYears
	case PhonePaymentConsistency:
		return a.PhonePaymentConsistency
	case MonthlyUsageGB:
		return a.MonthlyUsageGB
	case NetworkStability:
		return a.NetworkStability
	case ElectricityPaymentHistory:
		return a.ElectricityPaymentHistory
	case InternetPaymentConsistency:
		return a.InternetPaymentConsistency
	case MonthlyPurchases:
		return a.MonthlyPurchases
	case ReturnRate:
		return a.ReturnRate
	case AvgTransactionAmount:
		return a.AvgTransactionAmount
	case AddressStabilityYears:
		return a.AddressStabilityYears
	case WorkLocationConsistency:
		return a.WorkLocationConsistency
	case SocialNetworkQuality:
		return a.SocialNetworkQuality
	case FinancialAppUsage:
		return a.FinancialAppUsage
	case BudgetingBehavior:
		return a.BudgetingBehavior
	default:
		panic(fmt.Sprintf("features: unknown feature %d", int(f)))
	}
}
