package models

import "encoding/json"

// ApplicantFeatures holds the sixteen raw alternative-data signals of one applicant.
// Note: no transport (json/http) validation here; see ApplicantRequest.
type ApplicantFeatures struct {
	Age             float64 `json:"age" yaml:"age"`
	Income          float64 `json:"income" yaml:"income"`
	EmploymentYears float64 `json:"employment_years" yaml:"employment_years"`

	// Mobile/telecom
	PhonePaymentConsistency float64 `json:"phone_payment_consistency" yaml:"phone_payment_consistency"`
	MonthlyUsageGB          float64 `json:"monthly_usage_gb" yaml:"monthly_usage_gb"`
	NetworkStability        float64 `json:"network_stability" yaml:"network_stability"`

	// Utilities
	ElectricityPaymentHistory  float64 `json:"electricity_payment_history" yaml:"electricity_payment_history"`
	InternetPaymentConsistency float64 `json:"internet_payment_consistency" yaml:"internet_payment_consistency"`

	// E-commerce
	MonthlyPurchases     float64 `json:"monthly_purchases" yaml:"monthly_purchases"`
	ReturnRate           float64 `json:"return_rate" yaml:"return_rate"`
	AvgTransactionAmount float64 `json:"avg_transaction_amount" yaml:"avg_transaction_amount"`

	// Geolocation stability
	AddressStabilityYears   float64 `json:"address_stability_years" yaml:"address_stability_years"`
	WorkLocationConsistency float64 `json:"work_location_consistency" yaml:"work_location_consistency"`

	// Digital footprint
	SocialNetworkQuality float64 `json:"social_network_quality" yaml:"social_network_quality"`
	FinancialAppUsage    float64 `json:"financial_app_usage" yaml:"financial_app_usage"`
	BudgetingBehavior    float64 `json:"budgeting_behavior" yaml:"budgeting_behavior"`
}

// ApplicantRequest is the wire form of ApplicantFeatures. Pointers make
// "required" distinguishable from a legitimate zero (income=0).
type ApplicantRequest struct {
	Age                        *float64 `json:"age" yaml:"age" validate:"required,gte=18,lte=100"`
	Income                     *float64 `json:"income" yaml:"income" validate:"required,gte=0,lte=1000000"`
	EmploymentYears            *float64 `json:"employment_years" yaml:"employment_years" validate:"required,gte=0,lte=50"`
	PhonePaymentConsistency    *float64 `json:"phone_payment_consistency" yaml:"phone_payment_consistency" validate:"required,gte=1,lte=10"`
	MonthlyUsageGB             *float64 `json:"monthly_usage_gb" yaml:"monthly_usage_gb" validate:"required,gte=0,lte=1000"`
	NetworkStability           *float64 `json:"network_stability" yaml:"network_stability" validate:"required,gte=1,lte=10"`
	ElectricityPaymentHistory  *float64 `json:"electricity_payment_history" yaml:"electricity_payment_history" validate:"required,gte=1,lte=10"`
	InternetPaymentConsistency *float64 `json:"internet_payment_consistency" yaml:"internet_payment_consistency" validate:"required,gte=1,lte=10"`
	MonthlyPurchases           *float64 `json:"monthly_purchases" yaml:"monthly_purchases" validate:"required,gte=0,lte=1000"`
	ReturnRate                 *float64 `json:"return_rate" yaml:"return_rate" validate:"required,gte=0,lte=100"`
	AvgTransactionAmount       *float64 `json:"avg_transaction_amount" yaml:"avg_transaction_amount" validate:"required,gte=0,lte=10000"`
	AddressStabilityYears      *float64 `json:"address_stability_years" yaml:"address_stability_years" validate:"required,gte=0,lte=50"`
	WorkLocationConsistency    *float64 `json:"work_location_consistency" yaml:"work_location_consistency" validate:"required,gte=1,lte=10"`
	SocialNetworkQuality       *float64 `json:"social_network_quality" yaml:"social_network_quality" validate:"required,gte=1,lte=10"`
	FinancialAppUsage          *float64 `json:"financial_app_usage" yaml:"financial_app_usage" validate:"required,gte=1,lte=10"`
	BudgetingBehavior          *float64 `json:"budgeting_behavior" yaml:"budgeting_behavior" validate:"required,gte=1,lte=10"`
}

// Features converts a validated request. Nil fields become zero; callers
// must validate first.
func (r *ApplicantRequest) Features() ApplicantFeatures {
	return ApplicantFeatures{
		Age:                        deref(r.Age),
		Income:                     deref(r.Income),
		EmploymentYears:            deref(r.EmploymentYears),
		PhonePaymentConsistency:    deref(r.PhonePaymentConsistency),
		MonthlyUsageGB:             deref(r.MonthlyUsageGB),
		NetworkStability:           deref(r.NetworkStability),
		ElectricityPaymentHistory:  deref(r.ElectricityPaymentHistory),
		InternetPaymentConsistency: deref(r.InternetPaymentConsistency),
		MonthlyPurchases:           deref(r.MonthlyPurchases),
		ReturnRate:                 deref(r.ReturnRate),
		AvgTransactionAmount:       deref(r.AvgTransactionAmount),
		AddressStabilityYears:      deref(r.AddressStabilityYears),
		WorkLocationConsistency:    deref(r.WorkLocationConsistency),
		SocialNetworkQuality:       deref(r.SocialNetworkQuality),
		FinancialAppUsage:          deref(r.FinancialAppUsage),
		BudgetingBehavior:          deref(r.BudgetingBehavior),
	}
}

// NewApplicantRequest builds the wire form from domain features.
func NewApplicantRequest(f ApplicantFeatures) *ApplicantRequest {
	return &ApplicantRequest{
		Age:                        ptr(f.Age),
		Income:                     ptr(f.Income),
		EmploymentYears:            ptr(f.EmploymentYears),
		PhonePaymentConsistency:    ptr(f.PhonePaymentConsistency),
		MonthlyUsageGB:             ptr(f.MonthlyUsageGB),
		NetworkStability:           ptr(f.NetworkStability),
		ElectricityPaymentHistory:  ptr(f.ElectricityPaymentHistory),
		InternetPaymentConsistency: ptr(f.InternetPaymentConsistency),
		MonthlyPurchases:           ptr(f.MonthlyPurchases),
		ReturnRate:                 ptr(f.ReturnRate),
		AvgTransactionAmount:       ptr(f.AvgTransactionAmount),
		AddressStabilityYears:      ptr(f.AddressStabilityYears),
		WorkLocationConsistency:    ptr(f.WorkLocationConsistency),
		SocialNetworkQuality:       ptr(f.SocialNetworkQuality),
		FinancialAppUsage:          ptr(f.FinancialAppUsage),
		BudgetingBehavior:          ptr(f.BudgetingBehavior),
	}
}

// BatchRequest carries an ordered list of applications. Elements are
// decoded and validated one by one so a bad item cannot fail its siblings.
type BatchRequest struct {
	Applications []BatchApplication `json:"applications" validate:"required,min=1"`
}

// NewBatchRequest wraps already decoded applications.
func NewBatchRequest(reqs ...*ApplicantRequest) *BatchRequest {
	apps := make([]BatchApplication, len(reqs))
	for i, r := range reqs {
		apps[i].Request = r
	}
	return &BatchRequest{Applications: apps}
}

// BatchApplication is one batch element. A decode failure such as a wrong
// typed field is kept in DecodeErr instead of failing the whole request.
type BatchApplication struct {
	Request   *ApplicantRequest
	DecodeErr error
}

func (a *BatchApplication) UnmarshalJSON(b []byte) error {
	var req *ApplicantRequest
	if err := json.Unmarshal(b, &req); err != nil {
		a.Request, a.DecodeErr = nil, err
		return nil
	}
	a.Request, a.DecodeErr = req, nil
	return nil
}

func (a BatchApplication) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Request)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func ptr(v float64) *float64 { return &v }
