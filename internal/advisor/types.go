package advisor

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Advice categories the model must choose from.
const (
	AdviceBusinessStrategy = "BUSINESS_STRATEGY"
	AdviceTaxCompliance    = "TAX_COMPLIANCE"
	AdviceIrrelevant       = "IRRELEVANT"
)

// RejectionMessage is the exact guardrail reply for questions outside
// Nigerian business and tax matters.
const RejectionMessage = "I am only programmed to provide business and tax advice specific to Nigeria. Please ask a relevant question."

// BusinessAdvice is the structured answer to one chat question. Replies that
// fail Validate are rejected rather than shown to the user.
type BusinessAdvice struct {
	// RelevanceScore grades how on-topic the question was, 0.0 to 1.0.
	RelevanceScore float64 `json:"relevance_score"`
	AdviceType     string  `json:"advice_type"`
	Title          string  `json:"advice_title"`

	// KeyPointsSummary carries the rejection message when the guardrail
	// fires.
	KeyPointsSummary    string   `json:"key_points_summary"`
	DetailedExplanation string   `json:"detailed_explanation"`
	ActionableSteps     []string `json:"actionable_steps"`
	Risks               string   `json:"potential_risks_or_considerations"`
}

// Relevant reports whether the model judged the question on-topic.
func (a *BusinessAdvice) Relevant() bool {
	return a.RelevanceScore > 0.5
}

// Validate rejects replies that do not follow the response contract.
func (a *BusinessAdvice) Validate() error {
	if a.RelevanceScore < 0 || a.RelevanceScore > 1 {
		return fmt.Errorf("relevance_score %v out of range", a.RelevanceScore)
	}
	switch a.AdviceType {
	case AdviceBusinessStrategy, AdviceTaxCompliance, AdviceIrrelevant:
	default:
		return fmt.Errorf("unknown advice_type %q", a.AdviceType)
	}
	if a.Title == "" {
		return fmt.Errorf("advice_title is empty")
	}
	if a.KeyPointsSummary == "" {
		return fmt.Errorf("key_points_summary is empty")
	}
	if a.Relevant() && a.DetailedExplanation == "" {
		return fmt.Errorf("detailed_explanation is empty for a relevant reply")
	}
	return nil
}

// FallbackAdvice is shown when the advisory service cannot be reached. The
// caller still gets a well-formed reply to render.
func FallbackAdvice(reason string) *BusinessAdvice {
	return &BusinessAdvice{
		RelevanceScore:      0,
		AdviceType:          AdviceIrrelevant,
		Title:               "Advisory Service Unavailable",
		KeyPointsSummary:    reason,
		DetailedExplanation: "N/A",
		ActionableSteps:     []string{},
		Risks:               "N/A",
	}
}

// AssessmentReview is the advisory half of a statement audit: the liability
// numbers come from the tax engine, the model only writes the words.
type AssessmentReview struct {
	// ComplianceRecommendation covers payment status, deadlines, and how to
	// settle or reclaim the variance.
	ComplianceRecommendation string `json:"compliance_recommendation"`

	// BusinessGrowthAdvice comments on the figures themselves, such as a
	// high cost of sales.
	BusinessGrowthAdvice string `json:"business_growth_advice"`
}

// Validate rejects reviews with either section missing.
func (r *AssessmentReview) Validate() error {
	if r.ComplianceRecommendation == "" {
		return fmt.Errorf("compliance_recommendation is empty")
	}
	if r.BusinessGrowthAdvice == "" {
		return fmt.Errorf("business_growth_advice is empty")
	}
	return nil
}

// FallbackReview stands in when the model cannot be reached so audits still
// render a complete report.
func FallbackReview(reason string) *AssessmentReview {
	return &AssessmentReview{
		ComplianceRecommendation: reason,
		BusinessGrowthAdvice:     "N/A. Advisory text is unavailable; the computed figures above are unaffected.",
	}
}

// AnalysisInput is the monthly snapshot the business analysis works from.
type AnalysisInput struct {
	Industry       string
	MonthlyRevenue decimal.Decimal
	MonthlyCosts   decimal.Decimal
	BankBalance    decimal.Decimal
}

// NetProfit is revenue minus costs for the month; negative means a loss.
func (in AnalysisInput) NetProfit() decimal.Decimal {
	return in.MonthlyRevenue.Sub(in.MonthlyCosts)
}

// Validate checks the snapshot is analyzable.
func (in AnalysisInput) Validate() error {
	if in.Industry == "" {
		return fmt.Errorf("industry is required for benchmarking")
	}
	if in.MonthlyRevenue.IsNegative() || in.MonthlyCosts.IsNegative() || in.BankBalance.IsNegative() {
		return fmt.Errorf("monetary inputs must not be negative")
	}
	if in.MonthlyRevenue.IsZero() {
		return fmt.Errorf("cannot analyze margins with zero revenue")
	}
	return nil
}

// BusinessAnalysis is the seven-part advisory report for a monthly snapshot.
type BusinessAnalysis struct {
	Profitability    string   `json:"profitability_analysis"`
	GrowthProjection string   `json:"growth_and_future_projection"`
	Efficiency       string   `json:"business_efficiency_analysis"`
	Valuation        string   `json:"estimated_business_valuation"`
	TaxOverview      string   `json:"tax_compliance_overview"`
	LoanEligibility  string   `json:"loan_eligibility_assessment"`
	ActionableAdvice []string `json:"actionable_advice"`
}

// Validate rejects reports with missing sections.
func (b *BusinessAnalysis) Validate() error {
	sections := map[string]string{
		"profitability_analysis":       b.Profitability,
		"growth_and_future_projection": b.GrowthProjection,
		"business_efficiency_analysis": b.Efficiency,
		"estimated_business_valuation": b.Valuation,
		"tax_compliance_overview":      b.TaxOverview,
		"loan_eligibility_assessment":  b.LoanEligibility,
	}
	for name, text := range sections {
		if text == "" {
			return fmt.Errorf("%s is empty", name)
		}
	}
	if len(b.ActionableAdvice) == 0 {
		return fmt.Errorf("actionable_advice is empty")
	}
	return nil
}

// FallbackAnalysis stands in when the model cannot be reached.
func FallbackAnalysis(reason string) *BusinessAnalysis {
	return &BusinessAnalysis{
		Profitability:    reason,
		GrowthProjection: "N/A",
		Efficiency:       "N/A",
		Valuation:        "N/A",
		TaxOverview:      "N/A",
		LoanEligibility:  "N/A",
		ActionableAdvice: []string{"Retry once the advisory service is reachable."},
	}
}
