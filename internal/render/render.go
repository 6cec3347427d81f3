// Package render prints assessments and advisory replies for the terminal.
// Layout mirrors the report blocks accountants are used to: a profit tax
// section, a VAT section, then the advisory text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

const (
	wideRule   = 60
	narrowRule = 50
)

var hundred = decimal.NewFromInt(100)

// FormatNaira renders an amount as ₦1,234,567.89. The sign sits between the
// currency mark and the digits.
func FormatNaira(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	return "₦" + sign + groupThousands(intPart) + "." + frac
}

// FormatPercent renders a fractional rate as a percentage, e.g. 0.30 as
// "30.0%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(hundred).StringFixed(1) + "%"
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Renderer writes formatted reports to one output stream.
type Renderer struct {
	out io.Writer
}

// New creates a renderer writing to out.
func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Renderer) rule(ch string, width int) {
	fmt.Fprintln(r.out, strings.Repeat(ch, width))
}

// Assessment prints the full audit block for one statement: the computed
// profit tax and VAT figures, the compliance verdict, and the advisory text
// when present.
func (r *Renderer) Assessment(source string, report *tax.Report, review *advisor.AssessmentReview) {
	r.rule("=", wideRule)
	if source != "" {
		r.printf("| TAX & BUSINESS ASSESSMENT: %s |\n", source)
	} else {
		r.printf("| TAX & BUSINESS ASSESSMENT |\n")
	}
	r.rule("=", wideRule)

	r.printf("--- PROFIT TAX CALCULATION (Annual) ---\n")
	r.printf("  > Turnover Band:         %s\n", report.TurnoverBand)
	r.printf("  > Taxable Profit:        %s\n", FormatNaira(report.GrossProfit))
	r.printf("  > CIT Rate Applied:      %s\n", FormatPercent(report.CITRate))
	r.printf("  > CIT Liability:         %s\n", FormatNaira(report.CIT))
	r.printf("  > TET Liability:         %s\n", FormatNaira(report.TET))
	r.rule("-", wideRule)
	r.printf("  > TOTAL PROFIT TAX DUE:  %s\n", FormatNaira(report.TotalLiability))
	r.printf("  > PROFIT TAX PAID:       %s\n", FormatNaira(report.ProfitTaxPaid))
	r.rule("-", wideRule)
	r.printf("  > PAYMENT STATUS:        %s (%s)\n", FormatNaira(report.Variance), paymentLabel(report.Status))
	r.rule("=", wideRule)

	r.printf("\n--- VAT CALCULATION (Monthly) ---\n")
	r.printf("  > Output VAT (On Sales):     %s\n", FormatNaira(report.OutputVAT))
	r.printf("  > Input VAT (On Purchases):  %s\n", FormatNaira(report.InputVAT))
	r.rule("-", wideRule)
	r.printf("  > VAT REMITTABLE TO FIRS:    %s\n", FormatNaira(report.VATPayable))
	if report.VATRegistrable {
		r.printf("  > VAT registration required (turnover above threshold)\n")
	}
	r.rule("=", wideRule)

	r.printf("\n--- TAX COMPLIANCE ---\n")
	r.printf("PROFIT TAX STATUS: %s\n", report.Status.Describe())

	if review != nil {
		r.printf("\nRECOMMENDATION (Tax):\n%s\n", review.ComplianceRecommendation)
		r.printf("\n--- BUSINESS GROWTH ADVICE ---\n%s\n", review.BusinessGrowthAdvice)
	}
	r.rule("=", wideRule)
}

func paymentLabel(status tax.ComplianceStatus) string {
	switch status {
	case tax.StatusCompliant:
		return "Paid in Full"
	case tax.StatusUnderpaid:
		return "Underpaid"
	case tax.StatusOverpaid:
		return "Overpaid"
	default:
		return string(status)
	}
}

// Advice prints one chatbot reply. Irrelevant replies collapse to the
// rejection message.
func (r *Renderer) Advice(a *advisor.BusinessAdvice) {
	r.rule("=", narrowRule)
	r.printf("TITLE: %s\n", strings.ToUpper(a.Title))
	r.printf("TYPE: %s\n", a.AdviceType)
	r.rule("=", narrowRule)

	if !a.Relevant() {
		r.printf("%s\n", a.KeyPointsSummary)
		return
	}

	r.printf("\n--- KEY SUMMARY ---\n%s\n", a.KeyPointsSummary)
	r.printf("\n--- DETAILED EXPLANATION ---\n%s\n", a.DetailedExplanation)
	if len(a.ActionableSteps) > 0 {
		r.printf("\n--- ACTIONABLE NEXT STEPS ---\n")
		for _, step := range a.ActionableSteps {
			r.printf("  • %s\n", step)
		}
	}
	r.printf("\n--- KEY CONSIDERATIONS ---\n%s\n", a.Risks)
}

// AnalysisInput prints the data summary echoed back before an analysis runs.
func (r *Renderer) AnalysisInput(in advisor.AnalysisInput) {
	r.printf("\n--- Your Data Summary ---\n")
	r.printf("  Industry:           %s\n", in.Industry)
	r.printf("  Monthly Revenue:    %s\n", FormatNaira(in.MonthlyRevenue))
	r.printf("  Total Monthly Cost: %s\n", FormatNaira(in.MonthlyCosts))
	r.printf("  Net Profit/Loss:    %s\n", FormatNaira(in.NetProfit()))
	r.printf("  Bank Balance:       %s\n", FormatNaira(in.BankBalance))
}

// Analysis prints the seven-part business analysis report.
func (r *Renderer) Analysis(a *advisor.BusinessAnalysis) {
	r.rule("=", narrowRule)
	r.printf("| AI BUSINESS ANALYSIS REPORT |\n")
	r.rule("=", narrowRule)

	sections := []struct {
		title string
		body  string
	}{
		{"1. PROFITABILITY ANALYSIS", a.Profitability},
		{"2. GROWTH & FUTURE PROJECTION", a.GrowthProjection},
		{"3. BUSINESS EFFICIENCY ANALYSIS", a.Efficiency},
		{"4. ESTIMATED BUSINESS VALUATION", a.Valuation},
		{"5. TAX COMPLIANCE OVERVIEW", a.TaxOverview},
		{"6. LOAN ELIGIBILITY ASSESSMENT", a.LoanEligibility},
	}
	for _, s := range sections {
		r.printf("\n--- %s ---\n%s\n", s.title, s.body)
	}

	r.printf("\n--- 7. ACTIONABLE ADVICE ---\n")
	for _, item := range a.ActionableAdvice {
		r.printf("  • %s\n", item)
	}
	r.rule("=", narrowRule)
}
