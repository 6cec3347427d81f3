package advisor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

var hundred = decimal.NewFromInt(100)

const adviceSystemPrompt = `You are a senior expert Nigerian business and tax consultant. Your goal is
to provide deeply detailed, structured, and comprehensive advice to help
businesses in Nigeria operate, grow, and stay compliant (FIRS, state, and
local government obligations).

You MUST respond with a single valid JSON object and fill every field.

STRICT RULE AND GUARDRAIL:
If a question is NOT explicitly and solely related to Nigerian business or
tax matters, you MUST enforce the guardrail:
- set "relevance_score" to 0.0
- set "advice_type" to "IRRELEVANT"
- set "advice_title" to "Query Irrelevant"
- set "key_points_summary" to exactly: "` + RejectionMessage + `"
- set "detailed_explanation" to "N/A"
- set "actionable_steps" to an empty list []
- set "potential_risks_or_considerations" to "N/A"

For relevant questions set "relevance_score" to 1.0 and fill all fields with
detailed, expert advice.

Return a JSON object with this exact structure:
{
  "relevance_score": number between 0.0 and 1.0,
  "advice_type": "BUSINESS_STRATEGY" | "TAX_COMPLIANCE" | "IRRELEVANT",
  "advice_title": "concise professional title",
  "key_points_summary": "1-2 sentence summary of the most critical advice",
  "detailed_explanation": "comprehensive multi-paragraph explanation",
  "actionable_steps": ["2-4 specific next steps"],
  "potential_risks_or_considerations": "1-2 sentence warning about pitfalls"
}`

const reviewSystemPrompt = `You are a Nigerian corporate tax and business advisor reviewing a completed
tax assessment. The liabilities below were already computed under the
Nigerian Finance Act rules; do NOT recompute or second-guess any figure.
Your job is the words, not the numbers.

Write two pieces of advice:
1. "compliance_recommendation": actionable advice only about tax compliance,
   covering both the profit tax position (CIT and TET) and the VAT position,
   payment deadlines, and how to address the payment status shown.
2. "business_growth_advice": actionable advice on improving or growing the
   business based on the financial figures supplied (for example a high cost
   of sales relative to revenue).

Return a JSON object with this exact structure:
{
  "compliance_recommendation": "string",
  "business_growth_advice": "string"
}`

const analysisSystemPrompt = `You are an expert Nigerian business analyst, financial valuator, and tax
advisor. Analyze a small business's monthly financial data and produce a
detailed, seven-part, actionable report:

1. Profitability: analyze the given net profit and the profit margin
   (net profit / revenue) in detail.
2. Growth and projection: compare the margin against a reasonable benchmark
   for the industry in Nigeria and give a 3-6 month projection.
3. Efficiency: analyze the cost-to-revenue ratio and its impact on profit
   potential.
4. Valuation: a theoretical estimate using a 2.0x-3.0x multiple on
   annualized net profit. You MUST include the disclaimer: "This is a
   theoretical estimate for informational purposes only and not a formal
   valuation."
5. Tax overview: based on annualized revenue (monthly revenue times 12),
   state the likely Nigerian obligations. At or below 25M NGN: small company,
   0% CIT, VAT exempt. Above 25M up to 100M: medium company, 20% CIT, 3% TET,
   VAT applicable. Above 100M: large company, 30% CIT, 3% TET, VAT
   applicable. Advise consulting a professional; do NOT compute exact
   amounts.
6. Loan eligibility: a high-level view based on net profit and bank balance
   against general Nigerian banking criteria. This is not a guarantee.
7. Actionable advice: 2-3 specific recommendations tied to the analysis.

Return a JSON object with this exact structure:
{
  "profitability_analysis": "string",
  "growth_and_future_projection": "string",
  "business_efficiency_analysis": "string",
  "estimated_business_valuation": "string",
  "tax_compliance_overview": "string",
  "loan_eligibility_assessment": "string",
  "actionable_advice": ["string"]
}`

func buildAdvicePrompt(question string) string {
	return fmt.Sprintf("USER QUESTION: %s", question)
}

// buildReviewPrompt packs the raw statement, the extracted metrics, and the
// engine's verdict into one message so the advisory text can reference all
// three.
func buildReviewPrompt(table string, metrics tax.Metrics, report *tax.Report) string {
	var b strings.Builder

	b.WriteString("--- FINANCIAL STATEMENT (RAW) ---\n")
	b.WriteString(strings.TrimRight(table, "\n"))
	b.WriteString("\n\n--- KEY EXTRACTED VALUES (NGN) ---\n")
	for _, m := range tax.AllMetrics {
		fmt.Fprintf(&b, "%s: %s\n", m, metrics.Get(m).StringFixed(2))
	}

	b.WriteString("\n--- COMPUTED ASSESSMENT (NGN, authoritative) ---\n")
	fmt.Fprintf(&b, "turnover_band: %s\n", report.TurnoverBand)
	fmt.Fprintf(&b, "gross_profit: %s\n", report.GrossProfit.StringFixed(2))
	fmt.Fprintf(&b, "cit_rate: %s%%\n", report.CITRate.Mul(hundred).StringFixed(1))
	fmt.Fprintf(&b, "cit: %s\n", report.CIT.StringFixed(2))
	fmt.Fprintf(&b, "tet: %s\n", report.TET.StringFixed(2))
	fmt.Fprintf(&b, "total_profit_tax_due: %s\n", report.TotalLiability.StringFixed(2))
	fmt.Fprintf(&b, "profit_tax_paid: %s\n", report.ProfitTaxPaid.StringFixed(2))
	fmt.Fprintf(&b, "vat_payable: %s\n", report.VATPayable.StringFixed(2))
	fmt.Fprintf(&b, "compliance_status: %s\n", report.Status.Describe())
	fmt.Fprintf(&b, "variance: %s\n", report.Variance.StringFixed(2))

	b.WriteString("\nWrite the compliance recommendation and business growth advice for this company.")
	return b.String()
}

func buildAnalysisPrompt(in AnalysisInput) string {
	var b strings.Builder
	b.WriteString("--- USER FINANCIAL DATA (1 MONTH) ---\n")
	fmt.Fprintf(&b, "Industry: %s\n", in.Industry)
	fmt.Fprintf(&b, "Monthly Revenue: %s NGN\n", in.MonthlyRevenue.StringFixed(2))
	fmt.Fprintf(&b, "Total Monthly Costs: %s NGN\n", in.MonthlyCosts.StringFixed(2))
	fmt.Fprintf(&b, "Current Bank Balance: %s NGN\n", in.BankBalance.StringFixed(2))
	fmt.Fprintf(&b, "Calculated Net Profit/Loss: %s NGN\n", in.NetProfit().StringFixed(2))
	b.WriteString("\nAnalyze this data following the seven-part task.")
	return b.String()
}
