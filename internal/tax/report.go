package tax

import "github.com/shopspring/decimal"

// ComplianceStatus classifies profit tax paid against the computed liability.
type ComplianceStatus string

const (
	StatusCompliant ComplianceStatus = "COMPLIANT"
	StatusUnderpaid ComplianceStatus = "UNDERPAID"
	StatusOverpaid  ComplianceStatus = "OVERPAID"
)

// Report is the result of one assessment. All monetary fields are rounded to
// the kobo and non-negative except GrossProfit, which is negative for a
// loss-making year. Variance is a magnitude; its direction is carried by
// Status.
type Report struct {
	GrossProfit decimal.Decimal `json:"gross_profit"`

	TurnoverBand string          `json:"turnover_band"`
	CITRate      decimal.Decimal `json:"cit_rate"`
	CIT          decimal.Decimal `json:"cit"`
	TET          decimal.Decimal `json:"tet"`
	// TotalLiability is CIT plus TET: the profit tax due for the period.
	TotalLiability decimal.Decimal `json:"total_liability"`
	ProfitTaxPaid  decimal.Decimal `json:"profit_tax_paid"`

	OutputVAT  decimal.Decimal `json:"output_vat"`
	InputVAT   decimal.Decimal `json:"input_vat"`
	VATPayable decimal.Decimal `json:"vat_payable"`
	// VATRegistrable reports whether turnover exceeds the registration
	// threshold. Informational: it does not change VATPayable.
	VATRegistrable bool `json:"vat_registrable"`

	Status   ComplianceStatus `json:"status"`
	Variance decimal.Decimal  `json:"variance"`
}
