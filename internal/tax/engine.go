// Package tax computes Nigerian corporate tax liabilities (CIT, TET, VAT)
// from normalized financial metrics and audits them against the profit tax a
// company reports having paid. The engine is pure: no I/O, no clock, no
// shared state, so concurrent callers need no coordination.
package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// kobo is the rounding precision for all monetary results.
const kobo = 2

// Engine assesses financial metrics against an immutable rate table.
type Engine struct {
	rates RateTable
}

// NewEngine validates the rate table and returns an engine bound to it.
// A zero Tolerance is replaced with one kobo (0.01) so that results that
// differ only by sub-unit rounding still count as compliant.
func NewEngine(rates RateTable) (*Engine, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if rates.Tolerance.IsZero() {
		rates.Tolerance = decimal.RequireFromString("0.01")
	}
	return &Engine{rates: rates}, nil
}

// Rates returns the table the engine was built with.
func (e *Engine) Rates() RateTable {
	return e.rates
}

// Assess computes the full tax position for one set of metrics:
//
//	gross profit   = revenue − cost of sales − operating expenses
//	CIT            = band rate (by revenue) × max(gross profit, 0)
//	TET            = TET rate × max(gross profit, 0)
//	VAT payable    = max(output VAT − input VAT, 0)
//
// and classifies profit tax paid against CIT+TET within the configured
// tolerance. A loss year yields zero CIT and TET, never negative tax.
func (e *Engine) Assess(metrics Metrics) (*Report, error) {
	if err := metrics.Validate(); err != nil {
		return nil, err
	}

	revenue := metrics.Get(MetricTotalRevenue)
	grossProfit := revenue.
		Sub(metrics.Get(MetricCostOfSales)).
		Sub(metrics.Get(MetricOperatingExpenses)).
		Round(kobo)

	assessable := grossProfit
	if assessable.IsNegative() {
		assessable = decimal.Zero
	}

	band := e.rates.bandFor(revenue)
	cit := band.Rate.Mul(assessable).Round(kobo)
	tet := e.rates.TETRate.Mul(assessable).Round(kobo)
	liability := cit.Add(tet)

	outputVAT := metrics.Get(MetricOutputVAT).Round(kobo)
	inputVAT := metrics.Get(MetricInputVAT).Round(kobo)
	vatPayable := outputVAT.Sub(inputVAT)
	if vatPayable.IsNegative() {
		// Excess input VAT is dropped rather than carried forward.
		vatPayable = decimal.Zero
	}

	paid := metrics.Get(MetricProfitTaxPaid).Round(kobo)
	status, variance := e.classify(liability, paid)

	return &Report{
		GrossProfit:    grossProfit,
		TurnoverBand:   band.Name,
		CITRate:        band.Rate,
		CIT:            cit,
		TET:            tet,
		TotalLiability: liability,
		ProfitTaxPaid:  paid,
		OutputVAT:      outputVAT,
		InputVAT:       inputVAT,
		VATPayable:     vatPayable,
		VATRegistrable: revenue.GreaterThan(e.rates.VATRegistrationThreshold),
		Status:         status,
		Variance:       variance,
	}, nil
}

// classify compares paid against due. Differences within the tolerance count
// as compliant; otherwise the variance is the positive amount still owed
// (underpaid) or due back (overpaid).
func (e *Engine) classify(due, paid decimal.Decimal) (ComplianceStatus, decimal.Decimal) {
	diff := due.Sub(paid)
	switch {
	case diff.Abs().LessThanOrEqual(e.rates.Tolerance):
		return StatusCompliant, decimal.Zero
	case diff.IsPositive():
		return StatusUnderpaid, diff
	default:
		return StatusOverpaid, diff.Neg()
	}
}

// String implements fmt.Stringer for log output.
func (s ComplianceStatus) String() string {
	return string(s)
}

// Describe renders the status the way the advisory output labels it.
func (s ComplianceStatus) Describe() string {
	switch s {
	case StatusCompliant:
		return "COMPLIANT (Paid in Full)"
	case StatusUnderpaid:
		return "NON-COMPLIANT (Underpaid)"
	case StatusOverpaid:
		return "OVERPAID (Refund Due)"
	default:
		return fmt.Sprintf("UNKNOWN (%s)", string(s))
	}
}
