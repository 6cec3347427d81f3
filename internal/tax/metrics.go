package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Metric identifies one of the financial figures the engine understands.
type Metric string

const (
	MetricTotalRevenue      Metric = "total_revenue"
	MetricCostOfSales       Metric = "cost_of_sales"
	MetricOperatingExpenses Metric = "operating_expenses"
	MetricProfitTaxPaid     Metric = "profit_tax_paid"
	MetricOutputVAT         Metric = "output_vat"
	MetricInputVAT          Metric = "input_vat"
)

// AllMetrics lists every recognized metric identifier.
var AllMetrics = []Metric{
	MetricTotalRevenue,
	MetricCostOfSales,
	MetricOperatingExpenses,
	MetricProfitTaxPaid,
	MetricOutputVAT,
	MetricInputVAT,
}

// Metrics maps metric identifiers to monetary amounts in naira. It is built
// once per ingested statement and treated as immutable afterwards. Optional
// metrics may be absent; Get reports them as zero.
type Metrics map[Metric]decimal.Decimal

// Get returns the amount recorded for m, or zero when absent.
func (ms Metrics) Get(m Metric) decimal.Decimal {
	if v, ok := ms[m]; ok {
		return v
	}
	return decimal.Zero
}

// Validate checks that total revenue is present and that no amount is
// negative. All failures wrap ErrInvalidInput.
func (ms Metrics) Validate() error {
	if _, ok := ms[MetricTotalRevenue]; !ok {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, MetricTotalRevenue)
	}
	for _, m := range AllMetrics {
		if v, ok := ms[m]; ok && v.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidInput, m, v)
		}
	}
	return nil
}
