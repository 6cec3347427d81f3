package ingest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

// metricKeywords maps row-label phrases to metric identifiers. Rows are
// claimed by the longest matching phrase so "Cost of Sales" lands on cost of
// sales rather than being mistaken for a revenue ("sales") line.
var metricKeywords = []struct {
	metric tax.Metric
	phrase string
}{
	{tax.MetricTotalRevenue, "total revenue"},
	{tax.MetricTotalRevenue, "turnover"},
	{tax.MetricTotalRevenue, "revenue"},
	{tax.MetricTotalRevenue, "sales"},
	{tax.MetricCostOfSales, "cost of sales"},
	{tax.MetricCostOfSales, "cost of goods"},
	{tax.MetricCostOfSales, "cogs"},
	{tax.MetricOperatingExpenses, "operating expense"},
	{tax.MetricOperatingExpenses, "overheads"},
	{tax.MetricOperatingExpenses, "opex"},
	{tax.MetricProfitTaxPaid, "profit tax paid"},
	{tax.MetricProfitTaxPaid, "cit paid"},
	{tax.MetricProfitTaxPaid, "tax paid"},
	{tax.MetricOutputVAT, "output vat"},
	{tax.MetricOutputVAT, "vat collected"},
	{tax.MetricOutputVAT, "vat on sales"},
	{tax.MetricInputVAT, "input vat"},
	{tax.MetricInputVAT, "vat paid on inputs"},
	{tax.MetricInputVAT, "vat on purchases"},
}

// ExtractMetrics maps statement rows to the fixed metric identifiers. Rows
// that match no keyword are ignored (they still reach the advisory prompt
// via Statement.Table). When several rows map to the same metric the first
// one wins. A statement with no revenue line fails with ErrNoRevenue.
func (r *Reader) ExtractMetrics(st *Statement) (tax.Metrics, error) {
	metrics := tax.Metrics{}
	for _, row := range st.Rows {
		label := strings.ToLower(row.Label)

		var metric tax.Metric
		matched := ""
		for _, mk := range metricKeywords {
			if len(mk.phrase) > len(matched) && strings.Contains(label, mk.phrase) {
				metric, matched = mk.metric, mk.phrase
			}
		}
		if matched == "" {
			r.logger.Debug("statement row has no metric mapping",
				zap.String("label", row.Label))
			continue
		}

		if _, dup := metrics[metric]; dup {
			r.logger.Warn("duplicate row for metric, keeping the first",
				zap.String("metric", string(metric)),
				zap.String("label", row.Label))
			continue
		}
		metrics[metric] = row.Amount

		r.logger.Debug("mapped statement row",
			zap.String("label", row.Label),
			zap.String("metric", string(metric)),
			zap.String("amount", row.Amount.String()))
	}

	if _, ok := metrics[tax.MetricTotalRevenue]; !ok {
		return nil, fmt.Errorf("%w (looked for labels containing %q, %q, %q or %q)",
			ErrNoRevenue, "total revenue", "turnover", "revenue", "sales")
	}
	return metrics, nil
}
