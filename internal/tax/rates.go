package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Band is one CIT turnover band: companies whose total revenue is at most
// UpTo pay CIT at Rate. A zero UpTo marks the open-ended top band.
type Band struct {
	Name string          `json:"name"`
	UpTo decimal.Decimal `json:"up_to"` // inclusive upper turnover bound; zero = unbounded
	Rate decimal.Decimal `json:"rate"`  // fraction, e.g. 0.30 for 30%
}

// Unbounded reports whether the band has no upper turnover limit.
func (b Band) Unbounded() bool {
	return b.UpTo.IsZero()
}

// RateTable carries every statutory rate the engine needs. It is supplied by
// the caller at engine construction so jurisdictional changes never touch the
// computation itself.
type RateTable struct {
	// CITBands must be ordered by ascending UpTo and end with one unbounded
	// band.
	CITBands []Band

	// TETRate is the Tertiary Education Tax rate applied to assessable profit.
	TETRate decimal.Decimal

	// VATRate is informational: VAT payable derives from output minus input
	// VAT, but the rate is surfaced in reports and advisory prompts.
	VATRate decimal.Decimal

	// VATRegistrationThreshold is the turnover above which a company must
	// register for VAT. Classification only; it never changes computed VAT.
	VATRegistrationThreshold decimal.Decimal

	// Tolerance is the largest absolute difference between tax paid and tax
	// due that still counts as compliant. Defaults to one kobo.
	Tolerance decimal.Decimal
}

// DefaultRateTable returns the Finance Act rates: small companies
// (turnover ≤ ₦25M) pay 0% CIT, medium (≤ ₦100M) 20%, large 30%; TET is 3%
// of assessable profit; VAT is 7.5% with a ₦25M registration threshold.
func DefaultRateTable() RateTable {
	return RateTable{
		CITBands: []Band{
			{Name: "small", UpTo: decimal.NewFromInt(25_000_000), Rate: decimal.Zero},
			{Name: "medium", UpTo: decimal.NewFromInt(100_000_000), Rate: decimal.RequireFromString("0.20")},
			{Name: "large", Rate: decimal.RequireFromString("0.30")},
		},
		TETRate:                  decimal.RequireFromString("0.03"),
		VATRate:                  decimal.RequireFromString("0.075"),
		VATRegistrationThreshold: decimal.NewFromInt(25_000_000),
		Tolerance:                decimal.RequireFromString("0.01"),
	}
}

// Validate checks the table for the structural problems the engine cannot
// work around. All failures wrap ErrInvalidConfig.
func (rt RateTable) Validate() error {
	if len(rt.CITBands) == 0 {
		return fmt.Errorf("%w: at least one CIT band is required", ErrInvalidConfig)
	}
	prev := decimal.Zero
	for i, b := range rt.CITBands {
		if b.Rate.IsNegative() {
			return fmt.Errorf("%w: CIT band %q has negative rate %s", ErrInvalidConfig, b.Name, b.Rate)
		}
		last := i == len(rt.CITBands)-1
		if last {
			if !b.Unbounded() {
				return fmt.Errorf("%w: final CIT band %q must be unbounded", ErrInvalidConfig, b.Name)
			}
			continue
		}
		if b.Unbounded() {
			return fmt.Errorf("%w: only the final CIT band may be unbounded", ErrInvalidConfig)
		}
		if b.UpTo.IsNegative() {
			return fmt.Errorf("%w: CIT band %q has negative bound %s", ErrInvalidConfig, b.Name, b.UpTo)
		}
		if i > 0 && b.UpTo.LessThanOrEqual(prev) {
			return fmt.Errorf("%w: CIT band bounds must be strictly increasing", ErrInvalidConfig)
		}
		prev = b.UpTo
	}
	if rt.TETRate.IsNegative() {
		return fmt.Errorf("%w: TET rate must not be negative, got %s", ErrInvalidConfig, rt.TETRate)
	}
	if rt.VATRate.IsNegative() {
		return fmt.Errorf("%w: VAT rate must not be negative, got %s", ErrInvalidConfig, rt.VATRate)
	}
	if rt.VATRegistrationThreshold.IsNegative() {
		return fmt.Errorf("%w: VAT registration threshold must not be negative", ErrInvalidConfig)
	}
	if rt.Tolerance.IsNegative() {
		return fmt.Errorf("%w: tolerance must not be negative, got %s", ErrInvalidConfig, rt.Tolerance)
	}
	return nil
}

// bandFor selects the CIT band for a company with the given total revenue.
// Assumes a validated table.
func (rt RateTable) bandFor(revenue decimal.Decimal) Band {
	for _, b := range rt.CITBands {
		if b.Unbounded() || revenue.LessThanOrEqual(b.UpTo) {
			return b
		}
	}
	return rt.CITBands[len(rt.CITBands)-1]
}
