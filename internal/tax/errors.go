package tax

import "errors"

var (
	// ErrInvalidInput is returned when the supplied financial metrics are
	// unusable: the mandatory total revenue is absent or an amount is negative.
	ErrInvalidInput = errors.New("invalid financial input")

	// ErrInvalidConfig is returned when the rate table is malformed: missing
	// bands, negative rates or thresholds, or band bounds out of order.
	ErrInvalidConfig = errors.New("invalid rate configuration")
)
