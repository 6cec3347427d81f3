package ingest

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions the reader cannot
	// handle.
	ErrUnsupportedFormat = errors.New("unsupported statement format")

	// ErrNoColumns is returned when no header row names a recognizable label
	// and amount column pair.
	ErrNoColumns = errors.New("could not identify label and amount columns")

	// ErrEmptyStatement is returned when a file parses but yields no usable
	// line items.
	ErrEmptyStatement = errors.New("statement contains no data rows")

	// ErrNoRevenue is returned when no line item maps to total revenue,
	// which every assessment needs.
	ErrNoRevenue = errors.New("no revenue line found in statement")
)
