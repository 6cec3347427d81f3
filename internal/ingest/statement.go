// Package ingest turns financial statement files (CSV, XLSX, and scanned
// PDFs) into the normalized metric set the tax engine consumes. Column and
// row matching is keyword based so files from different accountants load
// without a fixed template.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column header fragments used to locate the label and amount columns.
// Matching is case-insensitive substring containment, first column wins.
var (
	labelHints  = []string{"metric", "item", "description", "particulars", "details"}
	amountHints = []string{"amount", "value", "ngn", "total", "cost"}
)

// Row is one line item from a statement.
type Row struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Statement is the tabular content of one financial statement file.
type Statement struct {
	Path         string `json:"path,omitempty"`
	LabelHeader  string `json:"label_header"`
	AmountHeader string `json:"amount_header"`
	Rows         []Row  `json:"rows"`
}

// Table renders the statement as an aligned plain-text table, the form the
// advisory prompts embed so the model sees every line item, including ones
// the metric mapping ignores.
func (s *Statement) Table() string {
	width := len(s.LabelHeader)
	for _, r := range s.Rows {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %s\n", width, s.LabelHeader, s.AmountHeader)
	for _, r := range s.Rows {
		fmt.Fprintf(&b, "%-*s  %s\n", width, r.Label, r.Amount.StringFixed(2))
	}
	return b.String()
}

// Reader loads statement files from disk.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a statement reader.
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read loads the statement at path, dispatching on the file extension.
// Scanned PDF statements go through PDFReader instead since they need the
// vision model.
func (r *Reader) Read(path string) (*Statement, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return r.readCSV(path)
	case ".xlsx", ".xlsm":
		return r.readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %q (use .csv or .xlsx)", ErrUnsupportedFormat, ext)
	}
}

func (r *Reader) readCSV(path string) (*Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rows = append(rows, record)
	}

	return r.tabulate(path, rows)
}

func (r *Reader) readXLSX(path string) (*Statement, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyStatement)
	}

	// Statements are expected on the first sheet, matching how exported
	// workbooks from accounting tools are laid out.
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return r.tabulate(path, rows)
}

// tabulate locates the header row, identifies the label and amount columns,
// and parses the data rows beneath them.
func (r *Reader) tabulate(path string, rows [][]string) (*Statement, error) {
	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyStatement, path)
	}

	header := rows[start]
	labelIdx := findColumn(header, labelHints, -1)
	amountIdx := findColumn(header, amountHints, labelIdx)
	if labelIdx < 0 || amountIdx < 0 {
		return nil, fmt.Errorf("%w: headers %v (want one like %q and one like %q)",
			ErrNoColumns, header, "Metric", "Amount")
	}

	st := &Statement{
		Path:         path,
		LabelHeader:  strings.TrimSpace(header[labelIdx]),
		AmountHeader: strings.TrimSpace(header[amountIdx]),
	}

	for _, row := range rows[start+1:] {
		label := strings.TrimSpace(cell(row, labelIdx))
		if label == "" {
			continue
		}
		raw := cell(row, amountIdx)
		amount, err := ParseAmount(raw)
		if err != nil {
			r.logger.Warn("skipping statement row with unreadable amount",
				zap.String("label", label),
				zap.String("amount", raw),
				zap.Error(err))
			continue
		}
		st.Rows = append(st.Rows, Row{Label: label, Amount: amount})
	}

	if len(st.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyStatement, path)
	}
	return st, nil
}

// findColumn returns the index of the first header cell containing any of
// the hints, or -1. The exclude index lets the amount column search skip the
// column already claimed for labels.
func findColumn(header []string, hints []string, exclude int) int {
	for i, col := range header {
		if i == exclude {
			continue
		}
		lc := strings.ToLower(col)
		for _, h := range hints {
			if strings.Contains(lc, h) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseAmount parses a monetary cell the way accountants write them:
// thousands separators, a naira or NGN marker, and parentheses for
// negatives are all accepted.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₦")
	if u := strings.ToUpper(s); strings.HasPrefix(u, "NGN") {
		s = s[len("NGN"):]
	} else if strings.HasSuffix(u, "NGN") {
		s = s[:len(s)-len("NGN")]
	}
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparseable amount %q: %w", raw, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
