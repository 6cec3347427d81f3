package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sampleRows is the worked example of a large company's annual figures:
// turnover above the 100M band boundary, a deliberate CIT underpayment, and
// two rows (other income, depreciation) that the metric mapping ignores.
var sampleRows = []struct {
	label  string
	amount int64
}{
	{"Total Revenue", 145_000_000},
	{"Cost of Sales", 60_000_000},
	{"Operating Expenses", 35_000_000},
	{"Other Income (Non-taxable)", 2_000_000},
	{"Depreciation (Non-allowable)", 5_000_000},
	{"Profit Tax Paid", 4_500_000},
	{"Output VAT", 10_875_000},
	{"Input VAT", 4_125_000},
}

const (
	sampleLabelHeader  = "Metric"
	sampleAmountHeader = "Amount_NGN"
)

// WriteSample writes a ready-to-audit sample statement to path, as a
// workbook or CSV depending on the extension.
func WriteSample(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return writeSampleXLSX(path)
	case ".csv":
		return writeSampleCSV(path)
	default:
		return fmt.Errorf("%w: %q (use .csv or .xlsx)", ErrUnsupportedFormat, ext)
	}
}

func writeSampleXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "A1", sampleLabelHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellValue(sheet, "B1", sampleAmountHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range sampleRows {
		n := i + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.label); err != nil {
			return fmt.Errorf("failed to write row %d: %w", n, err)
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.amount); err != nil {
			return fmt.Errorf("failed to write row %d: %w", n, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSampleCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{sampleLabelHeader, sampleAmountHeader}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range sampleRows {
		if err := w.Write([]string{row.label, fmt.Sprintf("%d", row.amount)}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
