package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"curvepulse/internal/curve"
)

// CSVOptions configures CSV rendering
type CSVOptions struct {
	// BOMPrefix adds a UTF-8 BOM so Excel recognizes the encoding
	BOMPrefix bool
	// Precision is the number of decimal places for yields
	Precision int
}

// DefaultCSVOptions returns the options used by the HTTP export endpoint
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{BOMPrefix: true, Precision: 4}
}

// WriteCSV renders the table as one row per date, one column per maturity.
// The header row carries the canonical tenor codes.
func WriteCSV(w io.Writer, table *curve.RateTable, opts CSVOptions) error {
	if table == nil {
		return fmt.Errorf("nil rate table")
	}
	if opts.Precision <= 0 {
		opts.Precision = 4
	}

	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	maturities := table.Maturities()
	header := make([]string, 0, len(maturities)+1)
	header = append(header, "Date")
	for _, m := range maturities {
		header = append(header, string(m))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, d := range table.Dates() {
		record := make([]string, 0, len(maturities)+1)
		record = append(record, d.Format("2006-01-02"))
		for j := range maturities {
			record = append(record, strconv.FormatFloat(table.YieldAt(i, j), 'f', opts.Precision, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
