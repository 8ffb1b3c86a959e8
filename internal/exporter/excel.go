package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"curvepulse/internal/curve"
)

const (
	yieldsSheet  = "Yields"
	summarySheet = "Summary"
)

// WriteWorkbook renders the table as an Excel workbook with two sheets:
// Yields carries the full date-by-maturity grid, Summary carries per-maturity
// statistics followed by the 2s10s spread per date with an inversion flag
// when both tenors are present.
func WriteWorkbook(w io.Writer, table *curve.RateTable) error {
	if table == nil {
		return fmt.Errorf("nil rate table")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := buildYieldsSheet(f, table); err != nil {
		return err
	}
	if err := buildSummarySheet(f, table); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(yieldsSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildYieldsSheet(f *excelize.File, table *curve.RateTable) error {
	if _, err := f.NewSheet(yieldsSheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", yieldsSheet, err)
	}

	maturities := table.Maturities()
	header := make([]interface{}, 0, len(maturities)+1)
	header = append(header, "Date")
	for _, m := range maturities {
		header = append(header, m.Label())
	}
	if err := f.SetSheetRow(yieldsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, d := range table.Dates() {
		row := make([]interface{}, 0, len(maturities)+1)
		row = append(row, d.Format("2006-01-02"))
		for j := range maturities {
			row = append(row, table.YieldAt(i, j))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(yieldsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return nil
}

func buildSummarySheet(f *excelize.File, table *curve.RateTable) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", summarySheet, err)
	}

	statsHeader := []interface{}{"Maturity", "Min", "Max", "Mean"}
	if err := f.SetSheetRow(summarySheet, "A1", &statsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	maturities := table.Maturities()
	for j, m := range maturities {
		min, max, sum := table.YieldAt(0, j), table.YieldAt(0, j), 0.0
		for i := 0; i < table.NumDates(); i++ {
			y := table.YieldAt(i, j)
			if y < min {
				min = y
			}
			if y > max {
				max = y
			}
			sum += y
		}
		row := []interface{}{m.Label(), min, max, sum / float64(table.NumDates())}
		cell, err := excelize.CoordinatesToCellName(1, j+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write stats row %d: %w", j, err)
		}
	}

	// Spread block sits below the statistics with one blank row between.
	spreadStart := len(maturities) + 3
	spreadHeader := []interface{}{"Date", "2Y Yield", "10Y Yield", "Spread (10Y-2Y)", "Inverted"}
	cell, err := excelize.CoordinatesToCellName(1, spreadStart)
	if err != nil {
		return fmt.Errorf("failed to compute cell: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, cell, &spreadHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	hasSpread := table.HasMaturity(curve.Maturity2Yr) && table.HasMaturity(curve.Maturity10Yr)
	for i, d := range table.Dates() {
		row := []interface{}{d.Format("2006-01-02")}
		if hasSpread {
			short, err := table.Yield(d, curve.Maturity2Yr)
			if err != nil {
				return err
			}
			long, err := table.Yield(d, curve.Maturity10Yr)
			if err != nil {
				return err
			}
			spread := long - short
			row = append(row, short, long, spread, spread < 0)
		} else {
			row = append(row, "n/a", "n/a", "n/a", "n/a")
		}

		cell, err := excelize.CoordinatesToCellName(1, spreadStart+1+i)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return nil
}
