package curve

import (
	"fmt"
	"time"
)

// The query layer projects a RateTable into the shapes the visualization
// modes need. Every operation is a read-only projection: the table argument
// is never mutated and all returned structures are independent copies.
//
// Range filtering is inclusive of both boundary dates when present on the
// table's axis; boundary dates not present are simply excluded. There is no
// interpolation.

// SnapshotsInRange returns one CurveSnapshot per table date d with
// start <= d <= end, ascending, columns restricted to the requested
// maturities in canonical order. Returns ErrEmptyRange when no dates
// survive the filter, so an animation caller gets a clear signal instead of
// a silently empty reel.
func SnapshotsInRange(t *RateTable, start, end time.Time, maturities []Maturity) ([]CurveSnapshot, error) {
	rows, cols, err := filterTable(t, start, end, maturities)
	if err != nil {
		return nil, err
	}

	snapshots := make([]CurveSnapshot, len(rows))
	for si, i := range rows {
		points := make([]CurvePoint, len(cols))
		for pi, j := range cols {
			m := t.maturities[j]
			points[pi] = CurvePoint{Maturity: m, Years: m.Years(), Yield: t.yields[i][j]}
		}
		snapshots[si] = CurveSnapshot{Date: t.dates[i], Points: points}
	}
	return snapshots, nil
}

// BuildSurfaceMesh lays out the three parallel grids a 3D surface renderer
// consumes. The date and tenor arrays are broadcast to the yield grid's
// shape so that cell (i, j) of all three arrays refers to the same
// (date, maturity) pair; a renderer fed misaligned grids mis-renders
// silently, so the alignment is the whole point of this projection.
func BuildSurfaceMesh(t *RateTable, start, end time.Time, maturities []Maturity) (*SurfaceMesh, error) {
	rows, cols, err := filterTable(t, start, end, maturities)
	if err != nil {
		return nil, err
	}

	mesh := &SurfaceMesh{
		Maturities: make([]Maturity, len(cols)),
		Dates:      make([][]string, len(rows)),
		Years:      make([][]float64, len(rows)),
		Yields:     make([][]float64, len(rows)),
	}
	for ci, j := range cols {
		mesh.Maturities[ci] = t.maturities[j]
	}
	for ri, i := range rows {
		date := t.dates[i].Format("2006-01-02")
		dateRow := make([]string, len(cols))
		yearRow := make([]float64, len(cols))
		yieldRow := make([]float64, len(cols))
		for ci, j := range cols {
			dateRow[ci] = date
			yearRow[ci] = t.maturities[j].Years()
			yieldRow[ci] = t.yields[i][j]
		}
		mesh.Dates[ri] = dateRow
		mesh.Years[ri] = yearRow
		mesh.Yields[ri] = yieldRow
	}
	return mesh, nil
}

// BuildHeatmapMatrix returns the dense yield grid for the filtered window
// plus its row labels (dates) and column labels (maturities) in matching
// order.
func BuildHeatmapMatrix(t *RateTable, start, end time.Time, maturities []Maturity) (*HeatmapMatrix, error) {
	rows, cols, err := filterTable(t, start, end, maturities)
	if err != nil {
		return nil, err
	}

	hm := &HeatmapMatrix{
		Dates:      make([]time.Time, len(rows)),
		Maturities: make([]Maturity, len(cols)),
		Yields:     make([][]float64, len(rows)),
	}
	for ci, j := range cols {
		hm.Maturities[ci] = t.maturities[j]
	}
	for ri, i := range rows {
		hm.Dates[ri] = t.dates[i]
		row := make([]float64, len(cols))
		for ci, j := range cols {
			row[ci] = t.yields[i][j]
		}
		hm.Yields[ri] = row
	}
	return hm, nil
}

// ComputeSpread returns longYield - shortYield for one date. A negative
// spread flags an inverted curve. Returns ErrMissingMaturity when either
// tenor is absent from the table's axis and ErrMissingDate when the date is
// not on the date axis.
func ComputeSpread(t *RateTable, date time.Time, short, long Maturity) (float64, error) {
	shortYield, err := t.Yield(date, short)
	if err != nil {
		return 0, err
	}
	longYield, err := t.Yield(date, long)
	if err != nil {
		return 0, err
	}
	return longYield - shortYield, nil
}

// filterTable resolves the shared filtering step: row indices for dates in
// [start, end] and column indices for the requested maturities, both in
// table order. Requested maturities must be canonical (ErrInvalidMaturity)
// and present on the table's axis (ErrMissingMaturity); an empty request
// means every table column.
func filterTable(t *RateTable, start, end time.Time, maturities []Maturity) (rows, cols []int, err error) {
	start = normalizeDate(start)
	end = normalizeDate(end)
	if start.After(end) {
		return nil, nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	requested, err := NormalizeMaturities(maturities)
	if err != nil {
		return nil, nil, err
	}
	if len(maturities) == 0 {
		requested = t.Maturities()
	}
	for _, m := range requested {
		j, ok := t.matIndex[m]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrMissingMaturity, m)
		}
		cols = append(cols, j)
	}

	for i, d := range t.dates {
		if !d.Before(start) && !d.After(end) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		first, last := t.Span()
		return nil, nil, fmt.Errorf("%w: requested %s..%s, table spans %s..%s", ErrEmptyRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"),
			first.Format("2006-01-02"), last.Format("2006-01-02"))
	}
	return rows, cols, nil
}
