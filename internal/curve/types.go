package curve

import (
	"fmt"
	"strings"
	"time"
)

// Maturity identifies a tenor on the Treasury curve.
type Maturity string

const (
	Maturity1Mo  Maturity = "1mo"
	Maturity3Mo  Maturity = "3mo"
	Maturity6Mo  Maturity = "6mo"
	Maturity1Yr  Maturity = "1yr"
	Maturity2Yr  Maturity = "2yr"
	Maturity3Yr  Maturity = "3yr"
	Maturity5Yr  Maturity = "5yr"
	Maturity7Yr  Maturity = "7yr"
	Maturity10Yr Maturity = "10yr"
	Maturity20Yr Maturity = "20yr"
	Maturity30Yr Maturity = "30yr"
)

// maturityInfo carries the per-tenor metadata. Years and FRED series IDs
// follow the DGS* constant-maturity series.
type maturityInfo struct {
	years  float64
	series string
	label  string
}

// canonicalOrder is the maturity axis order for every downstream
// visualization. Callers may request subsets in any order; results always
// come back in this order.
var canonicalOrder = []Maturity{
	Maturity1Mo, Maturity3Mo, Maturity6Mo,
	Maturity1Yr, Maturity2Yr, Maturity3Yr,
	Maturity5Yr, Maturity7Yr, Maturity10Yr,
	Maturity20Yr, Maturity30Yr,
}

var maturityTable = map[Maturity]maturityInfo{
	Maturity1Mo:  {0.083, "DGS1MO", "1 Month"},
	Maturity3Mo:  {0.25, "DGS3MO", "3 Month"},
	Maturity6Mo:  {0.5, "DGS6MO", "6 Month"},
	Maturity1Yr:  {1, "DGS1", "1 Year"},
	Maturity2Yr:  {2, "DGS2", "2 Year"},
	Maturity3Yr:  {3, "DGS3", "3 Year"},
	Maturity5Yr:  {5, "DGS5", "5 Year"},
	Maturity7Yr:  {7, "DGS7", "7 Year"},
	Maturity10Yr: {10, "DGS10", "10 Year"},
	Maturity20Yr: {20, "DGS20", "20 Year"},
	Maturity30Yr: {30, "DGS30", "30 Year"},
}

// AllMaturities returns the canonical maturity axis, shortest tenor first.
func AllMaturities() []Maturity {
	out := make([]Maturity, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// IsValid reports whether the maturity is in the canonical set.
func (m Maturity) IsValid() bool {
	_, ok := maturityTable[m]
	return ok
}

// Years returns the tenor length in years (1mo = 0.083).
func (m Maturity) Years() float64 {
	return maturityTable[m].years
}

// FREDSeries returns the FRED constant-maturity series ID for the tenor.
func (m Maturity) FREDSeries() string {
	return maturityTable[m].series
}

// Label returns the human-readable tenor label, e.g. "10 Year".
func (m Maturity) Label() string {
	return maturityTable[m].label
}

// String returns the short tenor identifier, e.g. "10yr".
func (m Maturity) String() string {
	return string(m)
}

// ParseMaturity converts a short tenor identifier to a Maturity.
// Matching is case-insensitive. Returns ErrInvalidMaturity for anything
// outside the canonical set.
func ParseMaturity(s string) (Maturity, error) {
	m := Maturity(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMaturity, s)
	}
	return m, nil
}

// NormalizeMaturities validates a requested maturity subset and returns it
// deduplicated in canonical order, regardless of the order the caller listed
// maturities in. An empty request means the full canonical set.
func NormalizeMaturities(requested []Maturity) ([]Maturity, error) {
	if len(requested) == 0 {
		return AllMaturities(), nil
	}
	want := make(map[Maturity]bool, len(requested))
	for _, m := range requested {
		if !m.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMaturity, m)
		}
		want[m] = true
	}
	out := make([]Maturity, 0, len(want))
	for _, m := range canonicalOrder {
		if want[m] {
			out = append(out, m)
		}
	}
	return out, nil
}

// RateObservation is a single (date, maturity, yield) cell of a RateTable.
type RateObservation struct {
	Date     time.Time `json:"date"`
	Maturity Maturity  `json:"maturity"`
	Yield    float64   `json:"yield"`
}

// RateTable is a dense grid of yields indexed by (date, maturity). The date
// axis is ascending with one row per sampling period; the maturity axis is a
// canonical-order subset of the fixed tenor set. Tables are immutable after
// construction: accessors hand out defensive copies so callers cannot
// corrupt the grid through a retained slice.
type RateTable struct {
	dates      []time.Time
	maturities []Maturity
	yields     [][]float64 // yields[i][j] = yield at dates[i], maturities[j]

	dateIndex map[int64]int // unix day key -> row
	matIndex  map[Maturity]int
}

// NewRateTable builds a table from an ascending date axis, a canonical-order
// maturity axis, and a rectangular yield grid. The grid must be dense:
// len(yields) == len(dates) and every row len == len(maturities).
func NewRateTable(dates []time.Time, maturities []Maturity, yields [][]float64) (*RateTable, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("rate table: empty date axis")
	}
	if len(maturities) == 0 {
		return nil, fmt.Errorf("rate table: empty maturity axis")
	}
	if len(yields) != len(dates) {
		return nil, fmt.Errorf("rate table: %d yield rows for %d dates", len(yields), len(dates))
	}

	t := &RateTable{
		dates:      make([]time.Time, len(dates)),
		maturities: make([]Maturity, len(maturities)),
		yields:     make([][]float64, len(dates)),
		dateIndex:  make(map[int64]int, len(dates)),
		matIndex:   make(map[Maturity]int, len(maturities)),
	}

	lastCanonical := -1
	for j, m := range maturities {
		if !m.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMaturity, m)
		}
		pos := canonicalIndex(m)
		if pos <= lastCanonical {
			return nil, fmt.Errorf("rate table: maturity axis not in canonical order at %q", m)
		}
		lastCanonical = pos
		t.maturities[j] = m
		t.matIndex[m] = j
	}

	for i, d := range dates {
		d = normalizeDate(d)
		if i > 0 && !d.After(t.dates[i-1]) {
			return nil, fmt.Errorf("rate table: date axis not strictly ascending at %s", d.Format("2006-01-02"))
		}
		if len(yields[i]) != len(maturities) {
			return nil, fmt.Errorf("rate table: row %d has %d yields, want %d", i, len(yields[i]), len(maturities))
		}
		t.dates[i] = d
		t.dateIndex[dayKey(d)] = i
		row := make([]float64, len(maturities))
		copy(row, yields[i])
		t.yields[i] = row
	}

	return t, nil
}

// Dates returns a copy of the table's date axis, ascending.
func (t *RateTable) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// Maturities returns a copy of the table's maturity axis, canonical order.
func (t *RateTable) Maturities() []Maturity {
	out := make([]Maturity, len(t.maturities))
	copy(out, t.maturities)
	return out
}

// NumDates returns the number of rows on the date axis.
func (t *RateTable) NumDates() int { return len(t.dates) }

// NumMaturities returns the number of columns on the maturity axis.
func (t *RateTable) NumMaturities() int { return len(t.maturities) }

// Span returns the first and last date of the table's axis.
func (t *RateTable) Span() (start, end time.Time) {
	return t.dates[0], t.dates[len(t.dates)-1]
}

// DateAt returns the date at row i.
func (t *RateTable) DateAt(i int) time.Time { return t.dates[i] }

// YieldAt returns the yield at row i, column j.
func (t *RateTable) YieldAt(i, j int) float64 { return t.yields[i][j] }

// HasMaturity reports whether the tenor is on the table's maturity axis.
func (t *RateTable) HasMaturity(m Maturity) bool {
	_, ok := t.matIndex[m]
	return ok
}

// HasDate reports whether the date is on the table's date axis.
func (t *RateTable) HasDate(d time.Time) bool {
	_, ok := t.dateIndex[dayKey(normalizeDate(d))]
	return ok
}

// Yield looks up a single cell. Returns ErrMissingDate or ErrMissingMaturity
// when the requested key is not on the corresponding axis.
func (t *RateTable) Yield(d time.Time, m Maturity) (float64, error) {
	j, ok := t.matIndex[m]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingMaturity, m)
	}
	i, ok := t.dateIndex[dayKey(normalizeDate(d))]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingDate, d.Format("2006-01-02"))
	}
	return t.yields[i][j], nil
}

// Observations flattens the grid into (date, maturity, yield) triples in
// row-major order. The result is an independent copy.
func (t *RateTable) Observations() []RateObservation {
	out := make([]RateObservation, 0, len(t.dates)*len(t.maturities))
	for i, d := range t.dates {
		for j, m := range t.maturities {
			out = append(out, RateObservation{Date: d, Maturity: m, Yield: t.yields[i][j]})
		}
	}
	return out
}

// CurvePoint is one (maturity, yield) pair of a curve snapshot.
type CurvePoint struct {
	Maturity Maturity `json:"maturity"`
	Years    float64  `json:"years"`
	Yield    float64  `json:"yield"`
}

// CurveSnapshot is a single date's yield curve in maturity-axis order: the
// x/y series for one animation frame.
type CurveSnapshot struct {
	Date   time.Time    `json:"date"`
	Points []CurvePoint `json:"points"`
}

// SurfaceMesh holds the three parallel 2D arrays a 3D surface renderer
// consumes. All three grids have identical shape (time index x maturity
// index); cell (i, j) of each refers to the same (date, maturity) pair.
type SurfaceMesh struct {
	Maturities []Maturity  `json:"maturities"`
	Dates      [][]string  `json:"dates"`          // date broadcast across maturities
	Years      [][]float64 `json:"maturity_years"` // tenor years broadcast across dates
	Yields     [][]float64 `json:"yields"`
}

// HeatmapMatrix is the dense yield grid plus its row and column labels in
// matching order. Rows are dates, columns maturities.
type HeatmapMatrix struct {
	Dates      []time.Time `json:"dates"`
	Maturities []Maturity  `json:"maturities"`
	Yields     [][]float64 `json:"yields"`
}

// canonicalIndex returns the position of m on the canonical axis, -1 if
// absent.
func canonicalIndex(m Maturity) int {
	for i, c := range canonicalOrder {
		if c == m {
			return i
		}
	}
	return -1
}

// normalizeDate truncates a date to UTC midnight so lookups are insensitive
// to clock time and zone.
func normalizeDate(d time.Time) time.Time {
	y, m, day := d.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// dayKey collapses a normalized date to a map key.
func dayKey(d time.Time) int64 {
	return d.Unix() / 86400
}
