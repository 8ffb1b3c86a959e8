package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"curvepulse/internal/curve"
	apperrors "curvepulse/internal/errors"
)

// FRED marks missing observations with a bare dot.
const missingMarker = "."

const dateLayout = "2006-01-02"

// Observation is a single dated value from a series export. Missing values
// are retained so forward-fill can bridge them later.
type Observation struct {
	Date    time.Time
	Value   float64
	Missing bool
}

// ParseSeriesCSV reads a single-series export with a DATE,VALUE header (the
// layout FRED produces for one series). Rows with an empty or "." value
// column come back with Missing set.
func ParseSeriesCSV(r io.Reader) ([]Observation, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("empty CSV input", nil)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, apperrors.NewParsingError("expected DATE,VALUE header", nil)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "DATE") {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("unexpected first column %q, want DATE", header[0]), nil)
	}

	observations := make([]Observation, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		obs, err := parseObservation(record[0], record[1])
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d", i+2), err)
		}
		observations = append(observations, obs)
	}
	if len(observations) == 0 {
		return nil, apperrors.NewParsingError("no observations in input", nil)
	}

	sort.Slice(observations, func(a, b int) bool {
		return observations[a].Date.Before(observations[b].Date)
	})
	return observations, nil
}

// ParseWideCSV reads a sheet with a DATE column followed by one column per
// maturity. Column headers must parse as tenor codes ("2yr", "10 yr", ...).
func ParseWideCSV(r io.Reader) (map[curve.Maturity][]Observation, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, apperrors.NewParsingError("wide CSV needs a header and at least one row", nil)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, apperrors.NewParsingError("wide CSV needs at least one maturity column", nil)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "DATE") {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("unexpected first column %q, want DATE", header[0]), nil)
	}

	maturities := make([]curve.Maturity, 0, len(header)-1)
	for _, col := range header[1:] {
		m, err := curve.ParseMaturity(col)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("header column %q", col), err)
		}
		maturities = append(maturities, m)
	}

	series := make(map[curve.Maturity][]Observation, len(maturities))
	for i, record := range records[1:] {
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		date, err := parseDate(record[0])
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d", i+2), err)
		}
		for j, m := range maturities {
			raw := ""
			if j+1 < len(record) {
				raw = record[j+1]
			}
			obs, err := parseObservation(record[0], raw)
			if err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("row %d column %s", i+2, m), err)
			}
			obs.Date = date
			series[m] = append(series[m], obs)
		}
	}
	if len(series) == 0 {
		return nil, apperrors.NewParsingError("no observations in input", nil)
	}
	return series, nil
}

// BuildRateTable assembles per-maturity observations into a monthly rate
// table. Missing values are forward-filled from the previous observation of
// the same series, rows before every series has produced a value are
// dropped, and each month collapses to its last observation.
func BuildRateTable(series map[curve.Maturity][]Observation) (*curve.RateTable, error) {
	if len(series) == 0 {
		return nil, apperrors.NewParsingError("no series to assemble", nil)
	}

	maturities := make([]curve.Maturity, 0, len(series))
	for m := range series {
		maturities = append(maturities, m)
	}
	normalized, err := curve.NormalizeMaturities(maturities)
	if err != nil {
		return nil, err
	}
	maturities = normalized

	// Union of all observation dates across series.
	dateSet := make(map[time.Time]struct{})
	byDate := make(map[curve.Maturity]map[time.Time]Observation, len(series))
	for m, observations := range series {
		index := make(map[time.Time]Observation, len(observations))
		for _, obs := range observations {
			d := midnightUTC(obs.Date)
			index[d] = obs
			dateSet[d] = struct{}{}
		}
		byDate[m] = index
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	// Forward-fill along the date axis.
	filled := make([][]float64, 0, len(dates))
	filledDates := make([]time.Time, 0, len(dates))
	last := make(map[curve.Maturity]float64, len(maturities))
	for _, d := range dates {
		row := make([]float64, len(maturities))
		complete := true
		for j, m := range maturities {
			if obs, ok := byDate[m][d]; ok && !obs.Missing {
				last[m] = obs.Value
			}
			v, ok := last[m]
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		// Leading rows where some series has no prior value yet are dropped.
		if !complete {
			continue
		}
		filled = append(filled, row)
		filledDates = append(filledDates, d)
	}
	if len(filled) == 0 {
		return nil, apperrors.NewParsingError("no complete rows after forward-fill", nil)
	}

	// Resample to the last observation of each month. Rows arrive sorted, so
	// a later row in the same month replaces the earlier one.
	monthIndex := make(map[time.Time]int)
	months := make([]time.Time, 0, len(filledDates))
	rows := make([][]float64, 0, len(filledDates))
	for i, d := range filledDates {
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		if at, ok := monthIndex[month]; ok {
			rows[at] = filled[i]
			continue
		}
		monthIndex[month] = len(rows)
		months = append(months, month)
		rows = append(rows, filled[i])
	}

	return curve.NewRateTable(months, maturities, rows)
}

// ParseTableCSV reads a wide sheet and assembles it in one step.
func ParseTableCSV(r io.Reader) (*curve.RateTable, error) {
	series, err := ParseWideCSV(r)
	if err != nil {
		return nil, err
	}
	return BuildRateTable(series)
}

// LoadTableFile reads a wide CSV from disk.
func LoadTableFile(path string) (*curve.RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return ParseTableCSV(f)
}

func readRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		// Strip a UTF-8 BOM left by spreadsheet exports.
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func parseObservation(dateField, valueField string) (Observation, error) {
	date, err := parseDate(dateField)
	if err != nil {
		return Observation{}, err
	}
	raw := strings.TrimSpace(valueField)
	if raw == "" || raw == missingMarker {
		return Observation{Date: date, Missing: true}, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Observation{}, fmt.Errorf("invalid value %q: %w", raw, err)
	}
	return Observation{Date: date, Value: value}, nil
}

func parseDate(field string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(field))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", field, err)
	}
	return midnightUTC(d), nil
}

func midnightUTC(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
