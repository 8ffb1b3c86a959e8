package curve

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_MonthlyDateAxis(t *testing.T) {
	gen := NewSeriesGenerator(slog.Default())

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantDates []time.Time
	}{
		{
			name:      "three month starts inclusive",
			start:     date(1990, time.January, 1),
			end:       date(1990, time.March, 1),
			wantDates: []time.Time{date(1990, time.January, 1), date(1990, time.February, 1), date(1990, time.March, 1)},
		},
		{
			name:      "mid-month start skips to next anchor",
			start:     date(1990, time.January, 15),
			end:       date(1990, time.March, 31),
			wantDates: []time.Time{date(1990, time.February, 1), date(1990, time.March, 1)},
		},
		{
			name:      "single month",
			start:     date(2020, time.June, 1),
			end:       date(2020, time.June, 30),
			wantDates: []time.Time{date(2020, time.June, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGeneratorConfig(tt.start, tt.end)
			table, err := gen.Generate(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDates, table.Dates())
		})
	}
}

func TestGenerate_InvalidRange(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(2020, time.May, 1), date(2019, time.May, 1))

	_, err := gen.Generate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestGenerate_InvalidMaturity(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(2020, time.January, 1), date(2020, time.December, 1))
	cfg.Maturities = []Maturity{Maturity2Yr, Maturity("4yr")}

	_, err := gen.Generate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMaturity)
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(2000, time.January, 1), date(2010, time.December, 1))
	cfg.Seed = 1234
	cfg.Maturities = []Maturity{Maturity3Mo, Maturity2Yr, Maturity10Yr, Maturity30Yr}

	first, err := gen.Generate(cfg)
	require.NoError(t, err)
	second, err := gen.Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Observations(), second.Observations())
}

func TestGenerate_SeedChangesOutput(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(2000, time.January, 1), date(2005, time.December, 1))

	a, err := gen.Generate(cfg)
	require.NoError(t, err)

	cfg.Seed = cfg.Seed + 1
	b, err := gen.Generate(cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.Observations(), b.Observations())
}

func TestGenerate_CanonicalMaturityOrder(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(2015, time.January, 1), date(2015, time.June, 1))
	// Deliberately scrambled and duplicated request.
	cfg.Maturities = []Maturity{Maturity30Yr, Maturity1Mo, Maturity10Yr, Maturity1Mo, Maturity2Yr}

	table, err := gen.Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, []Maturity{Maturity1Mo, Maturity2Yr, Maturity10Yr, Maturity30Yr}, table.Maturities())
}

func TestGenerate_ClampedToPlausibleBand(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(1990, time.January, 1), date(2024, time.December, 1))
	// Crank the noise far past the band so clamping must engage.
	cfg.NoiseStdDev = 25.0
	cfg.NoiseClamp = 100.0

	table, err := gen.Generate(cfg)
	require.NoError(t, err)

	clampedLow, clampedHigh := false, false
	for _, obs := range table.Observations() {
		assert.GreaterOrEqual(t, obs.Yield, DefaultMinYield)
		assert.LessOrEqual(t, obs.Yield, DefaultMaxYield)
		if obs.Yield == DefaultMinYield {
			clampedLow = true
		}
		if obs.Yield == DefaultMaxYield {
			clampedHigh = true
		}
	}
	assert.True(t, clampedLow, "expected at least one yield clamped to the lower bound")
	assert.True(t, clampedHigh, "expected at least one yield clamped to the upper bound")
}

func TestGenerate_InversionWindow(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(2006, time.January, 1), date(2008, time.December, 31))
	cfg.Inversions = []InversionWindow{
		{Start: date(2006, time.June, 1), End: date(2007, time.June, 30)},
	}

	table, err := gen.Generate(cfg)
	require.NoError(t, err)

	// Every month inside the window must show short rates above long rates.
	for _, d := range []time.Time{
		date(2006, time.June, 1),
		date(2006, time.December, 1),
		date(2007, time.June, 1),
	} {
		spread, err := ComputeSpread(table, d, Maturity2Yr, Maturity10Yr)
		require.NoError(t, err)
		assert.Negative(t, spread, "expected inverted 2s10s spread at %s", d.Format("2006-01-02"))
	}

	// Outside the window the normal term premium restores a positive slope
	// on average (individual months still carry noise).
	var sum float64
	for m := time.January; m <= time.December; m++ {
		spread, err := ComputeSpread(table, date(2008, m, 1), Maturity2Yr, Maturity10Yr)
		require.NoError(t, err)
		sum += spread
	}
	assert.Positive(t, sum/12)
}

func TestGenerate_TermPremiumMonotoneWithoutNoise(t *testing.T) {
	gen := NewSeriesGenerator(nil)
	cfg := DefaultGeneratorConfig(date(2010, time.January, 1), date(2012, time.December, 1))
	// Silence the noise so the structural slope is observable directly.
	cfg.NoiseStdDev = 1e-12
	cfg.NoiseClamp = 1e-9

	table, err := gen.Generate(cfg)
	require.NoError(t, err)

	for i := 0; i < table.NumDates(); i++ {
		for j := 1; j < table.NumMaturities(); j++ {
			assert.Greater(t, table.YieldAt(i, j), table.YieldAt(i, j-1),
				"yield not increasing with tenor at row %d col %d", i, j)
		}
	}
}

func TestGeneratorConfig_CacheKey(t *testing.T) {
	base := DefaultGeneratorConfig(date(2000, time.January, 1), date(2001, time.January, 1))

	reordered := base
	reordered.Maturities = []Maturity{Maturity10Yr, Maturity2Yr}
	canonical := base
	canonical.Maturities = []Maturity{Maturity2Yr, Maturity10Yr}
	assert.Equal(t, canonical.CacheKey(), reordered.CacheKey(),
		"maturity request order must not change identity")

	otherSeed := base
	otherSeed.Seed = 7
	assert.NotEqual(t, base.CacheKey(), otherSeed.CacheKey())

	withWindow := base
	withWindow.Inversions = []InversionWindow{{Start: date(2000, time.March, 1), End: date(2000, time.June, 1)}}
	assert.NotEqual(t, base.CacheKey(), withWindow.CacheKey())
}
