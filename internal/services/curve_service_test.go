package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"curvepulse/internal/config"
	"curvepulse/internal/curve"
)

func newTestCurveService() *CurveService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cache := curve.NewTableCache(curve.NewSeriesGenerator(logger), 0, logger)
	cfg := config.Default().Curve
	return NewCurveService(cache, cfg, noop.NewTracerProvider().Tracer("test"), logger)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCurveService_Snapshots(t *testing.T) {
	svc := newTestCurveService()

	snapshots, err := svc.Snapshots(context.Background(), CurveRequest{
		Start:      day(1990, time.January, 1),
		End:        day(1990, time.March, 1),
		Maturities: []curve.Maturity{curve.Maturity1Yr, curve.Maturity10Yr},
		Seed:       42,
	})
	require.NoError(t, err)
	require.Len(t, snapshots, 3)

	for _, snap := range snapshots {
		require.Len(t, snap.Points, 2)
		assert.Equal(t, curve.Maturity1Yr, snap.Points[0].Maturity)
		assert.Equal(t, curve.Maturity10Yr, snap.Points[1].Maturity)
	}
}

func TestCurveService_AppliesDefaults(t *testing.T) {
	svc := newTestCurveService()

	req := CurveRequest{End: day(1990, time.June, 1)}
	svc.ApplyDefaults(&req)

	assert.Equal(t, day(1990, time.January, 1), req.Start)
	assert.Equal(t, int64(42), req.Seed)
}

func TestCurveService_ValidationFailure(t *testing.T) {
	svc := newTestCurveService()

	// End before Start survives defaulting and must fail validation.
	_, err := svc.Snapshots(context.Background(), CurveRequest{
		Start: day(2000, time.January, 1),
		End:   day(1999, time.January, 1),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCurveService_SnapshotsDeterministic(t *testing.T) {
	svc := newTestCurveService()
	req := CurveRequest{
		Start: day(2000, time.January, 1),
		End:   day(2001, time.January, 1),
		Seed:  7,
	}

	first, err := svc.Snapshots(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Snapshots(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := svc.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestCurveService_Surface(t *testing.T) {
	svc := newTestCurveService()

	mesh, err := svc.Surface(context.Background(), CurveRequest{
		Start: day(1995, time.January, 1),
		End:   day(1995, time.June, 1),
	})
	require.NoError(t, err)

	require.Len(t, mesh.Yields, 6)
	require.Len(t, mesh.Maturities, 11)
	for i := range mesh.Yields {
		assert.Len(t, mesh.Yields[i], 11)
		assert.Len(t, mesh.Dates[i], 11)
		assert.Len(t, mesh.Years[i], 11)
	}
}

func TestCurveService_Heatmap(t *testing.T) {
	svc := newTestCurveService()

	hm, err := svc.Heatmap(context.Background(), CurveRequest{
		Start:      day(1990, time.January, 1),
		End:        day(1990, time.March, 1),
		Maturities: []curve.Maturity{curve.Maturity1Yr, curve.Maturity10Yr},
	})
	require.NoError(t, err)

	require.Len(t, hm.Dates, 3)
	assert.Equal(t, []curve.Maturity{curve.Maturity1Yr, curve.Maturity10Yr}, hm.Maturities)
	for _, row := range hm.Yields {
		assert.Len(t, row, 2)
	}
}

func TestCurveService_Spread(t *testing.T) {
	svc := newTestCurveService()

	series, err := svc.Spread(context.Background(), SpreadRequest{
		CurveRequest: CurveRequest{
			Start: day(2006, time.January, 1),
			End:   day(2008, time.December, 1),
			Inversions: []curve.InversionWindow{
				{Start: day(2006, time.June, 1), End: day(2007, time.June, 1)},
			},
		},
		Short: curve.Maturity2Yr,
		Long:  curve.Maturity10Yr,
	})
	require.NoError(t, err)
	require.Len(t, series.Points, 36)

	byDate := make(map[string]SpreadPoint, len(series.Points))
	for _, p := range series.Points {
		byDate[p.Date.Format("2006-01-02")] = p
	}

	// Inside the configured window the curve is inverted.
	for _, d := range []string{"2006-06-01", "2006-12-01", "2007-06-01"} {
		p, ok := byDate[d]
		require.True(t, ok, "missing point %s", d)
		assert.Negative(t, p.Spread, "date %s", d)
		assert.True(t, p.Inverted, "date %s", d)
	}
}

func TestCurveService_SpreadRejectsEqualTenors(t *testing.T) {
	svc := newTestCurveService()

	_, err := svc.Spread(context.Background(), SpreadRequest{
		CurveRequest: CurveRequest{
			Start: day(2000, time.January, 1),
			End:   day(2000, time.June, 1),
		},
		Short: curve.Maturity10Yr,
		Long:  curve.Maturity10Yr,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCurveService_Maturities(t *testing.T) {
	svc := newTestCurveService()

	infos := svc.Maturities(context.Background())
	require.Len(t, infos, 11)
	assert.Equal(t, curve.Maturity1Mo, infos[0].Value)
	assert.Equal(t, "DGS1MO", infos[0].Series)
	assert.Equal(t, curve.Maturity30Yr, infos[10].Value)
	assert.Equal(t, "30 Year", infos[10].Label)
}

func TestCurveService_Table(t *testing.T) {
	svc := newTestCurveService()

	table, err := svc.Table(context.Background(), CurveRequest{
		Start: day(2010, time.January, 1),
		End:   day(2010, time.December, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, table.NumDates())
	assert.Len(t, table.Maturities(), 11)
}
