package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"curvepulse/internal/curve"
	apierrors "curvepulse/internal/errors"
	"curvepulse/internal/services"
)

// mockCurveService records the request it received and returns canned data
type mockCurveService struct {
	snapshots []curve.CurveSnapshot
	surface   *curve.SurfaceMesh
	heatmap   *curve.HeatmapMatrix
	spread    *services.SpreadSeries
	table     *curve.RateTable
	err       error

	gotReq    services.CurveRequest
	gotSpread services.SpreadRequest
}

func (m *mockCurveService) Snapshots(ctx context.Context, req services.CurveRequest) ([]curve.CurveSnapshot, error) {
	m.gotReq = req
	return m.snapshots, m.err
}

func (m *mockCurveService) Surface(ctx context.Context, req services.CurveRequest) (*curve.SurfaceMesh, error) {
	m.gotReq = req
	return m.surface, m.err
}

func (m *mockCurveService) Heatmap(ctx context.Context, req services.CurveRequest) (*curve.HeatmapMatrix, error) {
	m.gotReq = req
	return m.heatmap, m.err
}

func (m *mockCurveService) Spread(ctx context.Context, req services.SpreadRequest) (*services.SpreadSeries, error) {
	m.gotSpread = req
	return m.spread, m.err
}

func (m *mockCurveService) Table(ctx context.Context, req services.CurveRequest) (*curve.RateTable, error) {
	m.gotReq = req
	return m.table, m.err
}

func (m *mockCurveService) Maturities(ctx context.Context) []services.MaturityInfo {
	return []services.MaturityInfo{
		{Value: curve.Maturity2Yr, Label: "2 Year", Years: 2, Series: "DGS2"},
		{Value: curve.Maturity10Yr, Label: "10 Year", Years: 10, Series: "DGS10"},
	}
}

func (m *mockCurveService) CacheStats() curve.CacheStats { return curve.CacheStats{} }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newCurveRouter(service CurveReader) chi.Router {
	logger := testLogger()
	handler := NewCurveHandler(service, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/curve", handler.Routes())
	return r
}

func handlerTable(t *testing.T) *curve.RateTable {
	t.Helper()
	table, err := curve.NewRateTable(
		[]time.Time{
			time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC),
		},
		[]curve.Maturity{curve.Maturity2Yr, curve.Maturity10Yr},
		[][]float64{{1.5, 2.25}, {1.6, 1.4}},
	)
	require.NoError(t, err)
	return table
}

func TestGetSnapshots_ParsesQueryParams(t *testing.T) {
	service := &mockCurveService{
		snapshots: []curve.CurveSnapshot{{
			Date:   time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
			Points: []curve.CurvePoint{{Maturity: curve.Maturity2Yr, Years: 2, Yield: 1.5}},
		}},
	}
	router := newCurveRouter(service)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/curve/snapshots?start=2020-01-01&end=2020-06-01&maturities=2yr,10yr&seed=7", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), service.gotReq.Start)
	assert.Equal(t, time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC), service.gotReq.End)
	assert.Equal(t, []curve.Maturity{curve.Maturity2Yr, curve.Maturity10Yr}, service.gotReq.Maturities)
	assert.Equal(t, int64(7), service.gotReq.Seed)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(1), body["count"])
}

func TestGetSnapshots_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "bad start date", query: "start=01/02/2020"},
		{name: "bad end date", query: "end=yesterday"},
		{name: "unknown maturity", query: "maturities=4yr"},
		{name: "bad seed", query: "seed=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCurveRouter(&mockCurveService{})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/curve/snapshots?"+tt.query, nil)
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
		})
	}
}

func TestGetSnapshots_DomainErrorsMapToProblems(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "empty range", err: curve.ErrEmptyRange, wantStatus: http.StatusNotFound},
		{name: "invalid range", err: curve.ErrInvalidRange, wantStatus: http.StatusBadRequest},
		{name: "validation failure", err: fmt.Errorf("%w: end before start", services.ErrInvalidInput), wantStatus: http.StatusBadRequest},
		{name: "unexpected", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCurveRouter(&mockCurveService{err: tt.err})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/curve/snapshots", nil)
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetSurface(t *testing.T) {
	service := &mockCurveService{surface: &curve.SurfaceMesh{}}
	router := newCurveRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/curve/surface", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
}

func TestGetSpread(t *testing.T) {
	service := &mockCurveService{
		spread: &services.SpreadSeries{
			Short: curve.Maturity2Yr,
			Long:  curve.Maturity10Yr,
			Points: []services.SpreadPoint{
				{Date: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), Spread: 0.75},
			},
		},
	}
	router := newCurveRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/curve/spread?short=2yr&long=10yr", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, curve.Maturity2Yr, service.gotSpread.Short)
	assert.Equal(t, curve.Maturity10Yr, service.gotSpread.Long)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["count"])
}

func TestGetSpread_MissingTenors(t *testing.T) {
	router := newCurveRouter(&mockCurveService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/curve/spread?short=2yr", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMaturities(t *testing.T) {
	router := newCurveRouter(&mockCurveService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/curve/maturities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["count"])
}

func TestExportCSV(t *testing.T) {
	service := &mockCurveService{table: handlerTable(t)}
	router := newCurveRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/curve/export/csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "yield-curve_2020-01-01_2020-02-01.csv")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, rec.Body.String(), "Date,2yr,10yr")
}

func TestExportXLSX(t *testing.T) {
	service := &mockCurveService{table: handlerTable(t)}
	router := newCurveRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/curve/export/xlsx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Yields")
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestExport_ServiceError(t *testing.T) {
	router := newCurveRouter(&mockCurveService{err: curve.ErrEmptyRange})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/curve/export/csv", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}
