package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvepulse/internal/config"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	cfg.Curve.DefaultStart = "2020-01-01"
	cfg.Curve.DefaultEnd = "2020-06-01"

	app := &Application{
		Config: &cfg,
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	app.initializeServices()
	t.Cleanup(app.Hub.Stop)
	app.setupRouter()
	app.createServer()
	return app
}

func TestApplication_HealthEndpoint(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestApplication_CurveEndpointEndToEnd(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/curve/snapshots?start=2020-01-01&end=2020-03-01&maturities=2yr,10yr", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 3, body.Count)
}

func TestApplication_InvalidRangeProducesProblem(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/curve/snapshots?start=2021-01-01&end=2020-01-01", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestApplication_MetricsEndpoint(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "curvepulse_http_requests_total")
}

func TestApplication_UnknownRouteProducesProblem(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestApplication_RequestIDPropagated(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set("X-Request-ID", "test-request-42")
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "test-request-42", rec.Header().Get("X-Request-ID"))
}

func TestApplication_StopIsIdempotentWithoutStart(t *testing.T) {
	app := newTestApplication(t)

	require.NoError(t, app.Stop(context.Background()))
}
