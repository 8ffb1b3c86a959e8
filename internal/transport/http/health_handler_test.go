package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvepulse/internal/curve"
	"curvepulse/internal/services"
)

type fixedClientCount int

func (c fixedClientCount) ClientCount() int { return int(c) }

func newHealthHandler() *HealthHandler {
	logger := testLogger()
	cache := curve.NewTableCache(curve.NewSeriesGenerator(logger), 0, logger)
	service := services.NewHealthService("1.0.0", "2026-01-01", cache, fixedClientCount(3), logger)
	return NewHealthHandler(service, logger)
}

func TestHealthCheck(t *testing.T) {
	handler := newHealthHandler()

	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Nil(t, body["services"])
}

func TestHealthCheck_Detailed(t *testing.T) {
	handler := newHealthHandler()

	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/healthz?detailed=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	require.NotNil(t, body["services"])
	require.NotNil(t, body["runtime"])
}
