package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvepulse/internal/curve"
)

type stubClientCounter int

func (s stubClientCounter) ClientCount() int { return int(s) }

func TestHealthService_HealthCheck(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	hs := NewHealthService("1.0.0", "", nil, nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Minute)
}

func TestHealthService_DetailedHealth(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cache := curve.NewTableCache(curve.NewSeriesGenerator(logger), 0, logger)
	hs := NewHealthService("1.0.0", "2026-08-25T00:00:00Z", cache, stubClientCounter(3), logger)

	status := hs.DetailedHealth(context.Background())
	require.NotNil(t, status.Runtime)
	assert.Contains(t, status.Runtime, "go_version")

	require.NotNil(t, status.Services)
	ws, ok := status.Services["websocket"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 3, ws["clients"])

	cacheStats, ok := status.Services["table_cache"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 0, cacheStats["entries"])
}
