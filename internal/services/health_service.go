package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"curvepulse/internal/curve"
)

// ClientCounter reports the number of connected streaming clients.
// Implemented by the websocket hub.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	cache     *curve.TableCache
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version, buildTime string, cache *curve.TableCache, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		cache:     cache,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	return status
}

// DetailedHealth returns health status with runtime and subsystem details
func (hs *HealthService) DetailedHealth(ctx context.Context) HealthStatus {
	status := hs.HealthCheck(ctx)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status.Runtime = map[string]interface{}{
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"goroutines":     runtime.NumGoroutine(),
		"alloc_bytes":    memStats.Alloc,
		"uptime_seconds": time.Since(hs.startTime).Seconds(),
	}

	services := map[string]interface{}{}
	if hs.cache != nil {
		stats := hs.cache.Stats()
		services["table_cache"] = map[string]interface{}{
			"entries": stats.Entries,
			"hits":    stats.Hits,
			"misses":  stats.Misses,
		}
	}
	if hs.clients != nil {
		services["websocket"] = map[string]interface{}{
			"clients": hs.clients.ClientCount(),
		}
	}
	if hs.buildTime != "" {
		services["build"] = map[string]interface{}{
			"time": hs.buildTime,
		}
	}
	status.Services = services

	return status
}
