package http

import (
	"context"

	"curvepulse/internal/curve"
	"curvepulse/internal/services"
)

// CurveReader is the service surface the curve handlers depend on. Handlers
// take the interface so tests can substitute a mock.
type CurveReader interface {
	Snapshots(ctx context.Context, req services.CurveRequest) ([]curve.CurveSnapshot, error)
	Surface(ctx context.Context, req services.CurveRequest) (*curve.SurfaceMesh, error)
	Heatmap(ctx context.Context, req services.CurveRequest) (*curve.HeatmapMatrix, error)
	Spread(ctx context.Context, req services.SpreadRequest) (*services.SpreadSeries, error)
	Table(ctx context.Context, req services.CurveRequest) (*curve.RateTable, error)
	Maturities(ctx context.Context) []services.MaturityInfo
	CacheStats() curve.CacheStats
}
