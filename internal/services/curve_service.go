package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"curvepulse/internal/config"
	"curvepulse/internal/curve"
)

// CurveRequest carries the parameters shared by every curve query. Zero
// values for Start, End and Seed are filled from the configured defaults
// before validation.
type CurveRequest struct {
	Start      time.Time               `json:"start" validate:"required"`
	End        time.Time               `json:"end" validate:"required,gtefield=Start"`
	Maturities []curve.Maturity        `json:"maturities,omitempty"`
	Seed       int64                   `json:"seed"`
	Inversions []curve.InversionWindow `json:"inversions,omitempty"`
}

// SpreadRequest asks for the yield difference between two tenors across the
// request window.
type SpreadRequest struct {
	CurveRequest
	Short curve.Maturity `json:"short" validate:"required"`
	Long  curve.Maturity `json:"long" validate:"required,nefield=Short"`
}

// SpreadPoint is the spread at one observation date
type SpreadPoint struct {
	Date     time.Time `json:"date"`
	Spread   float64   `json:"spread"`
	Inverted bool      `json:"inverted"`
}

// SpreadSeries is the spread across the request window, ascending by date
type SpreadSeries struct {
	Short  curve.Maturity `json:"short"`
	Long   curve.Maturity `json:"long"`
	Points []SpreadPoint  `json:"points"`
}

// MaturityInfo describes one tenor on the canonical axis
type MaturityInfo struct {
	Value  curve.Maturity `json:"value"`
	Label  string         `json:"label"`
	Years  float64        `json:"years"`
	Series string         `json:"series"`
}

// CurveService owns the table cache and answers every curve query. It is
// safe for concurrent use.
type CurveService struct {
	cache    *curve.TableCache
	cfg      config.CurveConfig
	validate *validator.Validate
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewCurveService creates a curve service with injected dependencies.
func NewCurveService(cache *curve.TableCache, cfg config.CurveConfig, tracer trace.Tracer, logger *slog.Logger) *CurveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CurveService{
		cache:    cache,
		cfg:      cfg,
		validate: validator.New(),
		tracer:   tracer,
		logger:   logger.With(slog.String("component", "curve_service")),
	}
}

// ApplyDefaults fills unset request fields from the configured defaults.
// A zero seed selects the configured default seed; callers wanting literal
// seed zero can pass any explicit non-default range instead.
func (s *CurveService) ApplyDefaults(req *CurveRequest) {
	if req.Start.IsZero() {
		req.Start = s.cfg.DefaultStartDate()
	}
	if req.End.IsZero() {
		req.End = s.cfg.DefaultEndDate()
	}
	if req.Seed == 0 {
		req.Seed = s.cfg.DefaultSeed
	}
}

// Snapshots returns one curve per observation date in the request window.
func (s *CurveService) Snapshots(ctx context.Context, req CurveRequest) ([]curve.CurveSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "CurveService.Snapshots")
	defer span.End()

	table, err := s.table(ctx, &req)
	if err != nil {
		return nil, err
	}

	snapshots, err := curve.SnapshotsInRange(table, req.Start, req.End, req.Maturities)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("curve.snapshots", len(snapshots)))
	return snapshots, nil
}

// Surface returns the aligned 3D mesh for the request window.
func (s *CurveService) Surface(ctx context.Context, req CurveRequest) (*curve.SurfaceMesh, error) {
	ctx, span := s.tracer.Start(ctx, "CurveService.Surface")
	defer span.End()

	table, err := s.table(ctx, &req)
	if err != nil {
		return nil, err
	}
	return curve.BuildSurfaceMesh(table, req.Start, req.End, req.Maturities)
}

// Heatmap returns the labeled yield grid for the request window.
func (s *CurveService) Heatmap(ctx context.Context, req CurveRequest) (*curve.HeatmapMatrix, error) {
	ctx, span := s.tracer.Start(ctx, "CurveService.Heatmap")
	defer span.End()

	table, err := s.table(ctx, &req)
	if err != nil {
		return nil, err
	}
	return curve.BuildHeatmapMatrix(table, req.Start, req.End, req.Maturities)
}

// Spread returns the long-short yield difference at every observation date
// in the request window.
func (s *CurveService) Spread(ctx context.Context, req SpreadRequest) (*SpreadSeries, error) {
	ctx, span := s.tracer.Start(ctx, "CurveService.Spread",
		trace.WithAttributes(
			attribute.String("curve.spread.short", string(req.Short)),
			attribute.String("curve.spread.long", string(req.Long)),
		))
	defer span.End()

	s.ApplyDefaults(&req.CurveRequest)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	// The spread only needs the two tenors, but the table must carry them
	// regardless of which maturities the request narrowed to.
	req.Maturities = nil
	table, err := s.generate(ctx, req.CurveRequest)
	if err != nil {
		return nil, err
	}

	snapshots, err := curve.SnapshotsInRange(table, req.Start, req.End, []curve.Maturity{req.Short, req.Long})
	if err != nil {
		return nil, err
	}

	series := &SpreadSeries{
		Short:  req.Short,
		Long:   req.Long,
		Points: make([]SpreadPoint, len(snapshots)),
	}
	for i, snap := range snapshots {
		spread, err := curve.ComputeSpread(table, snap.Date, req.Short, req.Long)
		if err != nil {
			return nil, err
		}
		series.Points[i] = SpreadPoint{Date: snap.Date, Spread: spread, Inverted: spread < 0}
	}
	return series, nil
}

// Table validates the request and returns the full rate table backing it.
// Used by export and websocket streaming, which need the raw grid.
func (s *CurveService) Table(ctx context.Context, req CurveRequest) (*curve.RateTable, error) {
	ctx, span := s.tracer.Start(ctx, "CurveService.Table")
	defer span.End()

	return s.table(ctx, &req)
}

// Maturities returns metadata for the canonical tenor axis.
func (s *CurveService) Maturities(ctx context.Context) []MaturityInfo {
	_, span := s.tracer.Start(ctx, "CurveService.Maturities")
	defer span.End()

	mats := curve.AllMaturities()
	infos := make([]MaturityInfo, len(mats))
	for i, m := range mats {
		infos[i] = MaturityInfo{
			Value:  m,
			Label:  m.Label(),
			Years:  m.Years(),
			Series: m.FREDSeries(),
		}
	}
	return infos
}

// CacheStats reports table cache hit statistics.
func (s *CurveService) CacheStats() curve.CacheStats {
	return s.cache.Stats()
}

// table applies defaults, validates, and resolves the cached table.
func (s *CurveService) table(ctx context.Context, req *CurveRequest) (*curve.RateTable, error) {
	s.ApplyDefaults(req)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return s.generate(ctx, *req)
}

// generate resolves a validated request against the cache. The table always
// covers the full canonical axis so narrowed requests share one entry.
func (s *CurveService) generate(ctx context.Context, req CurveRequest) (*curve.RateTable, error) {
	gcfg := curve.DefaultGeneratorConfig(req.Start, req.End)
	gcfg.Seed = req.Seed
	gcfg.MinYield = s.cfg.MinYield
	gcfg.MaxYield = s.cfg.MaxYield
	gcfg.Inversions = req.Inversions

	table, hit, err := s.cache.GetOrGenerate(gcfg)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "resolved rate table",
		slog.Bool("cache_hit", hit),
		slog.String("start", req.Start.Format("2006-01-02")),
		slog.String("end", req.End.Format("2006-01-02")),
		slog.Int64("seed", req.Seed))
	return table, nil
}
