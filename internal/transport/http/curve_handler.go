package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"curvepulse/internal/curve"
	apierrors "curvepulse/internal/errors"
	"curvepulse/internal/exporter"
	"curvepulse/internal/middleware"
	"curvepulse/internal/services"
)

const queryDateLayout = "2006-01-02"

// CurveHandler serves the curve query endpoints
type CurveHandler struct {
	service      CurveReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewCurveHandler creates a curve handler with RFC 7807 error handling.
func NewCurveHandler(service CurveReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *CurveHandler {
	return &CurveHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "curve_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the curve routes mounted under /api/curve.
func (h *CurveHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/snapshots", h.GetSnapshots)
	r.Get("/surface", h.GetSurface)
	r.Get("/heatmap", h.GetHeatmap)
	r.Get("/spread", h.GetSpread)
	r.Get("/maturities", h.GetMaturities)

	r.Get("/export/csv", h.ExportCSV)
	r.Get("/export/xlsx", h.ExportXLSX)

	return r
}

// GetSnapshots handles GET /api/curve/snapshots
func (h *CurveHandler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseCurveRequest(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	snapshots, err := h.service.Snapshots(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   snapshots,
		"count":  len(snapshots),
	})
}

// GetSurface handles GET /api/curve/surface
func (h *CurveHandler) GetSurface(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseCurveRequest(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	mesh, err := h.service.Surface(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   mesh,
	})
}

// GetHeatmap handles GET /api/curve/heatmap
func (h *CurveHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseCurveRequest(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	matrix, err := h.service.Heatmap(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   matrix,
	})
}

// GetSpread handles GET /api/curve/spread
func (h *CurveHandler) GetSpread(w http.ResponseWriter, r *http.Request) {
	base, apiErr := parseCurveRequest(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	short, apiErr := parseMaturityParam(r, "short")
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}
	long, apiErr := parseMaturityParam(r, "long")
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	series, err := h.service.Spread(r.Context(), services.SpreadRequest{
		CurveRequest: base,
		Short:        short,
		Long:         long,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   series,
		"count":  len(series.Points),
	})
}

// GetMaturities handles GET /api/curve/maturities
func (h *CurveHandler) GetMaturities(w http.ResponseWriter, r *http.Request) {
	maturities := h.service.Maturities(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   maturities,
		"count":  len(maturities),
	})
}

// ExportCSV handles GET /api/curve/export/csv
func (h *CurveHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	table, apiDone := h.exportTable(w, r)
	if apiDone {
		return
	}

	start, end := table.Span()
	filename := exportFilename(start.Format(queryDateLayout), end.Format(queryDateLayout), "csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exporter.WriteCSV(w, table, exporter.DefaultCSVOptions()); err != nil {
		// Headers are already out, all we can do is log.
		h.logger.ErrorContext(r.Context(), "csv export failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// ExportXLSX handles GET /api/curve/export/xlsx
func (h *CurveHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	table, apiDone := h.exportTable(w, r)
	if apiDone {
		return
	}

	start, end := table.Span()
	filename := exportFilename(start.Format(queryDateLayout), end.Format(queryDateLayout), "xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exporter.WriteWorkbook(w, table); err != nil {
		h.logger.ErrorContext(r.Context(), "xlsx export failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// exportTable resolves the table for an export request. The bool reports
// that an error response was already written.
func (h *CurveHandler) exportTable(w http.ResponseWriter, r *http.Request) (*curve.RateTable, bool) {
	req, apiErr := parseCurveRequest(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return nil, true
	}

	table, err := h.service.Table(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, true
	}
	return table, false
}

// handleServiceError maps service sentinels before delegating to the shared
// RFC 7807 handler, which already understands the domain sentinels.
func (h *CurveHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "curve request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
	)

	if errors.Is(err, services.ErrInvalidInput) {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			err.Error(),
		))
		return
	}

	h.errorHandler.HandleError(w, r, err)
}

func parseCurveRequest(r *http.Request) (services.CurveRequest, *apierrors.APIError) {
	var req services.CurveRequest
	q := r.URL.Query()

	if raw := q.Get("start"); raw != "" {
		start, err := parseDateParam(raw)
		if err != nil {
			return req, apierrors.ErrValidation("start", fmt.Sprintf("invalid date %q, want YYYY-MM-DD", raw))
		}
		req.Start = start
	}
	if raw := q.Get("end"); raw != "" {
		end, err := parseDateParam(raw)
		if err != nil {
			return req, apierrors.ErrValidation("end", fmt.Sprintf("invalid date %q, want YYYY-MM-DD", raw))
		}
		req.End = end
	}

	if raw := q.Get("maturities"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			m, err := curve.ParseMaturity(field)
			if err != nil {
				return req, apierrors.ErrValidation("maturities", fmt.Sprintf("unknown maturity %q", field))
			}
			req.Maturities = append(req.Maturities, m)
		}
	}

	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, apierrors.ErrValidation("seed", fmt.Sprintf("invalid seed %q", raw))
		}
		req.Seed = seed
	}

	return req, nil
}

func parseMaturityParam(r *http.Request, name string) (curve.Maturity, *apierrors.APIError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return "", apierrors.ErrValidation(name, fmt.Sprintf("%s maturity is required", name))
	}
	m, err := curve.ParseMaturity(raw)
	if err != nil {
		return "", apierrors.ErrValidation(name, fmt.Sprintf("unknown maturity %q", raw))
	}
	return m, nil
}

func parseDateParam(raw string) (t time.Time, err error) {
	return time.Parse(queryDateLayout, strings.TrimSpace(raw))
}

func exportFilename(start, end, ext string) string {
	return fmt.Sprintf("yield-curve_%s_%s.%s", start, end, ext)
}
