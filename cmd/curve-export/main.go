package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"curvepulse/internal/config"
	"curvepulse/internal/curve"
	"curvepulse/internal/dataprocessing"
	"curvepulse/internal/exporter"
	"curvepulse/internal/infrastructure"
)

const dateLayout = "2006-01-02"

func main() {
	start := flag.String("start", "", "range start, YYYY-MM-DD (defaults to the configured default)")
	end := flag.String("end", "", "range end, YYYY-MM-DD (defaults to today)")
	seed := flag.Int64("seed", 0, "generator seed, 0 uses the configured default")
	maturities := flag.String("maturities", "", "comma-separated tenor codes, empty means the full axis")
	format := flag.String("format", "csv", "output format: csv | xlsx")
	out := flag.String("out", "", "output file path (defaults to yield-curve_<start>_<end>.<format>)")
	input := flag.String("input", "", "ingest a wide observation CSV instead of generating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		defaults := config.Default()
		cfg = &defaults
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *format != "csv" && *format != "xlsx" {
		logger.Error("unsupported format", slog.String("format", *format))
		os.Exit(1)
	}

	table, err := resolveTable(cfg, logger, *input, *start, *end, *seed)
	if err != nil {
		logger.Error("failed to resolve rate table", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *maturities != "" {
		table, err = narrowTable(table, *maturities)
		if err != nil {
			logger.Error("failed to narrow maturities", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	tableStart, tableEnd := table.Span()
	path := *out
	if path == "" {
		path = fmt.Sprintf("yield-curve_%s_%s.%s",
			tableStart.Format(dateLayout), tableEnd.Format(dateLayout), *format)
	}

	f, err := os.Create(path)
	if err != nil {
		logger.Error("cannot create output file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer f.Close()

	switch *format {
	case "csv":
		err = exporter.WriteCSV(f, table, exporter.DefaultCSVOptions())
	case "xlsx":
		err = exporter.WriteWorkbook(f, table)
	}
	if err != nil {
		logger.Error("export failed",
			slog.String("path", path),
			slog.String("format", *format),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("export complete",
		slog.String("path", path),
		slog.String("format", *format),
		slog.Int("dates", table.NumDates()),
		slog.Int("maturities", table.NumMaturities()))
}

// resolveTable either ingests an observation CSV or generates a synthetic
// table from the configured defaults and flags.
func resolveTable(cfg *config.Config, logger *slog.Logger, input, start, end string, seed int64) (*curve.RateTable, error) {
	if input != "" {
		logger.Info("ingesting observation CSV", slog.String("path", input))
		return dataprocessing.LoadTableFile(input)
	}

	startDate := cfg.Curve.DefaultStartDate()
	if start != "" {
		d, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("invalid -start %q: %w", start, err)
		}
		startDate = d
	}

	endDate := cfg.Curve.DefaultEndDate()
	if end != "" {
		d, err := time.Parse(dateLayout, end)
		if err != nil {
			return nil, fmt.Errorf("invalid -end %q: %w", end, err)
		}
		endDate = d
	}

	gcfg := curve.DefaultGeneratorConfig(startDate, endDate)
	gcfg.MinYield = cfg.Curve.MinYield
	gcfg.MaxYield = cfg.Curve.MaxYield
	gcfg.Seed = cfg.Curve.DefaultSeed
	if seed != 0 {
		gcfg.Seed = seed
	}

	return curve.NewSeriesGenerator(logger).Generate(gcfg)
}

// narrowTable projects the table onto the requested tenor columns.
func narrowTable(table *curve.RateTable, raw string) (*curve.RateTable, error) {
	var requested []curve.Maturity
	for _, field := range strings.Split(raw, ",") {
		m, err := curve.ParseMaturity(field)
		if err != nil {
			return nil, err
		}
		requested = append(requested, m)
	}
	normalized, err := curve.NormalizeMaturities(requested)
	if err != nil {
		return nil, err
	}

	dates := table.Dates()
	yields := make([][]float64, len(dates))
	for i, d := range dates {
		row := make([]float64, len(normalized))
		for j, m := range normalized {
			y, err := table.Yield(d, m)
			if err != nil {
				return nil, err
			}
			row[j] = y
		}
		yields[i] = row
	}
	return curve.NewRateTable(dates, normalized, yields)
}
