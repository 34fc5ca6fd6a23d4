// Package main provides the era-extract CLI: it samples a monthly NetCDF
// raster at observation points and writes the result CSV and diagnostic plot.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"go.ngs.io/era-extract/internal/adapter/pointset"
	"go.ngs.io/era-extract/internal/adapter/raster"
	"go.ngs.io/era-extract/internal/config"
	"go.ngs.io/era-extract/internal/domain"
	"go.ngs.io/era-extract/internal/logger"
	"go.ngs.io/era-extract/internal/observability"
	"go.ngs.io/era-extract/internal/output"
	"go.ngs.io/era-extract/internal/usecase"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file")
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("era-extract version %s\n", version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "era-extract: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.PointFile == "" {
		return fmt.Errorf("point_file is required")
	}

	log := logger.Build(logger.Config{Level: cfg.LogLevel, Console: cfg.LogConsole}, os.Stderr).
		With().Str("run_id", uuid.NewString()).Logger()

	log.Info().
		Str("point_file", cfg.PointFile).
		Str("raster_file", cfg.RasterFile).
		Str("kind", string(cfg.VariableKind)).
		Str("start_period", cfg.StartPeriod).
		Stringer("date_format", cfg.DateFormat()).
		Msg("starting extraction run")

	points, err := pointset.LoadFile(cfg.PointFile, cfg.PointColumns())
	if err != nil {
		return err
	}
	log.Info().Int("points", len(points)).Msg("loaded observation points")

	// Duplicate IDs and a bad variable kind are fatal before any raster I/O.
	if err := domain.ValidateUniqueIDs(points); err != nil {
		return err
	}
	if err := domain.ValidateVariableKind(cfg.VariableKind); err != nil {
		return err
	}

	ds, err := raster.Open(cfg.RasterFile, cfg.RasterVariable)
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	log.Info().
		Int("height", ds.Height()).
		Int("width", ds.Width()).
		Int("bands", ds.Bands()).
		Msg("opened raster")

	metrics := observability.New(prometheus.NewRegistry())
	extractor := usecase.NewExtractor(log, metrics)

	result, err := extractor.Run(usecase.Request{
		Points: points,
		Raster: ds,
		Kind:   cfg.VariableKind,
		Start:  cfg.Start(),
		Format: cfg.DateFormat(),
	})
	if err != nil {
		return err
	}
	for _, failure := range result.ParseFailures {
		log.Warn().Str("point_id", failure.PointID).Str("raw_date", failure.RawDate).
			Msg("observation date skipped")
	}

	writer := output.NewCSVWriter(cfg.OutputDir, clockwork.NewRealClock())
	csvPath, err := writer.Write(cfg.VariableKind, output.HeaderColumns{
		ID:   cfg.Columns.ID,
		Name: cfg.Columns.Name,
		Date: cfg.Columns.Date,
	}, result.Periods, result.Records)
	if err != nil {
		return err
	}
	log.Info().Str("path", csvPath).Msg("wrote result CSV")

	if cfg.Plot {
		if err := writePlot(ds, result, filepath.Join(cfg.OutputDir, "overlay.png")); err != nil {
			// The plot is a side artifact; a failure does not undo the CSV.
			log.Warn().Err(err).Msg("diagnostic plot failed")
		} else {
			log.Info().Str("path", filepath.Join(cfg.OutputDir, "overlay.png")).Msg("wrote diagnostic plot")
		}
	}

	log.Info().Msg(result.Summary(cfg.VariableKind))
	return nil
}

// writePlot renders the first band with the point cells overlaid.
func writePlot(ds *raster.Dataset, result *usecase.Result, path string) error {
	band, err := ds.ReadBand(1)
	if err != nil {
		return err
	}
	cells := make([]domain.CellAddress, len(result.Records))
	for i, rec := range result.Records {
		cells[i] = rec.Cell
	}
	return output.WritePlot(path, band, cells)
}

func printUsage() {
	fmt.Println(`era-extract - sample a monthly climate raster at observation points

Usage:
  era-extract -config config.yaml

Flags:
  -config string   Path to the YAML config file
  -version         Show version information
  -help            Show this message

Settings may also come from ERA_* environment variables or a .env file;
run without -config to rely on those alone.`)
}
