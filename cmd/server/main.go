// Package main provides the era-extract HTTP server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"go.ngs.io/era-extract/internal/adapter/raster"
	"go.ngs.io/era-extract/internal/config"
	httpHandler "go.ngs.io/era-extract/internal/http"
	"go.ngs.io/era-extract/internal/logger"
	"go.ngs.io/era-extract/internal/observability"
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
		fmt.Printf("era-extract server version %s\n", version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "era-extract server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.Build(logger.Config{Level: cfg.LogLevel, Console: cfg.LogConsole}, os.Stderr).
		With().Str("run_id", uuid.NewString()).Logger()

	ds, err := raster.Open(cfg.RasterFile, cfg.RasterVariable)
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	log.Info().
		Str("raster_file", cfg.RasterFile).
		Int("height", ds.Height()).
		Int("width", ds.Width()).
		Int("bands", ds.Bands()).
		Str("addr", cfg.HTTPAddr).
		Msg("starting series server")

	metrics := observability.New(prometheus.DefaultRegisterer)
	extractor := usecase.NewExtractor(log, metrics)
	handler := httpHandler.NewHandler(ds, extractor, cfg.VariableKind, cfg.Start(), cfg.DateFormat())

	router := httpHandler.SetupRouter(handler, metrics)
	return router.Run(cfg.HTTPAddr)
}

func printUsage() {
	fmt.Println(`era-extract server - serve raster time-series queries over HTTP

Usage:
  server -config config.yaml

Flags:
  -config string   Path to the YAML config file
  -version         Show version information
  -help            Show this message

Routes:
  GET /v1/series?lat=..&lon=..[&date=..]
  GET /v1/periods
  GET /health
  GET /metrics`)
}
