// Package config loads run configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go.ngs.io/era-extract/internal/adapter/pointset"
	"go.ngs.io/era-extract/internal/domain"
)

// Config holds every setting for an extraction run. It is immutable once
// loaded and passed explicitly into the pipeline entry point.
type Config struct {
	// PointFile is the observation point dataset (.csv, .json, or .geojson).
	PointFile string `yaml:"point_file"`
	// RasterFile is the multi-band monthly NetCDF raster.
	RasterFile string `yaml:"raster_file"`
	// RasterVariable optionally names the data variable inside the raster.
	// When empty, common ERA variable names are probed.
	RasterVariable string `yaml:"raster_variable"`

	// VariableKind is "temp" or "precip".
	VariableKind domain.VariableKind `yaml:"variable_kind"`

	// StartPeriod is the calendar month of the first raster band, "YYYY-MM".
	StartPeriod string `yaml:"start_period"`

	// StandardDate selects the observation date encoding: true for
	// YYYY-MM-DD, false for MM/DD/YYYY.
	StandardDate bool `yaml:"standard_date"`

	Columns ColumnsConfig `yaml:"columns"`

	// OutputDir receives the CSV result and the diagnostic plot. Created if
	// absent.
	OutputDir string `yaml:"output_dir"`
	// Plot disables the diagnostic PNG when false.
	Plot bool `yaml:"plot"`

	HTTPAddr  string `yaml:"http_addr"`
	LogLevel  string `yaml:"log_level"`
	LogConsole bool  `yaml:"log_console"`
}

// ColumnsConfig names the point file attribute columns.
type ColumnsConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Date string `yaml:"date"`
	Lon  string `yaml:"lon"`
	Lat  string `yaml:"lat"`
}

// Default returns the configuration defaults applied before the YAML file
// and environment overrides.
func Default() Config {
	cols := pointset.DefaultColumns()
	return Config{
		VariableKind: domain.VariableTemp,
		StandardDate: true,
		Columns: ColumnsConfig{
			ID:   cols.ID,
			Name: cols.Name,
			Date: cols.Date,
			Lon:  cols.Lon,
			Lat:  cols.Lat,
		},
		OutputDir: "output",
		Plot:      true,
		HTTPAddr:  ":8080",
		LogLevel:  "info",
	}
}

// Load reads the YAML file at path (skipped when path is empty), then applies
// environment overrides, then validates. A .env file in the working directory
// is honored when present.
func Load(path string) (Config, error) {
	// Missing .env is fine; it only supplies overrides.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		//nolint:gosec // G304: Path comes from the -config flag.
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides individual settings from environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ERA_POINT_FILE"); v != "" {
		cfg.PointFile = v
	}
	if v := os.Getenv("ERA_RASTER_FILE"); v != "" {
		cfg.RasterFile = v
	}
	if v := os.Getenv("ERA_RASTER_VARIABLE"); v != "" {
		cfg.RasterVariable = v
	}
	if v := os.Getenv("ERA_VARIABLE_KIND"); v != "" {
		cfg.VariableKind = domain.VariableKind(v)
	}
	if v := os.Getenv("ERA_START_PERIOD"); v != "" {
		cfg.StartPeriod = v
	}
	if v := os.Getenv("ERA_STANDARD_DATE"); v != "" {
		cfg.StandardDate = v == "true"
	}
	if v := os.Getenv("ERA_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("ERA_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ERA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the fatal preconditions that do not need file I/O. The
// point file is only required for batch runs and is checked by the CLI.
func (c Config) Validate() error {
	if c.RasterFile == "" {
		return fmt.Errorf("raster_file is required")
	}
	if err := domain.ValidateVariableKind(c.VariableKind); err != nil {
		return err
	}
	if _, err := domain.ParsePeriod(c.StartPeriod); err != nil {
		return fmt.Errorf("start_period: %w", err)
	}
	return nil
}

// Start returns the parsed start period. Call after Validate.
func (c Config) Start() domain.Period {
	p, _ := domain.ParsePeriod(c.StartPeriod)
	return p
}

// DateFormat returns the observation date encoding selected by StandardDate.
func (c Config) DateFormat() domain.DateFormat {
	if c.StandardDate {
		return domain.DateFormatISO
	}
	return domain.DateFormatUS
}

// PointColumns converts the column config for the pointset loaders.
func (c Config) PointColumns() pointset.Columns {
	return pointset.Columns{
		ID:   c.Columns.ID,
		Name: c.Columns.Name,
		Date: c.Columns.Date,
		Lon:  c.Columns.Lon,
		Lat:  c.Columns.Lat,
	}
}
