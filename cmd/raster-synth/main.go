// Package main provides raster-synth, a generator for synthetic monthly
// NetCDF rasters. The output mimics an ERA-5 monthly means download: a
// [time, latitude, longitude] variable in source units (Kelvin for
// temperature, metres for precipitation), latitudes descending.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/era-extract/internal/domain"
)

func main() {
	outPath := flag.String("out", "./data/synthetic.nc", "Output NetCDF path")
	kindFlag := flag.String("kind", "temp", "Variable kind: temp or precip")
	startFlag := flag.String("start", "2018-01", "Calendar month of the first band (YYYY-MM)")
	bands := flag.Int("bands", 24, "Number of monthly bands")
	latMin := flag.Float64("lat-min", 35.0, "Minimum latitude")
	latMax := flag.Float64("lat-max", 48.0, "Maximum latitude")
	lonMin := flag.Float64("lon-min", 6.0, "Minimum longitude")
	lonMax := flag.Float64("lon-max", 19.0, "Maximum longitude")
	resolution := flag.Float64("resolution", 0.25, "Grid resolution in degrees")
	flag.Parse()

	kind := domain.VariableKind(*kindFlag)
	if err := domain.ValidateVariableKind(kind); err != nil {
		log.Fatalf("Invalid -kind: %v", err)
	}
	start, err := domain.ParsePeriod(*startFlag)
	if err != nil {
		log.Fatalf("Invalid -start: %v", err)
	}
	if *bands < 1 {
		log.Fatalf("-bands must be at least 1")
	}

	nLat := int((*latMax-*latMin) / *resolution)
	nLon := int((*lonMax-*lonMin) / *resolution)
	if nLat < 1 || nLon < 1 {
		log.Fatalf("Empty grid: check bounds and resolution")
	}

	// Cell-center latitudes, north to south, matching ERA downloads.
	lats := make([]float64, nLat)
	for i := 0; i < nLat; i++ {
		lats[i] = *latMax - (float64(i)+0.5)**resolution
	}
	lons := make([]float64, nLon)
	for j := 0; j < nLon; j++ {
		lons[j] = *lonMin + (float64(j)+0.5)**resolution
	}

	grids := make([][]float64, *bands)
	periods := domain.PeriodSequence(start, *bands)
	for b, period := range periods {
		grids[b] = synthesizeBand(kind, period, lats, lons)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := writeRaster(*outPath, kind, lats, lons, grids); err != nil {
		log.Fatalf("Failed to write NetCDF: %v", err)
	}

	log.Printf("Wrote %s", *outPath)
	log.Printf("Grid size: %d × %d cells, %d bands (%s .. %s)",
		nLat, nLon, *bands, periods[0], periods[len(periods)-1])
}

// synthesizeBand builds one month's grid in source units: a latitude gradient
// plus a seasonal cycle, with smooth longitudinal variation so neighboring
// cells stay distinguishable.
func synthesizeBand(kind domain.VariableKind, period domain.Period, lats, lons []float64) []float64 {
	// Peak in July, trough in January.
	season := math.Cos((float64(period.Month) - 7.0) * math.Pi / 6.0)

	grid := make([]float64, len(lats)*len(lons))
	for i, lat := range lats {
		for j, lon := range lons {
			idx := i*len(lons) + j
			switch kind {
			case domain.VariableTemp:
				// Kelvin: ~15°C at 40°N, colder northward, ±10 K seasonal swing.
				grid[idx] = 288.15 - (lat-40.0)*0.7 + 10.0*season +
					0.5*math.Sin(lon*math.Pi/10.0)
			case domain.VariablePrecip:
				// Metres of monthly accumulation, wetter in winter.
				m := 0.06 - 0.03*season + 0.002*(lat-40.0) +
					0.005*math.Cos(lon*math.Pi/15.0)
				if m < 0 {
					m = 0
				}
				grid[idx] = m
			}
		}
	}
	return grid
}

// writeRaster writes the bands as one [time, latitude, longitude] variable.
// The variable is named t2m or tp to match the names the extraction pipeline
// probes for.
func writeRaster(path string, kind domain.VariableKind, lats, lons []float64, grids [][]float64) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	timeDim, err := ds.AddDim("time", uint64(len(grids)))
	if err != nil {
		return err
	}
	latDim, err := ds.AddDim("latitude", uint64(len(lats)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("longitude", uint64(len(lons)))
	if err != nil {
		return err
	}

	latVar, err := ds.AddVar("latitude", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	if err := latVar.WriteFloat64s(lats); err != nil {
		return err
	}

	lonVar, err := ds.AddVar("longitude", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lons); err != nil {
		return err
	}

	varName := "t2m"
	if kind == domain.VariablePrecip {
		varName = "tp"
	}
	dataVar, err := ds.AddVar(varName, netcdf.DOUBLE, []netcdf.Dim{timeDim, latDim, lonDim})
	if err != nil {
		return err
	}

	flat := make([]float64, 0, len(grids)*len(lats)*len(lons))
	for _, grid := range grids {
		flat = append(flat, grid...)
	}
	if err := dataVar.WriteFloat64s(flat); err != nil {
		return err
	}
	return nil
}
