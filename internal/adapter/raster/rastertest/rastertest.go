// Package rastertest creates small synthetic NetCDF rasters for tests.
package rastertest

import (
	"testing"

	"github.com/fhs/go-netcdf/netcdf"
)

// Spec describes a synthetic multi-band raster. Lats and Lons are cell-center
// axis values; Bands holds one [row][col] grid per band.
type Spec struct {
	Lats  []float64
	Lons  []float64
	Bands [][][]float32

	// FillValue, when non-nil, is written as the _FillValue attribute.
	FillValue *float32
}

// Create writes the raster to path with a [time, latitude, longitude] data
// variable named "t2m", matching the layout of an ERA monthly download.
func Create(t *testing.T, path string, spec Spec) {
	t.Helper()

	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer func() { _ = f.Close() }()

	timeDim, err := f.AddDim("time", uint64(len(spec.Bands)))
	if err != nil {
		t.Fatalf("add time dim: %v", err)
	}
	latDim, err := f.AddDim("latitude", uint64(len(spec.Lats)))
	if err != nil {
		t.Fatalf("add lat dim: %v", err)
	}
	lonDim, err := f.AddDim("longitude", uint64(len(spec.Lons)))
	if err != nil {
		t.Fatalf("add lon dim: %v", err)
	}

	vlat, err := f.AddVar("latitude", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		t.Fatalf("add lat var: %v", err)
	}
	vlon, err := f.AddVar("longitude", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		t.Fatalf("add lon var: %v", err)
	}
	vdata, err := f.AddVar("t2m", netcdf.FLOAT, []netcdf.Dim{timeDim, latDim, lonDim})
	if err != nil {
		t.Fatalf("add data var: %v", err)
	}

	if spec.FillValue != nil {
		if err := vdata.Attr("_FillValue").WriteFloat32s([]float32{*spec.FillValue}); err != nil {
			t.Fatalf("write fill value: %v", err)
		}
	}

	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	if err := vlat.WriteFloat64s(spec.Lats); err != nil {
		t.Fatalf("write lats: %v", err)
	}
	if err := vlon.WriteFloat64s(spec.Lons); err != nil {
		t.Fatalf("write lons: %v", err)
	}

	flat := make([]float32, 0, len(spec.Bands)*len(spec.Lats)*len(spec.Lons))
	for _, band := range spec.Bands {
		for _, row := range band {
			flat = append(flat, row...)
		}
	}
	if err := vdata.WriteFloat32s(flat); err != nil {
		t.Fatalf("write data: %v", err)
	}
}

// ConstantBands builds band grids where every cell of band i holds values[i].
func ConstantBands(nRows, nCols int, values []float32) [][][]float32 {
	bands := make([][][]float32, len(values))
	for b, v := range values {
		grid := make([][]float32, nRows)
		for i := range grid {
			grid[i] = make([]float32, nCols)
			for j := range grid[i] {
				grid[i][j] = v
			}
		}
		bands[b] = grid
	}
	return bands
}
