// Package raster provides read-only access to multi-band monthly climate
// rasters stored as NetCDF files. Each band holds one calendar month of a
// single variable on a regular WGS84 lat/lon grid.
package raster

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/era-extract/internal/domain"
)

// Dataset is an open multi-band raster. It is opened once and shared by the
// indexing and sampling passes; Close releases the underlying NetCDF handle.
type Dataset struct {
	nc   netcdf.Dataset
	path string

	lats []float64
	lons []float64

	dataVar netcdf.Var
	bands   int

	transform GeoTransform

	fillValue float64
	hasFill   bool
	scale     float64
	offset    float64
}

// GeoTransform is the affine georeferencing of a regular grid: the outer
// corner of cell (0, 0) plus signed cell sizes. DY is negative for north-up
// grids (latitude decreasing with row index).
type GeoTransform struct {
	OriginX float64
	OriginY float64
	DX      float64
	DY      float64
}

// Index converts geographic (x=longitude, y=latitude) into an integer
// (row, col) cell address by inverting the affine transform and flooring.
// No bounds clamping: addresses outside the grid are returned as-is so the
// caller can classify the point as out of bounds.
func (t GeoTransform) Index(x, y float64) domain.CellAddress {
	col := int(math.Floor((x - t.OriginX) / t.DX))
	row := int(math.Floor((y - t.OriginY) / t.DY))
	return domain.CellAddress{Row: row, Col: col}
}

// Open opens a NetCDF raster read-only and resolves its axes, data variable,
// and georeferencing. dataVarName may be empty, in which case common ERA
// variable names are probed.
func Open(path, dataVarName string) (*Dataset, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}

	d := &Dataset{nc: nc, path: path, scale: 1}
	if err := d.resolve(dataVarName); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the NetCDF handle.
func (d *Dataset) Close() error {
	return d.nc.Close()
}

// Path returns the file the dataset was opened from.
func (d *Dataset) Path() string { return d.path }

// Height returns the number of grid rows.
func (d *Dataset) Height() int { return len(d.lats) }

// Width returns the number of grid columns.
func (d *Dataset) Width() int { return len(d.lons) }

// Bands returns the number of time-indexed bands.
func (d *Dataset) Bands() int { return d.bands }

// Transform returns the dataset's affine georeferencing.
func (d *Dataset) Transform() GeoTransform { return d.transform }

// Locate maps WGS84 (lon, lat) to the grid cell containing it. The address
// may lie outside the grid.
func (d *Dataset) Locate(lon, lat float64) domain.CellAddress {
	return d.transform.Index(lon, lat)
}

func (d *Dataset) resolve(dataVarName string) error {
	// Try multiple axis variable name patterns.
	latNames := []string{"latitude", "lat", "y"}
	lonNames := []string{"longitude", "lon", "x"}

	var err error
	d.lats, err = d.readAxis(latNames)
	if err != nil {
		return fmt.Errorf("latitude axis not found (tried %v): %w", latNames, err)
	}
	d.lons, err = d.readAxis(lonNames)
	if err != nil {
		return fmt.Errorf("longitude axis not found (tried %v): %w", lonNames, err)
	}
	if len(d.lats) < 2 || len(d.lons) < 2 {
		return fmt.Errorf("grid too small: %d rows x %d cols", len(d.lats), len(d.lons))
	}

	// Build candidate data variable names, configured name first.
	dataNames := []string{}
	if dataVarName != "" {
		dataNames = append(dataNames, dataVarName)
	}
	dataNames = append(dataNames, "t2m", "tp", "mtpr", "band_data", "data", "z")

	var found bool
	for _, name := range dataNames {
		if v, err := d.nc.Var(name); err == nil {
			d.dataVar = v
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("data variable not found in %s (tried %v)", d.path, dataNames)
	}

	// The data variable is [time, lat, lon], or [lat, lon] for a single band.
	dims, err := d.dataVar.Dims()
	if err != nil {
		return fmt.Errorf("failed to get data dimensions: %w", err)
	}
	switch len(dims) {
	case 3:
		n, err := dims[0].Len()
		if err != nil {
			return fmt.Errorf("failed to get band count: %w", err)
		}
		d.bands = int(n)
	case 2:
		d.bands = 1
	default:
		return fmt.Errorf("expected 2D or 3D data variable, got %dD", len(dims))
	}
	if err := d.checkGridDims(dims); err != nil {
		return err
	}

	if fv, ok := fillValue(d.dataVar); ok {
		d.fillValue = fv
		d.hasFill = true
	}
	if s, ok := floatAttr(d.dataVar, "scale_factor"); ok && s != 0 {
		d.scale = s
	}
	if o, ok := floatAttr(d.dataVar, "add_offset"); ok {
		d.offset = o
	}

	d.transform = transformFromAxes(d.lons, d.lats)
	return nil
}

// checkGridDims verifies the trailing data dimensions match the axis lengths.
func (d *Dataset) checkGridDims(dims []netcdf.Dim) error {
	rowDim, colDim := dims[len(dims)-2], dims[len(dims)-1]
	nRows, err := rowDim.Len()
	if err != nil {
		return fmt.Errorf("failed to get row dimension length: %w", err)
	}
	nCols, err := colDim.Len()
	if err != nil {
		return fmt.Errorf("failed to get column dimension length: %w", err)
	}
	if nRows != uint64(len(d.lats)) || nCols != uint64(len(d.lons)) {
		return fmt.Errorf("dimension mismatch: data is [%d, %d], axes are [%d, %d]",
			nRows, nCols, len(d.lats), len(d.lons))
	}
	return nil
}

// transformFromAxes derives the affine transform from regular coordinate
// axes. Axis values are cell centers, so the origin is shifted by half a
// cell to the outer corner of cell (0, 0).
func transformFromAxes(lons, lats []float64) GeoTransform {
	dx := lons[1] - lons[0]
	dy := lats[1] - lats[0]
	return GeoTransform{
		OriginX: lons[0] - dx/2,
		OriginY: lats[0] - dy/2,
		DX:      dx,
		DY:      dy,
	}
}

// ReadBand reads one full band (1-based index) into a [row][col] grid.
// Fill values decode to NaN so the sampler can record them as null without
// aborting the run.
func (d *Dataset) ReadBand(band int) ([][]float64, error) {
	if band < 1 || band > d.bands {
		return nil, fmt.Errorf("band %d out of range [1, %d]", band, d.bands)
	}

	nRows := len(d.lats)
	nCols := len(d.lons)
	total := nRows * nCols

	//nolint:gosec // G115: band and grid sizes are small positive ints.
	start := []uint64{uint64(band - 1), 0, 0}
	count := []uint64{1, uint64(nRows), uint64(nCols)}

	dims, err := d.dataVar.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get data dimensions: %w", err)
	}
	if len(dims) == 2 {
		start = start[1:]
		count = count[1:]
	}

	flat, err := readFloat64Slice(d.dataVar, start, count, total)
	if err != nil {
		return nil, fmt.Errorf("failed to read band %d of %s: %w", band, d.path, err)
	}

	// Decode fill values and apply packing before handing values out.
	for i, v := range flat {
		if d.hasFill && v == d.fillValue {
			flat[i] = math.NaN()
			continue
		}
		flat[i] = v*d.scale + d.offset
	}

	values := make([][]float64, nRows)
	for i := 0; i < nRows; i++ {
		values[i] = flat[i*nCols : (i+1)*nCols]
	}
	return values, nil
}

// readAxis reads the first 1D coordinate variable matching one of the names.
func (d *Dataset) readAxis(names []string) ([]float64, error) {
	var lastErr error
	for _, name := range names {
		v, err := d.nc.Var(name)
		if err != nil {
			lastErr = err
			continue
		}
		vals, err := readFloat64Var(v)
		if err != nil {
			lastErr = err
			continue
		}
		return vals, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate variable present")
	}
	return nil, lastErr
}

// readFloat64Var reads a 1D float64 array from a NetCDF variable.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.BYTE, netcdf.CHAR, netcdf.SHORT, netcdf.UBYTE, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported axis type: %v", t)
	default:
		return nil, fmt.Errorf("unsupported axis type: %v", t)
	}
}

// readFloat64Slice reads a hyperslab of the data variable as float64,
// converting from the variable's storage type.
func readFloat64Slice(v netcdf.Var, start, count []uint64, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	switch t {
	case netcdf.DOUBLE:
		flat := make([]float64, total)
		if err := v.ReadFloat64Slice(flat, start, count); err != nil {
			return nil, err
		}
		return flat, nil
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32Slice(tmp, start, count); err != nil {
			return nil, err
		}
		flat := make([]float64, total)
		for i, val := range tmp {
			flat[i] = float64(val)
		}
		return flat, nil
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32Slice(tmp, start, count); err != nil {
			return nil, err
		}
		flat := make([]float64, total)
		for i, val := range tmp {
			flat[i] = float64(val)
		}
		return flat, nil
	case netcdf.SHORT:
		// ERA downloads commonly pack values as int16 with scale/offset.
		tmp := make([]int16, total)
		if err := v.ReadInt16Slice(tmp, start, count); err != nil {
			return nil, err
		}
		flat := make([]float64, total)
		for i, val := range tmp {
			flat[i] = float64(val)
		}
		return flat, nil
	case netcdf.BYTE, netcdf.CHAR, netcdf.UBYTE, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported data type: %v", t)
	default:
		return nil, fmt.Errorf("unsupported data type: %v", t)
	}
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if fv, ok := floatAttr(v, name); ok {
			return fv, true
		}
	}
	return 0, false
}

// floatAttr reads a scalar numeric attribute as float64.
func floatAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, 1)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, 1)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	return 0, false
}
