package usecase

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/era-extract/internal/adapter/raster"
	"go.ngs.io/era-extract/internal/adapter/raster/rastertest"
	"go.ngs.io/era-extract/internal/domain"
)

// fakeRaster is an in-memory 4x5 one-degree grid over lon [10,15), lat
// (40,44], north-up, with one [row][col] grid per band.
type fakeRaster struct {
	grids   [][][]float64
	badBand int // 1-based band whose read fails; 0 for none
}

func (f *fakeRaster) Height() int { return 4 }
func (f *fakeRaster) Width() int  { return 5 }
func (f *fakeRaster) Bands() int  { return len(f.grids) }

func (f *fakeRaster) Locate(lon, lat float64) domain.CellAddress {
	return domain.CellAddress{
		Row: int(math.Floor((lat - 44.0) / -1.0)),
		Col: int(math.Floor(lon - 10.0)),
	}
}

func (f *fakeRaster) ReadBand(band int) ([][]float64, error) {
	if band == f.badBand {
		return nil, fmt.Errorf("band %d unreadable", band)
	}
	return f.grids[band-1], nil
}

func constantGrids(values ...float64) [][][]float64 {
	grids := make([][][]float64, len(values))
	for b, v := range values {
		grid := make([][]float64, 4)
		for i := range grid {
			grid[i] = make([]float64, 5)
			for j := range grid[i] {
				grid[i][j] = v
			}
		}
		grids[b] = grid
	}
	return grids
}

func newExtractor() *Extractor {
	return NewExtractor(zerolog.Nop(), nil)
}

func TestRunRejectsDuplicateIDs(t *testing.T) {
	req := Request{
		Points: []domain.Point{
			{ID: "1", Lon: 10.5, Lat: 43.5, RawDate: "2018-01-15"},
			{ID: "1", Lon: 11.5, Lat: 43.5, RawDate: "2018-02-15"},
		},
		Raster: &fakeRaster{grids: constantGrids(280)},
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	_, err := newExtractor().Run(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRunRejectsInvalidKind(t *testing.T) {
	req := Request{
		Points: []domain.Point{{ID: "1", Lon: 10.5, Lat: 43.5, RawDate: "2018-01-15"}},
		Raster: &fakeRaster{grids: constantGrids(280)},
		Kind:   domain.VariableKind("wind"),
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	_, err := newExtractor().Run(req)
	require.Error(t, err)
}

func TestRunOutOfGridPointIsNullEverywhere(t *testing.T) {
	req := Request{
		Points: []domain.Point{
			// Well south of the grid, with an in-range observation date.
			{ID: "out", Name: "Atlantis", Lon: 12.0, Lat: 20.0, RawDate: "2018-02-10"},
		},
		Raster: &fakeRaster{grids: constantGrids(280, 281, 282)},
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	require.Len(t, rec.Series, 3)
	for _, entry := range rec.Series {
		assert.Nil(t, entry.Value, "period %s should be null", entry.Period)
	}
	assert.Nil(t, rec.MatchValue)
	// The out-of-range address is preserved, not clamped.
	assert.Equal(t, 24, rec.Cell.Row)
}

func TestRunMatchesObservationMonth(t *testing.T) {
	// 15 bands starting 2018-01 cover through 2019-03.
	values := make([]float64, 15)
	for i := range values {
		values[i] = 280 + float64(i)
	}

	req := Request{
		Points: []domain.Point{
			{ID: "7", Name: "Pier", Lon: 11.2, Lat: 42.7, RawDate: "03/15/2019"},
		},
		Raster: &fakeRaster{grids: constantGrids(values...)},
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatUS,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)
	require.Empty(t, result.ParseFailures)

	rec := result.Records[0]
	require.Len(t, rec.Series, 15)
	assert.Equal(t, "2018-01", result.Periods[0].String())
	assert.Equal(t, "2019-03", result.Periods[14].String())

	// Band 15 holds 294 K = 20.85 C.
	require.NotNil(t, rec.MatchValue)
	assert.InDelta(t, 20.85, *rec.MatchValue, 1e-9)
}

func TestRunObservationDateOutsideRange(t *testing.T) {
	req := Request{
		Points: []domain.Point{
			{ID: "1", Name: "Pier", Lon: 11.2, Lat: 42.7, RawDate: "2025-06-01"},
		},
		Raster: &fakeRaster{grids: constantGrids(280, 281, 282)},
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)

	rec := result.Records[0]
	// The series is fully populated even though the match misses.
	require.Len(t, rec.Series, 3)
	for _, entry := range rec.Series {
		require.NotNil(t, entry.Value)
	}
	assert.Nil(t, rec.MatchValue)
}

func TestRunUnparseableDateNullsMatchOnly(t *testing.T) {
	req := Request{
		Points: []domain.Point{
			{ID: "bad", Name: "Pier", Lon: 11.2, Lat: 42.7, RawDate: "not-a-date"},
			{ID: "good", Name: "Dock", Lon: 12.2, Lat: 42.7, RawDate: "2018-02-01"},
		},
		Raster: &fakeRaster{grids: constantGrids(280, 281)},
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)
	require.Len(t, result.ParseFailures, 1)
	assert.Equal(t, "bad", result.ParseFailures[0].PointID)

	badRec := result.Records[0]
	assert.Nil(t, badRec.MatchValue)
	require.Len(t, badRec.Series, 2)
	require.NotNil(t, badRec.Series[0].Value)

	goodRec := result.Records[1]
	require.NotNil(t, goodRec.MatchValue)
	assert.InDelta(t, 281-domain.ZeroCelsiusK, *goodRec.MatchValue, 1e-9)
}

func TestRunEmptyDateSkipsMatchWithoutFailure(t *testing.T) {
	req := Request{
		Points: []domain.Point{
			{ID: "1", Name: "Pier", Lon: 11.2, Lat: 42.7},
		},
		Raster: &fakeRaster{grids: constantGrids(280, 281)},
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)
	assert.Empty(t, result.ParseFailures)
	assert.Nil(t, result.Records[0].MatchValue)
	require.NotNil(t, result.Records[0].Series[0].Value)
}

func TestRunUnreadableBandRecordsNulls(t *testing.T) {
	req := Request{
		Points: []domain.Point{
			{ID: "1", Name: "Pier", Lon: 11.2, Lat: 42.7, RawDate: "2018-01-01"},
		},
		Raster: &fakeRaster{grids: constantGrids(280, 281, 282), badBand: 2},
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)

	rec := result.Records[0]
	require.Len(t, rec.Series, 3)
	require.NotNil(t, rec.Series[0].Value)
	assert.Nil(t, rec.Series[1].Value)
	require.NotNil(t, rec.Series[2].Value)
}

func TestRunUndecodableCellIsNull(t *testing.T) {
	grids := constantGrids(0.001, 0.002)
	grids[1][2][1] = math.NaN() // Cell (2,1) of band 2 cannot be decoded.

	req := Request{
		Points: []domain.Point{
			{ID: "1", Name: "Pier", Lon: 11.2, Lat: 41.7, RawDate: "2018-01-01"},
		},
		Raster: &fakeRaster{grids: grids},
		Kind:   domain.VariablePrecip,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)

	rec := result.Records[0]
	require.NotNil(t, rec.Series[0].Value)
	assert.InDelta(t, 1.0, *rec.Series[0].Value, 1e-9)
	assert.Nil(t, rec.Series[1].Value)
}

// TestRunRoundTripNetCDF samples a real synthetic raster end to end: 3 bands
// of known constants, one point inside the grid and one outside.
func TestRunRoundTripNetCDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp.nc")
	rastertest.Create(t, path, rastertest.Spec{
		Lats:  []float64{43.5, 42.5, 41.5, 40.5},
		Lons:  []float64{10.5, 11.5, 12.5, 13.5, 14.5},
		Bands: rastertest.ConstantBands(4, 5, []float32{280, 281, 282}),
	})

	ds, err := raster.Open(path, "")
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	req := Request{
		Points: []domain.Point{
			{ID: "1", Name: "inside", Lon: 12.0, Lat: 42.0, RawDate: "2018-02-14"},
			{ID: "2", Name: "outside", Lon: 60.0, Lat: 42.0, RawDate: "2018-02-14"},
		},
		Raster: ds,
		Kind:   domain.VariableTemp,
		Start:  mustPeriod(t, "2018-01"),
		Format: domain.DateFormatISO,
	}

	result, err := newExtractor().Run(req)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Len(t, result.Periods, 3)
	assert.Equal(t, "2018-01", result.Periods[0].String())
	assert.Equal(t, "2018-03", result.Periods[2].String())

	inside := result.Records[0]
	expected := []float64{6.85, 7.85, 8.85}
	require.Len(t, inside.Series, 3)
	for i, entry := range inside.Series {
		require.NotNil(t, entry.Value, "period %s", entry.Period)
		assert.InDelta(t, expected[i], *entry.Value, 1e-4)
	}
	require.NotNil(t, inside.MatchValue)
	assert.InDelta(t, 7.85, *inside.MatchValue, 1e-4)

	outside := result.Records[1]
	for _, entry := range outside.Series {
		assert.Nil(t, entry.Value)
	}
	assert.Nil(t, outside.MatchValue)
}

func mustPeriod(t *testing.T, s string) domain.Period {
	t.Helper()
	p, err := domain.ParsePeriod(s)
	require.NoError(t, err)
	return p
}
