package output

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/era-extract/internal/domain"
)

func TestWritePlot(t *testing.T) {
	band := [][]float64{
		{280, 281, 282},
		{283, math.NaN(), 285},
	}
	cells := []domain.CellAddress{
		{Row: 0, Col: 1},
		{Row: 9, Col: 9}, // Out of grid, silently skipped.
	}

	path := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, WritePlot(path, band, cells))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 3*plotScale, img.Bounds().Dx())
	assert.Equal(t, 2*plotScale, img.Bounds().Dy())
}

func TestWritePlotEmptyBand(t *testing.T) {
	err := WritePlot(filepath.Join(t.TempDir(), "plot.png"), nil, nil)
	require.Error(t, err)
}
