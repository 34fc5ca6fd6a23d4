package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"go.ngs.io/era-extract/internal/domain"
)

// plotScale is the number of image pixels per raster cell. Monthly climate
// grids are coarse, so each cell is blown up to stay visible.
const plotScale = 4

// WritePlot renders the first sampled band as a grayscale ramp with the
// points overlaid as black markers, and writes it as a PNG. The plot is a
// diagnostic side artifact only; nothing downstream consumes it.
func WritePlot(path string, band [][]float64, cells []domain.CellAddress) error {
	if len(band) == 0 || len(band[0]) == 0 {
		return fmt.Errorf("cannot plot an empty band")
	}
	height := len(band)
	width := len(band[0])

	lo, hi := bandRange(band)
	img := image.NewGray(image.Rect(0, 0, width*plotScale, height*plotScale))

	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			shade := uint8(255)
			v := band[r][c]
			if !math.IsNaN(v) && hi > lo {
				shade = uint8(math.Round(255 * (v - lo) / (hi - lo)))
			}
			fillCell(img, r, c, color.Gray{Y: shade})
		}
	}

	// Points outside the grid simply fall off the image.
	for _, cell := range cells {
		if cell.InBounds(height, width) {
			fillCell(img, cell.Row, cell.Col, color.Gray{Y: 0})
		}
	}

	//nolint:gosec // G304: Path derived from configured output directory.
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	return nil
}

func fillCell(img *image.Gray, row, col int, shade color.Gray) {
	for dy := 0; dy < plotScale; dy++ {
		for dx := 0; dx < plotScale; dx++ {
			img.SetGray(col*plotScale+dx, row*plotScale+dy, shade)
		}
	}
}

// bandRange finds the min and max finite values of a band.
func bandRange(band [][]float64) (lo, hi float64) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, row := range band {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}
