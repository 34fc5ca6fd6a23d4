// Package output writes extraction results: the CSV table and the
// diagnostic plot.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonboulle/clockwork"

	"go.ngs.io/era-extract/internal/domain"
)

// HeaderColumns carries the input column names echoed into the CSV header.
type HeaderColumns struct {
	ID   string
	Name string
	Date string
}

// CSVWriter serializes result records into the output directory. The file is
// named {kind}_{date}.csv after the clock's current day, matching the naming
// of the upstream extraction script.
type CSVWriter struct {
	dir   string
	clock clockwork.Clock
}

// NewCSVWriter creates a writer. The directory is created on first write if
// absent.
func NewCSVWriter(dir string, clock clockwork.Clock) *CSVWriter {
	return &CSVWriter{dir: dir, clock: clock}
}

// Write serializes the records and returns the path written. Rows preserve
// point input order; period columns preserve band order and are labelled
// "YM-YYYY-MM". Null values serialize as empty cells.
func (w *CSVWriter) Write(kind domain.VariableKind, cols HeaderColumns, periods []domain.Period, records []domain.ResultRecord) (string, error) {
	//nolint:gosec // G301: Output directory shared with other artifacts.
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	name := fmt.Sprintf("%s_%s.csv", kind, w.clock.Now().Format("2006-01-02"))
	path := filepath.Join(w.dir, name)

	//nolint:gosec // G304: Path derived from configured output directory.
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	header := []string{cols.ID, cols.Name, cols.Date, "RASTER_ROW", "RASTER_COL"}
	for _, p := range periods {
		header = append(header, "YM-"+p.String())
	}
	header = append(header, "MATCH_VALUE")
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Point.ID,
			rec.Point.Name,
			rec.Point.RawDate,
			strconv.Itoa(rec.Cell.Row),
			strconv.Itoa(rec.Cell.Col),
		}
		for _, entry := range rec.Series {
			row = append(row, formatValue(entry.Value))
		}
		row = append(row, formatValue(rec.MatchValue))
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write record %s: %w", rec.Point.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return path, nil
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
