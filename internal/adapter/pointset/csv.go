package pointset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/era-extract/internal/domain"
)

// LoadCSV reads points from a CSV file. The header row must contain the five
// configured column names; any extra columns are ignored.
func LoadCSV(path string, cols Columns) ([]domain.Point, error) {
	//nolint:gosec // G304: Path comes from run configuration.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open point file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx, err := columnIndexes(header, cols)
	if err != nil {
		return nil, err
	}

	points := make([]domain.Point, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		lon, err := strconv.ParseFloat(strings.TrimSpace(record[idx.lon]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude %q: %w", line, record[idx.lon], err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(record[idx.lat]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude %q: %w", line, record[idx.lat], err)
		}

		points = append(points, domain.Point{
			ID:      strings.TrimSpace(record[idx.id]),
			Name:    strings.TrimSpace(record[idx.name]),
			RawDate: strings.TrimSpace(record[idx.date]),
			Lon:     lon,
			Lat:     lat,
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no points found in %s", path)
	}
	return points, nil
}

type colIndexes struct {
	id, name, date, lon, lat int
}

func columnIndexes(header []string, cols Columns) (colIndexes, error) {
	find := func(name string) (int, error) {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("column %q not found in header %v", name, header)
	}

	var idx colIndexes
	var err error
	if idx.id, err = find(cols.ID); err != nil {
		return idx, err
	}
	if idx.name, err = find(cols.Name); err != nil {
		return idx, err
	}
	if idx.date, err = find(cols.Date); err != nil {
		return idx, err
	}
	if idx.lon, err = find(cols.Lon); err != nil {
		return idx, err
	}
	if idx.lat, err = find(cols.Lat); err != nil {
		return idx, err
	}
	return idx, nil
}
