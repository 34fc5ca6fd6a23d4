// Package pointset loads observation point datasets. Points carry a unique
// ID, a display name, a raw observation date string, and WGS84 lon/lat
// coordinates.
package pointset

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.ngs.io/era-extract/internal/domain"
)

// Columns names the point file attributes holding the ID, name, and
// observation date. For CSV inputs it additionally names the coordinate
// columns.
type Columns struct {
	ID   string
	Name string
	Date string
	Lon  string
	Lat  string
}

// DefaultColumns matches the attribute names used by the ERA test datasets.
func DefaultColumns() Columns {
	return Columns{
		ID:   "OBS_NUM",
		Name: "OBS_NAME",
		Date: "OBS_DATE",
		Lon:  "LON",
		Lat:  "LAT",
	}
}

// LoadFile loads a point dataset, picking the decoder from the file
// extension: .csv for CSV, .json or .geojson for a GeoJSON
// FeatureCollection. Points are returned in file order.
func LoadFile(path string, cols Columns) ([]domain.Point, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, cols)
	case ".json", ".geojson":
		return LoadGeoJSON(path, cols)
	default:
		return nil, fmt.Errorf("unsupported point file format %q (expected .csv, .json, or .geojson)", filepath.Ext(path))
	}
}
