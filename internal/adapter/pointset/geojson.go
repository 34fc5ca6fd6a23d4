package pointset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.ngs.io/era-extract/internal/domain"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                     `json:"type"`
	Geometry   geometry                   `json:"geometry"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// LoadGeoJSON reads points from a GeoJSON FeatureCollection. Only Point
// geometries are accepted; the ID, name, and date attributes come from
// feature properties under the configured column names. Numeric property
// values are accepted for the ID and formatted as their literal text.
func LoadGeoJSON(path string, cols Columns) ([]domain.Point, error) {
	//nolint:gosec // G304: Path comes from run configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read point file %s: %w", path, err)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected a FeatureCollection, got %q", fc.Type)
	}

	points := make([]domain.Point, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry.Type != "Point" {
			return nil, fmt.Errorf("feature %d: expected Point geometry, got %q", i, f.Geometry.Type)
		}
		if len(f.Geometry.Coordinates) < 2 {
			return nil, fmt.Errorf("feature %d: Point geometry needs [lon, lat] coordinates", i)
		}

		id, err := propertyString(f.Properties, cols.ID)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		name, err := propertyString(f.Properties, cols.Name)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		date, err := propertyString(f.Properties, cols.Date)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		points = append(points, domain.Point{
			ID:      id,
			Name:    name,
			RawDate: date,
			Lon:     f.Geometry.Coordinates[0],
			Lat:     f.Geometry.Coordinates[1],
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no point features found in %s", path)
	}
	return points, nil
}

// propertyString extracts a property as text, accepting JSON strings and
// numbers. Integral IDs written as JSON numbers keep their integer form.
func propertyString(props map[string]json.RawMessage, key string) (string, error) {
	raw, ok := props[key]
	if !ok {
		return "", fmt.Errorf("property %q not found", key)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10), nil
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("property %q is neither a string nor a number", key)
}
