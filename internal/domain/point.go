package domain

import "fmt"

// Point is one observation location from the input dataset. Coordinates are
// WGS84 longitude/latitude in degrees; no reprojection is performed anywhere,
// so a point file in another CRS silently indexes the wrong cells.
type Point struct {
	ID      string
	Name    string
	RawDate string
	Lon     float64
	Lat     float64
}

// CellAddress is a raster grid (row, column) pair for a point. The address is
// computed once per point and may lie outside the grid; out-of-bounds
// addresses are preserved as-is and classified downstream.
type CellAddress struct {
	Row int
	Col int
}

// InBounds reports whether the address falls inside a grid of the given
// height and width. Coordinates never change across bands, so a point that is
// out of bounds is out of bounds for the whole run.
func (c CellAddress) InBounds(height, width int) bool {
	return c.Row >= 0 && c.Row < height && c.Col >= 0 && c.Col < width
}

// TimeSeriesEntry pairs one period with the converted value sampled for a
// point. Value is nil when the point is out of the grid or the cell could not
// be decoded.
type TimeSeriesEntry struct {
	Period Period
	Value  *float64
}

// ResultRecord is the assembled output for one point: identity, cell address,
// the full ordered time series, and the value matching the point's own
// observation month (nil when the date is out of range, unparseable, or the
// point is out of the grid).
type ResultRecord struct {
	Point      Point
	Cell       CellAddress
	Series     []TimeSeriesEntry
	MatchValue *float64
}

// ValueFor returns the series value stored under the given period, or nil
// when that period was not sampled.
func (r *ResultRecord) ValueFor(p Period) (*float64, bool) {
	for _, e := range r.Series {
		if e.Period == p {
			return e.Value, true
		}
	}
	return nil, false
}

// ValidateUniqueIDs checks the fatal precondition that no two points share an
// ID. It runs before any raster I/O.
func ValidateUniqueIDs(points []Point) error {
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("unique ID column contains duplicate value %q, cannot proceed", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
