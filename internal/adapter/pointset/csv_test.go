package pointset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	csvData := `OBS_NUM,OBS_NAME,OBS_DATE,LON,LAT,EXTRA
1,Providence,2019-03-15,-71.41,41.82,x
2,Boston,2019-06-01,-71.06,42.36,y
`
	path := writeFile(t, t.TempDir(), "points.csv", csvData)

	points, err := LoadCSV(path, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "1", points[0].ID)
	assert.Equal(t, "Providence", points[0].Name)
	assert.Equal(t, "2019-03-15", points[0].RawDate)
	assert.InDelta(t, -71.41, points[0].Lon, 1e-9)
	assert.InDelta(t, 41.82, points[0].Lat, 1e-9)

	// File order is preserved.
	assert.Equal(t, "2", points[1].ID)
	assert.Equal(t, "Boston", points[1].Name)
}

func TestLoadCSVMissingColumn(t *testing.T) {
	csvData := `OBS_NUM,OBS_NAME,LON,LAT
1,Providence,-71.41,41.82
`
	path := writeFile(t, t.TempDir(), "points.csv", csvData)

	_, err := LoadCSV(path, DefaultColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OBS_DATE")
}

func TestLoadCSVBadCoordinate(t *testing.T) {
	csvData := `OBS_NUM,OBS_NAME,OBS_DATE,LON,LAT
1,Providence,2019-03-15,west,41.82
`
	path := writeFile(t, t.TempDir(), "points.csv", csvData)

	_, err := LoadCSV(path, DefaultColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid longitude")
}

func TestLoadCSVEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "points.csv", "OBS_NUM,OBS_NAME,OBS_DATE,LON,LAT\n")

	_, err := LoadCSV(path, DefaultColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no points found")
}

func TestLoadFileDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := writeFile(t, dir, "p.csv", "OBS_NUM,OBS_NAME,OBS_DATE,LON,LAT\n1,a,2019-01-01,0.5,0.5\n")
	points, err := LoadFile(csvPath, DefaultColumns())
	require.NoError(t, err)
	assert.Len(t, points, 1)

	_, err = LoadFile(filepath.Join(dir, "p.gpkg"), DefaultColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported point file format")
}
