// Package http exposes the extraction pipeline over HTTP for ad-hoc queries:
// a single location's time series and the sampled period range.
package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/era-extract/internal/domain"
	"go.ngs.io/era-extract/internal/usecase"
)

// Handler serves series queries against one open raster.
type Handler struct {
	raster    usecase.Raster
	extractor *usecase.Extractor
	kind      domain.VariableKind
	start     domain.Period
	format    domain.DateFormat
}

// NewHandler creates a handler bound to an open raster and run settings.
func NewHandler(r usecase.Raster, ex *usecase.Extractor, kind domain.VariableKind, start domain.Period, format domain.DateFormat) *Handler {
	return &Handler{raster: r, extractor: ex, kind: kind, start: start, format: format}
}

// SeriesEntry is one sampled month in the response.
type SeriesEntry struct {
	Period string   `json:"period"`
	Value  *float64 `json:"value"`
}

// SeriesResponse is the response for GET /v1/series.
type SeriesResponse struct {
	Kind       string        `json:"kind"`
	Lat        float64       `json:"lat"`
	Lon        float64       `json:"lon"`
	Row        int           `json:"row"`
	Col        int           `json:"col"`
	InBounds   bool          `json:"in_bounds"`
	Series     []SeriesEntry `json:"series"`
	MatchValue *float64      `json:"match_value,omitempty"`
	MatchError string        `json:"match_error,omitempty"`
}

// GetSeries handles GET /v1/series?lat=..&lon=..[&date=..].
func (h *Handler) GetSeries(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	point := domain.Point{ID: "query", Name: "query", RawDate: c.Query("date"), Lon: lon, Lat: lat}

	result, err := h.extractor.Run(usecase.Request{
		Points: []domain.Point{point},
		Raster: h.raster,
		Kind:   h.kind,
		Start:  h.start,
		Format: h.format,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rec := result.Records[0]
	resp := SeriesResponse{
		Kind:     string(h.kind),
		Lat:      lat,
		Lon:      lon,
		Row:      rec.Cell.Row,
		Col:      rec.Cell.Col,
		InBounds: rec.Cell.InBounds(h.raster.Height(), h.raster.Width()),
		Series:   make([]SeriesEntry, len(rec.Series)),
	}
	for i, entry := range rec.Series {
		resp.Series[i] = SeriesEntry{Period: entry.Period.String(), Value: entry.Value}
	}
	if point.RawDate != "" {
		resp.MatchValue = rec.MatchValue
		if len(result.ParseFailures) > 0 {
			resp.MatchError = result.ParseFailures[0].Error()
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetPeriods handles GET /v1/periods.
func (h *Handler) GetPeriods(c *gin.Context) {
	periods := domain.PeriodSequence(h.start, h.raster.Bands())
	labels := make([]string, len(periods))
	for i, p := range periods {
		labels[i] = p.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":    string(h.kind),
		"periods": labels,
		"count":   len(labels),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
