// Package usecase orchestrates the extraction pipeline: cell indexing,
// band-by-band temporal sampling, observation date matching, and result
// assembly.
package usecase

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/era-extract/internal/domain"
	"go.ngs.io/era-extract/internal/observability"
)

// Raster is the multi-band grid the pipeline samples. *raster.Dataset
// satisfies it; tests substitute in-memory grids.
type Raster interface {
	Height() int
	Width() int
	Bands() int
	Locate(lon, lat float64) domain.CellAddress
	ReadBand(band int) ([][]float64, error)
}

// Request carries one extraction run's inputs.
type Request struct {
	Points []domain.Point
	Raster Raster
	Kind   domain.VariableKind
	Start  domain.Period
	Format domain.DateFormat
}

// Result is the assembled output of a run. Records preserve point input
// order; Periods preserve band order. ParseFailures lists the per-record date
// errors that nulled a MatchValue without aborting the run.
type Result struct {
	Records       []domain.ResultRecord
	Periods       []domain.Period
	ParseFailures []*domain.DateParseError
}

// Extractor runs the sampling pipeline.
type Extractor struct {
	log     zerolog.Logger
	metrics *observability.Metrics
}

// NewExtractor creates an Extractor. metrics may be nil.
func NewExtractor(log zerolog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{log: log, metrics: metrics}
}

// Run executes the pipeline. Fatal preconditions (duplicate IDs, invalid
// variable kind) fail here before any band is read; per-point anomalies are
// absorbed into the records as nulls.
func (e *Extractor) Run(req Request) (*Result, error) {
	started := time.Now()

	if err := domain.ValidateVariableKind(req.Kind); err != nil {
		return nil, err
	}
	if err := domain.ValidateUniqueIDs(req.Points); err != nil {
		return nil, err
	}

	height := req.Raster.Height()
	width := req.Raster.Width()
	bands := req.Raster.Bands()

	// Cell addresses are static across bands: locate each point once and
	// classify it once.
	records := make([]domain.ResultRecord, len(req.Points))
	inGrid := make([]bool, len(req.Points))
	for i, p := range req.Points {
		cell := req.Raster.Locate(p.Lon, p.Lat)
		records[i] = domain.ResultRecord{
			Point:  p,
			Cell:   cell,
			Series: make([]domain.TimeSeriesEntry, 0, bands),
		}
		inGrid[i] = cell.InBounds(height, width)
		if !inGrid[i] {
			e.log.Debug().
				Str("point_id", p.ID).
				Int("row", cell.Row).
				Int("col", cell.Col).
				Msg("point outside raster grid, series will be null")
		}
	}

	periods := domain.PeriodSequence(req.Start, bands)
	e.sample(req, records, inGrid, periods)

	parseFailures := e.match(req, records)

	if e.metrics != nil {
		e.metrics.PointsProcessed.Add(float64(len(records)))
		e.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}

	return &Result{
		Records:       records,
		Periods:       periods,
		ParseFailures: parseFailures,
	}, nil
}

// sample walks the bands in order, reading each full band once and recording
// one entry per point under that band's period label.
func (e *Extractor) sample(req Request, records []domain.ResultRecord, inGrid []bool, periods []domain.Period) {
	for band := 1; band <= len(periods); band++ {
		period := periods[band-1]

		grid, err := req.Raster.ReadBand(band)
		if err != nil {
			// A band that cannot be read nulls this period for every point
			// rather than aborting the run.
			e.log.Warn().Err(err).Int("band", band).Stringer("period", period).
				Msg("band read failed, recording nulls")
			for i := range records {
				records[i].Series = append(records[i].Series, domain.TimeSeriesEntry{Period: period})
				e.countNull("decode")
			}
			continue
		}
		if e.metrics != nil {
			e.metrics.BandsSampled.Inc()
		}

		for i := range records {
			entry := domain.TimeSeriesEntry{Period: period}
			switch {
			case !inGrid[i]:
				e.countNull("out_of_bounds")
			default:
				raw := grid[records[i].Cell.Row][records[i].Cell.Col]
				if math.IsNaN(raw) {
					e.log.Debug().
						Str("point_id", records[i].Point.ID).
						Int("band", band).
						Msg("undecodable cell value, recording null")
					e.countNull("decode")
				} else {
					v := domain.Round4(domain.ConvertUnits(req.Kind, raw))
					entry.Value = &v
				}
			}
			records[i].Series = append(records[i].Series, entry)
		}
	}
}

// match resolves each point's observation date to a period and copies the
// matching series value. Unparseable dates null the MatchValue for that
// record only; dates outside the sampled range are an expected miss.
func (e *Extractor) match(req Request, records []domain.ResultRecord) []*domain.DateParseError {
	var failures []*domain.DateParseError

	for i := range records {
		p := records[i].Point
		// No observation date means nothing to match, not a parse failure.
		if strings.TrimSpace(p.RawDate) == "" {
			continue
		}
		period, err := domain.ResolveObservationDate(p.ID, p.RawDate, req.Format)
		if err != nil {
			var parseErr *domain.DateParseError
			if errors.As(err, &parseErr) {
				failures = append(failures, parseErr)
			}
			e.log.Error().Err(err).Str("point_id", p.ID).
				Msg("observation date unparseable, match value is null")
			if e.metrics != nil {
				e.metrics.DateParseFailures.Inc()
			}
			continue
		}

		value, ok := records[i].ValueFor(period)
		if !ok {
			e.log.Debug().
				Str("point_id", p.ID).
				Stringer("period", period).
				Msg("observation month outside sampled range")
			if e.metrics != nil {
				e.metrics.MatchMisses.Inc()
			}
			continue
		}
		records[i].MatchValue = value
	}
	return failures
}

func (e *Extractor) countNull(reason string) {
	if e.metrics != nil {
		e.metrics.NullCells.WithLabelValues(reason).Inc()
	}
}

// Summary formats the closing log line for a run.
func (r *Result) Summary(kind domain.VariableKind) string {
	cols := 5 + len(r.Periods) + 1
	return fmt.Sprintf("wrote %d rows with %d values for %s data", len(r.Records)+1, cols, kind)
}
