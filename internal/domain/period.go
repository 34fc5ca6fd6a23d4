package domain

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar month, the temporal unit of one raster band.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (expected YYYY-MM): %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// AddMonths returns the period n calendar months later.
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// PeriodSequence returns n consecutive periods starting at start, one per
// raster band. The sequence is strictly increasing with no gaps by
// construction.
func PeriodSequence(start Period, n int) []Period {
	periods := make([]Period, n)
	for i := 0; i < n; i++ {
		periods[i] = start.AddMonths(i)
	}
	return periods
}

// DateFormat selects how raw observation date strings are parsed. The format
// is a single run-wide setting, never auto-detected per record.
type DateFormat int

const (
	// DateFormatISO parses YYYY-MM-DD.
	DateFormatISO DateFormat = iota
	// DateFormatUS parses MM/DD/YYYY. The upstream ERA extraction script
	// documents this mode as DD-MM-YYYY but has always parsed month/day/year
	// with slashes; we keep the behavior, not the docstring.
	DateFormatUS
)

// String returns the layout description for error messages.
func (f DateFormat) String() string {
	if f == DateFormatUS {
		return "MM/DD/YYYY"
	}
	return "YYYY-MM-DD"
}

func (f DateFormat) layout() string {
	if f == DateFormatUS {
		return "01/02/2006"
	}
	return "2006-01-02"
}

// DateParseError reports an observation date that does not match the
// configured format. It identifies the offending point so the record can be
// reported without aborting the run.
type DateParseError struct {
	PointID string
	RawDate string
	Format  DateFormat
	Err     error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("point %s: observation date %q does not match format %s: %v",
		e.PointID, e.RawDate, e.Format, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// ResolveObservationDate parses a raw observation date and reduces it to the
// year-month period it falls in. The day component is discarded.
func ResolveObservationDate(pointID, raw string, format DateFormat) (Period, error) {
	t, err := time.Parse(format.layout(), strings.TrimSpace(raw))
	if err != nil {
		return Period{}, &DateParseError{PointID: pointID, RawDate: raw, Format: format, Err: err}
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}
