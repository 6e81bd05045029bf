// Package ingestion reads historical demand files and loads them into storage.
package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"uk-forecast-lab/internal/domain"
)

// SettlementPeriod is the length of one settlement period.
const SettlementPeriod = 30 * time.Minute

// Maximum settlement period index (clock-change days have 50).
const maxSettlementPeriod = 50

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// Options configures CSV parsing.
type Options struct {
	DateColumn   string         // timestamp or date column
	ValueColumn  string         // demand column
	PeriodColumn string         // optional half-hour index 1..50, applied to date-only values
	Location     *time.Location // zone for timestamps without an offset
}

// DefaultOptions returns the column layout of the national demand export.
func DefaultOptions() Options {
	return Options{
		DateColumn:   "settlement_date",
		ValueColumn:  "demand_value",
		PeriodColumn: "settlement_period",
		Location:     time.UTC,
	}
}

// Stats summarizes one parse.
type Stats struct {
	Rows          int // data rows read
	Kept          int // points returned
	BlankValues   int // rows with empty or NaN demand
	BadValues     int // rows with non-numeric demand
	BadTimestamps int // rows with unparsable date or period
	Duplicates    int // rows sharing an earlier row's timestamp
}

// Dropped returns the number of rows not returned.
func (s Stats) Dropped() int {
	return s.BlankValues + s.BadValues + s.BadTimestamps + s.Duplicates
}

// timestampLayouts are tried in order for values without a zone offset.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02/01/2006 15:04",
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-Jan-2006",
}

// ParseCSV reads demand points from r. Rows with blank or NaN demand and rows
// with unparsable timestamps are dropped. The result is sorted by time and a
// repeated timestamp keeps its first occurrence in file order.
func ParseCSV(r io.Reader, opts Options) ([]domain.DemandPoint, Stats, error) {
	var stats Stats
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	dateIdx, valueIdx, periodIdx := -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case opts.DateColumn:
			dateIdx = i
		case opts.ValueColumn:
			valueIdx = i
		case opts.PeriodColumn:
			if opts.PeriodColumn != "" {
				periodIdx = i
			}
		}
	}
	if dateIdx < 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, opts.DateColumn)
	}
	if valueIdx < 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, opts.ValueColumn)
	}

	type row struct {
		point domain.DemandPoint
		order int
	}
	var rows []row

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		rawValue := strings.TrimSpace(field(record, valueIdx))
		if rawValue == "" {
			stats.BlankValues++
			continue
		}
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			stats.BadValues++
			continue
		}
		if math.IsNaN(value) {
			stats.BlankValues++
			continue
		}
		if math.IsInf(value, 0) {
			stats.BadValues++
			continue
		}

		period := ""
		if periodIdx >= 0 {
			period = field(record, periodIdx)
		}
		ts, err := parseTimestamp(field(record, dateIdx), period, opts.Location)
		if err != nil {
			stats.BadTimestamps++
			continue
		}

		rows = append(rows, row{point: domain.NewDemandPoint(ts, value), order: stats.Rows})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].point.TimestampMs < rows[j].point.TimestampMs
	})

	points := make([]domain.DemandPoint, 0, len(rows))
	for _, r := range rows {
		if n := len(points); n > 0 && points[n-1].TimestampMs == r.point.TimestampMs {
			stats.Duplicates++
			continue
		}
		points = append(points, r.point)
	}
	stats.Kept = len(points)

	return points, stats, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

// parseTimestamp resolves a date or datetime value. A settlement period is
// applied only to date-only values: period p starts at (p-1)*30m after midnight.
func parseTimestamp(raw, period string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}

	for _, layout := range dateLayouts {
		d, err := time.ParseInLocation(layout, raw, loc)
		if err != nil {
			continue
		}
		period = strings.TrimSpace(period)
		if period == "" {
			return d, nil
		}
		p, err := strconv.Atoi(period)
		if err != nil || p < 1 || p > maxSettlementPeriod {
			return time.Time{}, fmt.Errorf("invalid settlement period %q", period)
		}
		// Elapsed time, so clock-change days keep 46 or 50 distinct periods.
		return d.Add(time.Duration(p-1) * SettlementPeriod), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
