// Package series holds the read-only historical demand series used for
// point-in-time feature lookups.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"uk-forecast-lab/internal/domain"
)

// Errors returned by series construction and lookups.
var (
	ErrNotFound           = errors.New("no point at or before target")
	ErrUnsorted           = errors.New("series timestamps are not increasing")
	ErrDuplicateTimestamp = errors.New("series contains duplicate timestamp")
)

// Series is an immutable, strictly increasing sequence of demand points.
// A *Series is safe for concurrent readers; nothing mutates it after New.
type Series struct {
	points []domain.DemandPoint
}

// New validates and copies points into a Series.
// Points must be strictly increasing by timestamp. An empty slice is allowed.
func New(points []domain.DemandPoint) (*Series, error) {
	cp := make([]domain.DemandPoint, len(points))
	copy(cp, points)

	for i := 1; i < len(cp); i++ {
		switch {
		case cp[i].TimestampMs == cp[i-1].TimestampMs:
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTimestamp, cp[i].Time().Format(time.RFC3339))
		case cp[i].TimestampMs < cp[i-1].TimestampMs:
			return nil, fmt.Errorf("%w: index %d", ErrUnsorted, i)
		}
	}

	return &Series{points: cp}, nil
}

// Len returns the number of points.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Empty reports whether the series has no points.
func (s *Series) Empty() bool {
	return s.Len() == 0
}

// First returns the earliest point. ok is false for an empty series.
func (s *Series) First() (domain.DemandPoint, bool) {
	if s.Empty() {
		return domain.DemandPoint{}, false
	}
	return s.points[0], true
}

// Last returns the latest point. ok is false for an empty series.
func (s *Series) Last() (domain.DemandPoint, bool) {
	if s.Empty() {
		return domain.DemandPoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// AtOrBefore returns the latest point whose timestamp does not exceed target.
// Returns ErrNotFound if target precedes the first point or the series is empty.
func (s *Series) AtOrBefore(target time.Time) (domain.DemandPoint, error) {
	if s.Empty() {
		return domain.DemandPoint{}, ErrNotFound
	}

	ts := target.UnixMilli()
	// first index with timestamp > target
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].TimestampMs > ts
	})
	if idx == 0 {
		return domain.DemandPoint{}, ErrNotFound
	}
	return s.points[idx-1], nil
}

// Range returns a copy of the points in the half-open interval [start, end),
// ordered by timestamp ASC.
func (s *Series) Range(start, end time.Time) []domain.DemandPoint {
	if s.Empty() || !start.Before(end) {
		return nil
	}

	from, to := ceilMilli(start), ceilMilli(end)
	lo := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].TimestampMs >= from
	})
	hi := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].TimestampMs >= to
	})
	if lo >= hi {
		return nil
	}

	out := make([]domain.DemandPoint, hi-lo)
	copy(out, s.points[lo:hi])
	return out
}

// ceilMilli rounds t up to whole milliseconds. Points are stored at
// millisecond resolution, so p >= t exactly when p >= ceilMilli(t).
func ceilMilli(t time.Time) int64 {
	ms := t.UnixMilli()
	if t.After(time.UnixMilli(ms)) {
		ms++
	}
	return ms
}

// Values returns the values of points in [start, end).
func (s *Series) Values(start, end time.Time) []float64 {
	pts := s.Range(start, end)
	if len(pts) == 0 {
		return nil
	}
	vals := make([]float64, len(pts))
	for i, p := range pts {
		vals[i] = p.Value
	}
	return vals
}
