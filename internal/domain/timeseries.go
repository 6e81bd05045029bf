package domain

import "time"

// DemandPoint is one measurement of national electricity demand.
// Corresponds to demand_timeseries table in ClickHouse.
type DemandPoint struct {
	TimestampMs int64   // Unix timestamp in milliseconds (UTC)
	Value       float64 // demand in MW
}

// Time returns the point timestamp as time.Time in UTC.
func (p DemandPoint) Time() time.Time {
	return time.UnixMilli(p.TimestampMs).UTC()
}

// NewDemandPoint builds a point from a wall-clock time.
func NewDemandPoint(t time.Time, value float64) DemandPoint {
	return DemandPoint{TimestampMs: t.UnixMilli(), Value: value}
}
