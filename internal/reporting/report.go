package reporting

import "time"

// Report is a rendered-ready horizon forecast.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Model       string
	Version     string
	Start       time.Time
	Step        time.Duration

	// Forecast rows in time order
	Rows []ForecastRow

	Summary Summary

	// Latest recorded predictions, newest first. Empty when no store is wired.
	RecentPredictions []PredictionRow
}

// ForecastRow is one horizon step.
type ForecastRow struct {
	Timestamp time.Time
	Demand    float64 // MW
	Lower     float64
	Upper     float64
}

// Summary aggregates a horizon.
type Summary struct {
	Steps    int
	Min      float64
	MinAt    time.Time
	Max      float64
	MaxAt    time.Time
	Mean     float64
	StdDev   float64 // sample std, 0 for a single step
	PeakHour int     // hour of day with the highest mean demand
}

// PredictionRow is one audit log entry.
type PredictionRow struct {
	ID        string
	Kind      string
	Model     string
	Value     float64
	CreatedAt time.Time
}
