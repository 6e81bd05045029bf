// Package features derives the model input vector for a single requested
// timestamp from calendar rules, a holiday calendar and the historical series.
package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/holiday"
	"uk-forecast-lab/internal/series"
)

// Calendar and indicator feature names.
const (
	Year        = "year"
	Month       = "month"
	Day         = "day"
	Hour        = "hour"
	DayOfWeek   = "day_of_week"
	Quarter     = "quarter"
	WeekOfYear  = "week_of_year"
	Season      = "season"
	IsWeekend   = "is_weekend"
	IsBusiness  = "is_business_hours"
	IsNight     = "is_night"
	IsPeakAM    = "is_peak_morning"
	IsPeakPM    = "is_peak_evening"
	HourSin     = "hour_sin"
	HourCos     = "hour_cos"
	MonthSin    = "month_sin"
	MonthCos    = "month_cos"
	DayOfWeekSn = "day_of_week_sin"
	DayOfWeekCs = "day_of_week_cos"
	IsHoliday   = "is_holiday"
	IsDayBefore = "is_day_before_holiday"
	IsDayAfter  = "is_day_after_holiday"
	WeekendHour = "weekend_hour"
	HolidayHour = "holiday_hour"
	MonthHour   = "month_hour"
)

// Periods of the cyclical encodings.
const (
	hourPeriod      = 24
	monthPeriod     = 12
	dayOfWeekPeriod = 7
)

// Features is the full set of values computed for one query, in emission order.
type Features struct {
	names  []string
	values map[string]float64
}

func newFeatures(capacity int) *Features {
	return &Features{
		names:  make([]string, 0, capacity),
		values: make(map[string]float64, capacity),
	}
}

func (f *Features) set(name string, v float64) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = v
}

// Get returns a computed value by name.
func (f *Features) Get(name string) (float64, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Names returns the computed feature names in emission order.
func (f *Features) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of computed features.
func (f *Features) Len() int {
	return len(f.names)
}

// Synthesizer computes point-in-time features. It holds only configuration,
// so one instance may serve any number of concurrent requests.
type Synthesizer struct {
	cfg Config
}

// NewSynthesizer validates cfg and returns a Synthesizer.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature config: %w", err)
	}
	return &Synthesizer{cfg: cfg}, nil
}

// Config returns the synthesizer configuration.
func (s *Synthesizer) Config() Config {
	return s.cfg
}

// Synthesize computes every configured feature for query time q.
// Calendar fields use q's location. Fails with ErrDataUnavailable for an empty
// series and *InsufficientHistoryError when a lag or window cannot be resolved.
func (s *Synthesizer) Synthesize(q time.Time, hist *series.Series, cal *holiday.Calendar) (*Features, error) {
	if hist.Empty() {
		return nil, ErrDataUnavailable
	}

	f := newFeatures(48)
	s.calendar(f, q)
	s.indicators(f, q)
	cyclical(f)

	if err := s.lags(f, q, hist); err != nil {
		return nil, err
	}
	if err := s.windows(f, q, hist); err != nil {
		return nil, err
	}

	holidays(f, q, cal)
	interactions(f)

	return f, nil
}

// Vector synthesizes features for q and assembles them in schema order.
func (s *Synthesizer) Vector(q time.Time, hist *series.Series, cal *holiday.Calendar, schema []string) (domain.FeatureVector, error) {
	f, err := s.Synthesize(q, hist, cal)
	if err != nil {
		return domain.FeatureVector{}, err
	}
	return Assemble(f, schema)
}

// Assemble orders computed features by schema. Every schema name must have
// been computed; extra computed features are left out.
func Assemble(f *Features, schema []string) (domain.FeatureVector, error) {
	vec := domain.FeatureVector{
		Names:  make([]string, 0, len(schema)),
		Values: make([]float64, 0, len(schema)),
	}

	var missing []string
	for _, name := range schema {
		v, ok := f.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		vec.Names = append(vec.Names, name)
		vec.Values = append(vec.Values, v)
	}

	if len(missing) > 0 {
		return domain.FeatureVector{}, &IncompleteFeatureVectorError{Missing: missing}
	}
	return vec, nil
}

func (s *Synthesizer) calendar(f *Features, q time.Time) {
	month := int(q.Month())
	_, week := q.ISOWeek()

	f.set(Year, float64(q.Year()))
	f.set(Month, float64(month))
	f.set(Day, float64(q.Day()))
	f.set(Hour, float64(q.Hour()))
	f.set(DayOfWeek, float64(mondayIndex(q.Weekday())))
	f.set(Quarter, float64((month-1)/3+1))
	f.set(WeekOfYear, float64(week))
}

func (s *Synthesizer) indicators(f *Features, q time.Time) {
	hour := q.Hour()
	weekend := q.Weekday() == time.Saturday || q.Weekday() == time.Sunday

	business := s.cfg.BusinessHours.Contains(hour)
	if s.cfg.BusinessWeekdaysOnly && weekend {
		business = false
	}

	f.set(IsWeekend, boolToFloat(weekend))
	f.set(IsBusiness, boolToFloat(business))
	f.set(IsNight, boolToFloat(s.cfg.Night.Contains(hour)))
	f.set(IsPeakAM, boolToFloat(s.cfg.MorningPeak.Contains(hour)))
	f.set(IsPeakPM, boolToFloat(s.cfg.EveningPeak.Contains(hour)))
	f.set(Season, float64(season(q.Month())))
}

func cyclical(f *Features) {
	hour, _ := f.Get(Hour)
	month, _ := f.Get(Month)
	dow, _ := f.Get(DayOfWeek)

	f.set(HourSin, math.Sin(2*math.Pi*hour/hourPeriod))
	f.set(HourCos, math.Cos(2*math.Pi*hour/hourPeriod))
	f.set(MonthSin, math.Sin(2*math.Pi*month/monthPeriod))
	f.set(MonthCos, math.Cos(2*math.Pi*month/monthPeriod))
	f.set(DayOfWeekSn, math.Sin(2*math.Pi*dow/dayOfWeekPeriod))
	f.set(DayOfWeekCs, math.Cos(2*math.Pi*dow/dayOfWeekPeriod))
}

func (s *Synthesizer) lags(f *Features, q time.Time, hist *series.Series) error {
	for _, lag := range s.cfg.Lags {
		name := s.cfg.LagFeature(lag.Name)
		p, err := hist.AtOrBefore(q.Add(-lag.Offset))
		if errors.Is(err, series.ErrNotFound) {
			first, _ := hist.First()
			return &InsufficientHistoryError{
				Feature:     name,
				Offset:      lag.Offset,
				QueryTime:   q,
				SeriesStart: first.Time(),
			}
		}
		if err != nil {
			return fmt.Errorf("lookup %s: %w", name, err)
		}
		f.set(name, p.Value)
	}
	return nil
}

// windows emits mean (and std) for every window first, then deviations, so
// the emission order follows the trained model's column order.
func (s *Synthesizer) windows(f *Features, q time.Time, hist *series.Series) error {
	means := make(map[string]float64, len(s.cfg.Windows))

	for _, w := range s.cfg.Windows {
		vals := hist.Values(q.Add(-w.Length), q)
		if len(vals) == 0 {
			first, _ := hist.First()
			return &InsufficientHistoryError{
				Feature:     s.cfg.MeanFeature(w.Label),
				Window:      w.Length,
				QueryTime:   q,
				SeriesStart: first.Time(),
			}
		}

		mean := stat.Mean(vals, nil)
		means[w.Label] = mean
		f.set(s.cfg.MeanFeature(w.Label), mean)

		if w.Std {
			f.set(s.cfg.StdFeature(w.Label), sampleStd(vals))
		}
	}

	for _, w := range s.cfg.Windows {
		if !w.Deviation {
			continue
		}
		ref, ok := f.Get(s.cfg.LagFeature(s.cfg.DeviationLag))
		if !ok {
			return &IncompleteFeatureVectorError{Missing: []string{s.cfg.LagFeature(s.cfg.DeviationLag)}}
		}
		f.set(s.cfg.DeviationFeature(w.Label), ref-means[w.Label])
	}
	return nil
}

func holidays(f *Features, q time.Time, cal *holiday.Calendar) {
	f.set(IsHoliday, boolToFloat(cal.IsHoliday(q)))
	f.set(IsDayBefore, boolToFloat(cal.IsHoliday(q.AddDate(0, 0, -1))))
	f.set(IsDayAfter, boolToFloat(cal.IsHoliday(q.AddDate(0, 0, 1))))
}

func interactions(f *Features) {
	hour, _ := f.Get(Hour)
	month, _ := f.Get(Month)
	weekend, _ := f.Get(IsWeekend)
	hol, _ := f.Get(IsHoliday)

	f.set(WeekendHour, weekend*hour)
	f.set(HolidayHour, hol*hour)
	f.set(MonthHour, month*hour)
}

// sampleStd is the n-1 standard deviation. A single observation has no
// spread, so it reports 0 rather than NaN.
func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

// mondayIndex maps time.Weekday to Monday=0 .. Sunday=6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// season maps months to winter=0, spring=1, summer=2, autumn=3.
func season(m time.Month) int {
	switch m {
	case time.December, time.January, time.February:
		return 0
	case time.March, time.April, time.May:
		return 1
	case time.June, time.July, time.August:
		return 2
	default:
		return 3
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
