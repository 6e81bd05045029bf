package features

import (
	"errors"
	"fmt"
	"time"
)

// HourRange is an inclusive range of hours of day. When From > To the range
// wraps midnight (e.g. 23..5).
type HourRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Contains reports whether hour h lies in the range.
func (r HourRange) Contains(h int) bool {
	if r.From <= r.To {
		return h >= r.From && h <= r.To
	}
	return h >= r.From || h <= r.To
}

func (r HourRange) validate(name string) error {
	if r.From < 0 || r.From > 23 || r.To < 0 || r.To > 23 {
		return fmt.Errorf("%s: hours must be within 0..23, got %d..%d", name, r.From, r.To)
	}
	return nil
}

// Lag is a lookback offset resolved with nearest-at-or-before semantics.
// The emitted feature is "<target>_lag_<name>".
type Lag struct {
	Name   string        `yaml:"name"`
	Offset time.Duration `yaml:"offset"`
}

// Window is a trailing window [q-length, q) summarised by rolling statistics.
// Emitted features: "<target>_rolling_mean_<label>", "<target>_rolling_std_<label>"
// and "<target>_diff_from_<label>_avg".
type Window struct {
	Label     string        `yaml:"label"`
	Length    time.Duration `yaml:"length"`
	Std       bool          `yaml:"std"`
	Deviation bool          `yaml:"deviation"`
}

// Config controls which features the Synthesizer emits.
type Config struct {
	Target  string   `yaml:"target"`
	Lags    []Lag    `yaml:"lags"`
	Windows []Window `yaml:"windows"`

	// DeviationLag names the lag whose value is compared against window means.
	DeviationLag string `yaml:"deviation_lag"`

	BusinessHours        HourRange `yaml:"business_hours"`
	BusinessWeekdaysOnly bool      `yaml:"business_weekdays_only"`
	Night                HourRange `yaml:"night"`
	MorningPeak          HourRange `yaml:"morning_peak"`
	EveningPeak          HourRange `yaml:"evening_peak"`
}

// DefaultConfig matches the feature set of the UK electricity demand model.
func DefaultConfig() Config {
	return Config{
		Target: "demand",
		Lags: []Lag{
			{Name: "1", Offset: 30 * time.Minute}, // one settlement period
			{Name: "1d", Offset: 24 * time.Hour},
			{Name: "3h", Offset: 3 * time.Hour},
			{Name: "7d", Offset: 7 * 24 * time.Hour},
		},
		Windows: []Window{
			{Label: "24h", Length: 24 * time.Hour, Std: true, Deviation: true},
			{Label: "7d", Length: 7 * 24 * time.Hour},
		},
		DeviationLag:         "1",
		BusinessHours:        HourRange{From: 8, To: 18},
		BusinessWeekdaysOnly: true,
		Night:                HourRange{From: 23, To: 5},
		MorningPeak:          HourRange{From: 7, To: 9},
		EveningPeak:          HourRange{From: 17, To: 20},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Target == "" {
		return errors.New("target is required")
	}

	lagNames := make(map[string]struct{}, len(c.Lags))
	for _, l := range c.Lags {
		if l.Name == "" {
			return errors.New("lag name is required")
		}
		if l.Offset <= 0 {
			return fmt.Errorf("lag %s: offset must be positive", l.Name)
		}
		if _, dup := lagNames[l.Name]; dup {
			return fmt.Errorf("duplicate lag %s", l.Name)
		}
		lagNames[l.Name] = struct{}{}
	}

	labels := make(map[string]struct{}, len(c.Windows))
	needDeviation := false
	for _, w := range c.Windows {
		if w.Label == "" {
			return errors.New("window label is required")
		}
		if w.Length <= 0 {
			return fmt.Errorf("window %s: length must be positive", w.Label)
		}
		if _, dup := labels[w.Label]; dup {
			return fmt.Errorf("duplicate window %s", w.Label)
		}
		labels[w.Label] = struct{}{}
		needDeviation = needDeviation || w.Deviation
	}

	if needDeviation {
		if _, ok := lagNames[c.DeviationLag]; !ok {
			return fmt.Errorf("deviation lag %q is not a configured lag", c.DeviationLag)
		}
	}

	for name, r := range map[string]HourRange{
		"business_hours": c.BusinessHours,
		"night":          c.Night,
		"morning_peak":   c.MorningPeak,
		"evening_peak":   c.EveningPeak,
	} {
		if err := r.validate(name); err != nil {
			return err
		}
	}
	return nil
}

// LagFeature names the lag feature for lag name.
func (c Config) LagFeature(name string) string {
	return fmt.Sprintf("%s_lag_%s", c.Target, name)
}

// MeanFeature names the rolling mean of window label.
func (c Config) MeanFeature(label string) string {
	return fmt.Sprintf("%s_rolling_mean_%s", c.Target, label)
}

// StdFeature names the rolling std of window label.
func (c Config) StdFeature(label string) string {
	return fmt.Sprintf("%s_rolling_std_%s", c.Target, label)
}

// DeviationFeature names the deviation of the reference lag from window label's mean.
func (c Config) DeviationFeature(label string) string {
	return fmt.Sprintf("%s_diff_from_%s_avg", c.Target, label)
}
