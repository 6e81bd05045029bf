package features

// Names lists every feature a Synthesizer with cfg emits, in emission order.
func Names(cfg Config) []string {
	names := []string{
		Year, Month, Day, Hour, DayOfWeek, Quarter, WeekOfYear,
		IsWeekend, IsBusiness, IsNight, IsPeakAM, IsPeakPM,
		Season,
		HourSin, HourCos, MonthSin, MonthCos, DayOfWeekSn, DayOfWeekCs,
	}
	for _, l := range cfg.Lags {
		names = append(names, cfg.LagFeature(l.Name))
	}
	for _, w := range cfg.Windows {
		names = append(names, cfg.MeanFeature(w.Label))
		if w.Std {
			names = append(names, cfg.StdFeature(w.Label))
		}
	}
	for _, w := range cfg.Windows {
		if w.Deviation {
			names = append(names, cfg.DeviationFeature(w.Label))
		}
	}
	return append(names,
		IsHoliday, IsDayBefore, IsDayAfter,
		WeekendHour, HolidayHour, MonthHour,
	)
}

// Categories groups feature names for model-info responses.
func Categories(cfg Config) map[string][]string {
	lags := make([]string, 0, len(cfg.Lags))
	for _, l := range cfg.Lags {
		lags = append(lags, cfg.LagFeature(l.Name))
	}

	var rolling []string
	for _, w := range cfg.Windows {
		rolling = append(rolling, cfg.MeanFeature(w.Label))
		if w.Std {
			rolling = append(rolling, cfg.StdFeature(w.Label))
		}
	}
	for _, w := range cfg.Windows {
		if w.Deviation {
			rolling = append(rolling, cfg.DeviationFeature(w.Label))
		}
	}

	return map[string][]string{
		"temporal":          {Year, Month, Day, Hour, DayOfWeek, Quarter, WeekOfYear},
		"binary_indicators": {IsWeekend, IsBusiness, IsNight, IsPeakAM, IsPeakPM},
		"season":            {Season},
		"cyclical":          {HourSin, HourCos, MonthSin, MonthCos, DayOfWeekSn, DayOfWeekCs},
		"lag_features":      lags,
		"rolling_stats":     rolling,
		"holidays":          {IsHoliday, IsDayBefore, IsDayAfter},
		"interactions":      {WeekendHour, HolidayHour, MonthHour},
	}
}
