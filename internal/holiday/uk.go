package holiday

import "uk-forecast-lab/internal/domain"

// UKBankHolidays returns England & Wales bank holidays 2023-2026.
func UKBankHolidays() []domain.Holiday {
	return []domain.Holiday{
		{Date: "2023-01-01", Name: "New Year's Day"},
		{Date: "2023-01-02", Name: "New Year's Day (substitute)"},
		{Date: "2023-04-07", Name: "Good Friday"},
		{Date: "2023-04-10", Name: "Easter Monday"},
		{Date: "2023-05-01", Name: "Early May bank holiday"},
		{Date: "2023-05-29", Name: "Spring bank holiday"},
		{Date: "2023-08-28", Name: "Summer bank holiday"},
		{Date: "2023-12-25", Name: "Christmas Day"},
		{Date: "2023-12-26", Name: "Boxing Day"},

		{Date: "2024-01-01", Name: "New Year's Day"},
		{Date: "2024-03-29", Name: "Good Friday"},
		{Date: "2024-04-01", Name: "Easter Monday"},
		{Date: "2024-05-06", Name: "Early May bank holiday"},
		{Date: "2024-05-27", Name: "Spring bank holiday"},
		{Date: "2024-08-26", Name: "Summer bank holiday"},
		{Date: "2024-12-25", Name: "Christmas Day"},
		{Date: "2024-12-26", Name: "Boxing Day"},

		{Date: "2025-01-01", Name: "New Year's Day"},
		{Date: "2025-04-18", Name: "Good Friday"},
		{Date: "2025-04-21", Name: "Easter Monday"},
		{Date: "2025-05-05", Name: "Early May bank holiday"},
		{Date: "2025-05-26", Name: "Spring bank holiday"},
		{Date: "2025-08-25", Name: "Summer bank holiday"},
		{Date: "2025-12-25", Name: "Christmas Day"},
		{Date: "2025-12-26", Name: "Boxing Day"},

		{Date: "2026-01-01", Name: "New Year's Day"},
		{Date: "2026-04-03", Name: "Good Friday"},
		{Date: "2026-04-06", Name: "Easter Monday"},
		{Date: "2026-05-04", Name: "Early May bank holiday"},
		{Date: "2026-05-25", Name: "Spring bank holiday"},
		{Date: "2026-08-31", Name: "Summer bank holiday"},
		{Date: "2026-12-25", Name: "Christmas Day"},
		{Date: "2026-12-28", Name: "Boxing Day (substitute)"},
	}
}

// UK returns a calendar of UKBankHolidays.
func UK() *Calendar {
	c, err := NewCalendar(UKBankHolidays())
	if err != nil {
		panic(err) // static data
	}
	return c
}
