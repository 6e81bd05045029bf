// Package holiday resolves public holidays by civil date.
package holiday

import (
	"fmt"
	"sort"
	"time"

	"uk-forecast-lab/internal/domain"
)

// DateLayout is the civil-date key format.
const DateLayout = "2006-01-02"

// Calendar is an immutable date -> holiday lookup. Dates not present are
// ordinary days. A nil *Calendar has no holidays.
type Calendar struct {
	days map[string]string
}

// NewCalendar builds a calendar from holidays. Dates must use DateLayout.
func NewCalendar(holidays []domain.Holiday) (*Calendar, error) {
	days := make(map[string]string, len(holidays))
	for _, h := range holidays {
		if _, err := time.Parse(DateLayout, h.Date); err != nil {
			return nil, fmt.Errorf("parse holiday date %q: %w", h.Date, err)
		}
		days[h.Date] = h.Name
	}
	return &Calendar{days: days}, nil
}

// dateKey formats the civil date of t in t's own location.
func dateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// IsHoliday reports whether t's civil date is a holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	_, ok := c.days[dateKey(t)]
	return ok
}

// Name returns the holiday name for t's civil date, if any.
func (c *Calendar) Name(t time.Time) (string, bool) {
	if c == nil {
		return "", false
	}
	name, ok := c.days[dateKey(t)]
	return name, ok
}

// Len returns the number of holiday dates.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.days)
}

// Holidays returns all holidays ordered by date.
func (c *Calendar) Holidays() []domain.Holiday {
	if c == nil {
		return nil
	}
	out := make([]domain.Holiday, 0, len(c.days))
	for d, n := range c.days {
		out = append(out, domain.Holiday{Date: d, Name: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
