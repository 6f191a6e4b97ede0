package types

import (
	"fmt"
	"time"
)

// PeriodLayout is the textual form of a quota period.
const PeriodLayout = "2006-01"

// Period identifies a calendar month, e.g. "2025-03".
type Period string

// PeriodOf returns the period containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period(t.Format(PeriodLayout))
}

// ParsePeriod validates a "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	if _, err := time.Parse(PeriodLayout, s); err != nil {
		return "", fmt.Errorf("invalid period %q: expected YYYY-MM", s)
	}
	return Period(s), nil
}

func (p Period) String() string { return string(p) }

// Bounds returns the first and last day of the period in loc.
func (p Period) Bounds(loc *time.Location) (start, end time.Time) {
	t, err := time.ParseInLocation(PeriodLayout, string(p), loc)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	start = t
	end = t.AddDate(0, 1, -1)
	return start, end
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	t, err := time.Parse(PeriodLayout, string(p))
	if err != nil {
		return p
	}
	return PeriodOf(t.AddDate(0, -1, 0))
}
