package schedule

import (
	"time"

	"github.com/habitloop/habitloop/internal/models"
)

// Matches reports whether the calendar date of t qualifies under the
// frequency rule. Time of day is ignored. One-time frequencies never match
// here; the calculator treats them as a single fixed instant.
func Matches(f models.Frequency, t time.Time) bool {
	switch f.Kind {
	case models.FrequencyDaily:
		return true
	case models.FrequencyWeekly:
		for _, d := range f.Weekdays {
			if t.Weekday() == d {
				return true
			}
		}
		return false
	case models.FrequencyMonthlyDays:
		for _, d := range f.MonthDays {
			if t.Day() == d {
				return true
			}
		}
		return false
	case models.FrequencyMonthlyLastDay:
		return t.Day() == lastDayOfMonth(t)
	case models.FrequencyMonthlyWeekday:
		return t.Weekday() == f.Weekday && weekdayOrdinalInMonth(t) == f.Ordinal
	case models.FrequencyYearlyDate:
		return t.Month() == f.Month && t.Day() == f.Day
	case models.FrequencyYearlyWeekday:
		return t.Weekday() == f.Weekday && weekdayOrdinalInYear(t) == f.Ordinal
	default:
		return false
	}
}

// lastDayOfMonth returns the number of days in t's month. Day zero of the
// following month normalizes to the last day of this one.
func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// weekdayOrdinalInMonth returns which occurrence of its weekday the date is
// within its month (first Monday = 1, second Monday = 2, ...).
func weekdayOrdinalInMonth(t time.Time) int {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	firstMatch := 1 + (int(t.Weekday())-int(firstOfMonth.Weekday())+7)%7
	return (t.Day()-firstMatch)/7 + 1
}

// weekdayOrdinalInYear returns which occurrence of its weekday the date is
// within its year, counting from January 1.
func weekdayOrdinalInYear(t time.Time) int {
	firstOfYear := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	firstMatch := 1 + (int(t.Weekday())-int(firstOfYear.Weekday())+7)%7
	return (t.YearDay()-firstMatch)/7 + 1
}
