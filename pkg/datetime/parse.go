// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/iwvelando/loan-simulator/pkg/constants"
)

const (
	// DateLayout is the ISO date format accepted in requests and configuration.
	DateLayout = "2006-01-02"

	// DueDateLayout is the day-first format used when rendering schedules.
	DueDateLayout = constants.DueDateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// AddMonths returns date shifted by the given number of calendar months. When
// the target month is shorter than the source day, the result lands on the
// last day of the target month (Jan 31 + 1 month = Feb 28) instead of
// overflowing into the following month as time.AddDate does.
func AddMonths(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	hour, minute, sec := date.Clock()

	first := time.Date(year, month+time.Month(months), 1, hour, minute, sec, date.Nanosecond(), date.Location())
	if last := DaysInMonth(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// DaysInMonth returns the number of days in the month containing date.
func DaysInMonth(date time.Time) int {
	year, month, _ := date.Date()
	return time.Date(year, month+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

// ParseDate parses an ISO date, returning the zero time for an empty string.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, value)
}

// FormatDueDate renders a schedule due date.
func FormatDueDate(date time.Time) string {
	return date.Format(DueDateLayout)
}
