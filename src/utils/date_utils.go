package utils

import (
	"fmt"
	"log"
	"strconv"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// ParseDate parses a date string using the default format.
// Logs an error and returns zero time if parsing fails.
func ParseDate(dateStr string) time.Time {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		log.Printf("Error parsing date '%s' with format '%s': %v. Returning zero time.", dateStr, DefaultDateFormat, err)
		return time.Time{} // Return zero time on error
	}
	return t
}

// QuarterBounds returns the half-open window [start, end) of a calendar
// quarter in UTC. Quarter is 1-4.
func QuarterBounds(year, quarter int) (time.Time, time.Time) {
	startMonth := time.Month((quarter-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, 0)
}

// YearBounds returns the half-open window [start, end) of a calendar year
// in UTC.
func YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// PeriodLabel renders a human label for a statement period: "Q3 2026" for an
// exact calendar quarter, "2026" for a calendar year, otherwise both dates.
func PeriodLabel(start, end time.Time) string {
	if start.Day() == 1 && end.Day() == 1 {
		if start.Month() == time.January && end.Equal(start.AddDate(1, 0, 0)) {
			return strconv.Itoa(start.Year())
		}
		if (int(start.Month())-1)%3 == 0 && end.Equal(start.AddDate(0, 3, 0)) {
			return fmt.Sprintf("Q%d %d", (int(start.Month())-1)/3+1, start.Year())
		}
	}
	return start.Format(DefaultDateFormat) + " / " + end.Format(DefaultDateFormat)
}
