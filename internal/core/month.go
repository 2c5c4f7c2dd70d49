package core

import (
	"fmt"
	"time"
)

// Months are 1-12 throughout the API, matching time.Month. Stored exclusion
// tokens keep the zero-based month of the historical data format ("2025-0" is
// January 2025), so tokens are opaque strings generated only through MonthToken.

// MonthToken returns the exclusion token for a calendar month.
func MonthToken(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month-1)
}

// MonthIndex maps a calendar month onto a single comparable integer.
func MonthIndex(year, month int) int {
	return year*12 + (month - 1)
}

// LastDay returns the number of days in the given month.
func LastDay(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay clamps a day-of-month to the last actual day of the month, so a
// due day of 31 behaves as the 28th/29th in February.
func ClampDay(day, year, month int) int {
	if last := LastDay(year, month); day > last {
		return last
	}
	return day
}

// MonthStart returns the first instant of the month.
func MonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last instant of the month.
func MonthEnd(year, month int) time.Time {
	return time.Date(year, time.Month(month), LastDay(year, month), 23, 59, 59, 0, time.UTC)
}

// NextMonth returns the calendar month following the given one.
func NextMonth(year, month int) (int, int) {
	if month >= 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// NewDate builds a UTC date at noon. Noon avoids day rollover when timestamps
// cross timezone conversions on their way to and from storage.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}
