// Package timeutil provides timezone utilities for the Romanian school
// system (Europe/Bucharest). Handles date formatting, ISO-week arithmetic
// for working-week computation, and timezone-aware time operations.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// BucharestTZ is the Romanian timezone. Romania observes DST, so the
// IANA database is used; the fixed EET offset is only a fallback for
// systems without tzdata.
var BucharestTZ = loadBucharest()

func loadBucharest() *time.Location {
	loc, err := time.LoadLocation("Europe/Bucharest")
	if err != nil {
		return time.FixedZone("EET", 2*60*60)
	}
	return loc
}

// Now returns the current time in Bucharest timezone.
func Now() time.Time {
	return time.Now().In(BucharestTZ)
}

// ToBucharest converts a time to Bucharest timezone.
func ToBucharest(t time.Time) time.Time {
	return t.In(BucharestTZ)
}

// Date creates a time in Bucharest timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, BucharestTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Bucharest timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToBucharest(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, BucharestTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Bucharest timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToBucharest(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, BucharestTZ)
}

// StartOfWeek returns the Monday 00:00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	local := ToBucharest(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(local.AddDate(0, 0, -(weekday - 1)))
}

// WeekSpan returns the number of ISO weeks spanned by an inclusive date
// range: both boundaries are normalized to the Monday of their week, the
// elapsed days divided by 7, plus one for the starting week. A range
// within a single week spans 1.
func WeekSpan(start, end time.Time) int {
	s := StartOfWeek(start)
	e := StartOfWeek(end)
	if e.Before(s) {
		return 0
	}
	return calendarDays(s, e)/7 + 1
}

// calendarDays counts the calendar days from a to b. The dates are
// re-anchored in UTC first: a local-time subtraction is short one hour
// across the spring DST transition and truncates to one day less.
func calendarDays(a, b time.Time) int {
	a, b = ToBucharest(a), ToBucharest(b)
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// StartOfMonth returns the start of the month in Bucharest timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToBucharest(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, BucharestTZ)
}

// EndOfMonth returns the end of the month in Bucharest timezone.
func EndOfMonth(t time.Time) time.Time {
	return EndOfDay(StartOfMonth(t).AddDate(0, 1, -1))
}

// DaysBetween calculates the number of calendar days between two times.
func DaysBetween(t1, t2 time.Time) int {
	days := calendarDays(t1, t2)
	if days < 0 {
		days = -days
	}
	return days
}

// IsSameDay checks if two times are on the same day in Bucharest timezone.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToBucharest(t1), ToBucharest(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatRomanianDate is the Romanian date format (DD.MM.YYYY).
	FormatRomanianDate = "02.01.2006"
	// FormatMonthKey keys monthly series and CloudWatch log groups (MM-YYYY).
	FormatMonthKey = "01-2006"
)

// FormatBucharest formats a time in Bucharest timezone with the given layout.
func FormatBucharest(t time.Time, layout string) string {
	return ToBucharest(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Bucharest timezone.
func FormatDateStr(t time.Time) string {
	return FormatBucharest(t, FormatDate)
}

// FormatRomanian formats a time in Romanian format (DD.MM.YYYY).
func FormatRomanian(t time.Time) string {
	return FormatBucharest(t, FormatRomanianDate)
}

// MonthKey returns the MM-YYYY key of the month containing t.
func MonthKey(t time.Time) string {
	return FormatBucharest(t, FormatMonthKey)
}

// ParseBucharest parses a time string in Bucharest timezone.
func ParseBucharest(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, BucharestTZ)
}

// ParseDate parses a date string (YYYY-MM-DD) in Bucharest timezone.
func ParseDate(value string) (time.Time, error) {
	return ParseBucharest(FormatDate, value)
}

// IsWeekend checks if the given time is on a weekend.
func IsWeekend(t time.Time) bool {
	weekday := ToBucharest(t).Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// MonthNameRo returns the Romanian name for a month, used in report
// subjects and risk notification bodies.
func MonthNameRo(m time.Month) string {
	names := []string{
		"", "ianuarie", "februarie", "martie", "aprilie", "mai", "iunie",
		"iulie", "august", "septembrie", "octombrie", "noiembrie", "decembrie",
	}
	if int(m) >= 1 && int(m) <= 12 {
		return names[m]
	}
	return ""
}

// FormatMonthRo renders "luna anul", e.g. "septembrie 2019".
func FormatMonthRo(t time.Time) string {
	local := ToBucharest(t)
	return fmt.Sprintf("%s %d", MonthNameRo(local.Month()), local.Year())
}
