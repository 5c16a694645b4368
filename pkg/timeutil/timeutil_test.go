package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndEndOfDay(t *testing.T) {
	// 2025-09-15 is a Monday.
	ts := time.Date(2025, 9, 15, 14, 30, 45, 0, BucharestTZ)

	start := StartOfDay(ts)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
	assert.Equal(t, 15, start.Day())

	end := EndOfDay(ts)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 15, end.Day())
}

func TestStartOfWeek(t *testing.T) {
	monday := Date(2025, 9, 15)

	// Wednesday and Sunday of the same week map to the same Monday.
	wednesday := Date(2025, 9, 17)
	sunday := Date(2025, 9, 21)
	assert.Equal(t, monday, StartOfWeek(wednesday))
	assert.Equal(t, monday, StartOfWeek(sunday))
	assert.Equal(t, monday, StartOfWeek(monday))
}

func TestWeekSpan(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"same day", Date(2025, 9, 15), Date(2025, 9, 15), 1},
		{"within one week", Date(2025, 9, 15), Date(2025, 9, 19), 1},
		{"friday to next monday", Date(2025, 9, 19), Date(2025, 9, 22), 2},
		{"full semester", Date(2025, 9, 8), Date(2025, 12, 19), 15},
		{"reversed range", Date(2025, 9, 22), Date(2025, 9, 15), 0},
		// Ranges over the spring DST transition are 7N days minus one
		// hour of wall clock; the count must not lose a week to that.
		{"across spring DST", Date(2020, 2, 3), Date(2020, 6, 8), 19},
		{"week of the DST switch", Date(2020, 3, 23), Date(2020, 3, 30), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekSpan(tt.start, tt.end))
		})
	}
}

func TestMonthBoundaries(t *testing.T) {
	ts := Date(2025, 2, 14)

	start := StartOfMonth(ts)
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, time.February, start.Month())

	// 2025 is not a leap year.
	end := EndOfMonth(ts)
	assert.Equal(t, 28, end.Day())
	assert.Equal(t, 23, end.Hour())
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(Date(2025, 9, 15), Date(2025, 9, 15)))
	assert.Equal(t, 3, DaysBetween(Date(2025, 9, 15), Date(2025, 9, 18)))
	// Order does not matter.
	assert.Equal(t, 3, DaysBetween(Date(2025, 9, 18), Date(2025, 9, 15)))
	// The spring DST switch (2020-03-29) shortens the wall clock by an
	// hour but not the calendar distance.
	assert.Equal(t, 2, DaysBetween(Date(2020, 3, 28), Date(2020, 3, 30)))
}

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2025, 9, 15, 8, 0, 0, 0, BucharestTZ)
	evening := time.Date(2025, 9, 15, 22, 0, 0, 0, BucharestTZ)
	nextDay := time.Date(2025, 9, 16, 0, 1, 0, 0, BucharestTZ)

	assert.True(t, IsSameDay(morning, evening))
	assert.False(t, IsSameDay(evening, nextDay))
}

func TestIsWeekend(t *testing.T) {
	assert.False(t, IsWeekend(Date(2025, 9, 15))) // Monday
	assert.True(t, IsWeekend(Date(2025, 9, 20)))  // Saturday
	assert.True(t, IsWeekend(Date(2025, 9, 21)))  // Sunday
}

func TestFormatting(t *testing.T) {
	ts := Date(2025, 9, 5)

	assert.Equal(t, "2025-09-05", FormatDateStr(ts))
	assert.Equal(t, "05.09.2025", FormatRomanian(ts))
	assert.Equal(t, "09-2025", MonthKey(ts))
}

func TestParseDate(t *testing.T) {
	ts, err := ParseDate("2025-09-15")
	require.NoError(t, err)
	assert.Equal(t, 2025, ts.Year())
	assert.Equal(t, time.September, ts.Month())
	assert.Equal(t, 15, ts.Day())
	assert.Equal(t, BucharestTZ, ts.Location())

	_, err = ParseDate("15.09.2025")
	assert.Error(t, err)
}

func TestRomanianMonthNames(t *testing.T) {
	assert.Equal(t, "septembrie", MonthNameRo(time.September))
	assert.Equal(t, "ianuarie", MonthNameRo(time.January))
	assert.Equal(t, "", MonthNameRo(time.Month(13)))

	assert.Equal(t, "septembrie 2025", FormatMonthRo(Date(2025, 9, 15)))
}
