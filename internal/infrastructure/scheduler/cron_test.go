package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	cases := []struct {
		expr  string
		valid bool
	}{
		{"0 3 * * *", true},     // nightly placements
		{"0 8 1 * *", true},     // monthly alerts
		{"0 2 1 8 *", true},     // yearly calendar generation
		{"*/10 * * * *", true},  // every ten minutes
		{"0 9-17 * * 1-5", true},
		{"0,30 * * * *", true},
		{"", false},
		{"0 3 * *", false},      // four fields
		{"61 * * * *", false},   // minute out of range
		{"* 25 * * *", false},   // hour out of range
		{"* * * * seven", false},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			ce, err := ParseCronExpression(tc.expr)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, tc.expr, ce.String())
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCronNextDaily(t *testing.T) {
	ce, err := ParseCronExpression("0 3 * * *")
	require.NoError(t, err)

	// Before 03:00 the run is today, after it the run is tomorrow.
	from := time.Date(2025, 9, 15, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 15, 3, 0, 0, 0, time.UTC), ce.Next(from))

	from = time.Date(2025, 9, 15, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 16, 3, 0, 0, 0, time.UTC), ce.Next(from))
}

func TestCronNextMonthly(t *testing.T) {
	ce, err := ParseCronExpression("0 8 1 * *")
	require.NoError(t, err)

	from := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC), ce.Next(from))
}

func TestCronNextYearly(t *testing.T) {
	// August 1st, the pass that prepares the next academic year.
	ce, err := ParseCronExpression("0 2 1 8 *")
	require.NoError(t, err)

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 1, 2, 0, 0, 0, time.UTC), ce.Next(from))
}

func TestCronNextStep(t *testing.T) {
	ce, err := ParseCronExpression("*/15 * * * *")
	require.NoError(t, err)

	from := time.Date(2025, 9, 15, 10, 7, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 15, 10, 15, 0, 0, time.UTC), ce.Next(from))

	// An exact match moves to the next slot, never returns the input minute.
	from = time.Date(2025, 9, 15, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC), ce.Next(from))
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)

	from := time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(10*time.Minute), s.Next(from))
	assert.NotEmpty(t, s.String())
}
