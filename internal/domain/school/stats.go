package school

import (
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// SchoolUnitStats holds per-school aggregates for one academic year,
// rewritten by the recompute cascade after each catalog change.
type SchoolUnitStats struct {
	ID           string
	SchoolUnitID string
	AcademicYear shared.AcademicYear

	AvgSem1   *float64
	AvgSem2   *float64
	AvgAnnual *float64

	UnfoundedAbsAvgSem1   *float64
	UnfoundedAbsAvgSem2   *float64
	UnfoundedAbsAvgAnnual *float64

	UpdatedAt time.Time
}

// DailySample is one point in an enrollment or at-risk time series:
// a day-of-month grid within one calendar month.
type DailySample struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// MonthlySeries maps "MM-YYYY" keys to their day samples. Stored as a
// JSON column so a year of history stays one row.
type MonthlySeries map[string][]DailySample

// RecordSample appends or overwrites the sample for a day. Samples within
// a month are kept in day order.
func (m MonthlySeries) RecordSample(at time.Time, count int) {
	key := at.Format("01-2006")
	day := at.Day()
	samples := m[key]
	for i, s := range samples {
		if s.Day == day {
			samples[i].Count = count
			return
		}
	}
	inserted := false
	for i, s := range samples {
		if day < s.Day {
			samples = append(samples[:i], append([]DailySample{{Day: day, Count: count}}, samples[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		samples = append(samples, DailySample{Day: day, Count: count})
	}
	m[key] = samples
}

// Latest returns the most recent sample of a month, if any.
func (m MonthlySeries) Latest(monthKey string) (DailySample, bool) {
	samples := m[monthKey]
	if len(samples) == 0 {
		return DailySample{}, false
	}
	return samples[len(samples)-1], true
}

// SchoolUnitEnrollmentStats tracks daily enrolled-student counts per school
// unit, sampled on the 1st, 8th, 15th and 22nd of each month.
type SchoolUnitEnrollmentStats struct {
	ID           string
	SchoolUnitID string
	AcademicYear shared.AcademicYear
	Series       MonthlySeries
	UpdatedAt    time.Time
}
