package risk

import (
	"context"
	"time"

	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AT-RISK TIME SERIES
// ══════════════════════════════════════════════════════════════════════════════

// Granularity is the scope of one at-risk counts series.
type Granularity string

const (
	GranularityCountry Granularity = "country"
	GranularitySchool  Granularity = "school_unit"
	GranularityClass   Granularity = "study_class"
)

// IsValid checks the granularity value.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityCountry, GranularitySchool, GranularityClass:
		return true
	default:
		return false
	}
}

// StudentAtRiskCounts is the time series of at-risk student counts for
// one scope: the whole country, one school unit, or one study class.
// Samples land on a fixed day grid within each month.
type StudentAtRiskCounts struct {
	ID           string
	Granularity  Granularity
	RefID        string // empty for country granularity
	AcademicYear shared.AcademicYear
	Series       school.MonthlySeries
	UpdatedAt    time.Time
}

// Sample grid: counts are recorded on these days of each month.
var sampleDays = [...]int{1, 8, 15, 22}

// SampleDayFor snaps a date to the nearest past grid day of its month.
func SampleDayFor(t time.Time) int {
	day := sampleDays[0]
	for _, d := range sampleDays {
		if t.Day() >= d {
			day = d
		}
	}
	return day
}

// Record stores a count on the grid day of the given date.
func (c *StudentAtRiskCounts) Record(at time.Time, count int) {
	if c.Series == nil {
		c.Series = school.MonthlySeries{}
	}
	snapped := time.Date(at.Year(), at.Month(), SampleDayFor(at), 0, 0, 0, 0, time.UTC)
	c.Series.RecordSample(snapped, count)
	c.UpdatedAt = at.UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CountsRepository persists the at-risk time series per scope.
type CountsRepository interface {
	Get(ctx context.Context, granularity Granularity, refID string, year shared.AcademicYear) (*StudentAtRiskCounts, error)
	Save(ctx context.Context, counts *StudentAtRiskCounts) error
}
