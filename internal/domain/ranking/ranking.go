// Package ranking orders students within their class and school by
// average (descending) and by unfounded absence count (ascending) and
// writes the resulting 1-based places back onto the yearly catalogs.
// Sorting is stable: students with equal values keep the order in which
// their catalogs were encountered.
package ranking

import (
	"sort"

	"github.com/edualert/edualert/internal/domain/catalog"
)

// Period selects which averages and counters a placement run ranks by.
type Period int

const (
	PeriodSem1 Period = iota + 1
	PeriodSem2
	PeriodAnnual
)

// String returns a stable name for logging.
func (p Period) String() string {
	switch p {
	case PeriodSem1:
		return "sem1"
	case PeriodSem2:
		return "sem2"
	case PeriodAnnual:
		return "annual"
	default:
		return "unknown"
	}
}

// Scope selects the cohort a placement run covers.
type Scope int

const (
	ScopeClass Scope = iota + 1
	ScopeSchool
)

// String returns a stable name for logging.
func (s Scope) String() string {
	switch s {
	case ScopeClass:
		return "class"
	case ScopeSchool:
		return "school"
	default:
		return "unknown"
	}
}

func averageFor(c *catalog.StudentCatalogPerYear, p Period) *float64 {
	switch p {
	case PeriodSem1:
		return c.AvgSem1
	case PeriodSem2:
		return c.AvgSem2
	default:
		return c.AvgFinal
	}
}

func absencesFor(c *catalog.StudentCatalogPerYear, p Period) int {
	switch p {
	case PeriodSem1:
		return c.UnfoundedAbsCountSem1
	case PeriodSem2:
		return c.UnfoundedAbsCountSem2
	default:
		return c.UnfoundedAbsCountAnnual
	}
}

func setAvgPlace(c *catalog.StudentCatalogPerYear, p Period, s Scope, place int) {
	v := place
	switch {
	case s == ScopeClass && p == PeriodSem1:
		c.ClassPlaceByAvgSem1 = &v
	case s == ScopeClass && p == PeriodSem2:
		c.ClassPlaceByAvgSem2 = &v
	case s == ScopeClass:
		c.ClassPlaceByAvgAnnual = &v
	case p == PeriodSem1:
		c.SchoolPlaceByAvgSem1 = &v
	case p == PeriodSem2:
		c.SchoolPlaceByAvgSem2 = &v
	default:
		c.SchoolPlaceByAvgAnnual = &v
	}
}

func setAbsPlace(c *catalog.StudentCatalogPerYear, p Period, s Scope, place int) {
	v := place
	switch {
	case s == ScopeClass && p == PeriodSem1:
		c.ClassPlaceByAbsSem1 = &v
	case s == ScopeClass && p == PeriodSem2:
		c.ClassPlaceByAbsSem2 = &v
	case s == ScopeClass:
		c.ClassPlaceByAbsAnnual = &v
	case p == PeriodSem1:
		c.SchoolPlaceByAbsSem1 = &v
	case p == PeriodSem2:
		c.SchoolPlaceByAbsSem2 = &v
	default:
		c.SchoolPlaceByAbsAnnual = &v
	}
}

// AssignPlacesByAverage ranks the cohort by the period's average,
// highest first, and writes 1-based places. Students without a published
// average for the period receive no place.
func AssignPlacesByAverage(cohort []*catalog.StudentCatalogPerYear, p Period, s Scope) int {
	ranked := make([]*catalog.StudentCatalogPerYear, 0, len(cohort))
	for _, c := range cohort {
		if averageFor(c, p) != nil {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *averageFor(ranked[i], p) > *averageFor(ranked[j], p)
	})
	for i, c := range ranked {
		setAvgPlace(c, p, s, i+1)
	}
	return len(ranked)
}

// AssignPlacesByAbsences ranks the cohort by unfounded absences for the
// period, fewest first, and writes 1-based places. Every student has a
// count, so every student receives a place.
func AssignPlacesByAbsences(cohort []*catalog.StudentCatalogPerYear, p Period, s Scope) int {
	ranked := make([]*catalog.StudentCatalogPerYear, len(cohort))
	copy(ranked, cohort)
	sort.SliceStable(ranked, func(i, j int) bool {
		return absencesFor(ranked[i], p) < absencesFor(ranked[j], p)
	})
	for i, c := range ranked {
		setAbsPlace(c, p, s, i+1)
	}
	return len(ranked)
}

// AssignAllPlaces runs both rankings for every period over one cohort.
// Annual places stay untouched until annual averages exist.
func AssignAllPlaces(cohort []*catalog.StudentCatalogPerYear, s Scope) {
	for _, p := range []Period{PeriodSem1, PeriodSem2, PeriodAnnual} {
		AssignPlacesByAverage(cohort, p, s)
		AssignPlacesByAbsences(cohort, p, s)
	}
}

// AverageFor returns the average a placement run ranks by for the period.
func AverageFor(c *catalog.StudentCatalogPerYear, p Period) *float64 {
	return averageFor(c, p)
}

// AbsencesFor returns the unfounded absence count for the period.
func AbsencesFor(c *catalog.StudentCatalogPerYear, p Period) int {
	return absencesFor(c, p)
}

// PlaceByAverage reads the stored average place for a scope and period.
func PlaceByAverage(c *catalog.StudentCatalogPerYear, s Scope, p Period) *int {
	switch {
	case s == ScopeClass && p == PeriodSem1:
		return c.ClassPlaceByAvgSem1
	case s == ScopeClass && p == PeriodSem2:
		return c.ClassPlaceByAvgSem2
	case s == ScopeClass:
		return c.ClassPlaceByAvgAnnual
	case p == PeriodSem1:
		return c.SchoolPlaceByAvgSem1
	case p == PeriodSem2:
		return c.SchoolPlaceByAvgSem2
	default:
		return c.SchoolPlaceByAvgAnnual
	}
}

// PlaceByAbsences reads the stored absence place for a scope and period.
func PlaceByAbsences(c *catalog.StudentCatalogPerYear, s Scope, p Period) *int {
	switch {
	case s == ScopeClass && p == PeriodSem1:
		return c.ClassPlaceByAbsSem1
	case s == ScopeClass && p == PeriodSem2:
		return c.ClassPlaceByAbsSem2
	case s == ScopeClass:
		return c.ClassPlaceByAbsAnnual
	case p == PeriodSem1:
		return c.SchoolPlaceByAbsSem1
	case p == PeriodSem2:
		return c.SchoolPlaceByAbsSem2
	default:
		return c.SchoolPlaceByAbsAnnual
	}
}
