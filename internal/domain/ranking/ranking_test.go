package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/domain/catalog"
)

func fptr(v float64) *float64 { return &v }

func student(id string, avgSem1 *float64, absSem1 int) *catalog.StudentCatalogPerYear {
	return &catalog.StudentCatalogPerYear{
		StudentID:             id,
		AvgSem1:               avgSem1,
		UnfoundedAbsCountSem1: absSem1,
	}
}

func TestAssignPlacesByAverage(t *testing.T) {
	cohort := []*catalog.StudentCatalogPerYear{
		student("a", fptr(7.5), 0),
		student("b", fptr(9.0), 0),
		student("c", fptr(8.0), 0),
	}

	n := AssignPlacesByAverage(cohort, PeriodSem1, ScopeClass)
	assert.Equal(t, 3, n)

	require.NotNil(t, cohort[0].ClassPlaceByAvgSem1)
	assert.Equal(t, 3, *cohort[0].ClassPlaceByAvgSem1)
	assert.Equal(t, 1, *cohort[1].ClassPlaceByAvgSem1)
	assert.Equal(t, 2, *cohort[2].ClassPlaceByAvgSem1)
}

// Equal averages keep encounter order: the student listed first gets the
// better place.
func TestAssignPlacesByAverageTiesKeepOrder(t *testing.T) {
	cohort := []*catalog.StudentCatalogPerYear{
		student("a", fptr(8.0), 0),
		student("b", fptr(8.0), 0),
		student("c", fptr(8.0), 0),
	}

	AssignPlacesByAverage(cohort, PeriodSem1, ScopeClass)

	assert.Equal(t, 1, *cohort[0].ClassPlaceByAvgSem1)
	assert.Equal(t, 2, *cohort[1].ClassPlaceByAvgSem1)
	assert.Equal(t, 3, *cohort[2].ClassPlaceByAvgSem1)
}

func TestAssignPlacesSkipsMissingAverages(t *testing.T) {
	cohort := []*catalog.StudentCatalogPerYear{
		student("a", fptr(8.0), 0),
		student("b", nil, 0),
	}

	n := AssignPlacesByAverage(cohort, PeriodSem1, ScopeClass)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, *cohort[0].ClassPlaceByAvgSem1)
	assert.Nil(t, cohort[1].ClassPlaceByAvgSem1)
}

// Places are a permutation of 1..N whatever the input order.
func TestPlacesArePermutation(t *testing.T) {
	cohort := []*catalog.StudentCatalogPerYear{
		student("a", fptr(6.0), 12),
		student("b", fptr(9.5), 0),
		student("c", fptr(9.5), 3),
		student("d", fptr(7.25), 3),
		student("e", fptr(10.0), 1),
	}

	AssignPlacesByAverage(cohort, PeriodSem1, ScopeSchool)
	AssignPlacesByAbsences(cohort, PeriodSem1, ScopeSchool)

	seenAvg := map[int]bool{}
	seenAbs := map[int]bool{}
	for _, c := range cohort {
		require.NotNil(t, c.SchoolPlaceByAvgSem1)
		require.NotNil(t, c.SchoolPlaceByAbsSem1)
		seenAvg[*c.SchoolPlaceByAvgSem1] = true
		seenAbs[*c.SchoolPlaceByAbsSem1] = true
	}
	for place := 1; place <= len(cohort); place++ {
		assert.True(t, seenAvg[place], "average place %d missing", place)
		assert.True(t, seenAbs[place], "absence place %d missing", place)
	}
}

// Fewer absences ranks better.
func TestAssignPlacesByAbsences(t *testing.T) {
	cohort := []*catalog.StudentCatalogPerYear{
		student("a", nil, 5),
		student("b", nil, 0),
		student("c", nil, 2),
	}

	AssignPlacesByAbsences(cohort, PeriodSem1, ScopeClass)

	assert.Equal(t, 3, *cohort[0].ClassPlaceByAbsSem1)
	assert.Equal(t, 1, *cohort[1].ClassPlaceByAbsSem1)
	assert.Equal(t, 2, *cohort[2].ClassPlaceByAbsSem1)
}

func TestAssignAllPlacesLeavesAnnualUntilReady(t *testing.T) {
	cohort := []*catalog.StudentCatalogPerYear{
		student("a", fptr(8.0), 1),
		student("b", fptr(9.0), 0),
	}

	AssignAllPlaces(cohort, ScopeClass)

	// Sem1 places exist, annual average places do not yet.
	assert.NotNil(t, cohort[0].ClassPlaceByAvgSem1)
	assert.Nil(t, cohort[0].ClassPlaceByAvgAnnual)
	// Absence places always exist, counters default to zero.
	assert.NotNil(t, cohort[0].ClassPlaceByAbsAnnual)

	cohort[0].AvgFinal = fptr(8.5)
	cohort[1].AvgFinal = fptr(9.5)
	AssignAllPlaces(cohort, ScopeClass)
	require.NotNil(t, cohort[0].ClassPlaceByAvgAnnual)
	assert.Equal(t, 2, *cohort[0].ClassPlaceByAvgAnnual)
	assert.Equal(t, 1, *cohort[1].ClassPlaceByAvgAnnual)
}
