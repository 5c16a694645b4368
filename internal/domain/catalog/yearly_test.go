package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestRecomputeFromSubjectsWeightsByHours(t *testing.T) {
	math := &StudentCatalogPerSubject{WeeklyHoursCount: 4, AvgSem1: fptr(10), AvgFinal: fptr(10), UnfoundedAbsCountSem1: 2, AbsCountSem1: 2}
	art := &StudentCatalogPerSubject{WeeklyHoursCount: 1, AvgSem1: fptr(5), AvgFinal: fptr(5), FoundedAbsCountSem1: 1, AbsCountSem1: 1}
	math.AbsCountAnnual, art.AbsCountAnnual = 2, 1
	math.UnfoundedAbsCountAnnual, art.FoundedAbsCountAnnual = 2, 1

	year := &StudentCatalogPerYear{}
	year.RecomputeFromSubjects([]*StudentCatalogPerSubject{math, art})

	require.NotNil(t, year.AvgSem1)
	assert.Equal(t, 9.0, *year.AvgSem1) // (10*4 + 5*1) / 5
	assert.Equal(t, 9.0, *year.AvgFinal)
	assert.Nil(t, year.AvgSem2)
	assert.Equal(t, 3, year.AbsCountSem1)
	assert.Equal(t, 2, year.UnfoundedAbsCountSem1)
	assert.Equal(t, 1, year.FoundedAbsCountSem1)
	assert.Equal(t, 3, year.AbsCountAnnual)
}

func TestRecomputeFromSubjectsSkipsExempted(t *testing.T) {
	sport := &StudentCatalogPerSubject{WeeklyHoursCount: 2, AvgSem1: fptr(10), IsExempted: true}
	math := &StudentCatalogPerSubject{WeeklyHoursCount: 4, AvgSem1: fptr(7)}

	year := &StudentCatalogPerYear{}
	year.RecomputeFromSubjects([]*StudentCatalogPerSubject{sport, math})

	require.NotNil(t, year.AvgSem1)
	assert.Equal(t, 7.0, *year.AvgSem1)
}

func TestAggregateYearlyCatalogs(t *testing.T) {
	catalogs := []*StudentCatalogPerYear{
		{AvgSem1: fptr(9), AvgFinal: fptr(9.5), UnfoundedAbsCountSem1: 4, UnfoundedAbsCountAnnual: 6},
		{AvgSem1: fptr(7), AvgFinal: fptr(6.5), UnfoundedAbsCountSem1: 0, UnfoundedAbsCountAnnual: 2},
		{AvgSem1: fptr(10), IsExempted: true}, // skipped entirely
		{UnfoundedAbsCountSem1: 2},            // no average yet, still counted for absences
	}

	agg := AggregateYearlyCatalogs(catalogs)

	require.NotNil(t, agg.AvgSem1)
	assert.Equal(t, 8.0, *agg.AvgSem1)
	require.NotNil(t, agg.AvgAnnual)
	assert.Equal(t, 8.0, *agg.AvgAnnual) // mean over final averages
	require.NotNil(t, agg.UnfoundedAbsAvgSem1)
	assert.Equal(t, 2.0, *agg.UnfoundedAbsAvgSem1) // 6 absences over 3 students
	assert.Equal(t, 2.67, *agg.UnfoundedAbsAvgAnnual)
}

func TestAggregateYearlyCatalogsEmpty(t *testing.T) {
	agg := AggregateYearlyCatalogs(nil)
	assert.Nil(t, agg.AvgSem1)
	assert.Nil(t, agg.UnfoundedAbsAvgSem1)
}
