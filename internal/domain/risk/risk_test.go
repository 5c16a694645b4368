package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/domain/catalog"
)

func fptr(v float64) *float64 { return &v }

func TestClassifyAbsences(t *testing.T) {
	assert.Equal(t, LevelNone, ClassifyAbsences(0))
	assert.Equal(t, Level1, ClassifyAbsences(1))
	assert.Equal(t, Level1, ClassifyAbsences(3))
	assert.Equal(t, Level2, ClassifyAbsences(4))
	assert.Equal(t, Level2, ClassifyAbsences(20))
}

func TestClassifyCoreAverage(t *testing.T) {
	assert.Equal(t, LevelNone, ClassifyCoreAverage(nil))
	assert.Equal(t, LevelNone, ClassifyCoreAverage(fptr(7)))
	assert.Equal(t, Level1, ClassifyCoreAverage(fptr(6)))
	assert.Equal(t, Level1, ClassifyCoreAverage(fptr(5)))
	assert.Equal(t, Level2, ClassifyCoreAverage(fptr(4.99)))
}

func TestClassifyBehavior(t *testing.T) {
	assert.Equal(t, LevelNone, ClassifyBehavior(nil))
	assert.Equal(t, LevelNone, ClassifyBehavior(fptr(10)))
	assert.Equal(t, Level1, ClassifyBehavior(fptr(9)))
	assert.Equal(t, Level1, ClassifyBehavior(fptr(8)))
	assert.Equal(t, Level2, ClassifyBehavior(fptr(7.99)))
}

func TestEvaluateAbsencesOnly(t *testing.T) {
	subjects := []*catalog.StudentCatalogPerSubject{
		{SubjectID: "mat", UnfoundedAbsCountAnnual: 3},
		{SubjectID: "lro", UnfoundedAbsCountAnnual: 0},
	}

	a := Evaluate(subjects, nil, false, false)
	assert.Equal(t, Level1, a.Absences)
	assert.Equal(t, LevelNone, a.CoreAverage)
	assert.Equal(t, Level1, a.Overall())
	assert.Equal(t, []string{"RISK_1"}, a.Labels())

	subjects[0].UnfoundedAbsCountAnnual = 4
	a = Evaluate(subjects, nil, false, false)
	assert.Equal(t, Level2, a.Overall())
	assert.Equal(t, []string{"RISK_2"}, a.Labels())
}

func TestEvaluateGradeRiskGatedByCheckpoint(t *testing.T) {
	subjects := []*catalog.StudentCatalogPerSubject{
		{SubjectID: "mat", IsCoreSubject: true, AvgSem1: fptr(4)},
	}

	// Before the semester-end checkpoint grade risk is not evaluated.
	a := Evaluate(subjects, nil, false, false)
	assert.Equal(t, LevelNone, a.CoreAverage)

	a = Evaluate(subjects, nil, true, false)
	assert.Equal(t, Level2, a.CoreAverage)
}

func TestEvaluatePrefersSettledAverage(t *testing.T) {
	subjects := []*catalog.StudentCatalogPerSubject{
		{SubjectID: "mat", IsCoreSubject: true, AvgSem1: fptr(4), AvgFinal: fptr(8)},
	}

	// The passed second examination clears the grade risk.
	a := Evaluate(subjects, nil, true, false)
	assert.Equal(t, LevelNone, a.CoreAverage)
}

func TestEvaluateBehavior(t *testing.T) {
	year := &catalog.StudentCatalogPerYear{BehaviorGradeSem2: fptr(7)}

	a := Evaluate(nil, year, false, false)
	assert.Equal(t, LevelNone, a.Behavior)

	a = Evaluate(nil, year, false, true)
	assert.Equal(t, Level2, a.Behavior)

	year.BehaviorGradeAnnual = fptr(9)
	a = Evaluate(nil, year, false, true)
	assert.Equal(t, Level1, a.Behavior)
}

func TestDescribeJoinsPhrases(t *testing.T) {
	a := Assessment{Absences: Level1}
	assert.Equal(t, "absențe nemotivate", a.Describe())

	a.CoreAverage = Level2
	assert.Equal(t, "absențe nemotivate și medie scăzută la Limba Română sau Matematică", a.Describe())

	a.Behavior = Level1
	assert.Equal(t,
		"absențe nemotivate și medie scăzută la Limba Română sau Matematică și notă scăzută la purtare",
		a.Describe())

	assert.Empty(t, Assessment{}.Describe())
}

// The classifier notifies only on transitions: identical consecutive
// assessments stay silent.
func TestChangedDetectsTransitionsOnly(t *testing.T) {
	subjects := []*catalog.StudentCatalogPerSubject{
		{SubjectID: "mat", UnfoundedAbsCountAnnual: 2},
	}

	first := Evaluate(subjects, nil, false, false)
	second := Evaluate(subjects, nil, false, false)
	assert.False(t, Changed(first, second))

	subjects[0].UnfoundedAbsCountAnnual = 5
	third := Evaluate(subjects, nil, false, false)
	assert.True(t, Changed(second, third))
	assert.False(t, Changed(third, third))

	// Recovery back to no risk is also a transition.
	subjects[0].UnfoundedAbsCountAnnual = 0
	fourth := Evaluate(subjects, nil, false, false)
	assert.True(t, Changed(third, fourth))
	assert.Equal(t, LevelNone, fourth.Overall())
}

func TestMonthlyAlertThresholds(t *testing.T) {
	assert.False(t, NeedsAbsenceAlert(10))
	assert.True(t, NeedsAbsenceAlert(11))

	subjects := []*catalog.StudentCatalogPerSubject{
		{SubjectID: "mat", AvgFinal: fptr(4.5)},
		{SubjectID: "lro", AvgFinal: fptr(5.5)},
		{SubjectID: "dir", IsCoordinationSubject: true, AvgFinal: fptr(5.5)},
		{SubjectID: "eng"},
	}
	below := SubjectsBelowLimit(subjects)
	require.Len(t, below, 2)
	assert.Equal(t, "mat", below[0].SubjectID)
	// Coordination subjects fail below 6.
	assert.Equal(t, "dir", below[1].SubjectID)
}

func TestAtRiskCountsSampleGrid(t *testing.T) {
	assert.Equal(t, 1, SampleDayFor(time.Date(2019, 10, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 8, SampleDayFor(time.Date(2019, 10, 8, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 15, SampleDayFor(time.Date(2019, 10, 21, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 22, SampleDayFor(time.Date(2019, 10, 31, 0, 0, 0, 0, time.UTC)))

	counts := &StudentAtRiskCounts{Granularity: GranularitySchool, RefID: "school-1"}
	counts.Record(time.Date(2019, 10, 9, 10, 0, 0, 0, time.UTC), 12)
	counts.Record(time.Date(2019, 10, 23, 10, 0, 0, 0, time.UTC), 14)
	// Same grid day overwrites instead of appending.
	counts.Record(time.Date(2019, 10, 25, 10, 0, 0, 0, time.UTC), 13)

	samples := counts.Series["10-2019"]
	require.Len(t, samples, 2)
	assert.Equal(t, 8, samples[0].Day)
	assert.Equal(t, 12, samples[0].Count)
	assert.Equal(t, 22, samples[1].Day)
	assert.Equal(t, 13, samples[1].Count)
}
