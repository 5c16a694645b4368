package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/domain/shared"
	"github.com/edualert/edualert/internal/domain/school"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, starts, ends time.Time) shared.DateRange {
	t.Helper()
	r, err := shared.NewDateRange(starts, ends)
	require.NoError(t, err)
	return r
}

// testCalendar builds the 2019-2020 calendar used across these tests:
// first semester 2019-09-09 .. 2019-12-20, second semester
// 2020-01-13 .. 2020-06-12, Corigente window 2020-08-20 .. 2020-08-27.
func testCalendar(t *testing.T) *AcademicYearCalendar {
	t.Helper()
	corigente, err := NewSchoolEvent("ev-cor", EventCorigente, date(2020, 8, 20), date(2020, 8, 27))
	require.NoError(t, err)
	diferente, err := NewSchoolEvent("ev-dif", EventDiferente, date(2020, 9, 1), date(2020, 9, 8))
	require.NoError(t, err)

	return &AcademicYearCalendar{
		ID:           "cal-2019",
		AcademicYear: shared.AcademicYear(2019),
		FirstSemester: &SemesterCalendar{
			Semester: shared.SemesterFirst,
			Range:    mustRange(t, date(2019, 9, 9), date(2019, 12, 20)),
		},
		SecondSemester: &SemesterCalendar{
			Semester: shared.SemesterSecond,
			Range:    mustRange(t, date(2020, 1, 13), date(2020, 6, 12)),
		},
		Events: []*SchoolEvent{corigente, diferente},
	}
}

func TestCurrentSemester(t *testing.T) {
	cal := testCalendar(t)

	sem := cal.CurrentSemester(date(2019, 10, 1))
	require.NotNil(t, sem)
	assert.Equal(t, shared.SemesterFirst, sem.Semester)

	sem = cal.CurrentSemester(date(2020, 3, 15))
	require.NotNil(t, sem)
	assert.Equal(t, shared.SemesterSecond, sem.Semester)

	// Winter break between semesters.
	assert.Nil(t, cal.CurrentSemester(date(2019, 12, 28)))
	// Before the year starts.
	assert.Nil(t, cal.CurrentSemester(date(2019, 9, 1)))
}

func TestCanUpdateGrades(t *testing.T) {
	cal := testCalendar(t)

	assert.NoError(t, cal.CanUpdateGrades(date(2019, 11, 5)))

	err := cal.CanUpdateGrades(date(2020, 7, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOutsideSemester)
}

func TestContainsCoversWholeAcademicYear(t *testing.T) {
	cal := testCalendar(t)

	assert.True(t, cal.Contains(date(2019, 9, 9)))
	assert.True(t, cal.Contains(date(2020, 7, 15))) // summer, exam season
	assert.True(t, cal.Contains(date(2020, 8, 31)))
	assert.False(t, cal.Contains(date(2019, 9, 1))) // before first semester
	assert.False(t, cal.Contains(date(2020, 9, 2)))
}

func TestCanUpdateExaminationGrades(t *testing.T) {
	cal := testCalendar(t)

	// Inside the Corigente window, same academic year.
	err := cal.CanUpdateExaminationGrades(shared.AcademicYear(2019), EventCorigente, date(2020, 8, 23))
	assert.NoError(t, err)

	// Outside the window.
	err = cal.CanUpdateExaminationGrades(shared.AcademicYear(2019), EventCorigente, date(2020, 8, 28))
	assert.ErrorIs(t, err, shared.ErrOutsideExamWindow)

	// Second examinations never apply to a past academic year.
	err = cal.CanUpdateExaminationGrades(shared.AcademicYear(2018), EventCorigente, date(2020, 8, 23))
	assert.ErrorIs(t, err, shared.ErrOutsideExamWindow)

	// Difference examinations may settle catalogs of a prior year.
	err = cal.CanUpdateExaminationGrades(shared.AcademicYear(2018), EventDiferente, date(2020, 9, 3))
	assert.NoError(t, err)

	// A holiday is not an examination window.
	err = cal.CanUpdateExaminationGrades(shared.AcademicYear(2019), EventWinterHoliday, date(2020, 8, 23))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestVariantFor(t *testing.T) {
	assert.Equal(t, EndVariantGradeVIII, VariantFor(8, school.TrackNone))
	assert.Equal(t, EndVariantGradeXIIXIII, VariantFor(12, school.TrackTechnological))
	assert.Equal(t, EndVariantGradeXIIXIII, VariantFor(13, school.TrackTheoretical))
	assert.Equal(t, EndVariantTechnological, VariantFor(10, school.TrackTechnological))
	assert.Equal(t, EndVariantRegular, VariantFor(10, school.TrackTheoretical))
	assert.Equal(t, EndVariantRegular, VariantFor(3, school.TrackNone))
}

func TestSemesterEndDateTakesMaximum(t *testing.T) {
	cal := testCalendar(t)
	endVIII, err := NewSchoolEvent("ev-viii", EventSecondSemesterEndVIII, date(2020, 5, 25), date(2020, 5, 29))
	require.NoError(t, err)
	endTech, err := NewSchoolEvent("ev-tech", EventSecondSemesterEndTech, date(2020, 6, 22), date(2020, 6, 26))
	require.NoError(t, err)
	cal.SecondSemester.Events = append(cal.SecondSemester.Events, endVIII, endTech)

	// Regular classes end on the semester's own end date.
	assert.Equal(t, date(2020, 6, 12), cal.SemesterEndDate(shared.SemesterSecond, EndVariantRegular))

	// Grade VIII ends earlier, but the effective date is the maximum of
	// the two, so the semester end still governs.
	assert.Equal(t, date(2020, 6, 12), cal.SemesterEndDate(shared.SemesterSecond, EndVariantGradeVIII))

	// The technological event ends after the semester and wins.
	assert.Equal(t, date(2020, 6, 26), cal.SemesterEndDate(shared.SemesterSecond, EndVariantTechnological))

	// First-semester end is never variant-dependent.
	assert.Equal(t, date(2019, 12, 20), cal.SemesterEndDate(shared.SemesterFirst, EndVariantGradeVIII))
}

func TestAnnualEvaluationDue(t *testing.T) {
	cal := testCalendar(t)
	endVIII, err := NewSchoolEvent("ev-viii", EventSecondSemesterEndVIII, date(2020, 5, 25), date(2020, 5, 29))
	require.NoError(t, err)
	cal.SecondSemester.Events = append(cal.SecondSemester.Events, endVIII)

	// Grade VIII classes become due at their own earlier end event.
	assert.True(t, cal.AnnualEvaluationDue(EndVariantGradeVIII, date(2020, 5, 29)))
	assert.True(t, cal.AnnualEvaluationDue(EndVariantGradeVIII, date(2020, 6, 20)))
	assert.False(t, cal.AnnualEvaluationDue(EndVariantGradeVIII, date(2020, 5, 20)))

	// Regular classes only after the semester's own end.
	assert.False(t, cal.AnnualEvaluationDue(EndVariantRegular, date(2020, 5, 29)))
	assert.True(t, cal.AnnualEvaluationDue(EndVariantRegular, date(2020, 6, 12)))

	// Never after the academic year closes.
	assert.False(t, cal.AnnualEvaluationDue(EndVariantRegular, date(2020, 9, 5)))
}

func TestPlacementsDue(t *testing.T) {
	cal := testCalendar(t)

	// Mid-semester there is nothing to rank.
	assert.False(t, cal.PlacementsDue(EndVariantRegular, date(2019, 11, 5)))
	assert.False(t, cal.PlacementsDue(EndVariantRegular, date(2020, 3, 15)))

	// The first-semester window opens at the semester end and closes
	// when the second semester starts.
	assert.True(t, cal.PlacementsDue(EndVariantRegular, date(2019, 12, 20)))
	assert.True(t, cal.PlacementsDue(EndVariantRegular, date(2020, 1, 5)))
	assert.False(t, cal.PlacementsDue(EndVariantRegular, date(2020, 1, 13)))

	// From the variant's second-semester end onward it tracks
	// AnnualEvaluationDue.
	assert.True(t, cal.PlacementsDue(EndVariantRegular, date(2020, 6, 12)))
	assert.True(t, cal.PlacementsDue(EndVariantRegular, date(2020, 7, 1)))
	assert.False(t, cal.PlacementsDue(EndVariantRegular, date(2020, 9, 5)))
}

func TestWorkingWeeks(t *testing.T) {
	cal := testCalendar(t)

	// 2019-09-09 and 2019-12-20 normalize to Mondays 09-09 and 12-16:
	// 98 days apart, 14 full weeks plus the starting week.
	assert.Equal(t, 15, cal.WorkingWeeks(shared.SemesterFirst, EndVariantRegular, false))

	// An autumn holiday only shortens the primary track.
	autumn, err := NewSchoolEvent("ev-autumn", EventAutumnHoliday, date(2019, 10, 26), date(2019, 11, 3))
	require.NoError(t, err)
	cal.FirstSemester.Events = append(cal.FirstSemester.Events, autumn)

	assert.Equal(t, 15, cal.WorkingWeeks(shared.SemesterFirst, EndVariantRegular, false))
	assert.Equal(t, 13, cal.WorkingWeeks(shared.SemesterFirst, EndVariantRegular, true))

	// A spring holiday shortens every track of the second semester.
	spring, err := NewSchoolEvent("ev-spring", EventSpringHoliday, date(2020, 4, 6), date(2020, 4, 12))
	require.NoError(t, err)
	cal.SecondSemester.Events = append(cal.SecondSemester.Events, spring)

	// Mondays 2020-01-13 .. 2020-06-08: 21 full weeks plus the starting
	// week, minus the one-week spring holiday.
	assert.Equal(t, 21, cal.WorkingWeeks(shared.SemesterSecond, EndVariantRegular, false))
}

func TestRecomputeWorkingWeeksIsIdempotent(t *testing.T) {
	cal := testCalendar(t)
	autumn, err := NewSchoolEvent("ev-autumn", EventAutumnHoliday, date(2019, 10, 26), date(2019, 11, 3))
	require.NoError(t, err)
	cal.FirstSemester.Events = append(cal.FirstSemester.Events, autumn)

	cal.RecomputeWorkingWeeks()
	first := *cal.FirstSemester
	second := *cal.SecondSemester

	cal.RecomputeWorkingWeeks()
	assert.Equal(t, first.WorkingWeeksCount, cal.FirstSemester.WorkingWeeksCount)
	assert.Equal(t, first.WorkingWeeksCountPrimarySchool, cal.FirstSemester.WorkingWeeksCountPrimarySchool)
	assert.Equal(t, second.WorkingWeeksCount, cal.SecondSemester.WorkingWeeksCount)
	assert.Equal(t, second.WorkingWeeksCountTechnological, cal.SecondSemester.WorkingWeeksCountTechnological)

	assert.Equal(t, 15, cal.FirstSemester.WorkingWeeksCount)
	assert.Equal(t, 13, cal.FirstSemester.WorkingWeeksCountPrimarySchool)
}

func TestGenerateNextYear(t *testing.T) {
	cal := testCalendar(t)

	next := cal.GenerateNextYear()
	assert.Equal(t, shared.AcademicYear(2020), next.AcademicYear)
	assert.Equal(t, date(2020, 9, 9), next.FirstSemester.Range.Starts)
	assert.Equal(t, date(2020, 12, 20), next.FirstSemester.Range.Ends)
	assert.Equal(t, date(2021, 6, 12), next.SecondSemester.Range.Ends)
	require.Len(t, next.Events, 2)
	assert.Equal(t, EventCorigente, next.Events[0].EventType)
	assert.Equal(t, date(2021, 8, 20), next.Events[0].Range.Starts)

	// Counters start at zero until the working-weeks job runs.
	assert.Zero(t, next.FirstSemester.WorkingWeeksCount)
}

func TestNewSchoolEventValidation(t *testing.T) {
	_, err := NewSchoolEvent("ev", EventCorigente, date(2020, 8, 27), date(2020, 8, 20))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewSchoolEvent("ev", EventType("prom_night"), date(2020, 8, 20), date(2020, 8, 27))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
