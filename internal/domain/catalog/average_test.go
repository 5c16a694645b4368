package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/domain/shared"
)

func newCatalog(weeklyHours int) *StudentCatalogPerSubject {
	return &StudentCatalogPerSubject{
		ID:               "cat-1",
		StudentID:        "student-1",
		SubjectID:        "subject-mat",
		StudyClassID:     "class-1",
		AcademicYear:     shared.AcademicYear(2019),
		WeeklyHoursCount: weeklyHours,
	}
}

func regular(id string, value int, sem shared.Semester) *SubjectGrade {
	return &SubjectGrade{ID: id, Value: shared.GradeValue(value), GradeType: GradeRegular, Semester: sem}
}

func thesis(id string, value int, sem shared.Semester) *SubjectGrade {
	return &SubjectGrade{ID: id, Value: shared.GradeValue(value), GradeType: GradeThesis, Semester: sem}
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 10, RoundHalfUp(9.5))
	assert.Equal(t, 9, RoundHalfUp(8.5))
	assert.Equal(t, 8, RoundHalfUp(8.4))
	assert.Equal(t, 9, RoundHalfUp(8.6))

	assert.Equal(t, 9.5, RoundHalfUp2(9.5))
	assert.Equal(t, 8.33, RoundHalfUp2(8.333333))
	assert.Equal(t, 9.13, RoundHalfUp2(9.125))
}

func TestThesisWeightAndMinGradeCount(t *testing.T) {
	assert.Equal(t, 2, ThesisWeight(1))
	assert.Equal(t, 2, ThesisWeight(2))
	assert.Equal(t, 3, ThesisWeight(3))
	assert.Equal(t, 3, ThesisWeight(5))

	assert.Equal(t, 2, MinRegularGradeCount(1))
	assert.Equal(t, 2, MinRegularGradeCount(2))
	assert.Equal(t, 1, MinRegularGradeCount(4))
}

func TestSemesterAverageRegularOnly(t *testing.T) {
	cat := newCatalog(3)
	require.NoError(t, cat.AddGrade(regular("g1", 7, shared.SemesterFirst)))
	require.NoError(t, cat.AddGrade(regular("g2", 8, shared.SemesterFirst)))

	avg := cat.SemesterAverage(shared.SemesterFirst)
	require.NotNil(t, avg)
	assert.Equal(t, 8.0, *avg) // (7+8)/2 = 7.5, half-up

	// Nothing recorded for the second semester.
	assert.Nil(t, cat.SemesterAverage(shared.SemesterSecond))
}

func TestSemesterAverageNeedsMinimumGrades(t *testing.T) {
	cat := newCatalog(1)
	require.NoError(t, cat.AddGrade(regular("g1", 9, shared.SemesterFirst)))

	// One grade is not enough for a one-hour subject.
	assert.Nil(t, cat.SemesterAverage(shared.SemesterFirst))

	require.NoError(t, cat.AddGrade(regular("g2", 10, shared.SemesterFirst)))
	avg := cat.SemesterAverage(shared.SemesterFirst)
	require.NotNil(t, avg)
	assert.Equal(t, 10.0, *avg)
}

func TestSemesterAverageWithThesis(t *testing.T) {
	cat := newCatalog(3)
	cat.WantsThesis = true
	require.NoError(t, cat.AddGrade(regular("g1", 7, shared.SemesterFirst)))
	require.NoError(t, cat.AddGrade(regular("g2", 8, shared.SemesterFirst)))
	require.NoError(t, cat.AddGrade(thesis("t1", 9, shared.SemesterFirst)))

	avg := cat.SemesterAverage(shared.SemesterFirst)
	require.NotNil(t, avg)
	// (7+8+9*3)/(2+3) = 8.4, rounds to 8.
	assert.Equal(t, 8.0, *avg)
}

func TestThesisGradeRules(t *testing.T) {
	cat := newCatalog(3)

	err := cat.AddGrade(thesis("t1", 9, shared.SemesterFirst))
	assert.ErrorIs(t, err, shared.ErrThesisNotWanted)

	cat.WantsThesis = true
	require.NoError(t, cat.AddGrade(thesis("t1", 9, shared.SemesterFirst)))

	err = cat.AddGrade(thesis("t2", 10, shared.SemesterFirst))
	assert.ErrorIs(t, err, shared.ErrSecondThesisGrade)

	// The other semester may still get its own thesis grade.
	assert.NoError(t, cat.AddGrade(thesis("t3", 10, shared.SemesterSecond)))
}

func TestGradeValueValidated(t *testing.T) {
	cat := newCatalog(3)
	err := cat.AddGrade(regular("g1", 11, shared.SemesterFirst))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	err = cat.AddGrade(regular("g2", 0, shared.SemesterFirst))
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestAnnualAverage(t *testing.T) {
	s1, s2 := 8.0, 9.0
	avg := AnnualAverage(&s1, &s2)
	require.NotNil(t, avg)
	assert.Equal(t, 8.5, *avg)

	assert.Nil(t, AnnualAverage(&s1, nil))
	assert.Nil(t, AnnualAverage(nil, &s2))
}

// Scenario: a failing annual average, then second-examination papers
// posted during the Corigente window. The final average becomes the mean
// of all four examiner scores.
func TestSecondExaminationReplacesFailingAverage(t *testing.T) {
	cat := newCatalog(3)
	require.NoError(t, cat.AddGrade(regular("g1", 4, shared.SemesterFirst)))
	require.NoError(t, cat.AddGrade(regular("g2", 4, shared.SemesterSecond)))
	cat.RecomputeAverages()
	require.NotNil(t, cat.AvgAnnual)
	assert.Equal(t, 4.0, *cat.AvgAnnual)

	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "e1", Grade1: 10, Grade2: 9, ExaminationType: ExamWritten, GradeType: ExamSecondExamination,
	}))
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "e2", Grade1: 10, Grade2: 9, ExaminationType: ExamOral, GradeType: ExamSecondExamination,
	}))
	cat.RecomputeAverages()

	require.NotNil(t, cat.AvgAfterSecondExamination)
	assert.Equal(t, 9.5, *cat.AvgAfterSecondExamination)
	require.NotNil(t, cat.AvgFinal)
	assert.Equal(t, 9.5, *cat.AvgFinal)
	// The annual average itself keeps the pre-examination value.
	assert.Equal(t, 4.0, *cat.AvgAnnual)
}

func TestSecondExaminationIgnoredWhenPassing(t *testing.T) {
	cat := newCatalog(3)
	require.NoError(t, cat.AddGrade(regular("g1", 7, shared.SemesterFirst)))
	require.NoError(t, cat.AddGrade(regular("g2", 7, shared.SemesterSecond)))
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "e1", Grade1: 10, Grade2: 10, ExaminationType: ExamWritten, GradeType: ExamSecondExamination,
	}))
	cat.RecomputeAverages()

	assert.Nil(t, cat.AvgAfterSecondExamination)
	require.NotNil(t, cat.AvgFinal)
	assert.Equal(t, 7.0, *cat.AvgFinal)
}

func TestCoordinationSubjectFailsBelowSix(t *testing.T) {
	assert.Equal(t, 5.0, FailingThreshold(false))
	assert.Equal(t, 6.0, FailingThreshold(true))

	cat := newCatalog(1)
	cat.IsCoordinationSubject = true
	require.NoError(t, cat.AddGrade(regular("g1", 5, shared.SemesterFirst)))
	require.NoError(t, cat.AddGrade(regular("g2", 5, shared.SemesterFirst)))
	require.NoError(t, cat.AddGrade(regular("g3", 5, shared.SemesterSecond)))
	require.NoError(t, cat.AddGrade(regular("g4", 5, shared.SemesterSecond)))
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "e1", Grade1: 8, Grade2: 8, ExaminationType: ExamWritten, GradeType: ExamSecondExamination,
	}))
	cat.RecomputeAverages()

	// Annual 5.0 is failing for a coordination subject, so the second
	// examination takes over.
	require.NotNil(t, cat.AvgAfterSecondExamination)
	assert.Equal(t, 8.0, *cat.AvgFinal)
}

func TestDifferenceGradeScopeRules(t *testing.T) {
	sem1 := shared.SemesterFirst

	cat := newCatalog(3)
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d1", Grade1: 8, Grade2: 8, ExaminationType: ExamWritten, GradeType: ExamDifference, Semester: &sem1,
	}))

	// Whole-year scope cannot mix with the existing semester scope.
	err := cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d2", Grade1: 8, Grade2: 8, ExaminationType: ExamOral, GradeType: ExamDifference,
	})
	assert.ErrorIs(t, err, shared.ErrDifferenceScopeMixed)

	// Same scope completes the pair.
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d3", Grade1: 9, Grade2: 9, ExaminationType: ExamOral, GradeType: ExamDifference, Semester: &sem1,
	}))
}

func TestDifferenceGradeRejectedWithRegulars(t *testing.T) {
	sem1 := shared.SemesterFirst

	cat := newCatalog(3)
	require.NoError(t, cat.AddGrade(regular("g1", 7, shared.SemesterFirst)))

	err := cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d1", Grade1: 8, Grade2: 8, ExaminationType: ExamWritten, GradeType: ExamDifference, Semester: &sem1,
	})
	assert.ErrorIs(t, err, shared.ErrDifferenceWithRegulars)

	// The second semester has no regular grades, a difference grade
	// there is fine.
	sem2 := shared.SemesterSecond
	assert.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d2", Grade1: 8, Grade2: 8, ExaminationType: ExamWritten, GradeType: ExamDifference, Semester: &sem2,
	}))
}

func TestDifferenceAverageCompletesSemester(t *testing.T) {
	sem1 := shared.SemesterFirst

	cat := newCatalog(3)
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d1", Grade1: 10, Grade2: 9, ExaminationType: ExamWritten, GradeType: ExamDifference, Semester: &sem1,
	}))

	// Incomplete pair publishes nothing.
	assert.Nil(t, cat.SemesterAverage(shared.SemesterFirst))

	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d2", Grade1: 8, Grade2: 9, ExaminationType: ExamOral, GradeType: ExamDifference, Semester: &sem1,
	}))
	avg := cat.SemesterAverage(shared.SemesterFirst)
	require.NotNil(t, avg)
	assert.Equal(t, 9.0, *avg) // (10+9+8+9)/4
}

func TestDifferenceAverageWholeYear(t *testing.T) {
	cat := newCatalog(3)
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d1", Grade1: 10, Grade2: 9, ExaminationType: ExamWritten, GradeType: ExamDifference,
	}))
	require.NoError(t, cat.AddExaminationGrade(&ExaminationGrade{
		ID: "d2", Grade1: 10, Grade2: 9, ExaminationType: ExamOral, GradeType: ExamDifference,
	}))
	cat.RecomputeAverages()

	require.NotNil(t, cat.AvgAnnual)
	assert.Equal(t, 9.5, *cat.AvgAnnual)
	assert.Equal(t, 9.5, *cat.AvgFinal)
}

func TestAbsenceCounters(t *testing.T) {
	cat := newCatalog(3)
	require.NoError(t, cat.AddAbsence(&SubjectAbsence{ID: "a1", Semester: shared.SemesterFirst}))
	require.NoError(t, cat.AddAbsence(&SubjectAbsence{ID: "a2", Semester: shared.SemesterFirst}))
	require.NoError(t, cat.AddAbsence(&SubjectAbsence{ID: "a3", Semester: shared.SemesterSecond, IsFounded: true}))
	cat.RecomputeAbsences()

	assert.Equal(t, 2, cat.AbsCountSem1)
	assert.Equal(t, 1, cat.AbsCountSem2)
	assert.Equal(t, 3, cat.AbsCountAnnual)
	assert.Equal(t, 2, cat.UnfoundedAbsCountSem1)
	assert.Equal(t, 0, cat.UnfoundedAbsCountSem2)
	assert.Equal(t, 1, cat.FoundedAbsCountAnnual)
}

// Authorizing an absence moves its count from unfounded to founded,
// leaving the total untouched.
func TestAuthorizeAbsenceMovesCounters(t *testing.T) {
	cat := newCatalog(3)
	require.NoError(t, cat.AddAbsence(&SubjectAbsence{ID: "a1", Semester: shared.SemesterFirst}))
	cat.RecomputeAbsences()
	assert.Equal(t, 1, cat.UnfoundedAbsCountSem1)
	assert.Equal(t, 0, cat.FoundedAbsCountSem1)

	require.NoError(t, cat.AuthorizeAbsence("a1"))
	cat.RecomputeAbsences()
	assert.Equal(t, 0, cat.UnfoundedAbsCountSem1)
	assert.Equal(t, 1, cat.FoundedAbsCountSem1)
	assert.Equal(t, 1, cat.AbsCountSem1)

	err := cat.AuthorizeAbsence("a1")
	assert.ErrorIs(t, err, shared.ErrAbsenceAlreadyFounded)
	err = cat.AuthorizeAbsence("missing")
	assert.ErrorIs(t, err, shared.ErrAbsenceNotFound)
}

func TestEditWindows(t *testing.T) {
	now := time.Date(2019, 10, 10, 12, 0, 0, 0, time.UTC)

	cat := newCatalog(3)
	fresh := &SubjectGrade{ID: "g1", CreatedAt: now.Add(-time.Hour)}
	stale := &SubjectGrade{ID: "g2", CreatedAt: now.Add(-8 * 24 * time.Hour)}
	assert.NoError(t, cat.CanEditGrade(fresh, now))
	assert.ErrorIs(t, cat.CanEditGrade(stale, now), shared.ErrEditWindowClosed)

	// Coordination subjects have no window.
	cat.IsCoordinationSubject = true
	assert.NoError(t, cat.CanEditGrade(stale, now))

	exam := &ExaminationGrade{ID: "e1", CreatedAt: now.Add(-3 * time.Hour)}
	assert.ErrorIs(t, cat.CanEditExaminationGrade(exam, now), shared.ErrEditWindowClosed)
	exam.CreatedAt = now.Add(-time.Hour)
	assert.NoError(t, cat.CanEditExaminationGrade(exam, now))
}
