package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// In-memory repositories for the cascade.

type fakeSubjectCatalogs struct {
	byStudent map[string][]*catalog.StudentCatalogPerSubject
	updated   []*catalog.StudentCatalogPerSubject
}

func (f *fakeSubjectCatalogs) GetByID(_ context.Context, id string) (*catalog.StudentCatalogPerSubject, error) {
	for _, rows := range f.byStudent {
		for _, c := range rows {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return nil, shared.ErrCatalogNotFound
}

func (f *fakeSubjectCatalogs) GetByStudent(_ context.Context, studentID string, _ shared.AcademicYear) ([]*catalog.StudentCatalogPerSubject, error) {
	return f.byStudent[studentID], nil
}

func (f *fakeSubjectCatalogs) GetByStudyClass(_ context.Context, _ string) ([]*catalog.StudentCatalogPerSubject, error) {
	return nil, nil
}

func (f *fakeSubjectCatalogs) GetBySubjectAndClass(_ context.Context, _, _ string) ([]*catalog.StudentCatalogPerSubject, error) {
	return nil, nil
}

func (f *fakeSubjectCatalogs) Save(_ context.Context, _ *catalog.StudentCatalogPerSubject) error {
	return nil
}

func (f *fakeSubjectCatalogs) Update(_ context.Context, c *catalog.StudentCatalogPerSubject) error {
	f.updated = append(f.updated, c)
	return nil
}

type fakeYearlyCatalogs struct {
	rows    []*catalog.StudentCatalogPerYear
	updated []*catalog.StudentCatalogPerYear
}

func (f *fakeYearlyCatalogs) GetByID(_ context.Context, id string) (*catalog.StudentCatalogPerYear, error) {
	for _, c := range f.rows {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrCatalogNotFound
}

func (f *fakeYearlyCatalogs) GetByStudent(_ context.Context, studentID string, _ shared.AcademicYear) (*catalog.StudentCatalogPerYear, error) {
	for _, c := range f.rows {
		if c.StudentID == studentID {
			return c, nil
		}
	}
	return nil, shared.ErrCatalogNotFound
}

func (f *fakeYearlyCatalogs) GetByStudyClass(_ context.Context, studyClassID string) ([]*catalog.StudentCatalogPerYear, error) {
	var out []*catalog.StudentCatalogPerYear
	for _, c := range f.rows {
		if c.StudyClassID == studyClassID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeYearlyCatalogs) GetBySchoolUnit(_ context.Context, schoolUnitID string, _ shared.AcademicYear) ([]*catalog.StudentCatalogPerYear, error) {
	var out []*catalog.StudentCatalogPerYear
	for _, c := range f.rows {
		if c.SchoolUnitID == schoolUnitID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeYearlyCatalogs) Save(_ context.Context, _ *catalog.StudentCatalogPerYear) error {
	return nil
}

func (f *fakeYearlyCatalogs) Update(_ context.Context, c *catalog.StudentCatalogPerYear) error {
	f.updated = append(f.updated, c)
	return nil
}

type fakeClasses struct {
	classes []*school.StudyClass
	updated []*school.StudyClass
}

func (f *fakeClasses) GetByID(_ context.Context, id string) (*school.StudyClass, error) {
	for _, c := range f.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrStudyClassNotFound
}

func (f *fakeClasses) GetBySchoolUnit(_ context.Context, schoolUnitID string, _ shared.AcademicYear) ([]*school.StudyClass, error) {
	var out []*school.StudyClass
	for _, c := range f.classes {
		if c.SchoolUnitID == schoolUnitID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClasses) GetByAcademicYear(_ context.Context, _ shared.AcademicYear) ([]*school.StudyClass, error) {
	return f.classes, nil
}

func (f *fakeClasses) Save(_ context.Context, _ *school.StudyClass) error { return nil }

func (f *fakeClasses) Update(_ context.Context, c *school.StudyClass) error {
	f.updated = append(f.updated, c)
	return nil
}

type fakePrograms struct {
	programs []*school.AcademicProgram
	updated  []*school.AcademicProgram
}

func (f *fakePrograms) GetByID(_ context.Context, id string) (*school.AcademicProgram, error) {
	for _, p := range f.programs {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakePrograms) GetBySchoolUnit(_ context.Context, _ string, _ shared.AcademicYear) ([]*school.AcademicProgram, error) {
	return f.programs, nil
}

func (f *fakePrograms) Save(_ context.Context, _ *school.AcademicProgram) error { return nil }

func (f *fakePrograms) Update(_ context.Context, p *school.AcademicProgram) error {
	f.updated = append(f.updated, p)
	return nil
}

type fakeSchoolUnits struct {
	units      []*school.SchoolUnit
	stats      []*school.SchoolUnitStats
	savedStats []*school.SchoolUnitStats
	updated    []*school.SchoolUnit
}

func (f *fakeSchoolUnits) GetByID(_ context.Context, id string) (*school.SchoolUnit, error) {
	for _, u := range f.units {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrSchoolUnitNotFound
}

func (f *fakeSchoolUnits) GetAll(_ context.Context) ([]*school.SchoolUnit, error) {
	return f.units, nil
}

func (f *fakeSchoolUnits) Save(_ context.Context, _ *school.SchoolUnit) error { return nil }

func (f *fakeSchoolUnits) Update(_ context.Context, u *school.SchoolUnit) error {
	f.updated = append(f.updated, u)
	return nil
}

func (f *fakeSchoolUnits) GetStats(_ context.Context, schoolUnitID string, _ shared.AcademicYear) (*school.SchoolUnitStats, error) {
	for _, s := range f.stats {
		if s.SchoolUnitID == schoolUnitID {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeSchoolUnits) SaveStats(_ context.Context, s *school.SchoolUnitStats) error {
	f.savedStats = append(f.savedStats, s)
	return nil
}

func (f *fakeSchoolUnits) GetEnrollmentStats(_ context.Context, _ string, _ shared.AcademicYear) (*school.SchoolUnitEnrollmentStats, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeSchoolUnits) SaveEnrollmentStats(_ context.Context, _ *school.SchoolUnitEnrollmentStats) error {
	return nil
}

type fakeProfiles struct {
	profiles []*school.UserProfile
	updated  []*school.UserProfile
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*school.UserProfile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrProfileNotFound
}

func (f *fakeProfiles) GetByEmail(_ context.Context, _ string) (*school.UserProfile, error) {
	return nil, shared.ErrProfileNotFound
}

func (f *fakeProfiles) GetStudentsByClass(_ context.Context, _ string) ([]*school.UserProfile, error) {
	return nil, nil
}

func (f *fakeProfiles) GetStudentsBySchoolUnit(_ context.Context, _ string) ([]*school.UserProfile, error) {
	return nil, nil
}

func (f *fakeProfiles) CountActiveStudents(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (f *fakeProfiles) Save(_ context.Context, _ *school.UserProfile) error { return nil }

func (f *fakeProfiles) Update(_ context.Context, p *school.UserProfile) error {
	f.updated = append(f.updated, p)
	return nil
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(e shared.Event) error {
	f.events = append(f.events, e)
	return nil
}

// The corigență scenario: a failing annual average overridden by a 9.5
// second examination must roll up through the yearly catalog, the class,
// the program and the school stats, stamp both actors, and publish the
// recompute event.

func TestCascadePropagatesSecondExaminationOverride(t *testing.T) {
	cat := &catalog.StudentCatalogPerSubject{
		ID:               "subjcat-1",
		StudentID:        "student-1",
		SubjectID:        "subject-mat",
		StudyClassID:     "class-1",
		SchoolUnitID:     "school-1",
		TeacherID:        "teacher-1",
		AcademicYear:     shared.AcademicYear(2019),
		WeeklyHoursCount: 3,
	}
	require.NoError(t, cat.AddGrade(&catalog.SubjectGrade{
		ID: "g1", Value: 4, GradeType: catalog.GradeRegular, Semester: shared.SemesterFirst,
	}))
	require.NoError(t, cat.AddGrade(&catalog.SubjectGrade{
		ID: "g2", Value: 4, GradeType: catalog.GradeRegular, Semester: shared.SemesterSecond,
	}))
	require.NoError(t, cat.AddExaminationGrade(&catalog.ExaminationGrade{
		ID: "e1", Grade1: 10, Grade2: 9, ExaminationType: catalog.ExamWritten, GradeType: catalog.ExamSecondExamination,
	}))
	require.NoError(t, cat.AddExaminationGrade(&catalog.ExaminationGrade{
		ID: "e2", Grade1: 10, Grade2: 9, ExaminationType: catalog.ExamOral, GradeType: catalog.ExamSecondExamination,
	}))

	yearly := &catalog.StudentCatalogPerYear{
		ID:           "yearcat-1",
		StudentID:    "student-1",
		StudyClassID: "class-1",
		SchoolUnitID: "school-1",
		AcademicYear: shared.AcademicYear(2019),
	}
	class := &school.StudyClass{
		ID:                "class-1",
		SchoolUnitID:      "school-1",
		AcademicProgramID: "prog-1",
		AcademicYear:      shared.AcademicYear(2019),
	}
	program := &school.AcademicProgram{ID: "prog-1", SchoolUnitID: "school-1"}
	unit := &school.SchoolUnit{ID: "school-1", Name: "Liceul Teoretic"}
	teacher := &school.UserProfile{ID: "teacher-1", Role: school.RoleTeacher}

	subjectCatalogs := &fakeSubjectCatalogs{
		byStudent: map[string][]*catalog.StudentCatalogPerSubject{"student-1": {cat}},
	}
	yearlyCatalogs := &fakeYearlyCatalogs{rows: []*catalog.StudentCatalogPerYear{yearly}}
	classes := &fakeClasses{classes: []*school.StudyClass{class}}
	programs := &fakePrograms{programs: []*school.AcademicProgram{program}}
	schoolUnits := &fakeSchoolUnits{units: []*school.SchoolUnit{unit}}
	profiles := &fakeProfiles{profiles: []*school.UserProfile{teacher}}
	publisher := &fakePublisher{}

	cascade := NewCascade(subjectCatalogs, yearlyCatalogs, classes, programs, schoolUnits, profiles, publisher)
	now := time.Date(2020, 8, 25, 10, 0, 0, 0, time.UTC)

	require.NoError(t, cascade.Run(context.Background(), cat, "teacher-1", now))

	// Subject catalog: annual 4.0, final overridden to 9.5.
	require.Len(t, subjectCatalogs.updated, 1)
	require.NotNil(t, cat.AvgAnnual)
	assert.Equal(t, 4.0, *cat.AvgAnnual)
	require.NotNil(t, cat.AvgAfterSecondExamination)
	assert.Equal(t, 9.5, *cat.AvgAfterSecondExamination)
	require.NotNil(t, cat.AvgFinal)
	assert.Equal(t, 9.5, *cat.AvgFinal)

	// Yearly catalog: single subject, final carries the override.
	require.Len(t, yearlyCatalogs.updated, 1)
	require.NotNil(t, yearly.AvgFinal)
	assert.Equal(t, 9.5, *yearly.AvgFinal)
	require.NotNil(t, yearly.AvgAnnual)
	assert.Equal(t, 4.0, *yearly.AvgAnnual)

	// Class, program and school aggregates take the annual mean from the
	// final averages, so the passed examination counts.
	require.Len(t, classes.updated, 1)
	require.NotNil(t, class.AvgAnnual)
	assert.Equal(t, 9.5, *class.AvgAnnual)

	require.Len(t, programs.updated, 1)
	require.NotNil(t, program.AvgAnnual)
	assert.Equal(t, 9.5, *program.AvgAnnual)

	require.Len(t, schoolUnits.savedStats, 1)
	stats := schoolUnits.savedStats[0]
	assert.Equal(t, "school-1", stats.SchoolUnitID)
	require.NotNil(t, stats.AvgAnnual)
	assert.Equal(t, 9.5, *stats.AvgAnnual)

	// Both actors are stamped with the mutation time.
	require.Len(t, profiles.updated, 1)
	require.NotNil(t, teacher.LastChangeInCatalog)
	assert.Equal(t, now, *teacher.LastChangeInCatalog)
	require.Len(t, schoolUnits.updated, 1)
	require.NotNil(t, unit.LastChangeInCatalog)
	assert.Equal(t, now, *unit.LastChangeInCatalog)

	// The recompute event carries the final average.
	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(shared.CatalogRecomputedEvent)
	require.True(t, ok)
	assert.Equal(t, "subjcat-1", event.AggregateID())
	assert.Equal(t, "student-1", event.StudentID)
	require.NotNil(t, event.AvgFinal)
	assert.Equal(t, 9.5, *event.AvgFinal)
}
