// Package catalog implements the student catalog and its average engine:
// grade, absence and examination rows per (student, subject, class, year),
// the weighted semester/annual averages computed from them, and the
// yearly roll-up per student. All computation is synchronous and pure;
// persistence and event publication happen in the application layer.
package catalog

import (
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADE AND ABSENCE ROWS
// ══════════════════════════════════════════════════════════════════════════════

// GradeType distinguishes ordinary grades from the semester thesis grade.
type GradeType string

const (
	GradeRegular GradeType = "regular"
	GradeThesis  GradeType = "thesis"
)

// IsValid checks the grade type value.
func (t GradeType) IsValid() bool {
	return t == GradeRegular || t == GradeThesis
}

// SubjectGrade is one grade in a subject catalog.
type SubjectGrade struct {
	ID        string
	CatalogID string
	Value     shared.GradeValue
	GradeType GradeType
	Semester  shared.Semester
	TakenAt   time.Time
	CreatedBy string
	CreatedAt time.Time
}

// SubjectAbsence is one absence in a subject catalog. IsFounded flips
// from false to true when a teacher authorizes the absence.
type SubjectAbsence struct {
	ID        string
	CatalogID string
	Semester  shared.Semester
	TakenAt   time.Time
	IsFounded bool
	CreatedBy string
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAMINATION GRADES
// ══════════════════════════════════════════════════════════════════════════════

// ExamGradeType distinguishes second examinations (Corigenta) from
// difference examinations (Diferenta).
type ExamGradeType string

const (
	ExamSecondExamination ExamGradeType = "second_examination"
	ExamDifference        ExamGradeType = "difference"
)

// IsValid checks the examination grade type value.
func (t ExamGradeType) IsValid() bool {
	return t == ExamSecondExamination || t == ExamDifference
}

// ExaminationType is the examination paper kind. A complete difference
// examination needs one grade of each kind per scope.
type ExaminationType string

const (
	ExamWritten ExaminationType = "written"
	ExamOral    ExaminationType = "oral"
)

// IsValid checks the examination type value.
func (t ExaminationType) IsValid() bool {
	return t == ExamWritten || t == ExamOral
}

// ExaminationGrade holds the two examiner scores of one examination
// paper. Semester is set only for semester-scoped difference grades;
// second-examination and whole-year difference grades leave it nil.
type ExaminationGrade struct {
	ID              string
	CatalogID       string
	Grade1          shared.GradeValue
	Grade2          shared.GradeValue
	ExaminationType ExaminationType
	GradeType       ExamGradeType
	Semester        *shared.Semester
	TakenAt         time.Time
	CreatedBy       string
	CreatedAt       time.Time
}

// Mean returns the average of the two examiner scores.
func (g *ExaminationGrade) Mean() float64 {
	return (float64(g.Grade1) + float64(g.Grade2)) / 2
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT CATALOG PER SUBJECT
// ══════════════════════════════════════════════════════════════════════════════

// StudentCatalogPerSubject is one student's catalog for one subject in
// one study class and academic year. It owns the grade, absence and
// examination rows and carries every computed aggregate field.
type StudentCatalogPerSubject struct {
	ID           string
	StudentID    string
	SubjectID    string
	SubjectName  string
	StudyClassID string
	SchoolUnitID string
	TeacherID    string
	AcademicYear shared.AcademicYear

	// Subject traits that feed the average engine.
	WeeklyHoursCount      int
	IsCoordinationSubject bool
	IsCoreSubject         bool

	WantsThesis bool
	IsExempted  bool
	IsAtRisk    bool

	// Computed averages. Nil means "not yet published".
	AvgSem1                    *float64
	AvgSem2                    *float64
	AvgAnnual                  *float64
	AvgAfterSecondExamination  *float64
	AvgFinal                   *float64

	// Absence counters, maintained by RecomputeAbsences.
	AbsCountSem1            int
	AbsCountSem2            int
	AbsCountAnnual          int
	FoundedAbsCountSem1     int
	FoundedAbsCountSem2     int
	FoundedAbsCountAnnual   int
	UnfoundedAbsCountSem1   int
	UnfoundedAbsCountSem2   int
	UnfoundedAbsCountAnnual int

	Grades            []*SubjectGrade
	Absences          []*SubjectAbsence
	ExaminationGrades []*ExaminationGrade

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GradesForSemester returns the grades of one semester and type.
func (c *StudentCatalogPerSubject) GradesForSemester(sem shared.Semester, gradeType GradeType) []*SubjectGrade {
	var out []*SubjectGrade
	for _, g := range c.Grades {
		if g.Semester == sem && g.GradeType == gradeType {
			out = append(out, g)
		}
	}
	return out
}

// ThesisGrade returns the semester's thesis grade, if recorded.
func (c *StudentCatalogPerSubject) ThesisGrade(sem shared.Semester) *SubjectGrade {
	grades := c.GradesForSemester(sem, GradeThesis)
	if len(grades) == 0 {
		return nil
	}
	return grades[0]
}

// AddGrade validates and appends a grade row. A thesis grade is rejected
// when the catalog is not marked for thesis or a thesis grade already
// exists for the semester.
func (c *StudentCatalogPerSubject) AddGrade(grade *SubjectGrade) error {
	if !grade.Value.IsValid() {
		return shared.ErrGradeOutOfRange
	}
	if !grade.GradeType.IsValid() {
		return shared.NewDomainError("catalog", "AddGrade", shared.ErrInvalidInput, "unknown grade type")
	}
	if grade.GradeType == GradeThesis {
		if !c.WantsThesis {
			return shared.ErrThesisNotWanted
		}
		if c.ThesisGrade(grade.Semester) != nil {
			return shared.ErrSecondThesisGrade
		}
	}
	grade.CatalogID = c.ID
	c.Grades = append(c.Grades, grade)
	return nil
}

// RemoveGrade deletes a grade row by ID.
func (c *StudentCatalogPerSubject) RemoveGrade(gradeID string) error {
	for i, g := range c.Grades {
		if g.ID == gradeID {
			c.Grades = append(c.Grades[:i], c.Grades[i+1:]...)
			return nil
		}
	}
	return shared.ErrGradeNotFound
}

// FindGrade returns a grade row by ID.
func (c *StudentCatalogPerSubject) FindGrade(gradeID string) (*SubjectGrade, error) {
	for _, g := range c.Grades {
		if g.ID == gradeID {
			return g, nil
		}
	}
	return nil, shared.ErrGradeNotFound
}

// AddAbsence appends an absence row.
func (c *StudentCatalogPerSubject) AddAbsence(absence *SubjectAbsence) error {
	if !absence.Semester.IsValid() {
		return shared.NewDomainError("catalog", "AddAbsence", shared.ErrInvalidInput, "invalid semester")
	}
	absence.CatalogID = c.ID
	c.Absences = append(c.Absences, absence)
	return nil
}

// AuthorizeAbsence marks an unfounded absence as founded.
func (c *StudentCatalogPerSubject) AuthorizeAbsence(absenceID string) error {
	for _, a := range c.Absences {
		if a.ID == absenceID {
			if a.IsFounded {
				return shared.ErrAbsenceAlreadyFounded
			}
			a.IsFounded = true
			return nil
		}
	}
	return shared.ErrAbsenceNotFound
}

// RemoveAbsence deletes an absence row by ID.
func (c *StudentCatalogPerSubject) RemoveAbsence(absenceID string) error {
	for i, a := range c.Absences {
		if a.ID == absenceID {
			c.Absences = append(c.Absences[:i], c.Absences[i+1:]...)
			return nil
		}
	}
	return shared.ErrAbsenceNotFound
}

// FindAbsence returns an absence row by ID.
func (c *StudentCatalogPerSubject) FindAbsence(absenceID string) (*SubjectAbsence, error) {
	for _, a := range c.Absences {
		if a.ID == absenceID {
			return a, nil
		}
	}
	return nil, shared.ErrAbsenceNotFound
}

// DifferenceGrades returns the difference rows of one scope: a concrete
// semester, or the whole year when sem is nil.
func (c *StudentCatalogPerSubject) DifferenceGrades(sem *shared.Semester) []*ExaminationGrade {
	var out []*ExaminationGrade
	for _, g := range c.ExaminationGrades {
		if g.GradeType != ExamDifference {
			continue
		}
		if sem == nil && g.Semester == nil {
			out = append(out, g)
		} else if sem != nil && g.Semester != nil && *g.Semester == *sem {
			out = append(out, g)
		}
	}
	return out
}

// SecondExaminationGrades returns all second-examination rows.
func (c *StudentCatalogPerSubject) SecondExaminationGrades() []*ExaminationGrade {
	var out []*ExaminationGrade
	for _, g := range c.ExaminationGrades {
		if g.GradeType == ExamSecondExamination {
			out = append(out, g)
		}
	}
	return out
}

// AddExaminationGrade validates and appends an examination row.
// Difference grades are scoped either per-semester or for the whole
// year, never both within one catalog, and are rejected when a regular
// grade already exists in the same scope.
func (c *StudentCatalogPerSubject) AddExaminationGrade(grade *ExaminationGrade) error {
	if !grade.Grade1.IsValid() || !grade.Grade2.IsValid() {
		return shared.ErrGradeOutOfRange
	}
	if !grade.GradeType.IsValid() || !grade.ExaminationType.IsValid() {
		return shared.NewDomainError("catalog", "AddExaminationGrade", shared.ErrInvalidInput, "unknown examination type")
	}
	if grade.GradeType == ExamDifference {
		if err := c.checkDifferenceScope(grade.Semester); err != nil {
			return err
		}
	}
	grade.CatalogID = c.ID
	c.ExaminationGrades = append(c.ExaminationGrades, grade)
	return nil
}

func (c *StudentCatalogPerSubject) checkDifferenceScope(sem *shared.Semester) error {
	for _, g := range c.ExaminationGrades {
		if g.GradeType != ExamDifference {
			continue
		}
		if (g.Semester == nil) != (sem == nil) {
			return shared.ErrDifferenceScopeMixed
		}
	}
	if sem == nil {
		if len(c.Grades) > 0 {
			return shared.ErrDifferenceWithRegulars
		}
		return nil
	}
	if len(c.GradesForSemester(*sem, GradeRegular)) > 0 || c.ThesisGrade(*sem) != nil {
		return shared.ErrDifferenceWithRegulars
	}
	return nil
}

// RemoveExaminationGrade deletes an examination row by ID.
func (c *StudentCatalogPerSubject) RemoveExaminationGrade(gradeID string) error {
	for i, g := range c.ExaminationGrades {
		if g.ID == gradeID {
			c.ExaminationGrades = append(c.ExaminationGrades[:i], c.ExaminationGrades[i+1:]...)
			return nil
		}
	}
	return shared.ErrExamGradeNotFound
}

// FindExaminationGrade returns an examination row by ID.
func (c *StudentCatalogPerSubject) FindExaminationGrade(gradeID string) (*ExaminationGrade, error) {
	for _, g := range c.ExaminationGrades {
		if g.ID == gradeID {
			return g, nil
		}
	}
	return nil, shared.ErrExamGradeNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT CATALOG PER YEAR
// ══════════════════════════════════════════════════════════════════════════════

// StudentCatalogPerYear is the per-student yearly aggregate over all
// subject catalogs, plus the behavior grades and the twelve rank fields
// written by the ranking engine.
type StudentCatalogPerYear struct {
	ID           string
	StudentID    string
	StudyClassID string
	SchoolUnitID string
	AcademicYear shared.AcademicYear

	AvgSem1   *float64
	AvgSem2   *float64
	AvgAnnual *float64
	AvgFinal  *float64

	BehaviorGradeSem1   *float64
	BehaviorGradeSem2   *float64
	BehaviorGradeAnnual *float64

	AbsCountSem1            int
	AbsCountSem2            int
	AbsCountAnnual          int
	FoundedAbsCountSem1     int
	FoundedAbsCountSem2     int
	FoundedAbsCountAnnual   int
	UnfoundedAbsCountSem1   int
	UnfoundedAbsCountSem2   int
	UnfoundedAbsCountAnnual int

	// Rank fields written by the ranking engine. Nil until the first
	// placement run of the matching period.
	ClassPlaceByAvgSem1    *int
	ClassPlaceByAvgSem2    *int
	ClassPlaceByAvgAnnual  *int
	SchoolPlaceByAvgSem1   *int
	SchoolPlaceByAvgSem2   *int
	SchoolPlaceByAvgAnnual *int
	ClassPlaceByAbsSem1    *int
	ClassPlaceByAbsSem2    *int
	ClassPlaceByAbsAnnual  *int
	SchoolPlaceByAbsSem1   *int
	SchoolPlaceByAbsSem2   *int
	SchoolPlaceByAbsAnnual *int

	IsExempted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
