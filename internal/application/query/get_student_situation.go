// Package query contains read operations following CQRS pattern.
// Queries never modify state, they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT SITUATION QUERY
// The full school situation of one student for one academic year:
// per-subject averages, grades, absences and the yearly aggregate.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentSituationQuery asks for a student's catalog snapshot.
type GetStudentSituationQuery struct {
	StudentID    string
	AcademicYear int

	// IncludeRows also loads the individual grade and absence rows.
	// Off by default because parent views only need the aggregates.
	IncludeRows bool
}

// Validate checks the query parameters.
func (q *GetStudentSituationQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student id is required")
	}
	if q.AcademicYear == 0 {
		q.AcademicYear = int(shared.AcademicYearFor(time.Now().UTC()))
	}
	if q.AcademicYear < 2000 || q.AcademicYear > 2100 {
		return errors.New("academic year out of range")
	}
	return nil
}

// GradeDTO is one grade row.
type GradeDTO struct {
	ID        string    `json:"id"`
	Value     int       `json:"value"`
	GradeType string    `json:"grade_type"`
	Semester  int       `json:"semester"`
	TakenAt   time.Time `json:"taken_at"`
}

// AbsenceDTO is one absence row.
type AbsenceDTO struct {
	ID        string    `json:"id"`
	Semester  int       `json:"semester"`
	IsFounded bool      `json:"is_founded"`
	TakenAt   time.Time `json:"taken_at"`
}

// ExaminationGradeDTO is one examination paper with both scores.
type ExaminationGradeDTO struct {
	ID              string    `json:"id"`
	Grade1          int       `json:"grade1"`
	Grade2          int       `json:"grade2"`
	ExaminationType string    `json:"examination_type"`
	GradeType       string    `json:"grade_type"`
	Semester        *int      `json:"semester,omitempty"`
	TakenAt         time.Time `json:"taken_at"`
}

// SubjectSituationDTO is the per-subject slice of the situation.
type SubjectSituationDTO struct {
	CatalogID   string `json:"catalog_id"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	AvgSem1                   *float64 `json:"avg_sem1,omitempty"`
	AvgSem2                   *float64 `json:"avg_sem2,omitempty"`
	AvgAnnual                 *float64 `json:"avg_annual,omitempty"`
	AvgAfterSecondExamination *float64 `json:"avg_after_2nd_examination,omitempty"`
	AvgFinal                  *float64 `json:"avg_final,omitempty"`

	AbsCountAnnual          int `json:"abs_count_annual"`
	FoundedAbsCountAnnual   int `json:"founded_abs_count_annual"`
	UnfoundedAbsCountAnnual int `json:"unfounded_abs_count_annual"`

	WantsThesis bool `json:"wants_thesis"`
	IsExempted  bool `json:"is_exempted"`
	IsAtRisk    bool `json:"is_at_risk"`

	Grades            []GradeDTO            `json:"grades,omitempty"`
	Absences          []AbsenceDTO          `json:"absences,omitempty"`
	ExaminationGrades []ExaminationGradeDTO `json:"examination_grades,omitempty"`
}

// YearlySituationDTO is the yearly aggregate slice of the situation.
type YearlySituationDTO struct {
	AvgSem1   *float64 `json:"avg_sem1,omitempty"`
	AvgSem2   *float64 `json:"avg_sem2,omitempty"`
	AvgAnnual *float64 `json:"avg_annual,omitempty"`
	AvgFinal  *float64 `json:"avg_final,omitempty"`

	BehaviorGradeSem1   *float64 `json:"behavior_grade_sem1,omitempty"`
	BehaviorGradeSem2   *float64 `json:"behavior_grade_sem2,omitempty"`
	BehaviorGradeAnnual *float64 `json:"behavior_grade_annual,omitempty"`

	AbsCountAnnual          int `json:"abs_count_annual"`
	FoundedAbsCountAnnual   int `json:"founded_abs_count_annual"`
	UnfoundedAbsCountAnnual int `json:"unfounded_abs_count_annual"`

	ClassPlaceByAvgAnnual  *int `json:"class_place_by_avg_annual,omitempty"`
	SchoolPlaceByAvgAnnual *int `json:"school_place_by_avg_annual,omitempty"`
	ClassPlaceByAbsAnnual  *int `json:"class_place_by_abs_annual,omitempty"`
	SchoolPlaceByAbsAnnual *int `json:"school_place_by_abs_annual,omitempty"`
}

// GetStudentSituationResult is the full situation response.
type GetStudentSituationResult struct {
	StudentID       string    `json:"student_id"`
	StudentName     string    `json:"student_name"`
	StudyClassID    string    `json:"study_class_id"`
	AcademicYear    int       `json:"academic_year"`
	RiskDescription string    `json:"risk_description,omitempty"`
	Labels          []string  `json:"labels,omitempty"`
	IsExempted      bool      `json:"is_exempted"`

	Subjects []SubjectSituationDTO `json:"subjects"`
	Yearly   *YearlySituationDTO   `json:"yearly,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetStudentSituationHandler handles student-situation queries.
type GetStudentSituationHandler struct {
	profiles        school.UserProfileRepository
	subjectCatalogs catalog.SubjectCatalogRepository
	yearlyCatalogs  catalog.YearlyCatalogRepository
}

// NewGetStudentSituationHandler creates a GetStudentSituationHandler.
func NewGetStudentSituationHandler(
	profiles school.UserProfileRepository,
	subjectCatalogs catalog.SubjectCatalogRepository,
	yearlyCatalogs catalog.YearlyCatalogRepository,
) *GetStudentSituationHandler {
	return &GetStudentSituationHandler{
		profiles:        profiles,
		subjectCatalogs: subjectCatalogs,
		yearlyCatalogs:  yearlyCatalogs,
	}
}

// Handle executes the query.
func (h *GetStudentSituationHandler) Handle(ctx context.Context, query GetStudentSituationQuery) (*GetStudentSituationResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStudentSituation", shared.ErrValidation, err.Error(), err)
	}
	year := shared.AcademicYear(query.AcademicYear)

	profile, err := h.profiles.GetByID(ctx, query.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}
	if profile.Role != school.RoleStudent {
		return nil, shared.NewDomainError("query", "GetStudentSituation", shared.ErrInvalidInput, "profile is not a student")
	}

	subjects, err := h.subjectCatalogs.GetByStudent(ctx, query.StudentID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load subject catalogs: %w", err)
	}

	result := &GetStudentSituationResult{
		StudentID:       profile.ID,
		StudentName:     profile.FullName,
		StudyClassID:    profile.StudyClassID,
		AcademicYear:    query.AcademicYear,
		RiskDescription: profile.RiskDescription,
		Labels:          profile.Labels,
		IsExempted:      profile.IsExempted,
		Subjects:        make([]SubjectSituationDTO, 0, len(subjects)),
		GeneratedAt:     time.Now().UTC(),
	}

	for _, cat := range subjects {
		result.Subjects = append(result.Subjects, h.toSubjectDTO(cat, query.IncludeRows))
	}

	yearly, err := h.yearlyCatalogs.GetByStudent(ctx, query.StudentID, year)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load yearly catalog: %w", err)
		}
	} else {
		result.Yearly = toYearlyDTO(yearly)
	}

	return result, nil
}

func (h *GetStudentSituationHandler) toSubjectDTO(cat *catalog.StudentCatalogPerSubject, includeRows bool) SubjectSituationDTO {
	dto := SubjectSituationDTO{
		CatalogID:                 cat.ID,
		SubjectID:                 cat.SubjectID,
		SubjectName:               cat.SubjectName,
		AvgSem1:                   cat.AvgSem1,
		AvgSem2:                   cat.AvgSem2,
		AvgAnnual:                 cat.AvgAnnual,
		AvgAfterSecondExamination: cat.AvgAfterSecondExamination,
		AvgFinal:                  cat.AvgFinal,
		AbsCountAnnual:            cat.AbsCountAnnual,
		FoundedAbsCountAnnual:     cat.FoundedAbsCountAnnual,
		UnfoundedAbsCountAnnual:   cat.UnfoundedAbsCountAnnual,
		WantsThesis:               cat.WantsThesis,
		IsExempted:                cat.IsExempted,
		IsAtRisk:                  cat.IsAtRisk,
	}
	if !includeRows {
		return dto
	}

	dto.Grades = make([]GradeDTO, 0, len(cat.Grades))
	for _, g := range cat.Grades {
		dto.Grades = append(dto.Grades, GradeDTO{
			ID:        g.ID,
			Value:     g.Value.Int(),
			GradeType: string(g.GradeType),
			Semester:  g.Semester.Int(),
			TakenAt:   g.TakenAt,
		})
	}

	dto.Absences = make([]AbsenceDTO, 0, len(cat.Absences))
	for _, a := range cat.Absences {
		dto.Absences = append(dto.Absences, AbsenceDTO{
			ID:        a.ID,
			Semester:  a.Semester.Int(),
			IsFounded: a.IsFounded,
			TakenAt:   a.TakenAt,
		})
	}

	dto.ExaminationGrades = make([]ExaminationGradeDTO, 0, len(cat.ExaminationGrades))
	for _, e := range cat.ExaminationGrades {
		row := ExaminationGradeDTO{
			ID:              e.ID,
			Grade1:          e.Grade1.Int(),
			Grade2:          e.Grade2.Int(),
			ExaminationType: string(e.ExaminationType),
			GradeType:       string(e.GradeType),
			TakenAt:         e.TakenAt,
		}
		if e.Semester != nil {
			sem := e.Semester.Int()
			row.Semester = &sem
		}
		dto.ExaminationGrades = append(dto.ExaminationGrades, row)
	}

	return dto
}

func toYearlyDTO(y *catalog.StudentCatalogPerYear) *YearlySituationDTO {
	return &YearlySituationDTO{
		AvgSem1:                 y.AvgSem1,
		AvgSem2:                 y.AvgSem2,
		AvgAnnual:               y.AvgAnnual,
		AvgFinal:                y.AvgFinal,
		BehaviorGradeSem1:       y.BehaviorGradeSem1,
		BehaviorGradeSem2:       y.BehaviorGradeSem2,
		BehaviorGradeAnnual:     y.BehaviorGradeAnnual,
		AbsCountAnnual:          y.AbsCountAnnual,
		FoundedAbsCountAnnual:   y.FoundedAbsCountAnnual,
		UnfoundedAbsCountAnnual: y.UnfoundedAbsCountAnnual,
		ClassPlaceByAvgAnnual:   y.ClassPlaceByAvgAnnual,
		SchoolPlaceByAvgAnnual:  y.SchoolPlaceByAvgAnnual,
		ClassPlaceByAbsAnnual:   y.ClassPlaceByAbsAnnual,
		SchoolPlaceByAbsAnnual:  y.SchoolPlaceByAbsAnnual,
	}
}
