package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAMINATION GRADE COMMANDS
// Second-examination (Corigenta) and difference (Diferenta) papers.
// Gated by the matching examination window instead of the semester.
// ══════════════════════════════════════════════════════════════════════════════

// AddExaminationGradeCommand records one examination paper with both
// examiner scores. Semester is set only for semester-scoped difference
// grades.
type AddExaminationGradeCommand struct {
	CatalogID       string `validate:"required"`
	TeacherID       string `validate:"required"`
	Grade1          int    `validate:"required,min=1,max=10"`
	Grade2          int    `validate:"required,min=1,max=10"`
	ExaminationType catalog.ExaminationType `validate:"required"`
	GradeType       catalog.ExamGradeType   `validate:"required"`
	Semester        *int `validate:"omitempty,min=1,max=2"`
	TakenAt         time.Time
}

// DeleteExaminationGradeCommand removes an examination paper.
type DeleteExaminationGradeCommand struct {
	CatalogID string `validate:"required"`
	GradeID   string `validate:"required"`
	TeacherID string `validate:"required"`
}

// ExaminationGradeResult reports the outcome of an examination mutation.
type ExaminationGradeResult struct {
	CatalogID                 string
	GradeID                   string
	AvgAnnual                 *float64
	AvgAfterSecondExamination *float64
	AvgFinal                  *float64
}

// ExaminationGradeHandler handles examination-grade mutations.
type ExaminationGradeHandler struct {
	catalogs  catalog.SubjectCatalogRepository
	classes   school.StudyClassRepository
	calendars calendar.Repository
	cascade   *Cascade
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewExaminationGradeHandler creates an ExaminationGradeHandler.
func NewExaminationGradeHandler(
	catalogs catalog.SubjectCatalogRepository,
	classes school.StudyClassRepository,
	calendars calendar.Repository,
	cascade *Cascade,
	publisher shared.EventPublisher,
) *ExaminationGradeHandler {
	return &ExaminationGradeHandler{
		catalogs:  catalogs,
		classes:   classes,
		calendars: calendars,
		cascade:   cascade,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func examWindowFor(gradeType catalog.ExamGradeType) calendar.EventType {
	if gradeType == catalog.ExamDifference {
		return calendar.EventDiferente
	}
	return calendar.EventCorigente
}

// loadExamGated resolves the calendar, checks the examination window for
// the paper kind, and authorizes the teacher.
func (h *ExaminationGradeHandler) loadExamGated(ctx context.Context, catalogID, teacherID string, gradeType catalog.ExamGradeType, now time.Time) (*catalog.StudentCatalogPerSubject, error) {
	cal, err := h.calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("catalog", "MutateExamination", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}

	cat, err := h.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	class, err := h.classes.GetByID(ctx, cat.StudyClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load study class: %w", err)
	}
	if !class.IsAssignedTeacher(teacherID, cat.SubjectID) {
		return nil, shared.ErrNotAssignedTeacher
	}

	if err := cal.CanUpdateExaminationGrades(class.AcademicYear, examWindowFor(gradeType), now); err != nil {
		return nil, err
	}
	return cat, nil
}

// HandleAdd executes AddExaminationGradeCommand.
func (h *ExaminationGradeHandler) HandleAdd(ctx context.Context, cmd AddExaminationGradeCommand) (*ExaminationGradeResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := h.loadExamGated(ctx, cmd.CatalogID, cmd.TeacherID, cmd.GradeType, now)
	if err != nil {
		return nil, err
	}

	var sem *shared.Semester
	if cmd.Semester != nil {
		s, err := shared.NewSemester(*cmd.Semester)
		if err != nil {
			return nil, err
		}
		sem = &s
	}
	if cmd.GradeType == catalog.ExamSecondExamination && sem != nil {
		return nil, shared.NewDomainError("catalog", "AddExaminationGrade", shared.ErrInvalidInput,
			"second examinations are not semester-scoped")
	}

	takenAt := cmd.TakenAt
	if takenAt.IsZero() {
		takenAt = now
	}
	grade := &catalog.ExaminationGrade{
		ID:              uuid.NewString(),
		Grade1:          shared.GradeValue(cmd.Grade1),
		Grade2:          shared.GradeValue(cmd.Grade2),
		ExaminationType: cmd.ExaminationType,
		GradeType:       cmd.GradeType,
		Semester:        sem,
		TakenAt:         takenAt,
		CreatedBy:       cmd.TeacherID,
		CreatedAt:       now,
	}
	if err := cat.AddExaminationGrade(grade); err != nil {
		return nil, err
	}

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	event := shared.NewGradeMutationEvent(shared.EventExamGradeAdded, cat.ID, grade.ID, cat.StudentID, 0, cmd.Grade1, cmd.TeacherID)
	_ = h.publisher.Publish(event)

	return &ExaminationGradeResult{
		CatalogID:                 cat.ID,
		GradeID:                   grade.ID,
		AvgAnnual:                 cat.AvgAnnual,
		AvgAfterSecondExamination: cat.AvgAfterSecondExamination,
		AvgFinal:                  cat.AvgFinal,
	}, nil
}

// HandleDelete executes DeleteExaminationGradeCommand. Examination rows
// freeze two hours after entry.
func (h *ExaminationGradeHandler) HandleDelete(ctx context.Context, cmd DeleteExaminationGradeCommand) (*ExaminationGradeResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := h.catalogs.GetByID(ctx, cmd.CatalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	grade, err := cat.FindExaminationGrade(cmd.GradeID)
	if err != nil {
		return nil, err
	}

	gated, err := h.loadExamGated(ctx, cmd.CatalogID, cmd.TeacherID, grade.GradeType, now)
	if err != nil {
		return nil, err
	}
	if err := gated.CanEditExaminationGrade(grade, now); err != nil {
		return nil, err
	}
	if err := gated.RemoveExaminationGrade(cmd.GradeID); err != nil {
		return nil, err
	}

	if err := h.cascade.Run(ctx, gated, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	return &ExaminationGradeResult{
		CatalogID:                 gated.ID,
		GradeID:                   cmd.GradeID,
		AvgAnnual:                 gated.AvgAnnual,
		AvgAfterSecondExamination: gated.AvgAfterSecondExamination,
		AvgFinal:                  gated.AvgFinal,
	}, nil
}
