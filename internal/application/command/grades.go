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
// GRADE COMMANDS
// Add, update and delete grades on a subject catalog. Every handler is
// calendar-gated, authorizes the acting teacher against the study class,
// and finishes by running the recompute cascade.
// ══════════════════════════════════════════════════════════════════════════════

// AddGradeCommand records one grade for a student's subject catalog.
type AddGradeCommand struct {
	CatalogID string `validate:"required"`
	TeacherID string `validate:"required"`
	Value     int    `validate:"required,min=1,max=10"`
	GradeType catalog.GradeType `validate:"required"`
	Semester  int       `validate:"required,min=1,max=2"`
	TakenAt   time.Time `validate:"required"`
}

// UpdateGradeCommand changes the value of an existing grade.
type UpdateGradeCommand struct {
	CatalogID string `validate:"required"`
	GradeID   string `validate:"required"`
	TeacherID string `validate:"required"`
	Value     int    `validate:"required,min=1,max=10"`
}

// DeleteGradeCommand removes a grade.
type DeleteGradeCommand struct {
	CatalogID string `validate:"required"`
	GradeID   string `validate:"required"`
	TeacherID string `validate:"required"`
}

// GradeResult reports the outcome of a grade mutation.
type GradeResult struct {
	CatalogID string
	GradeID   string
	AvgSem1   *float64
	AvgSem2   *float64
	AvgFinal  *float64
}

// GradeHandler handles all grade mutations.
type GradeHandler struct {
	catalogs  catalog.SubjectCatalogRepository
	classes   school.StudyClassRepository
	calendars calendar.Repository
	cascade   *Cascade
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewGradeHandler creates a GradeHandler.
func NewGradeHandler(
	catalogs catalog.SubjectCatalogRepository,
	classes school.StudyClassRepository,
	calendars calendar.Repository,
	cascade *Cascade,
	publisher shared.EventPublisher,
) *GradeHandler {
	return &GradeHandler{
		catalogs:  catalogs,
		classes:   classes,
		calendars: calendars,
		cascade:   cascade,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// loadGated loads the catalog, checks the calendar gate for regular
// mutations, and authorizes the teacher. Shared by every grade and
// absence handler.
func loadGated(
	ctx context.Context,
	catalogs catalog.SubjectCatalogRepository,
	classes school.StudyClassRepository,
	calendars calendar.Repository,
	catalogID, teacherID string,
	now time.Time,
) (*catalog.StudentCatalogPerSubject, error) {
	cal, err := calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("catalog", "Mutate", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}
	if err := cal.CanUpdateGrades(now); err != nil {
		return nil, err
	}

	cat, err := catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	class, err := classes.GetByID(ctx, cat.StudyClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load study class: %w", err)
	}
	if !class.IsAssignedTeacher(teacherID, cat.SubjectID) {
		return nil, shared.ErrNotAssignedTeacher
	}
	return cat, nil
}

// HandleAdd executes AddGradeCommand.
func (h *GradeHandler) HandleAdd(ctx context.Context, cmd AddGradeCommand) (*GradeResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := loadGated(ctx, h.catalogs, h.classes, h.calendars, cmd.CatalogID, cmd.TeacherID, now)
	if err != nil {
		return nil, err
	}

	sem, err := shared.NewSemester(cmd.Semester)
	if err != nil {
		return nil, err
	}
	grade := &catalog.SubjectGrade{
		ID:        uuid.NewString(),
		Value:     shared.GradeValue(cmd.Value),
		GradeType: cmd.GradeType,
		Semester:  sem,
		TakenAt:   cmd.TakenAt,
		CreatedBy: cmd.TeacherID,
		CreatedAt: now,
	}
	if err := cat.AddGrade(grade); err != nil {
		return nil, err
	}

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	event := shared.NewGradeMutationEvent(shared.EventGradeAdded, cat.ID, grade.ID, cat.StudentID, cmd.Semester, cmd.Value, cmd.TeacherID)
	_ = h.publisher.Publish(event)

	return &GradeResult{CatalogID: cat.ID, GradeID: grade.ID, AvgSem1: cat.AvgSem1, AvgSem2: cat.AvgSem2, AvgFinal: cat.AvgFinal}, nil
}

// HandleUpdate executes UpdateGradeCommand. The grade must still be
// inside its edit window.
func (h *GradeHandler) HandleUpdate(ctx context.Context, cmd UpdateGradeCommand) (*GradeResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := loadGated(ctx, h.catalogs, h.classes, h.calendars, cmd.CatalogID, cmd.TeacherID, now)
	if err != nil {
		return nil, err
	}

	grade, err := cat.FindGrade(cmd.GradeID)
	if err != nil {
		return nil, err
	}
	if err := cat.CanEditGrade(grade, now); err != nil {
		return nil, err
	}
	value, err := shared.NewGradeValue(cmd.Value)
	if err != nil {
		return nil, err
	}
	grade.Value = value

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	event := shared.NewGradeMutationEvent(shared.EventGradeUpdated, cat.ID, grade.ID, cat.StudentID, grade.Semester.Int(), cmd.Value, cmd.TeacherID)
	_ = h.publisher.Publish(event)

	return &GradeResult{CatalogID: cat.ID, GradeID: grade.ID, AvgSem1: cat.AvgSem1, AvgSem2: cat.AvgSem2, AvgFinal: cat.AvgFinal}, nil
}

// HandleDelete executes DeleteGradeCommand.
func (h *GradeHandler) HandleDelete(ctx context.Context, cmd DeleteGradeCommand) (*GradeResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := loadGated(ctx, h.catalogs, h.classes, h.calendars, cmd.CatalogID, cmd.TeacherID, now)
	if err != nil {
		return nil, err
	}

	grade, err := cat.FindGrade(cmd.GradeID)
	if err != nil {
		return nil, err
	}
	if err := cat.CanEditGrade(grade, now); err != nil {
		return nil, err
	}
	if err := cat.RemoveGrade(cmd.GradeID); err != nil {
		return nil, err
	}

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	event := shared.NewGradeMutationEvent(shared.EventGradeDeleted, cat.ID, grade.ID, cat.StudentID, grade.Semester.Int(), grade.Value.Int(), cmd.TeacherID)
	_ = h.publisher.Publish(event)

	return &GradeResult{CatalogID: cat.ID, GradeID: grade.ID, AvgSem1: cat.AvgSem1, AvgSem2: cat.AvgSem2, AvgFinal: cat.AvgFinal}, nil
}
