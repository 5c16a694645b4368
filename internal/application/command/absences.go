package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ABSENCE COMMANDS
// Add, authorize and delete absences. Authorizing moves the absence from
// the unfounded to the founded counters without changing the total.
// ══════════════════════════════════════════════════════════════════════════════

// AddAbsenceCommand records one absence on a subject catalog.
type AddAbsenceCommand struct {
	CatalogID string `validate:"required"`
	TeacherID string `validate:"required"`
	Semester  int    `validate:"required,min=1,max=2"`
	TakenAt   time.Time `validate:"required"`
	IsFounded bool
}

// AuthorizeAbsenceCommand marks an unfounded absence as founded.
type AuthorizeAbsenceCommand struct {
	CatalogID string `validate:"required"`
	AbsenceID string `validate:"required"`
	TeacherID string `validate:"required"`
}

// DeleteAbsenceCommand removes an absence.
type DeleteAbsenceCommand struct {
	CatalogID string `validate:"required"`
	AbsenceID string `validate:"required"`
	TeacherID string `validate:"required"`
}

// AbsenceResult reports the outcome of an absence mutation.
type AbsenceResult struct {
	CatalogID             string
	AbsenceID             string
	FoundedCountAnnual    int
	UnfoundedCountAnnual  int
}

// AbsenceHandler handles all absence mutations.
type AbsenceHandler struct {
	catalogs  catalog.SubjectCatalogRepository
	classes   school.StudyClassRepository
	calendars calendar.Repository
	cascade   *Cascade
	publisher shared.EventPublisher
	now       func() time.Time
}

// NewAbsenceHandler creates an AbsenceHandler.
func NewAbsenceHandler(
	catalogs catalog.SubjectCatalogRepository,
	classes school.StudyClassRepository,
	calendars calendar.Repository,
	cascade *Cascade,
	publisher shared.EventPublisher,
) *AbsenceHandler {
	return &AbsenceHandler{
		catalogs:  catalogs,
		classes:   classes,
		calendars: calendars,
		cascade:   cascade,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleAdd executes AddAbsenceCommand.
func (h *AbsenceHandler) HandleAdd(ctx context.Context, cmd AddAbsenceCommand) (*AbsenceResult, error) {
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
	absence := &catalog.SubjectAbsence{
		ID:        uuid.NewString(),
		Semester:  sem,
		TakenAt:   cmd.TakenAt,
		IsFounded: cmd.IsFounded,
		CreatedBy: cmd.TeacherID,
		CreatedAt: now,
	}
	if err := cat.AddAbsence(absence); err != nil {
		return nil, err
	}

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	event := shared.NewAbsenceMutationEvent(shared.EventAbsenceAdded, cat.ID, absence.ID, cat.StudentID, cmd.Semester, cmd.IsFounded, cmd.TeacherID)
	_ = h.publisher.Publish(event)

	return h.result(cat, absence.ID), nil
}

// HandleAuthorize executes AuthorizeAbsenceCommand. The absence must
// still be inside its edit window.
func (h *AbsenceHandler) HandleAuthorize(ctx context.Context, cmd AuthorizeAbsenceCommand) (*AbsenceResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := loadGated(ctx, h.catalogs, h.classes, h.calendars, cmd.CatalogID, cmd.TeacherID, now)
	if err != nil {
		return nil, err
	}

	absence, err := cat.FindAbsence(cmd.AbsenceID)
	if err != nil {
		return nil, err
	}
	if err := cat.CanEditAbsence(absence, now); err != nil {
		return nil, err
	}
	if err := cat.AuthorizeAbsence(cmd.AbsenceID); err != nil {
		return nil, err
	}

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	event := shared.NewAbsenceMutationEvent(shared.EventAbsenceAuthorized, cat.ID, absence.ID, cat.StudentID, absence.Semester.Int(), true, cmd.TeacherID)
	_ = h.publisher.Publish(event)

	return h.result(cat, absence.ID), nil
}

// HandleDelete executes DeleteAbsenceCommand.
func (h *AbsenceHandler) HandleDelete(ctx context.Context, cmd DeleteAbsenceCommand) (*AbsenceResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := loadGated(ctx, h.catalogs, h.classes, h.calendars, cmd.CatalogID, cmd.TeacherID, now)
	if err != nil {
		return nil, err
	}

	absence, err := cat.FindAbsence(cmd.AbsenceID)
	if err != nil {
		return nil, err
	}
	if err := cat.CanEditAbsence(absence, now); err != nil {
		return nil, err
	}
	if err := cat.RemoveAbsence(cmd.AbsenceID); err != nil {
		return nil, err
	}

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	event := shared.NewAbsenceMutationEvent(shared.EventAbsenceDeleted, cat.ID, absence.ID, cat.StudentID, absence.Semester.Int(), absence.IsFounded, cmd.TeacherID)
	_ = h.publisher.Publish(event)

	return h.result(cat, absence.ID), nil
}

func (h *AbsenceHandler) result(cat *catalog.StudentCatalogPerSubject, absenceID string) *AbsenceResult {
	return &AbsenceResult{
		CatalogID:            cat.ID,
		AbsenceID:            absenceID,
		FoundedCountAnnual:   cat.FoundedAbsCountAnnual,
		UnfoundedCountAnnual: cat.UnfoundedAbsCountAnnual,
	}
}
