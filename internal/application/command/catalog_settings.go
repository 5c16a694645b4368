package command

import (
	"context"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG SETTINGS COMMAND
// Per-catalog toggles: thesis expectation and exemption status.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCatalogSettingsCommand changes the per-subject catalog toggles.
// Nil fields are left untouched.
type UpdateCatalogSettingsCommand struct {
	CatalogID   string `validate:"required"`
	TeacherID   string `validate:"required"`
	WantsThesis *bool
	IsExempted  *bool
}

// CatalogSettingsResult reports the catalog state after the update.
type CatalogSettingsResult struct {
	CatalogID   string
	WantsThesis bool
	IsExempted  bool
	AvgSem1     *float64
	AvgSem2     *float64
	AvgFinal    *float64
}

// CatalogSettingsHandler handles UpdateCatalogSettingsCommand.
type CatalogSettingsHandler struct {
	catalogs catalog.SubjectCatalogRepository
	classes  school.StudyClassRepository
	cascade  *Cascade
	now      func() time.Time
}

// NewCatalogSettingsHandler creates a CatalogSettingsHandler.
func NewCatalogSettingsHandler(
	catalogs catalog.SubjectCatalogRepository,
	classes school.StudyClassRepository,
	cascade *Cascade,
) *CatalogSettingsHandler {
	return &CatalogSettingsHandler{
		catalogs: catalogs,
		classes:  classes,
		cascade:  cascade,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes UpdateCatalogSettingsCommand. Disabling the thesis
// while a thesis grade exists is rejected so the stored averages stay
// explainable.
func (h *CatalogSettingsHandler) Handle(ctx context.Context, cmd UpdateCatalogSettingsCommand) (*CatalogSettingsResult, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	now := h.now()

	cat, err := h.catalogs.GetByID(ctx, cmd.CatalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	class, err := h.classes.GetByID(ctx, cat.StudyClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to load study class: %w", err)
	}
	if !class.IsAssignedTeacher(cmd.TeacherID, cat.SubjectID) {
		return nil, shared.ErrNotAssignedTeacher
	}

	if cmd.WantsThesis != nil {
		if !*cmd.WantsThesis {
			for _, sem := range []shared.Semester{shared.SemesterFirst, shared.SemesterSecond} {
				if cat.ThesisGrade(sem) != nil {
					return nil, shared.NewDomainError("catalog", "UpdateSettings", shared.ErrInvalidInput,
						"cannot disable thesis while a thesis grade exists")
				}
			}
		}
		cat.WantsThesis = *cmd.WantsThesis
	}
	if cmd.IsExempted != nil {
		cat.IsExempted = *cmd.IsExempted
	}

	if err := h.cascade.Run(ctx, cat, cmd.TeacherID, now); err != nil {
		return nil, err
	}

	return &CatalogSettingsResult{
		CatalogID:   cat.ID,
		WantsThesis: cat.WantsThesis,
		IsExempted:  cat.IsExempted,
		AvgSem1:     cat.AvgSem1,
		AvgSem2:     cat.AvgSem2,
		AvgFinal:    cat.AvgFinal,
	}, nil
}
