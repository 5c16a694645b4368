package catalog

import (
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
)

// Edit windows. A teacher may correct a mistake shortly after entering
// it; older rows are frozen. Coordination subjects have no window, the
// class master can always amend them while the semester is active.
const (
	ExaminationEditWindow = 2 * time.Hour
	RegularEditWindow     = 7 * 24 * time.Hour
)

// CanEditGrade reports whether a grade row may still be updated or
// deleted at the given time.
func (c *StudentCatalogPerSubject) CanEditGrade(grade *SubjectGrade, now time.Time) error {
	if c.IsCoordinationSubject {
		return nil
	}
	if now.Sub(grade.CreatedAt) > RegularEditWindow {
		return shared.WrapError("catalog", "EditGrade", shared.ErrEditWindowClosed,
			"grades can only be changed within 7 days", nil)
	}
	return nil
}

// CanEditAbsence reports whether an absence row may still be updated or
// deleted at the given time. Authorizing follows the same window.
func (c *StudentCatalogPerSubject) CanEditAbsence(absence *SubjectAbsence, now time.Time) error {
	if c.IsCoordinationSubject {
		return nil
	}
	if now.Sub(absence.CreatedAt) > RegularEditWindow {
		return shared.WrapError("catalog", "EditAbsence", shared.ErrEditWindowClosed,
			"absences can only be changed within 7 days", nil)
	}
	return nil
}

// CanEditExaminationGrade reports whether an examination row may still
// be updated or deleted at the given time.
func (c *StudentCatalogPerSubject) CanEditExaminationGrade(grade *ExaminationGrade, now time.Time) error {
	if now.Sub(grade.CreatedAt) > ExaminationEditWindow {
		return shared.WrapError("catalog", "EditExaminationGrade", shared.ErrEditWindowClosed,
			"examination grades can only be changed within 2 hours", nil)
	}
	return nil
}
