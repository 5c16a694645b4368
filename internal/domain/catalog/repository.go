package catalog

import (
	"context"

	"github.com/edualert/edualert/internal/domain/shared"
)

// SubjectCatalogRepository persists subject catalogs with their grade,
// absence and examination rows.
type SubjectCatalogRepository interface {
	GetByID(ctx context.Context, id string) (*StudentCatalogPerSubject, error)
	GetByStudent(ctx context.Context, studentID string, year shared.AcademicYear) ([]*StudentCatalogPerSubject, error)
	GetByStudyClass(ctx context.Context, studyClassID string) ([]*StudentCatalogPerSubject, error)
	GetBySubjectAndClass(ctx context.Context, subjectID, studyClassID string) ([]*StudentCatalogPerSubject, error)
	Save(ctx context.Context, catalog *StudentCatalogPerSubject) error
	Update(ctx context.Context, catalog *StudentCatalogPerSubject) error
}

// YearlyCatalogRepository persists per-student yearly catalogs.
type YearlyCatalogRepository interface {
	GetByID(ctx context.Context, id string) (*StudentCatalogPerYear, error)
	GetByStudent(ctx context.Context, studentID string, year shared.AcademicYear) (*StudentCatalogPerYear, error)
	GetByStudyClass(ctx context.Context, studyClassID string) ([]*StudentCatalogPerYear, error)
	GetBySchoolUnit(ctx context.Context, schoolUnitID string, year shared.AcademicYear) ([]*StudentCatalogPerYear, error)
	Save(ctx context.Context, catalog *StudentCatalogPerYear) error
	Update(ctx context.Context, catalog *StudentCatalogPerYear) error
}
