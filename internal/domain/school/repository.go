package school

import (
	"context"

	"github.com/edualert/edualert/internal/domain/shared"
)

// SchoolUnitRepository persists school units and their aggregates.
type SchoolUnitRepository interface {
	GetByID(ctx context.Context, id string) (*SchoolUnit, error)
	GetAll(ctx context.Context) ([]*SchoolUnit, error)
	Save(ctx context.Context, unit *SchoolUnit) error
	Update(ctx context.Context, unit *SchoolUnit) error

	GetStats(ctx context.Context, schoolUnitID string, year shared.AcademicYear) (*SchoolUnitStats, error)
	SaveStats(ctx context.Context, stats *SchoolUnitStats) error

	GetEnrollmentStats(ctx context.Context, schoolUnitID string, year shared.AcademicYear) (*SchoolUnitEnrollmentStats, error)
	SaveEnrollmentStats(ctx context.Context, stats *SchoolUnitEnrollmentStats) error
}

// StudyClassRepository persists study classes with their subject lists.
type StudyClassRepository interface {
	GetByID(ctx context.Context, id string) (*StudyClass, error)
	GetBySchoolUnit(ctx context.Context, schoolUnitID string, year shared.AcademicYear) ([]*StudyClass, error)
	GetByAcademicYear(ctx context.Context, year shared.AcademicYear) ([]*StudyClass, error)
	Save(ctx context.Context, class *StudyClass) error
	Update(ctx context.Context, class *StudyClass) error
}

// AcademicProgramRepository persists programs and their aggregates.
type AcademicProgramRepository interface {
	GetByID(ctx context.Context, id string) (*AcademicProgram, error)
	GetBySchoolUnit(ctx context.Context, schoolUnitID string, year shared.AcademicYear) ([]*AcademicProgram, error)
	Save(ctx context.Context, program *AcademicProgram) error
	Update(ctx context.Context, program *AcademicProgram) error
}

// SubjectRepository persists the national subject registry.
type SubjectRepository interface {
	GetByID(ctx context.Context, id string) (*Subject, error)
	GetAll(ctx context.Context) ([]*Subject, error)
	Save(ctx context.Context, subject *Subject) error
}

// UserProfileRepository persists all user profiles.
type UserProfileRepository interface {
	GetByID(ctx context.Context, id string) (*UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*UserProfile, error)
	GetStudentsByClass(ctx context.Context, studyClassID string) ([]*UserProfile, error)
	GetStudentsBySchoolUnit(ctx context.Context, schoolUnitID string) ([]*UserProfile, error)
	CountActiveStudents(ctx context.Context, schoolUnitID string) (int, error)
	Save(ctx context.Context, profile *UserProfile) error
	Update(ctx context.Context, profile *UserProfile) error
}
