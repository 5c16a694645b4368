package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserProfileRepository implements school.UserProfileRepository for PostgreSQL.
type UserProfileRepository struct {
	conn *Connection
}

// NewUserProfileRepository creates a new UserProfileRepository.
func NewUserProfileRepository(conn *Connection) *UserProfileRepository {
	return &UserProfileRepository{conn: conn}
}

const profileColumns = `
	id, school_unit_id, full_name, email, phone_number, role, password_hash,
	study_class_id, parent_ids, is_exempted, educator_full_name, labels,
	risk_description, risk_level_last_changed, last_change_in_catalog,
	last_online, is_active, created_at, updated_at
`

// GetByID returns a profile by ID.
func (r *UserProfileRepository) GetByID(ctx context.Context, id string) (*school.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`
	return scanProfile(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail returns a profile by email, case-insensitive.
func (r *UserProfileRepository) GetByEmail(ctx context.Context, email string) (*school.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE LOWER(email) = $1`
	return scanProfile(r.conn.QueryRow(ctx, query, strings.ToLower(email)))
}

// GetStudentsByClass returns the active students of a study class.
func (r *UserProfileRepository) GetStudentsByClass(ctx context.Context, studyClassID string) ([]*school.UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM user_profiles
		WHERE study_class_id = $1 AND role = 'student' AND is_active
		ORDER BY full_name ASC
	`
	return r.queryProfiles(ctx, query, studyClassID)
}

// GetStudentsBySchoolUnit returns the active students of a school unit.
func (r *UserProfileRepository) GetStudentsBySchoolUnit(ctx context.Context, schoolUnitID string) ([]*school.UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM user_profiles
		WHERE school_unit_id = $1 AND role = 'student' AND is_active
		ORDER BY full_name ASC
	`
	return r.queryProfiles(ctx, query, schoolUnitID)
}

// CountActiveStudents counts the active students of a school unit.
func (r *UserProfileRepository) CountActiveStudents(ctx context.Context, schoolUnitID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM user_profiles WHERE school_unit_id = $1 AND role = 'student' AND is_active",
		schoolUnitID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active students: %w", err)
	}
	return count, nil
}

// Save inserts a new profile.
func (r *UserProfileRepository) Save(ctx context.Context, profile *school.UserProfile) error {
	query := `
		INSERT INTO user_profiles (
			id, school_unit_id, full_name, email, phone_number, role, password_hash,
			study_class_id, parent_ids, is_exempted, educator_full_name, labels,
			risk_description, risk_level_last_changed, last_change_in_catalog,
			last_online, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.conn.Exec(ctx, query,
		profile.ID,
		nullableID(profile.SchoolUnitID),
		profile.FullName,
		profile.Email,
		profile.PhoneNumber,
		string(profile.Role),
		profile.PasswordHash,
		nullableID(profile.StudyClassID),
		profile.ParentIDs,
		profile.IsExempted,
		profile.EducatorFullName,
		profile.Labels,
		profile.RiskDescription,
		profile.RiskLevelLastChanged,
		profile.LastChangeInCatalog,
		profile.LastOnline,
		profile.IsActive,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

// Update rewrites a profile.
func (r *UserProfileRepository) Update(ctx context.Context, profile *school.UserProfile) error {
	query := `
		UPDATE user_profiles SET
			school_unit_id = $1,
			full_name = $2,
			email = $3,
			phone_number = $4,
			role = $5,
			password_hash = $6,
			study_class_id = $7,
			parent_ids = $8,
			is_exempted = $9,
			educator_full_name = $10,
			labels = $11,
			risk_description = $12,
			risk_level_last_changed = $13,
			last_change_in_catalog = $14,
			last_online = $15,
			is_active = $16,
			updated_at = $17
		WHERE id = $18
	`

	result, err := r.conn.Exec(ctx, query,
		nullableID(profile.SchoolUnitID),
		profile.FullName,
		profile.Email,
		profile.PhoneNumber,
		string(profile.Role),
		profile.PasswordHash,
		nullableID(profile.StudyClassID),
		profile.ParentIDs,
		profile.IsExempted,
		profile.EducatorFullName,
		profile.Labels,
		profile.RiskDescription,
		profile.RiskLevelLastChanged,
		profile.LastChangeInCatalog,
		profile.LastOnline,
		profile.IsActive,
		time.Now().UTC(),
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *UserProfileRepository) queryProfiles(ctx context.Context, query string, args ...interface{}) ([]*school.UserProfile, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*school.UserProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func scanProfile(row pgx.Row) (*school.UserProfile, error) {
	var p school.UserProfile
	var unitID, classID *string
	var role string

	err := row.Scan(
		&p.ID,
		&unitID,
		&p.FullName,
		&p.Email,
		&p.PhoneNumber,
		&role,
		&p.PasswordHash,
		&classID,
		&p.ParentIDs,
		&p.IsExempted,
		&p.EducatorFullName,
		&p.Labels,
		&p.RiskDescription,
		&p.RiskLevelLastChanged,
		&p.LastChangeInCatalog,
		&p.LastOnline,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user profile: %w", err)
	}

	p.SchoolUnitID = deref(unitID)
	p.StudyClassID = deref(classID)
	p.Role = school.UserRole(role)
	return &p, nil
}
