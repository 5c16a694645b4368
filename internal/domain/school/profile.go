package school

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// UserRole defines what a profile can do in the catalog.
type UserRole string

const (
	RoleAdministrator UserRole = "administrator"
	RoleSchoolAdmin   UserRole = "school_admin" // principal
	RoleTeacher       UserRole = "teacher"
	RoleParent        UserRole = "parent"
	RoleStudent       UserRole = "student"
)

// IsValid checks the role value.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleSchoolAdmin, RoleTeacher, RoleParent, RoleStudent:
		return true
	default:
		return false
	}
}

// CanEditCatalog reports whether the role may mutate catalog rows at all.
func (r UserRole) CanEditCatalog() bool {
	return r == RoleTeacher
}

// UserProfile is any person in the system: administrator, principal,
// teacher, parent or student. Students carry the risk fields maintained
// by the risk classifier.
type UserProfile struct {
	ID           string
	SchoolUnitID string
	FullName     string
	Email        string
	PhoneNumber  string
	Role         UserRole
	PasswordHash string

	// Student-only fields.
	StudyClassID     string
	ParentIDs        []string
	IsExempted       bool // medically exempted, skipped by aggregates
	EducatorFullName string

	// Risk state written by the risk classifier. Labels hold the active
	// risk labels ("RISK_1"/"RISK_2"), RiskDescription the Romanian
	// summary of the triggering reasons.
	Labels               []string
	RiskDescription      string
	RiskLevelLastChanged *time.Time

	// LastChangeInCatalog is stamped on teacher profiles whenever they
	// mutate a catalog row.
	LastChangeInCatalog *time.Time

	// LastOnline powers the inactive-account report.
	LastOnline *time.Time

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetPassword hashes and stores a new password.
func (p *UserProfile) SetPassword(plain string) error {
	if len(plain) < 6 {
		return shared.NewDomainError("school", "SetPassword", shared.ErrValidation, "password must have at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return shared.WrapError("school", "SetPassword", shared.ErrInvalidInput, "failed to hash password", err)
	}
	p.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a password against the stored hash.
func (p *UserProfile) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(plain)) == nil
}

// HasLabel reports whether a label is currently attached.
func (p *UserProfile) HasLabel(label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// AttachLabel adds a label if not already present.
func (p *UserProfile) AttachLabel(label string) {
	if !p.HasLabel(label) {
		p.Labels = append(p.Labels, label)
	}
}

// RemoveLabel detaches a label if present.
func (p *UserProfile) RemoveLabel(label string) {
	kept := p.Labels[:0]
	for _, l := range p.Labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	p.Labels = kept
}

// StampCatalogChange records the teacher's latest catalog mutation time.
func (p *UserProfile) StampCatalogChange(at time.Time) {
	t := at.UTC()
	p.LastChangeInCatalog = &t
	p.UpdatedAt = t
}
