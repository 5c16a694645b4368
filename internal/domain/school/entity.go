// Package school contains the structural entities of the EduAlert domain:
// school units, academic programs, study classes and subjects. These define
// which subjects a class takes and with what weekly-hour weight, which is
// the weighting input of the average engine.
package school

import (
	"strings"
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// SchoolUnitCategory determines which education levels a school unit teaches.
type SchoolUnitCategory string

const (
	CategoryPrimarySchool   SchoolUnitCategory = "primary_school"
	CategorySecondarySchool SchoolUnitCategory = "secondary_school" // gymnasium, grades V-VIII
	CategoryHighSchool      SchoolUnitCategory = "highschool"       // grades IX-XIII
)

// IsValid checks the category value.
func (c SchoolUnitCategory) IsValid() bool {
	switch c {
	case CategoryPrimarySchool, CategorySecondarySchool, CategoryHighSchool:
		return true
	default:
		return false
	}
}

// AcademicTrack is the "filiera" of a high-school program. The technological
// track has its own semester-end calendar events and risk checkpoints.
type AcademicTrack string

const (
	TrackTheoretical   AcademicTrack = "teoretica"
	TrackTechnological AcademicTrack = "tehnologica"
	TrackVocational    AcademicTrack = "vocationala"
	TrackNone          AcademicTrack = "" // primary/gymnasium classes have no track
)

// IsTechnological reports whether this is the Filiera Tehnologica track.
func (t AcademicTrack) IsTechnological() bool {
	return t == TrackTechnological
}

// GradeLevel is the class year: 0 for the preparatory class, 1-4 primary,
// 5-8 gymnasium, 9-13 high school.
type GradeLevel int

// IsValid checks the grade level range.
func (g GradeLevel) IsValid() bool {
	return g >= 0 && g <= 13
}

// IsPrimary reports whether the grade belongs to the primary cycle.
func (g GradeLevel) IsPrimary() bool {
	return g >= 0 && g <= 4
}

// IsGymnasium reports whether the grade belongs to the gymnasium cycle.
func (g GradeLevel) IsGymnasium() bool {
	return g >= 5 && g <= 8
}

// IsHighSchool reports whether the grade belongs to the high-school cycle.
func (g GradeLevel) IsHighSchool() bool {
	return g >= 9 && g <= 13
}

// IsTerminal reports whether this is a terminal grade (VIII, XII or XIII),
// which has its own earlier semester-end events.
func (g GradeLevel) IsTerminal() bool {
	return g == 8 || g == 12 || g == 13
}

// Roman returns the Romanian catalog notation for the grade level.
func (g GradeLevel) Roman() string {
	numerals := []string{"P", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII", "XIII"}
	if int(g) < 0 || int(g) >= len(numerals) {
		return ""
	}
	return numerals[g]
}

// Core subject abbreviations. Risk classification by grade averages only
// looks at these two subjects.
const (
	SubjectAbbrevRomanian = "LRO" // Limba Romana
	SubjectAbbrevMath     = "MAT" // Matematica
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL UNIT
// ══════════════════════════════════════════════════════════════════════════════

// SchoolUnit is one school in the national registry.
type SchoolUnit struct {
	ID         string
	SIRUESCode string // national school registry code
	Name       string
	District   string
	City       string
	Categories []SchoolUnitCategory

	// PrincipalID is the profile of the school principal, the default
	// recipient of risk notifications.
	PrincipalID string

	// LastChangeInCatalog is stamped on every catalog mutation made by a
	// teacher of this school.
	LastChangeInCatalog *time.Time

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCategory reports whether the unit teaches the given level.
func (s *SchoolUnit) HasCategory(c SchoolUnitCategory) bool {
	for _, cat := range s.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// StampCatalogChange records the time of the latest catalog mutation.
func (s *SchoolUnit) StampCatalogChange(at time.Time) {
	t := at.UTC()
	s.LastChangeInCatalog = &t
	s.UpdatedAt = t
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT
// ══════════════════════════════════════════════════════════════════════════════

// Subject is a taught discipline. The same subject row is shared by all
// classes; per-class weekly hours live on ClassSubject.
type Subject struct {
	ID     string
	Name   string
	Abbrev string

	// IsCoordination marks the class master's coordination subject
	// (Dirigentie/Consiliere), which has relaxed edit windows and a
	// higher failing threshold in certain profiles.
	IsCoordination bool

	ShouldBeInTimetable bool
}

// IsCore reports whether the subject counts for grade-average risk
// classification (Limba Romana / Matematica).
func (s *Subject) IsCore() bool {
	abbrev := strings.ToUpper(s.Abbrev)
	return abbrev == SubjectAbbrevRomanian || abbrev == SubjectAbbrevMath
}

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC PROGRAM
// ══════════════════════════════════════════════════════════════════════════════

// AcademicProgram is a program (profile + specialization) a school unit
// offers in one academic year, e.g. "Filiera Tehnologica - Mecanica".
type AcademicProgram struct {
	ID           string
	SchoolUnitID string
	Name         string
	AcademicYear shared.AcademicYear
	Track        AcademicTrack

	// CoreSubjectAllowsSix raises the failing threshold of coordination
	// subjects from 5 to 6 for this program's profile.
	CoreSubjectAllowsSix bool

	// Aggregate fields maintained by the recompute cascade: arithmetic
	// means over all enrolled, non-exempted students of the program.
	AvgSem1         *float64
	AvgSem2         *float64
	AvgAnnual       *float64
	UnfoundedAbsAvg *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY CLASS
// ══════════════════════════════════════════════════════════════════════════════

// StudyClass is one class of students in one academic year (e.g. "IX A").
type StudyClass struct {
	ID                string
	SchoolUnitID      string
	AcademicProgramID string
	AcademicYear      shared.AcademicYear
	GradeLevel        GradeLevel
	Letter            string // "A", "B", ...
	Track             AcademicTrack

	// ClassMasterID is the profile of the "diriginte", the first
	// recipient of risk notifications for students of this class.
	ClassMasterID string

	Subjects []*ClassSubject

	// Aggregate fields maintained by the recompute cascade.
	AvgSem1         *float64
	AvgSem2         *float64
	AvgAnnual       *float64
	UnfoundedAbsAvg *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Name returns the display name, e.g. "IX A".
func (c *StudyClass) Name() string {
	return strings.TrimSpace(c.GradeLevel.Roman() + " " + c.Letter)
}

// SubjectWeeklyHours returns the weekly hours of a subject in this class,
// or 0 when the class does not take the subject.
func (c *StudyClass) SubjectWeeklyHours(subjectID string) int {
	for _, cs := range c.Subjects {
		if cs.SubjectID == subjectID {
			return cs.WeeklyHoursCount
		}
	}
	return 0
}

// TeacherFor returns the teacher assigned to a subject in this class.
func (c *StudyClass) TeacherFor(subjectID string) (string, bool) {
	for _, cs := range c.Subjects {
		if cs.SubjectID == subjectID {
			return cs.TeacherID, cs.TeacherID != ""
		}
	}
	return "", false
}

// IsAssignedTeacher reports whether the given profile teaches the subject
// in this class or is the class master.
func (c *StudyClass) IsAssignedTeacher(profileID, subjectID string) bool {
	if profileID == "" {
		return false
	}
	if c.ClassMasterID == profileID {
		return true
	}
	teacherID, ok := c.TeacherFor(subjectID)
	return ok && teacherID == profileID
}

// ClassSubject links a subject to a study class with its weekly-hour
// weight and assigned teacher.
type ClassSubject struct {
	SubjectID        string
	SubjectName      string
	SubjectAbbrev    string
	TeacherID        string
	WeeklyHoursCount int
	IsCoordination   bool
}
