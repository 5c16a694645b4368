// Package calendar implements the academic calendar and its gate: which
// semester is active, whether an examination window is open, which
// semester-end variant applies to a class, and how many working weeks a
// semester has. All gate operations are pure functions over an explicit
// calendar value so they can be evaluated for any clock reading.
package calendar

import (
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
	"github.com/edualert/edualert/internal/domain/school"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// EventType classifies a school event on the academic calendar.
type EventType string

const (
	// Holidays. The autumn holiday applies only to the primary cycle and
	// is subtracted from working weeks only on that track.
	EventLegalPublicHoliday EventType = "legal_public_holiday"
	EventAutumnHoliday      EventType = "autumn_holiday"
	EventWinterHoliday      EventType = "winter_holiday"
	EventSpringHoliday      EventType = "spring_holiday"

	// Second-semester end markers. Terminal grades and the technological
	// track finish the year earlier than the regular majority.
	EventSecondSemesterEndVIII EventType = "second_semester_end_viii_grade"
	EventSecondSemesterEndXII  EventType = "second_semester_end_xii_xiii_grade"
	EventSecondSemesterEndTech EventType = "second_semester_end_ix_xi_tech"

	// Examination windows: Corigente for second examinations, Diferente
	// for difference examinations.
	EventCorigente EventType = "corigente"
	EventDiferente EventType = "diferente"
)

// IsValid checks the event type value.
func (t EventType) IsValid() bool {
	switch t {
	case EventLegalPublicHoliday, EventAutumnHoliday, EventWinterHoliday, EventSpringHoliday,
		EventSecondSemesterEndVIII, EventSecondSemesterEndXII, EventSecondSemesterEndTech,
		EventCorigente, EventDiferente:
		return true
	default:
		return false
	}
}

// IsHoliday reports whether the event suspends teaching.
func (t EventType) IsHoliday() bool {
	switch t {
	case EventLegalPublicHoliday, EventAutumnHoliday, EventWinterHoliday, EventSpringHoliday:
		return true
	default:
		return false
	}
}

// IsSemesterEnd reports whether the event is a second-semester end marker.
func (t EventType) IsSemesterEnd() bool {
	switch t {
	case EventSecondSemesterEndVIII, EventSecondSemesterEndXII, EventSecondSemesterEndTech:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// SchoolEvent is a typed date range on the calendar. Year-level events
// (exam windows, legal holidays) hang off the AcademicYearCalendar,
// semester-bound events (semester holidays, end markers) off their
// SemesterCalendar.
type SchoolEvent struct {
	ID        string
	EventType EventType
	Range     shared.DateRange
	Comment   string
}

// NewSchoolEvent validates and creates an event.
func NewSchoolEvent(id string, eventType EventType, starts, ends time.Time) (*SchoolEvent, error) {
	if !eventType.IsValid() {
		return nil, shared.NewDomainError("calendar", "NewSchoolEvent", shared.ErrInvalidInput, "unknown event type")
	}
	r, err := shared.NewDateRange(starts, ends)
	if err != nil {
		return nil, shared.ErrInvalidEventRange
	}
	return &SchoolEvent{ID: id, EventType: eventType, Range: r}, nil
}

// SemesterCalendar is one semester of an academic year, with the
// per-track working-week counts filled in by the working-weeks job.
type SemesterCalendar struct {
	ID       string
	Semester shared.Semester
	Range    shared.DateRange
	Events   []*SchoolEvent

	// Working-week counts per track, recomputed by the
	// calculate_semesters_working_weeks job.
	WorkingWeeksCount              int
	WorkingWeeksCountPrimarySchool int
	WorkingWeeksCountVIIIGrade     int
	WorkingWeeksCountXIIGrade      int
	WorkingWeeksCountTechnological int
}

// Contains reports whether a time falls inside the semester.
func (s *SemesterCalendar) Contains(t time.Time) bool {
	return s.Range.Contains(t)
}

// EventsOfType returns the semester's events matching a type.
func (s *SemesterCalendar) EventsOfType(t EventType) []*SchoolEvent {
	var out []*SchoolEvent
	for _, ev := range s.Events {
		if ev.EventType == t {
			out = append(out, ev)
		}
	}
	return out
}

// AcademicYearCalendar is the national calendar of one academic year.
// Exactly one calendar is "current" at any time, resolved by date
// containment; when none matches, calendar-gated operations refuse with
// a no-calendar condition instead of failing hard.
type AcademicYearCalendar struct {
	ID           string
	AcademicYear shared.AcademicYear

	FirstSemester  *SemesterCalendar
	SecondSemester *SemesterCalendar

	// Year-level events: examination windows and legal holidays that do
	// not belong to a single semester.
	Events []*SchoolEvent

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Semester returns the semester calendar for a semester number.
func (c *AcademicYearCalendar) Semester(sem shared.Semester) *SemesterCalendar {
	if sem == shared.SemesterSecond {
		return c.SecondSemester
	}
	return c.FirstSemester
}

// Contains reports whether a time falls inside the academic year this
// calendar governs: from the first semester's start through the end of
// the academic year (August 31).
func (c *AcademicYearCalendar) Contains(t time.Time) bool {
	if c.FirstSemester == nil {
		return false
	}
	return !t.Before(dayStart(c.FirstSemester.Range.Starts)) && !t.After(c.AcademicYear.End())
}

// EventsOfType returns all events of a type, year-level and
// semester-level alike.
func (c *AcademicYearCalendar) EventsOfType(t EventType) []*SchoolEvent {
	var out []*SchoolEvent
	for _, ev := range c.Events {
		if ev.EventType == t {
			out = append(out, ev)
		}
	}
	for _, sem := range []*SemesterCalendar{c.FirstSemester, c.SecondSemester} {
		if sem != nil {
			out = append(out, sem.EventsOfType(t)...)
		}
	}
	return out
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER-END VARIANTS
// ══════════════════════════════════════════════════════════════════════════════

// SemesterEndVariant selects which second-semester end date governs a
// study class. Exactly one variant applies to any class.
type SemesterEndVariant int

const (
	EndVariantRegular SemesterEndVariant = iota
	EndVariantGradeVIII
	EndVariantGradeXIIXIII
	EndVariantTechnological
)

// String returns a stable name for logging.
func (v SemesterEndVariant) String() string {
	switch v {
	case EndVariantGradeVIII:
		return "grade_viii"
	case EndVariantGradeXIIXIII:
		return "grade_xii_xiii"
	case EndVariantTechnological:
		return "technological_ix_xi"
	default:
		return "regular"
	}
}

// EventType returns the school-event type carrying this variant's end
// date, or "" for the regular variant, which uses the semester's own end.
func (v SemesterEndVariant) EventType() EventType {
	switch v {
	case EndVariantGradeVIII:
		return EventSecondSemesterEndVIII
	case EndVariantGradeXIIXIII:
		return EventSecondSemesterEndXII
	case EndVariantTechnological:
		return EventSecondSemesterEndTech
	default:
		return ""
	}
}

// VariantFor resolves the semester-end variant of a study class from its
// grade level and track. Grade VIII and XII/XIII take precedence over
// the technological track.
func VariantFor(grade school.GradeLevel, track school.AcademicTrack) SemesterEndVariant {
	switch {
	case grade == 8:
		return EndVariantGradeVIII
	case grade == 12 || grade == 13:
		return EndVariantGradeXIIXIII
	case track.IsTechnological() && grade >= 9 && grade <= 11:
		return EndVariantTechnological
	default:
		return EndVariantRegular
	}
}
