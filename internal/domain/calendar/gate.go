package calendar

import (
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR GATE
// ══════════════════════════════════════════════════════════════════════════════

// CurrentSemester returns the semester containing the given time, or nil
// when the time falls in a break between semesters or outside the year.
func (c *AcademicYearCalendar) CurrentSemester(now time.Time) *SemesterCalendar {
	if c.FirstSemester != nil && c.FirstSemester.Contains(now) {
		return c.FirstSemester
	}
	if c.SecondSemester != nil && c.SecondSemester.Contains(now) {
		return c.SecondSemester
	}
	return nil
}

// CanUpdateGrades reports whether regular grade and absence mutations are
// allowed at the given time: only inside an active semester.
func (c *AcademicYearCalendar) CanUpdateGrades(now time.Time) error {
	if c.CurrentSemester(now) == nil {
		return shared.WrapError("calendar", "CanUpdateGrades", shared.ErrOutsideSemester,
			"grades and absences can only be changed during a semester", nil)
	}
	return nil
}

// ExamWindowOpen reports whether an examination window of the given type
// contains the given time.
func (c *AcademicYearCalendar) ExamWindowOpen(eventType EventType, now time.Time) bool {
	for _, ev := range c.EventsOfType(eventType) {
		if ev.Range.Contains(now) {
			return true
		}
	}
	return false
}

// CanUpdateExaminationGrades gates examination-grade mutations. Second
// examinations (Corigente) additionally require the study class to belong
// to the calendar's own academic year; difference examinations may also
// settle catalogs of a prior year.
func (c *AcademicYearCalendar) CanUpdateExaminationGrades(classYear shared.AcademicYear, eventType EventType, now time.Time) error {
	if eventType != EventCorigente && eventType != EventDiferente {
		return shared.NewDomainError("calendar", "CanUpdateExaminationGrades", shared.ErrInvalidInput,
			"event type is not an examination window")
	}
	if eventType == EventCorigente && classYear != c.AcademicYear {
		return shared.WrapError("calendar", "CanUpdateExaminationGrades", shared.ErrOutsideExamWindow,
			"second examinations apply only to the current academic year", nil)
	}
	if !c.ExamWindowOpen(eventType, now) {
		return shared.WrapError("calendar", "CanUpdateExaminationGrades", shared.ErrOutsideExamWindow,
			"no open examination window of the required type", nil)
	}
	return nil
}

// SemesterEndDate returns the effective end of a semester for a given
// variant: the maximum of the semester's own end date and the end of any
// matching semester-end event. Variant events only exist on the second
// semester; the first semester always ends on its own end date.
func (c *AcademicYearCalendar) SemesterEndDate(sem shared.Semester, variant SemesterEndVariant) time.Time {
	semester := c.Semester(sem)
	if semester == nil {
		return time.Time{}
	}
	end := semester.Range.Ends
	if sem != shared.SemesterSecond {
		return end
	}
	eventType := variant.EventType()
	if eventType == "" {
		return end
	}
	for _, ev := range c.EventsOfType(eventType) {
		if ev.Range.Ends.After(end) {
			end = ev.Range.Ends
		}
	}
	return end
}

// VariantEndDate returns the date from which annual evaluation may run
// for a variant: the matching event's end when one exists, otherwise the
// second semester's own end date.
func (c *AcademicYearCalendar) VariantEndDate(variant SemesterEndVariant) time.Time {
	if c.SecondSemester == nil {
		return time.Time{}
	}
	eventType := variant.EventType()
	if eventType == "" {
		return c.SecondSemester.Range.Ends
	}
	events := c.EventsOfType(eventType)
	if len(events) == 0 {
		return c.SecondSemester.Range.Ends
	}
	end := events[0].Range.Ends
	for _, ev := range events[1:] {
		if ev.Range.Ends.After(end) {
			end = ev.Range.Ends
		}
	}
	return end
}

// AnnualEvaluationDue reports whether annual placements and risk
// evaluation may run for classes of a variant: on or after the variant's
// effective end date, while still inside the academic year.
func (c *AcademicYearCalendar) AnnualEvaluationDue(variant SemesterEndVariant, now time.Time) bool {
	end := c.VariantEndDate(variant)
	if end.IsZero() {
		return false
	}
	return !now.Before(dayStart(end)) && !now.After(c.AcademicYear.End())
}

// PlacementsDue reports whether a placement run may rank a class of the
// given variant: inside the first-semester end window (from the first
// semester's end until the second semester starts) or from the variant's
// effective second-semester end onward. Outside both windows the
// placement pass has nothing to do for the class.
func (c *AcademicYearCalendar) PlacementsDue(variant SemesterEndVariant, now time.Time) bool {
	if c.AnnualEvaluationDue(variant, now) {
		return true
	}
	if c.FirstSemester == nil || c.SecondSemester == nil {
		return false
	}
	return !now.Before(dayStart(c.FirstSemester.Range.Ends)) &&
		now.Before(c.SecondSemester.Range.Starts)
}

// SecondSemesterEvaluationDue reports whether second-semester grade risk
// may be evaluated for a class: from the class's variant end date onward.
// First-semester grade risk for non-terminal classes is never evaluated.
func (c *AcademicYearCalendar) SecondSemesterEvaluationDue(grade school.GradeLevel, track school.AcademicTrack, now time.Time) bool {
	return c.AnnualEvaluationDue(VariantFor(grade, track), now)
}

// ══════════════════════════════════════════════════════════════════════════════
// WORKING WEEKS
// ══════════════════════════════════════════════════════════════════════════════

// WorkingWeeks computes the number of working weeks of a semester for a
// variant: the ISO-week span between the semester start and the variant's
// effective end, minus the week span of every overlapping holiday. The
// autumn holiday is only subtracted on the primary track during the first
// semester.
func (c *AcademicYearCalendar) WorkingWeeks(sem shared.Semester, variant SemesterEndVariant, primaryTrack bool) int {
	semester := c.Semester(sem)
	if semester == nil || !semester.Range.IsValid() {
		return 0
	}
	end := semester.Range.Ends
	if sem == shared.SemesterSecond {
		end = c.SemesterEndDate(sem, variant)
	}
	weeks := timeutil.WeekSpan(semester.Range.Starts, end)

	span := shared.DateRange{Starts: semester.Range.Starts, Ends: end}
	for _, ev := range c.EventsOfType(EventAutumnHoliday) {
		if sem == shared.SemesterFirst && primaryTrack && ev.Range.Overlaps(span) {
			weeks -= timeutil.WeekSpan(ev.Range.Starts, ev.Range.Ends)
		}
	}
	for _, t := range []EventType{EventLegalPublicHoliday, EventWinterHoliday, EventSpringHoliday} {
		for _, ev := range c.EventsOfType(t) {
			if ev.Range.Overlaps(span) {
				weeks -= timeutil.WeekSpan(ev.Range.Starts, ev.Range.Ends)
			}
		}
	}
	if weeks < 0 {
		weeks = 0
	}
	return weeks
}

// RecomputeWorkingWeeks fills every per-track working-week counter of
// both semesters. Running it twice on an unchanged calendar yields the
// same counts.
func (c *AcademicYearCalendar) RecomputeWorkingWeeks() {
	for _, sem := range []shared.Semester{shared.SemesterFirst, shared.SemesterSecond} {
		semester := c.Semester(sem)
		if semester == nil {
			continue
		}
		semester.WorkingWeeksCount = c.WorkingWeeks(sem, EndVariantRegular, false)
		semester.WorkingWeeksCountPrimarySchool = c.WorkingWeeks(sem, EndVariantRegular, true)
		semester.WorkingWeeksCountVIIIGrade = c.WorkingWeeks(sem, EndVariantGradeVIII, false)
		semester.WorkingWeeksCountXIIGrade = c.WorkingWeeks(sem, EndVariantGradeXIIXIII, false)
		semester.WorkingWeeksCountTechnological = c.WorkingWeeks(sem, EndVariantTechnological, false)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NEXT YEAR GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// GenerateNextYear derives the calendar of the following academic year by
// shifting every date range one year forward. Working-week counters are
// reset; the working-weeks job recomputes them. The caller must check
// that no calendar exists for the next year before saving.
func (c *AcademicYearCalendar) GenerateNextYear() *AcademicYearCalendar {
	next := &AcademicYearCalendar{
		AcademicYear:   c.AcademicYear.Next(),
		FirstSemester:  shiftSemester(c.FirstSemester),
		SecondSemester: shiftSemester(c.SecondSemester),
	}
	for _, ev := range c.Events {
		next.Events = append(next.Events, shiftEvent(ev))
	}
	return next
}

func shiftSemester(s *SemesterCalendar) *SemesterCalendar {
	if s == nil {
		return nil
	}
	out := &SemesterCalendar{
		Semester: s.Semester,
		Range:    shiftRange(s.Range),
	}
	for _, ev := range s.Events {
		out.Events = append(out.Events, shiftEvent(ev))
	}
	return out
}

func shiftEvent(ev *SchoolEvent) *SchoolEvent {
	return &SchoolEvent{
		EventType: ev.EventType,
		Range:     shiftRange(ev.Range),
		Comment:   ev.Comment,
	}
}

func shiftRange(r shared.DateRange) shared.DateRange {
	return shared.DateRange{
		Starts: r.Starts.AddDate(1, 0, 0),
		Ends:   r.Ends.AddDate(1, 0, 0),
	}
}
