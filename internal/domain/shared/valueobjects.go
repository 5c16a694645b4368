// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Grade Value Object
// ═══════════════════════════════════════════════════════════════════════════

// GradeValue represents a single grade awarded to a student.
// The Romanian grading scale runs from 1 (worst) to 10 (best).
type GradeValue int

const (
	MinGrade GradeValue = 1
	MaxGrade GradeValue = 10
)

// IsValid checks if the grade is within the 1-10 scale.
func (g GradeValue) IsValid() bool {
	return g >= MinGrade && g <= MaxGrade
}

// Int returns the underlying int value.
func (g GradeValue) Int() int {
	return int(g)
}

// IsPassing returns true for grades of 5 and above.
func (g GradeValue) IsPassing() bool {
	return g >= 5
}

// NewGradeValue creates a new GradeValue with validation.
func NewGradeValue(value int) (GradeValue, error) {
	g := GradeValue(value)
	if !g.IsValid() {
		return 0, NewDomainError("shared", "NewGradeValue", ErrValueOutOfRange, "grade must be between 1 and 10")
	}
	return g, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Semester Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Semester identifies one of the two semesters of a Romanian school year.
type Semester int

const (
	SemesterFirst  Semester = 1
	SemesterSecond Semester = 2
)

// IsValid checks that the semester is 1 or 2.
func (s Semester) IsValid() bool {
	return s == SemesterFirst || s == SemesterSecond
}

// Int returns the underlying int value.
func (s Semester) Int() int {
	return int(s)
}

// Other returns the opposite semester.
func (s Semester) Other() Semester {
	if s == SemesterFirst {
		return SemesterSecond
	}
	return SemesterFirst
}

// String returns a Roman-numeral representation ("I" / "II") as used
// in Romanian catalog headers.
func (s Semester) String() string {
	if s == SemesterFirst {
		return "I"
	}
	return "II"
}

// NewSemester creates a new Semester with validation.
func NewSemester(value int) (Semester, error) {
	s := Semester(value)
	if !s.IsValid() {
		return 0, NewDomainError("shared", "NewSemester", ErrValueOutOfRange, "semester must be 1 or 2")
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// AcademicYear Value Object
// ═══════════════════════════════════════════════════════════════════════════

// AcademicYear identifies a school year by its starting calendar year.
// The academic year 2019 spans September 2019 through August 2020.
type AcademicYear int

// IsValid performs a sanity check on the year.
func (y AcademicYear) IsValid() bool {
	return y >= 1990 && y <= 2100
}

// Int returns the underlying int value.
func (y AcademicYear) Int() int {
	return int(y)
}

// Next returns the following academic year.
func (y AcademicYear) Next() AcademicYear {
	return y + 1
}

// String returns the "2019-2020" display form.
func (y AcademicYear) String() string {
	return fmt.Sprintf("%d-%d", int(y), int(y)+1)
}

// End returns the last instant of the academic year (August 31, end of day, UTC).
func (y AcademicYear) End() time.Time {
	return time.Date(int(y)+1, time.August, 31, 23, 59, 59, 0, time.UTC)
}

// Contains reports whether the given time falls inside the academic year
// (September 1 through August 31).
func (y AcademicYear) Contains(t time.Time) bool {
	start := time.Date(int(y), time.September, 1, 0, 0, 0, 0, time.UTC)
	return !t.Before(start) && !t.After(y.End())
}

// AcademicYearFor returns the academic year a timestamp belongs to.
// January through August belong to the year that started the previous September.
func AcademicYearFor(t time.Time) AcademicYear {
	if t.Month() >= time.September {
		return AcademicYear(t.Year())
	}
	return AcademicYear(t.Year() - 1)
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateRange represents an inclusive calendar date range.
// Times are compared at day granularity; both boundary days are included.
type DateRange struct {
	Starts time.Time
	Ends   time.Time
}

// IsValid checks that both dates are set and ordered.
func (r DateRange) IsValid() bool {
	return !r.Starts.IsZero() && !r.Ends.IsZero() && !r.Starts.After(r.Ends)
}

// Contains reports whether the given time falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(r.Starts.Year(), r.Starts.Month(), r.Starts.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.Ends.Year(), r.Ends.Month(), r.Ends.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}

// Overlaps reports whether two ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Starts.After(other.Ends) && !other.Starts.After(r.Ends)
}

// NewDateRange creates a new DateRange with validation.
func NewDateRange(starts, ends time.Time) (DateRange, error) {
	r := DateRange{Starts: starts, Ends: ends}
	if !r.IsValid() {
		return DateRange{}, NewDomainError("shared", "NewDateRange", ErrInvalidInput, "'starts' must not be after 'ends'")
	}
	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters for list queries.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults applied.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
