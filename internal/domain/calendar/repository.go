package calendar

import (
	"context"
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
)

// Repository persists academic year calendars.
type Repository interface {
	// GetCurrent resolves the single calendar containing the given time.
	// Returns shared.ErrCalendarNotFound when no calendar matches; callers
	// treat that as "calendar-gated operations disabled", not as a fault.
	GetCurrent(ctx context.Context, now time.Time) (*AcademicYearCalendar, error)

	GetByYear(ctx context.Context, year shared.AcademicYear) (*AcademicYearCalendar, error)
	Save(ctx context.Context, cal *AcademicYearCalendar) error
	Update(ctx context.Context, cal *AcademicYearCalendar) error
}
