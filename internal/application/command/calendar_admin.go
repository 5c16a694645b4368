package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR ADMINISTRATION COMMANDS
// Generate the next academic year's calendar and recompute the working
// week counters after holiday edits.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateNextYearCommand clones the current calendar one year forward.
type GenerateNextYearCommand struct{}

// GenerateNextYearResult reports the generated year.
type GenerateNextYearResult struct {
	AcademicYear int
}

// RecomputeWorkingWeeksCommand refreshes all working-week counters of
// one calendar. Year 0 targets the current calendar.
type RecomputeWorkingWeeksCommand struct {
	AcademicYear int
}

// WorkingWeeksResult reports the recomputed counters of both semesters.
type WorkingWeeksResult struct {
	AcademicYear          int
	FirstSemesterWeeks    int
	SecondSemesterWeeks   int
	FirstSemesterPrimary  int
	SecondSemesterPrimary int
}

// CalendarAdminHandler handles calendar administration commands.
type CalendarAdminHandler struct {
	calendars calendar.Repository
	logger    *slog.Logger
	now       func() time.Time
}

// NewCalendarAdminHandler creates a CalendarAdminHandler.
func NewCalendarAdminHandler(calendars calendar.Repository, logger *slog.Logger) *CalendarAdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarAdminHandler{
		calendars: calendars,
		logger:    logger.With("command", "calendar_admin"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleGenerateNextYear executes GenerateNextYearCommand. Generation is
// idempotent-by-refusal: when the next year's calendar already exists the
// command fails with ErrNextYearAlreadySet instead of overwriting it.
func (h *CalendarAdminHandler) HandleGenerateNextYear(ctx context.Context, _ GenerateNextYearCommand) (*GenerateNextYearResult, error) {
	now := h.now()

	current, err := h.calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("calendar", "GenerateNextYear", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}

	nextYear := current.AcademicYear.Next()
	if _, err := h.calendars.GetByYear(ctx, nextYear); err == nil {
		return nil, shared.ErrNextYearAlreadySet
	} else if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check next year calendar: %w", err)
	}

	next := current.GenerateNextYear()
	next.RecomputeWorkingWeeks()
	if err := h.calendars.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save generated calendar: %w", err)
	}

	h.logger.Info("next study year generated",
		"academic_year", int(next.AcademicYear),
	)
	return &GenerateNextYearResult{AcademicYear: int(next.AcademicYear)}, nil
}

// HandleRecomputeWorkingWeeks executes RecomputeWorkingWeeksCommand.
func (h *CalendarAdminHandler) HandleRecomputeWorkingWeeks(ctx context.Context, cmd RecomputeWorkingWeeksCommand) (*WorkingWeeksResult, error) {
	now := h.now()

	var (
		cal *calendar.AcademicYearCalendar
		err error
	)
	if cmd.AcademicYear == 0 {
		cal, err = h.calendars.GetCurrent(ctx, now)
	} else {
		cal, err = h.calendars.GetByYear(ctx, shared.AcademicYear(cmd.AcademicYear))
	}
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrCalendarNotFound
		}
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}

	cal.RecomputeWorkingWeeks()
	if err := h.calendars.Update(ctx, cal); err != nil {
		return nil, fmt.Errorf("failed to store recomputed calendar: %w", err)
	}

	h.logger.Info("working weeks recomputed",
		"academic_year", int(cal.AcademicYear),
		"sem1_weeks", cal.FirstSemester.WorkingWeeksCount,
		"sem2_weeks", cal.SecondSemester.WorkingWeeksCount,
	)
	return &WorkingWeeksResult{
		AcademicYear:          int(cal.AcademicYear),
		FirstSemesterWeeks:    cal.FirstSemester.WorkingWeeksCount,
		SecondSemesterWeeks:   cal.SecondSemester.WorkingWeeksCount,
		FirstSemesterPrimary:  cal.FirstSemester.WorkingWeeksCountPrimarySchool,
		SecondSemesterPrimary: cal.SecondSemester.WorkingWeeksCountPrimarySchool,
	}, nil
}
