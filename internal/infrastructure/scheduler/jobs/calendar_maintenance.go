package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edualert/edualert/internal/application/command"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR MAINTENANCE JOBS
// ══════════════════════════════════════════════════════════════════════════════

// GenerateNextYearJob drafts the calendar of the next academic year from
// the current one. The job is idempotent: if next year's calendar already
// exists the run is a no-op.
type GenerateNextYearJob struct {
	handler *command.CalendarAdminHandler
	logger  *slog.Logger
}

// NewGenerateNextYearJob creates the job.
func NewGenerateNextYearJob(handler *command.CalendarAdminHandler, logger *slog.Logger) *GenerateNextYearJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateNextYearJob{handler: handler, logger: logger}
}

// Name returns the job name.
func (j *GenerateNextYearJob) Name() string {
	return "generate_next_study_year"
}

// Description returns a human-readable description.
func (j *GenerateNextYearJob) Description() string {
	return "Drafts next academic year's calendar by shifting the current one"
}

// Run executes the generation.
func (j *GenerateNextYearJob) Run(ctx context.Context) error {
	result, err := j.handler.HandleGenerateNextYear(ctx, command.GenerateNextYearCommand{})
	if err != nil {
		if errors.Is(err, shared.ErrCalendarAlreadyExists) {
			j.logger.Info("next year calendar already exists")
			return nil
		}
		return fmt.Errorf("generate next year: %w", err)
	}

	j.logger.Info("next year calendar drafted",
		"academic_year", result.AcademicYear,
	)
	return nil
}

// RecomputeWorkingWeeksJob refreshes the working-week counters of the
// current calendar after event changes.
type RecomputeWorkingWeeksJob struct {
	handler *command.CalendarAdminHandler
	logger  *slog.Logger
}

// NewRecomputeWorkingWeeksJob creates the job.
func NewRecomputeWorkingWeeksJob(handler *command.CalendarAdminHandler, logger *slog.Logger) *RecomputeWorkingWeeksJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputeWorkingWeeksJob{handler: handler, logger: logger}
}

// Name returns the job name.
func (j *RecomputeWorkingWeeksJob) Name() string {
	return "calculate_semesters_working_weeks"
}

// Description returns a human-readable description.
func (j *RecomputeWorkingWeeksJob) Description() string {
	return "Recomputes the working-week counters of the current academic calendar"
}

// Run executes the recomputation against the current calendar.
func (j *RecomputeWorkingWeeksJob) Run(ctx context.Context) error {
	result, err := j.handler.HandleRecomputeWorkingWeeks(ctx, command.RecomputeWorkingWeeksCommand{})
	if err != nil {
		if shared.IsNotFound(err) {
			j.logger.Warn("no current calendar to recompute")
			return nil
		}
		return fmt.Errorf("recompute working weeks: %w", err)
	}

	j.logger.Info("working weeks recomputed",
		"academic_year", result.AcademicYear,
		"first_semester_weeks", result.FirstSemesterWeeks,
		"second_semester_weeks", result.SecondSemesterWeeks,
	)
	return nil
}
