package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edualert/edualert/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT JOBS
// ══════════════════════════════════════════════════════════════════════════════

// SendSchoolSituationJob runs the periodic situation summary pass:
// every parent receives the current averages and absence counts of
// their children.
type SendSchoolSituationJob struct {
	handler *command.SchoolSituationHandler
	logger  *slog.Logger
	config  SendReportsConfig
}

// SendReportsConfig contains configuration shared by the report jobs.
type SendReportsConfig struct {
	// SchoolUnitID limits the run to one school unit (empty = all).
	SchoolUnitID string

	// Timeout is the maximum duration of one run.
	Timeout time.Duration
}

// DefaultSendReportsConfig returns sensible defaults.
func DefaultSendReportsConfig() SendReportsConfig {
	return SendReportsConfig{
		Timeout: 30 * time.Minute,
	}
}

// NewSendSchoolSituationJob creates the job.
func NewSendSchoolSituationJob(handler *command.SchoolSituationHandler, logger *slog.Logger, config SendReportsConfig) *SendSchoolSituationJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendSchoolSituationJob{
		handler: handler,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *SendSchoolSituationJob) Name() string {
	return "send_alerts_for_school_situation"
}

// Description returns a human-readable description.
func (j *SendSchoolSituationJob) Description() string {
	return "Sends the periodic school situation summary to the parents of every active student"
}

// Run executes the situation pass.
func (j *SendSchoolSituationJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.handler.Handle(ctx, command.SendSchoolSituationCommand{
		SchoolUnitID: j.config.SchoolUnitID,
	})
	if err != nil {
		return fmt.Errorf("situation pass: %w", err)
	}

	j.logger.Info("situation pass finished",
		"students_checked", result.StudentsChecked,
		"summaries_raised", result.SummariesRaised,
	)
	return nil
}

// SendAbsenceReportJob runs the monthly absence report pass: each
// school principal receives the founded and unfounded absence totals
// of their school.
type SendAbsenceReportJob struct {
	handler *command.AbsenceReportHandler
	logger  *slog.Logger
	config  SendReportsConfig
}

// NewSendAbsenceReportJob creates the job.
func NewSendAbsenceReportJob(handler *command.AbsenceReportHandler, logger *slog.Logger, config SendReportsConfig) *SendAbsenceReportJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendAbsenceReportJob{
		handler: handler,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *SendAbsenceReportJob) Name() string {
	return "send_monthly_absence_report"
}

// Description returns a human-readable description.
func (j *SendAbsenceReportJob) Description() string {
	return "Sends each school principal the monthly founded and unfounded absence totals"
}

// Run executes the report pass.
func (j *SendAbsenceReportJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.handler.Handle(ctx, command.SendAbsenceReportCommand{
		SchoolUnitID: j.config.SchoolUnitID,
	})
	if err != nil {
		return fmt.Errorf("report pass: %w", err)
	}

	j.logger.Info("report pass finished",
		"schools_checked", result.SchoolsChecked,
		"reports_sent", result.ReportsSent,
	)
	return nil
}
