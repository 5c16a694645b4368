package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edualert/edualert/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND ALERTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SendAlertsJob runs the monthly alert pass: absence-threshold and
// average-below-limit alerts for every active student. Delivery happens
// through the alert event handler, this job only raises the events.
type SendAlertsJob struct {
	handler *command.MonthlyAlertsHandler
	logger  *slog.Logger
	config  SendAlertsConfig
}

// SendAlertsConfig contains configuration for the alert job.
type SendAlertsConfig struct {
	// SchoolUnitID limits the run to one school unit (empty = all).
	SchoolUnitID string

	// Timeout is the maximum duration of one run.
	Timeout time.Duration
}

// DefaultSendAlertsConfig returns sensible defaults.
func DefaultSendAlertsConfig() SendAlertsConfig {
	return SendAlertsConfig{
		Timeout: 30 * time.Minute,
	}
}

// NewSendAlertsJob creates the job.
func NewSendAlertsJob(handler *command.MonthlyAlertsHandler, logger *slog.Logger, config SendAlertsConfig) *SendAlertsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendAlertsJob{
		handler: handler,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *SendAlertsJob) Name() string {
	return "send_alerts"
}

// Description returns a human-readable description.
func (j *SendAlertsJob) Description() string {
	return "Raises monthly absence and average alerts for students crossing the thresholds"
}

// Run executes the alert pass.
func (j *SendAlertsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.handler.Handle(ctx, command.SendMonthlyAlertsCommand{
		SchoolUnitID: j.config.SchoolUnitID,
	})
	if err != nil {
		return fmt.Errorf("alert pass: %w", err)
	}

	j.logger.Info("alert pass finished",
		"students_checked", result.StudentsChecked,
		"alerts_raised", result.AlertsRaised,
	)
	return nil
}
